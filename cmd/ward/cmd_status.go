package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fwdware/ward/internal/integrity"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize repository health",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	st, err := integrity.New(sess).Status()
	if err != nil {
		return err
	}

	fmt.Printf("Repository:    %s\n", sess.Root)
	fmt.Printf("Tracked files: %d\n", st.Tracked)
	if st.Verified {
		fmt.Printf("Last verify:   %s ago\n", st.LastVerifyAge.Round(time.Minute))
	} else {
		fmt.Println("Last verify:   never")
	}
	if st.PendingViolations > 0 {
		fmt.Printf("Pending:       %d file(s) due for verification\n", st.PendingViolations)
	} else {
		fmt.Println("Pending:       nothing due")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
