package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fwdware/ward/internal/integrity"
	"github.com/fwdware/ward/internal/progress"
)

var verifyForce bool

var verifyCmd = &cobra.Command{
	Use:   "verify [pattern]",
	Short: "Re-checksum tracked files and report violations",
	Long: `Recompute checksums for tracked files whose last check is older than
the configured interval (verify.interval_days). A pattern limits the run
to matching paths; --force checks every file regardless of the interval.

Changed files have their new content captured in the object store and
their metadata updated. Missing files are reported but stay tracked so
the next run retries them; use 'ward add' to record intentional
deletions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	pattern := ""
	if len(args) == 1 {
		pattern = args[0]
	}

	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	spin := progress.Start("verifying")
	res, err := integrity.New(sess).Verify(pattern, verifyForce)
	if err != nil {
		spin.Stop("verify failed")
		return err
	}
	spin.Stop(fmt.Sprintf("%d checked, %d ok", res.Checked, res.OK))

	for _, v := range res.Violations {
		switch v.Kind {
		case integrity.ViolationModified:
			fmt.Printf("  modified  %s\n    expected %s\n    actual   %s\n", v.Path, v.Expected, v.Actual)
		case integrity.ViolationMissing:
			fmt.Printf("  missing   %s\n", v.Path)
		case integrity.ViolationStoreMissing:
			fmt.Printf("  corrupt   %s (object %s not in store)\n", v.Path, v.Expected)
		default:
			fmt.Printf("  unreadable %s\n", v.Path)
		}
	}

	return res.Err()
}

func init() {
	verifyCmd.Flags().BoolVarP(&verifyForce, "force", "f", false, "verify all files regardless of interval")
	rootCmd.AddCommand(verifyCmd)
}
