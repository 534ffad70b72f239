package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fwdware/ward/internal/config"
	"github.com/fwdware/ward/internal/repo"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a ward repository",
	Long: `Create the .ward control directory with an empty metadata database,
a default config.yaml and a default ignore file. Re-running init on an
existing repository is safe; it only sweeps leftover temp files.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", dir, err)
	}
	if err := repo.Init(abs); err != nil {
		return err
	}

	fmt.Printf("Initialized ward repository in %s\n", config.ControlDir(abs))
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
