/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/aquasecurity/table"
	"github.com/gmaffy/nanoflow/utils"
	"github.com/spf13/cobra"
)

var checkDepsCmd = &cobra.Command{
	Use:   "checkDeps",
	Short: "Check that every configured tool is on PATH",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := utils.LoadRunConfig(cfgFile, cmd.Flags())
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}

		fmt.Printf("Checking dependencies ...\n\n")
		names := cfg.ToolNames()
		found, err := utils.CheckDeps(names...)

		t := table.New(os.Stdout)
		t.SetHeaders("Tool", "Path")
		for _, name := range names {
			path, ok := found[name]
			if !ok {
				path = "MISSING"
			}
			t.AddRow(name, path)
		}
		t.Render()

		if err != nil {
			log.Fatalf("Dependency check failed: %v", err)
		}
		fmt.Printf("\nDependencies OK\n")
	},
}

func init() {
	rootCmd.AddCommand(checkDepsCmd)
}
