package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mehdry/flowline/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file-or-name>",
	Short: "Check an automation for consistency",
	Long:  `Compiles the automation and reports dead buttons, unreachable steps and misconfigured step settings.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		record, err := loadRecord(cmd, args[0])
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		g, err := record.Compile()
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		issues := validator.ValidateGraph(g)
		blocking := 0
		for _, issue := range issues {
			fmt.Println(issue)
			if !issue.Warning {
				blocking++
			}
		}

		if blocking > 0 {
			fmt.Printf("Validation failed: %d blocking issue(s)\n", blocking)
			os.Exit(1)
		}
		fmt.Println("Automation is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
