package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowline",
	Short: "Flowline builds and previews messaging automations",
	Long:  `Flowline lets you store, validate and preview customer-messaging automations: graphs of triggers, messages, conditions and delays.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("db", "flowline.db", "Path to the automation database")
}
