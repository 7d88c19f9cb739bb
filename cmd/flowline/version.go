package main

import (
	"fmt"
	"strings"

	"github.com/mehdry/flowline"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flowline",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flowline version %s\n", strings.TrimSpace(flowline.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
