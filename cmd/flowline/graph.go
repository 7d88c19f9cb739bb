package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mehdry/flowline/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file-or-name>",
	Short: "Export the automation graph visualization",
	Long:  `Compiles the automation and outputs a Mermaid diagram (graph TD) representing its flow.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		record, err := loadRecord(cmd, args[0])
		if err != nil {
			fmt.Printf("Error loading automation: %v\n", err)
			os.Exit(1)
		}

		g, err := record.Compile()
		if err != nil {
			fmt.Printf("Error compiling automation: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(graph.GenerateMermaid(g, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
