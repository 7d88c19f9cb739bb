package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var automationsCmd = &cobra.Command{
	Use:   "automations",
	Short: "Manage stored automations",
	Long:  `List, inspect, and remove automation records stored in the database.`,
}

var automationsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored automations",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer store.Close()

		names, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing automations: %v\n", err)
			os.Exit(1)
		}

		if len(names) == 0 {
			fmt.Println("No automations found.")
			return
		}

		fmt.Println("Automations:")
		for _, name := range names {
			fmt.Println("- " + name)
		}
	},
}

var automationsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a stored automation record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer store.Close()

		record, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading automation '%s': %v\n", args[0], err)
			os.Exit(1)
		}

		data, err := record.MarshalJSONIndent()
		if err != nil {
			fmt.Printf("Error marshaling record: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(data))
	},
}

var automationsRmCmd = &cobra.Command{
	Use:   "rm <name>...",
	Short: "Remove one or more automations",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer store.Close()

		hasError := false
		for _, name := range args {
			if err := store.Delete(cmd.Context(), name); err != nil {
				fmt.Printf("Error removing '%s': %v\n", name, err)
				hasError = true
			} else {
				fmt.Printf("Removed automation '%s'\n", name)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

var pushCmd = &cobra.Command{
	Use:   "push <file>",
	Short: "Store an automation from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		record, err := parseFile(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		if _, err := record.Compile(); err != nil {
			fmt.Printf("Automation does not compile: %v\n", err)
			os.Exit(1)
		}

		store, err := openStore(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer store.Close()

		if err := store.Put(cmd.Context(), record); err != nil {
			fmt.Printf("Error storing automation: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Stored automation '%s'\n", record.Name)
	},
}

func init() {
	rootCmd.AddCommand(automationsCmd)
	automationsCmd.AddCommand(automationsLsCmd)
	automationsCmd.AddCommand(automationsShowCmd)
	automationsCmd.AddCommand(automationsRmCmd)
	rootCmd.AddCommand(pushCmd)
}
