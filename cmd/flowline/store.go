package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mehdry/flowline/pkg/adapters/sqlite"
	"github.com/mehdry/flowline/pkg/schema"
)

func openStore(cmd *cobra.Command) (*sqlite.Store, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open automation database %q: %w", dbPath, err)
	}
	return store, nil
}

// loadRecord resolves an automation argument: a path to a YAML/JSON file, or
// the name of a record in the database.
func loadRecord(cmd *cobra.Command, arg string) (*schema.Automation, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return parseFile(arg)
	}

	store, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.Get(cmd.Context(), arg)
}

func parseFile(path string) (*schema.Automation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var record *schema.Automation
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		record, err = schema.ParseJSON(data)
	default:
		record, err = schema.ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}

	if record.Name == "" {
		record.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return record, nil
}
