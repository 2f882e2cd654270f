package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfwise/shelfwise/internal/store"
	"github.com/shelfwise/shelfwise/internal/types"
)

var seedDBPath string

var seedCmd = &cobra.Command{
	Use:   "seed <books.json>",
	Short: "Load a catalog file into the database",
	Long:  "Reads a JSON array of books and inserts them into the catalog without running the server.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedDBPath, "db", "data/shelfwise.db",
		"Database path (overrides SHELFWISE_DB_PATH)")

	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	dbPath := seedDBPath
	if !cmd.Flags().Changed("db") {
		if v := os.Getenv("SHELFWISE_DB_PATH"); v != "" {
			dbPath = v
		}
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read catalog file: %w", err)
	}

	var books []types.NewBook
	if err := json.Unmarshal(data, &books); err != nil {
		return fmt.Errorf("parse catalog file: %w", err)
	}

	db, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	var inserted int
	for _, b := range books {
		if _, err := db.CreateBook(ctx, b); err != nil {
			return fmt.Errorf("insert %q: %w", b.Title, err)
		}
		inserted++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d books into %s\n", inserted, dbPath)
	return nil
}
