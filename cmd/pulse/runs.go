package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pulse-xyz/go-pulse/results"
)

// archiveRun appends one run document to the SQLite archive.
func archiveRun(dbPath string, res *results.Results) error {
	ctx := context.Background()
	store, err := results.OpenStore(ctx, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(ctx, res)
}

func runs(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dbPath := fs.String("db", "pulse_runs.db", "SQLite archive path")
	show := fs.String("show", "", "Print the full document of one run ID")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pulse runs [options]

List or inspect archived runs.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := results.OpenStore(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if *show != "" {
		res, ok, err := store.Get(ctx, *show)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("run %s not found", *show)
		}
		doc, err := results.ToJSON(res)
		if err != nil {
			return err
		}
		fmt.Println(doc)
		return nil
	}

	infos, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%s  %s  %-7s  %s  %.2g m\n",
			info.RunID, info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Status, info.Gas, info.Length)
	}
	return nil
}
