package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/wesm/inventoryview/internal/config"
	"github.com/wesm/inventoryview/internal/fixture"
)

func runUse(args []string) {
	fs := flag.NewFlagSet("use", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(),
			"Usage: inventoryview use <dataset.json|dataset.yaml>")
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		log.Fatal("use: exactly one dataset file is required")
	}

	cfg, err := config.LoadMinimal()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	res, err := useDataset(&cfg, fs.Arg(0))
	if err != nil {
		log.Fatalf("use: %v", err)
	}
	fmt.Printf(
		"Using %s (dataset %s, %d records, %d repaired fields)\n",
		cfg.DatasetPath, res.Dataset.Version,
		res.Dataset.Counts().Total(), len(res.Issues),
	)
}

// useDataset validates path and stores it as the default dataset.
// The config is left unchanged when the file does not parse.
func useDataset(cfg *config.Config, path string) (fixture.Result, error) {
	res, err := fixture.Load(path)
	if err != nil {
		return res, fmt.Errorf("validating %s: %w", path, err)
	}
	if err := cfg.SaveDataset(path); err != nil {
		return res, err
	}
	return res, nil
}
