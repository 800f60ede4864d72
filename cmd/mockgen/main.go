package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"studypace/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "steady", "Scenario to generate: steady, lapsed, unscheduled")
	outDir := flag.String("out", "./.data", "Output directory for mock study data")
	count := flag.Int("count", 5, "Number of participants to generate")
	weeks := flag.Int("weeks", 4, "Number of scheduled weeks per participant")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Participants: *count,
		Weeks:        *weeks,
		Now:          time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (%d participants, %d weeks) to %s...\n", cfg.Scenario, cfg.Participants, cfg.Weeks, *outDir)

	if err := engine.Generate(cfg, *outDir); err != nil {
		fmt.Printf("Failed to generate mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
