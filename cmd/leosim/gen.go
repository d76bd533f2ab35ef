package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/leo-orbit-sim/tle"
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "synthesize element sets for the fleet and print the encoded lines",
	RunE:  runGen,
}

func init() {
	rootCmd.AddCommand(genCmd)
}

func runGen(cmd *cobra.Command, args []string) error {
	cfg := engineConfig()
	synth := tle.NewSynthesizer(cfg.Seed)
	now := time.Now().UTC()

	for _, sat := range cfg.Satellites {
		elems, err := synth.GenerateFor(sat, now)
		if err != nil {
			return fmt.Errorf("generate %s: %w", sat.Name, err)
		}
		line1, line2, err := tle.Encode(elems)
		if err != nil {
			return fmt.Errorf("encode %s: %w", sat.Name, err)
		}
		fmt.Printf("%s\n%s\n%s\n\n", sat.Name, line1, line2)
	}
	return nil
}
