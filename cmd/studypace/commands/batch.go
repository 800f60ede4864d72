package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"studypace/internal/schedule"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	batchKind        string
	batchAsOf        string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Compute adherence reports for every participant in the data directory",
	Long: `Computes a report per participant bundle and prints one JSON object mapping
participant ids to reports. Each participant gets a fresh adherence state,
so the computations are safe to run concurrently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		if batchAsOf != "" {
			parsed, err := time.Parse(time.RFC3339, batchAsOf)
			if err != nil {
				return fmt.Errorf("invalid --as-of timestamp %q: %w", batchAsOf, err)
			}
			now = parsed
		}

		store := schedule.NewStore(cfg.DataPath)
		ids, err := store.ListParticipants()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("no participant bundles found under %s", cfg.DataPath)
		}

		var mu sync.Mutex
		reports := make(map[string]interface{}, len(ids))

		var g errgroup.Group
		g.SetLimit(batchConcurrency)
		for _, id := range ids {
			id := id
			g.Go(func() error {
				report, err := computeReport(cfg.DataPath, id, batchKind, now)
				if err != nil {
					return fmt.Errorf("participant %s: %w", id, err)
				}
				mu.Lock()
				reports[id] = report
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		log.Info().Int("participants", len(reports)).Str("kind", batchKind).Msg("Batch report complete")

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchKind, "kind", "study", "report kind: study or events")
	batchCmd.Flags().StringVar(&batchAsOf, "as-of", "", "evaluation instant (RFC 3339), default now")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "max concurrent participants")
	rootCmd.AddCommand(batchCmd)
}
