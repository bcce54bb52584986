package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"math-worksheet-backend/internal/app"
	"math-worksheet-backend/internal/config"
	"math-worksheet-backend/internal/domain"
	"github.com/spf13/cobra"
)

// NewInspectCmd prints the persisted leaderboard and quota state.
func NewInspectCmd(configPath *string) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print persisted leaderboard and quota snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), cmd, *configPath, top)
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "number of leaderboard rows to print (defaults to leaderboard.topN)")
	return cmd
}

type inspectReport struct {
	Backend     string               `json:"backend"`
	Leaderboard []domain.PublicScore `json:"leaderboard"`
	Entries     int                  `json:"entries"`
	Quota       *domain.QuotaState   `json:"quota,omitempty"`
}

func runInspect(ctx context.Context, cmd *cobra.Command, configPath string, top int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	client := newRedisClient(cfg)
	if client != nil {
		defer client.Close()
	}
	store, closeStore, err := newSnapshotStore(cfg, client)
	if err != nil {
		return err
	}
	defer closeStore()

	board := app.NewLeaderboard(cfg.Leaderboard.Capacity, cfg.Leaderboard.TopN)
	if data := loadSnapshot(ctx, store, app.ScoresSnapshot); data != nil {
		if err := board.Load(data); err != nil {
			return err
		}
	}

	report := inspectReport{
		Backend:     cfg.Persistence.Backend,
		Leaderboard: board.Top(top),
		Entries:     board.Len(),
	}
	if data := loadSnapshot(ctx, store, app.QuotaSnapshot); data != nil {
		var state domain.QuotaState
		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("decode quota snapshot: %w", err)
		}
		report.Quota = &state
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
