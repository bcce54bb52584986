package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"math-worksheet-backend/internal/app"
	"math-worksheet-backend/internal/config"
	"math-worksheet-backend/internal/gate"
	"math-worksheet-backend/internal/persist"
	"math-worksheet-backend/internal/ratelimit"
	transport "math-worksheet-backend/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "3000"
	}

	redisClient := newRedisClient(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	bank, err := app.LoadQuestionBank(ctx, newQuestionSource(cfg))
	if err != nil {
		return err
	}

	store, closeStore, err := newSnapshotStore(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeStore()
	writer := persist.NewWriter(store,
		persist.WithSaveTimeout(config.Duration(cfg.Persistence.SaveTimeout, 5*time.Second)))

	board := app.NewLeaderboard(cfg.Leaderboard.Capacity, cfg.Leaderboard.TopN, app.WithLeaderboardSink(writer))
	if data := loadSnapshot(ctx, store, app.ScoresSnapshot); data != nil {
		if err := board.Load(data); err != nil {
			log.Printf("%v (starting empty)", err)
		}
	}
	log.Printf("leaderboard loaded with %d entries", board.Len())

	loc, err := config.Location(cfg.Quota.Timezone)
	if err != nil {
		return err
	}
	quota := app.NewQuotaTracker(cfg.Quota.Limit, app.WithQuotaLocation(loc), app.WithQuotaSink(writer))
	if data := loadSnapshot(ctx, store, app.QuotaSnapshot); data != nil {
		if err := quota.Restore(data, cfg.Quota.RestoreCount); err != nil {
			log.Printf("%v (starting fresh)", err)
		}
	}

	admissions := newAdmissionStore(cfg, redisClient)
	events := persist.NewEventQueue(admissions, 4096)
	service := app.NewScoringService(bank, board)

	limits := ratelimit.NewSet(map[string]ratelimit.Policy{
		ratelimit.ClassRead: {
			Window:      config.Duration(cfg.RateLimit.Read.Window, time.Minute),
			MaxRequests: cfg.RateLimit.Read.MaxRequests,
		},
		ratelimit.ClassWrite: {
			Window:      config.Duration(cfg.RateLimit.Write.Window, 5*time.Minute),
			MaxRequests: cfg.RateLimit.Write.MaxRequests,
		},
	}, ratelimit.WithSweepEvery(cfg.RateLimit.SweepEvery))

	router := transport.NewRouter(transport.Config{
		Gate: gate.Options{
			AllowedOrigins:     cfg.Gate.AllowedOrigins,
			AllowMissingOrigin: cfg.Gate.AllowMissingOrigin,
			RequireBrowserUA:   cfg.Gate.RequireBrowserUA,
			BotSignatures:      cfg.Gate.BotSignatures,
			BrowserMarkers:     cfg.Gate.BrowserMarkers,
		},
		TrustForwardedFor: cfg.Server.TrustForwardedFor,
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		Debug:             cfg.Server.Debug,
	}, transport.Deps{
		Service:  service,
		Stats:    app.NewStatsReporter(quota, admissions),
		Quota:    quota,
		Limits:   limits,
		Global:   ratelimit.NewGlobal(cfg.RateLimit.GlobalRPS, cfg.RateLimit.GlobalBurst),
		Recorder: events,
	})

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go writer.Run(bgCtx)
	go events.Run(bgCtx)
	limits.StartJanitor(bgCtx, config.Duration(cfg.RateLimit.JanitorEvery, 2*time.Minute))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz backend on :%s (%d questions, quota %d/day, persistence=%s)",
			finalPort, bank.Len(), cfg.Quota.Limit, cfg.Persistence.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)

	stopBackground()
	for _, done := range []<-chan struct{}{writer.Done(), events.Done()} {
		select {
		case <-done:
		case <-shutdownCtx.Done():
			log.Printf("background flush did not finish before shutdown timeout")
			return err
		}
	}
	if n := events.Dropped(); n > 0 {
		log.Printf("dropped %d admission events while the stats store was behind", n)
	}
	return err
}
