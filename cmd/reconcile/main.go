// Command reconcile compares the stored monthly totals of every student with
// the sum of their month entries and optionally rewrites the drifted totals.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/school-system/schoolfees/internal/config"
	"github.com/school-system/schoolfees/internal/database"
	"github.com/school-system/schoolfees/internal/events"
	"github.com/school-system/schoolfees/internal/logging"
	"github.com/school-system/schoolfees/internal/repository"
	"github.com/school-system/schoolfees/internal/services"
	"go.uber.org/zap"
)

func main() {
	year := flag.Int("year", time.Now().Year(), "fee year to check")
	fix := flag.Bool("fix", false, "rewrite drifted totals from month entries")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	repo := repository.NewGorm(db)

	audit := services.NewAuditService(repo, log)
	settings := services.NewSettingsService(repo, cfg.Fees, audit, log)
	collector := services.NewCollector(repo, events.NewBroker(), audit, log)
	monthly := services.NewMonthlyFeeService(repo, settings, collector, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	drifted, err := monthly.Reconcile(ctx, *year, *fix)
	if err != nil {
		log.Fatal("reconcile failed", zap.Error(err))
	}
	log.Info("reconcile finished",
		zap.Int("year", *year),
		zap.Int("drifted", len(drifted)),
		zap.Bool("fixed", *fix))
	if len(drifted) > 0 && !*fix {
		os.Exit(2)
	}
}
