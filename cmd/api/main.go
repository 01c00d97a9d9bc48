package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/school-system/schoolfees/internal/config"
	"github.com/school-system/schoolfees/internal/database"
	"github.com/school-system/schoolfees/internal/events"
	"github.com/school-system/schoolfees/internal/handlers"
	"github.com/school-system/schoolfees/internal/logging"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"github.com/school-system/schoolfees/internal/services"
	"go.uber.org/zap"
)

// @title School Fees API
// @version 1.0
// @description Fee ledgers, vouchers, receipts, dashboard and exam results for a school
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
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

	if len(os.Args) > 1 {
		if err := database.Migrate(db, log); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		handleCommand(cfg, log, repo, os.Args[1], os.Args[2:])
		return
	}

	if cfg.Server.Env == "development" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	svc := buildServices(cfg, log, repo)
	r := handlers.NewRouter(cfg, log, repo, svc)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}

func buildServices(cfg *config.Config, log *zap.Logger, repo repository.Repository) handlers.Services {
	broker := events.NewBroker()
	audit := services.NewAuditService(repo, log)
	settings := services.NewSettingsService(repo, cfg.Fees, audit, log)
	collector := services.NewCollector(repo, broker, audit, log)
	exams := services.NewExamService(repo, audit, log)

	return handlers.Services{
		Auth:      services.NewAuthService(repo, cfg),
		Audit:     audit,
		Settings:  settings,
		Monthly:   services.NewMonthlyFeeService(repo, settings, collector, log),
		Admission: services.NewAdmissionFeeService(repo, settings, collector, log),
		ExamFees:  services.NewExamFeeService(repo, settings, collector, log),
		Vouchers:  services.NewVoucherService(repo),
		Receipts:  services.NewReceiptService(repo, cfg.Fees),
		Dashboard: services.NewDashboardService(repo, settings, broker, log),
		Exams:     exams,
		Results:   services.NewResultService(repo, exams, audit, log),
	}
}

func handleCommand(cfg *config.Config, log *zap.Logger, repo repository.Repository, cmd string, args []string) {
	ctx := context.Background()

	switch cmd {
	case "migrate":
		log.Info("migration completed")

	case "seed-admin":
		fs := flag.NewFlagSet("seed-admin", flag.ExitOnError)
		email := fs.String("email", "admin@school.local", "super admin email")
		password := fs.String("password", "Admin@123", "super admin password")
		fs.Parse(args)
		seedAdmin(ctx, cfg, log, repo, *email, *password)

	case "seed-settings":
		fs := flag.NewFlagSet("seed-settings", flag.ExitOnError)
		year := fs.Int("year", time.Now().Year(), "fee year")
		fs.Parse(args)
		seedSettings(ctx, cfg, log, repo, *year)

	default:
		log.Fatal("unknown command", zap.String("command", cmd))
	}
}

func seedAdmin(ctx context.Context, cfg *config.Config, log *zap.Logger, repo repository.Repository, email, password string) {
	if _, err := repo.FindAdmin(ctx, email, ""); err == nil {
		log.Info("super admin already exists", zap.String("email", email))
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		log.Fatal("failed to look up admin", zap.Error(err))
	}

	err := repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.CreateAdmin(ctx, &models.Admin{Name: "Super Admin", Email: email, IsSuper: true}); err != nil {
			return err
		}
		if _, err := tx.FindAccount(ctx, email); err == nil {
			return nil
		}
		_, err := services.NewAuthService(tx, cfg).CreateAccount(ctx, email, "", password)
		return err
	})
	if err != nil {
		log.Fatal("failed to seed super admin", zap.Error(err))
	}

	log.Info("super admin seeded", zap.String("email", email))
}

// seedSettings writes default fee settings for every class that has none for year.
func seedSettings(ctx context.Context, cfg *config.Config, log *zap.Logger, repo repository.Repository, year int) {
	classes, err := repo.ListClasses(ctx)
	if err != nil {
		log.Fatal("failed to list classes", zap.Error(err))
	}

	audit := services.NewAuditService(repo, log)
	settings := services.NewSettingsService(repo, cfg.Fees, audit, log)
	system := services.Actor{AccountID: "system", Role: models.RoleSuperAdmin}

	seeded := 0
	for _, class := range classes {
		if _, err := repo.GetFeeSettings(ctx, class.Name, year); err == nil {
			continue
		}
		fs := &models.FeeSettings{
			ID:         models.FeeSettingsID(class.Name, year),
			ClassName:  class.Name,
			Year:       year,
			MonthlyFee: cfg.Fees.DefaultMonthlyFee,
		}
		if err := settings.Upsert(ctx, system, fs); err != nil {
			log.Fatal("failed to seed fee settings", zap.String("class", class.Name), zap.Error(err))
		}
		seeded++
	}
	log.Info("fee settings seeded", zap.Int("year", year), zap.Int("classes", seeded))
}
