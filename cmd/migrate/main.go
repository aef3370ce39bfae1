package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/config"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/logger"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/persistence"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithGormLogger(logger.NewGormLogger(log, logger.GormLevel(logLevel), 0)),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("database", cfg.Database.DBName),
	)

	switch command {
	case "up":
		if err := persistence.NewGormRunRepository(db.DB).AutoMigrate(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}
		log.Info("Schema is up to date")

	case "status":
		table := models.ReconciliationRunModel{}.TableName()
		if !db.DB.Migrator().HasTable(table) {
			log.Info("Table missing, run 'migrate up'", zap.String("table", table))
			return
		}
		var count int64
		if err := db.DB.Table(table).Count(&count).Error; err != nil {
			log.Fatal("Failed to count runs", zap.Error(err))
		}
		log.Info("Table present", zap.String("table", table), zap.Int64("runs", count))

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: migrate [flags] <command>

Commands:
  up       Create or update the reconciliation run history table
  status   Report whether the table exists and how many runs it holds

Flags:
  -log-level string   Log level (debug, info, warn, error) (default "info")

Configuration is read from config.toml and SYNC_ prefixed environment variables.`)
}
