package main

import (
	"flag"
	"fmt"
	"os"

	"inventory-api/internal/config"
	"inventory-api/internal/database"
	"inventory-api/internal/logger"

	"go.uber.org/zap"
)

const usage = `usage: migrate <command>

commands:
  up      apply all pending migrations
  down    roll back the most recent migration
  status  print the state of every migration
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer dbService.Close()

	command := flag.Arg(0)
	switch command {
	case "up":
		err = database.RunMigrations(dbService.DB(), log)
	case "down":
		err = database.RollbackMigration(dbService.DB(), log)
	case "status":
		err = database.GetMigrationStatus(dbService.DB(), log)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Error("Migration command failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}

	log.Info("Migration command finished", zap.String("command", command))
}
