package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/wichananm65/jewel-shop-backend/internal/config"
	"github.com/wichananm65/jewel-shop-backend/internal/database"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|redo|reset")
	flag.Parse()

	log := logger.New(logger.Options{ServiceName: "jewel-shop-migrate", Format: "console"})
	ctx := log.WithField(context.Background(), "cmd", *cmd)

	cfg, err := config.Load()
	if err != nil {
		log.Error(ctx, "config load failed", err)
		os.Exit(1)
	}

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		log.Error(ctx, "database connection failed", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, *cmd, flag.Args()...); err != nil {
		log.Error(ctx, "migration failed", err)
		db.Close()
		os.Exit(1)
	}
	log.Info(ctx, "migration finished")
}
