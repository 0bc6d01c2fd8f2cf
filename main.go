package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/table-service/config"
	"github.com/yeremiapane/table-service/database"
	"github.com/yeremiapane/table-service/kds"
	"github.com/yeremiapane/table-service/router"
	"github.com/yeremiapane/table-service/services"
	"github.com/yeremiapane/table-service/utils"
)

func main() {
	utils.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	hub := kds.NewHub()
	svc := services.New(db, cfg.Rules, hub)

	if cfg.SeedFile != "" {
		seed, err := database.LoadSeed(cfg.SeedFile)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to load seed file: %v", err)
		}
		if err := svc.Admin.ApplySeed(context.Background(), seed); err != nil {
			utils.ErrorLogger.Fatalf("Failed to apply seed: %v", err)
		}
		utils.InfoLogger.Printf("Seed %s applied", cfg.SeedFile)
	}

	r := router.NewEngine(svc, cfg, hub)
	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}
