package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AnirudhAnand3/liquid-gold/internal/auth"
	"github.com/AnirudhAnand3/liquid-gold/internal/config"
	"github.com/AnirudhAnand3/liquid-gold/internal/handlers"
	"github.com/AnirudhAnand3/liquid-gold/internal/logging"
	"github.com/AnirudhAnand3/liquid-gold/internal/store"
	"github.com/AnirudhAnand3/liquid-gold/internal/wallet"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := store.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	engine := wallet.New(db, logger)
	tokens := auth.New(cfg.JWTSecret, cfg.TokenTTL)

	r := gin.Default()

	// health
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "liquid gold is flowing"})
	})

	api := handlers.NewAPI(engine, tokens)
	api.RegisterRoutes(r)

	// periodic sweep for due scheduled payments
	go func() {
		ticker := time.NewTicker(cfg.SchedulerInterval)
		defer ticker.Stop()
		for range ticker.C {
			ran, err := engine.RunDuePayments(context.Background(), time.Now())
			if err != nil {
				logger.Error("scheduled payment sweep failed", "err", err)
				continue
			}
			if ran > 0 {
				logger.Info("scheduled payments executed", "count", ran)
			}
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("listening", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
