package main

import (
	"fmt"
	"log"
	"os"

	"margin-backtest/internal/api/handlers"
	"margin-backtest/internal/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	dbPath := os.Getenv("BACKTEST_DB")
	if dbPath == "" {
		dbPath = "taiwan_stock.db"
	}
	if _, err := os.Stat(dbPath); err != nil {
		log.Printf("Database %s not found yet (%v); requests may override it", dbPath, err)
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(middleware.CORS())
	router.Use(middleware.ErrorHandler())

	backtestHandler := handlers.NewBacktestHandler(dbPath)
	scanHandler := handlers.NewScanHandler(dbPath)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/backtest", backtestHandler.RunBacktest)
		api.GET("/backtest/:id/ledger", backtestHandler.GetLedger)
		api.GET("/backtest/:id/trades", backtestHandler.GetTrades)
		api.GET("/scan", scanHandler.Scan)
	}

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s (db=%s)", addr, dbPath)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
