package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"pnodemon/config"
	"pnodemon/handlers"
	"pnodemon/middleware"
	"pnodemon/services"
	"pnodemon/utils"
)

func main() {
	// 1. Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("=== Configuration ===")
	log.Printf("Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Seed nodes: %d", len(cfg.Server.SeedNodes))
	log.Printf("Redis: %s", cfg.Redis.Address)
	log.Printf("MongoDB: %s", cfg.MongoDB.Database)

	// 2. Core Services
	geo := utils.NewGeoResolver(cfg.GeoIP.DBPath)
	defer geo.Close()

	store, err := services.NewMongoStore(cfg)
	if err != nil {
		log.Printf("MongoDB connection failed: %v", err)
		log.Println("History and sync persistence will be disabled")
	}
	defer store.Close()

	prpc := services.NewPRPCClient(cfg)
	registry := services.NewRegistry(cfg, prpc)
	fetcher := services.NewStatsFetcher(prpc)
	cache := services.NewCache(cfg)

	monitor := services.NewMonitor(cfg, registry, fetcher, cache, geo)
	syncer := services.NewSyncer(cfg, registry, fetcher, store)
	alerts := services.NewAlertService(cfg, monitor)

	// 3. Background Services
	log.Println("=== Starting Services ===")

	syncer.Start()
	log.Println("Sync loop started")

	alerts.Start()
	if alerts.Enabled() {
		log.Println("Alert loop started")
	}

	// 4. Web Server
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.LoggerMiddleware())
	e.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Recovered from panic: %v", r)
					c.Error(fmt.Errorf("internal server error"))
				}
			}()
			return next(c)
		}
	})

	// 5. Handlers
	h := handlers.NewHandler(cfg, cache, monitor, syncer, store, prpc)

	// 6. Routes
	e.GET("/health", h.GetHealth)
	e.GET("/cache/status", h.GetCacheStatus)
	e.POST("/cache/clear", h.ClearCache)

	api := e.Group("/api")
	api.GET("/status", h.GetStatus)
	api.GET("/nodes", h.GetNodes)
	api.GET("/nodes/:address", h.GetNode)
	api.GET("/analytics", h.GetAnalytics)
	api.GET("/topology", h.GetTopology)
	api.GET("/history/network", h.GetNetworkHistory)
	api.POST("/rpc", h.ProxyRPC)
	api.POST("/sync", h.TriggerSync)

	// 7. Start Server with Graceful Shutdown
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		log.Printf("Server running on http://%s", serverAddr)

		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("shutting down the server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Graceful shutdown initiated...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Stopping services...")
	alerts.Stop()
	syncer.Stop()
	if closer, ok := cache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	log.Println("All services stopped")

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	log.Println("Server exited cleanly")
}
