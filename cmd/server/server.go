package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/linkak/linkak/cmd"
	"github.com/linkak/linkak/internal/api"
	"github.com/linkak/linkak/internal/config"
	"github.com/linkak/linkak/internal/geo"
	"github.com/linkak/linkak/internal/middleware"
	"github.com/linkak/linkak/internal/models"
	"github.com/linkak/linkak/internal/monitor"
	"github.com/linkak/linkak/internal/ratelimit"
	"github.com/linkak/linkak/internal/repository"
	"github.com/linkak/linkak/internal/security"
	"github.com/linkak/linkak/internal/services"
	"github.com/linkak/linkak/internal/workers"
)

// RunServerCmd starts the HTTP server with the admission gate, the click
// workers and the target-URL monitor.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Start the link-shortening API server and its background workers.",
	Long: `This command initializes the database, wires the security gate with its
counting backend, starts the asynchronous click workers and the target-URL
monitor, then serves HTTP until interrupted.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.AutoMigrate(&models.Link{}, &models.Click{}); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}

		linkRepo := repository.NewLinkRepository(db)
		clickRepo := repository.NewClickRepository(db)
		log.Println("Repositories initialized.")

		linkService := services.NewLinkService(linkRepo)
		analyticsService := services.NewAnalyticsService(linkService, clickRepo)
		log.Println("Services initialized.")

		// Counting backend: Redis when configured and reachable, otherwise
		// the in-process fallbacks. An unreachable Redis degrades, it never
		// prevents startup.
		var counterStore ratelimit.CounterStore
		var eventSink security.EventSink
		if rdb := connectRedis(cfg); rdb != nil {
			counterStore = ratelimit.NewRedisStore(rdb)
			eventSink = security.NewRedisEventSink(rdb)
			log.Printf("Rate limiting and security events backed by Redis at %s.", cfg.Redis.Addr)
		} else {
			counterStore = ratelimit.NewMemoryStore()
			eventSink = security.LogEventSink{}
			log.Println("No Redis backend; using in-process rate limiting (single-instance only).")
		}
		gate := middleware.NewGate(
			ratelimit.NewLimiter(counterStore),
			eventSink,
			time.Duration(cfg.Security.SlowRequestSeconds)*time.Second,
		)

		clickEventsChan := make(chan models.ClickEvent, cfg.Analytics.BufferSize)
		api.ClickEventsChannel = clickEventsChan
		workers.StartClickWorkers(cfg.Analytics.WorkerCount, clickEventsChan, clickRepo, linkRepo)
		log.Printf("Click events channel initialized with a buffer of %d; %d worker(s) started.",
			cfg.Analytics.BufferSize, cfg.Analytics.WorkerCount)

		monitorInterval := time.Duration(cfg.Monitor.IntervalMinutes) * time.Minute
		urlMonitor := monitor.NewUrlMonitor(linkRepo, monitorInterval)
		go urlMonitor.Start()
		log.Printf("Target-URL monitor started with an interval of %v.", monitorInterval)

		router := gin.Default()
		router.Use(middleware.SecurityHeaders())
		router.Use(gate.Handler())
		api.SetupRoutes(router, linkService, analyticsService, geo.NoopLocator{},
			cfg.Server.BaseURL, cfg.Analytics.BufferSize)
		log.Println("API routes configured.")

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    serverAddr,
			Handler: router,
		}

		go func() {
			log.Printf("Starting server on %s", serverAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutdown signal received. Stopping server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}

		// Close the channel so the click workers drain and exit.
		close(clickEventsChan)
		time.Sleep(time.Second)

		log.Println("Server stopped cleanly.")
	},
}

// connectRedis returns a verified client, or nil when Redis is not
// configured or not reachable.
func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available at %s: %v", cfg.Redis.Addr, err)
		return nil
	}
	return rdb
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
