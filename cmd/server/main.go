package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/leave-management/internal/config"
	"github.com/iliyamo/leave-management/internal/database"
	"github.com/iliyamo/leave-management/internal/handler"
	"github.com/iliyamo/leave-management/internal/middleware"
	"github.com/iliyamo/leave-management/internal/queue"
	"github.com/iliyamo/leave-management/internal/repository"
	"github.com/iliyamo/leave-management/internal/repository/memory"
	"github.com/iliyamo/leave-management/internal/router"
	"github.com/iliyamo/leave-management/internal/service"
)

// dataStore is what the services and middleware need from a store.
type dataStore interface {
	service.LeaveStore
	service.UserStore
	service.StatsStore
	middleware.Pinger
}

func main() {
	cfg := config.Load()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))

	store, db, dbName := openStore(cfg)
	if db != nil {
		defer db.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	employees := service.NewEmployeeService(store, cfg.BcryptCost, service.TokenConfig{
		Secret:         cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
	})
	if created, err := employees.SeedAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Department); err != nil {
		log.Fatalf("seed admin: %v", err)
	} else if created {
		log.Printf("seeded admin account %s", cfg.Admin.Email)
	}

	// Redis is optional; nil disables caching and rate limiting.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	sinks := queue.Fanout{}
	if inv := middleware.NewCacheInvalidator(cacheCfg, rdb); inv != nil {
		sinks = append(sinks, inv)
	}
	if cfg.AMQPEnabled {
		sinks = append(sinks, queue.NewPublisher(cfg.AMQPURL))
		go func() {
			if err := queue.StartLeaveConsumer(ctx, cfg.AMQPURL, cfg.LeaveLogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("leave-consumer: stopped: %v", err)
			}
		}()
	}
	leaves := service.NewLeaveService(store, sinks, cfg.Location)

	router.Setup(e)
	router.RegisterRoutes(e, router.Deps{
		Auth:         handler.NewAuthHandler(employees),
		Employees:    handler.NewEmployeeHandler(employees),
		Leaves:       handler.NewLeaveHandler(leaves),
		Health:       handler.NewHealthHandler(service.NewHealthService(store, dbName)),
		Store:        store,
		JWTSecret:    cfg.JWTSecret,
		AuthEnforced: cfg.AuthEnforced,
		RateLimit:    middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:        middleware.NewRedisCache(cacheCfg, rdb),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s, store=%s, auth_enforced=%t)", addr, cfg.Env, cfg.DB.Driver, cfg.AuthEnforced)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	log.Println("server stopped")
}

// openStore returns the configured store, the SQL handle to close (nil for
// the memory store) and the database name reported by the health endpoint.
func openStore(cfg config.Config) (dataStore, *sql.DB, string) {
	if cfg.DB.Driver == config.DriverMemory {
		log.Println("using in-memory store; data is lost on exit")
		return memory.New(), nil, "memory"
	}
	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	return repository.NewStore(db), db, cfg.DB.Name
}

func logLevel(s string) glog.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return glog.DEBUG
	case "warn":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	}
	return glog.INFO
}
