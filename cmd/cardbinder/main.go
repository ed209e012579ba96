package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cardbinder/cardbinder/internal/api"
	"github.com/cardbinder/cardbinder/internal/auth"
	"github.com/cardbinder/cardbinder/internal/cards"
	"github.com/cardbinder/cardbinder/internal/collection"
	"github.com/cardbinder/cardbinder/internal/config"
	"github.com/cardbinder/cardbinder/internal/events"
	"github.com/cardbinder/cardbinder/internal/scanner"
	"github.com/cardbinder/cardbinder/internal/storage"
	"github.com/cardbinder/cardbinder/internal/storage/remote"
	"github.com/cardbinder/cardbinder/internal/vision"
)

var (
	configPath = flag.String("config", "", "Path to config file (default: ~/.cardbinder/config.toml)")
	dbPath     = flag.String("db-path", "", "Path to local database (overrides config)")
	apiPort    = flag.Int("api-port", 0, "API server port (overrides config)")
	scanDir    = flag.String("scan-dir", "", "Drop directory for card photos (overrides config)")
	debugMode  = flag.Bool("debug", false, "Enable verbose debug logging")
)

func loadConfig() *config.Config {
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *apiPort != 0 {
		cfg.API.Port = *apiPort
	}
	if *scanDir != "" {
		cfg.Scanner.Dir = *scanDir
		cfg.Scanner.Enabled = true
	}
	if *debugMode {
		cfg.App.DebugMode = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	return cfg
}

func openLocalDB(cfg *config.Config) *storage.DB {
	path, err := cfg.DatabasePath()
	if err != nil {
		log.Fatalf("Error resolving database path: %v", err)
	}

	dbConfig := storage.DefaultConfig(path)
	dbConfig.JournalMode = cfg.Storage.JournalMode
	dbConfig.AutoMigrate = true
	if timeout, err := cfg.GetBusyTimeout(); err == nil {
		dbConfig.BusyTimeout = timeout
	}

	db, err := storage.Open(dbConfig)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	return db
}

func main() {
	flag.Parse()

	cfg := loadConfig()

	db := openLocalDB(cfg)
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()
	local := storage.NewLocalBackend(db)

	// The remote pool is optional; without it, signed-in sessions fall
	// back to local storage.
	var pool *remote.Pool
	if cfg.Remote.DSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		p, err := remote.Connect(ctx, cfg.Remote)
		cancel()
		if err != nil {
			log.Printf("[Main] remote store unavailable, using local storage: %v", err)
		} else {
			pool = p
			defer pool.Close()
		}
	}

	selector := func(userID string) storage.Backend {
		if userID != "" && pool != nil {
			return pool.NewBackend(userID)
		}
		return local
	}

	dispatcher := events.NewDispatcher()
	manager := collection.NewManager(selector, dispatcher)

	// Auth is optional too; unconfigured deployments run guest-only.
	var provider *auth.Provider
	if cfg.Auth.BaseURL != "" {
		configDir, err := config.Dir()
		if err != nil {
			log.Fatalf("Error resolving config directory: %v", err)
		}
		sessionStore := auth.NewFileSessionStore(
			filepath.Join(configDir, "session.bin"),
			cfg.Auth.AnonKey,
		)
		provider = auth.NewProvider(cfg.Auth, sessionStore)
		provider.OnChange(func(identity *auth.Identity) {
			userID := ""
			if identity != nil {
				userID = identity.UserID
			}
			manager.Initialize(context.Background(), userID)
		})
		if err := provider.Restore(); err != nil {
			log.Printf("[Main] failed to restore session: %v", err)
		}
	}

	// Load initial state for whoever is signed in.
	startUserID := ""
	if provider != nil {
		if identity := provider.Current(); identity != nil {
			startUserID = identity.UserID
		}
	}
	manager.Initialize(context.Background(), startUserID)

	finder := cards.NewScryfallClient()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var scan *scanner.Scanner
	if cfg.Scanner.Enabled {
		if cfg.Vision.APIKey == "" {
			log.Println("[Main] scanner enabled but no vision API key configured, skipping")
		} else {
			identifier := vision.NewClient(&cfg.Vision)
			s, err := scanner.New(&cfg.Scanner, identifier, finder, manager, dispatcher)
			if err != nil {
				log.Fatalf("Error creating scanner: %v", err)
			}
			scan = s
			go func() {
				if err := scan.Start(ctx); err != nil && err != context.Canceled {
					log.Printf("[Main] scanner stopped: %v", err)
				}
			}()
		}
	}

	var server *api.Server
	if cfg.API.Enabled {
		services := &api.Services{
			Manager: manager,
			Finder:  finder,
			Auth:    provider,
		}
		if scan != nil {
			services.Scanner = scan
		}
		server = api.NewServer(&api.Config{
			Host:           cfg.API.Host,
			Port:           cfg.API.Port,
			AllowedOrigins: cfg.API.AllowedOrigins,
		}, services)
		dispatcher.Register(server.NewEventObserver())
		if err := server.Start(); err != nil {
			log.Fatalf("Error starting API server: %v", err)
		}
	}

	// Wait for shutdown signal.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[Main] shutting down...")
	cancel()
	if scan != nil {
		scan.Stop()
	}
	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down API server: %v", err)
		}
		shutdownCancel()
	}

	// Let pending best-effort writes land before closing the stores.
	manager.Wait()
	log.Println("[Main] shutdown complete")
}
