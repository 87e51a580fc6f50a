package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/natefinch/lumberjack.v2"

	"dokomiru/api"
	"dokomiru/config"
	"dokomiru/handlers"
	"dokomiru/services/chat"
	"dokomiru/services/enrich"
	"dokomiru/services/extract"
	"dokomiru/services/metadata"
	"dokomiru/services/resolve"
	"dokomiru/services/websearch"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🎬 dokomiru backend starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("DOKOMIRU_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	if settings.Metadata.TMDBAPIKey == "" {
		log.Printf("warning: TMDB api key not configured; searches will fail until it is set")
	}

	// Construct the resolution pipeline
	metadataService := metadata.NewService(settings.Metadata.TMDBAPIKey, nil)
	searchClient := websearch.NewClient(settings.Search.APIKey, settings.Search.EngineID, settings.Search.TrustedDomains, nil)
	extractService := extract.NewService(settings.Extraction.APIKey, settings.Extraction.BaseURL, settings.Extraction.Model, nil)
	resolver := resolve.NewResolver(metadataService, searchClient, extractService, settings.Metadata.Locales)
	enrichService := enrich.NewService(metadataService, settings.Metadata.Region)

	// Connect the chat document store when configured
	var mongoClient *mongo.Client
	chatHandler := handlers.NewChatHandler(nil)
	if settings.Chat.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoClient, err = mongo.Connect(connectCtx, options.Client().ApplyURI(settings.Chat.MongoURI))
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to document store: %v", err)
		}
		chatHandler = handlers.NewChatHandler(chat.NewStore(mongoClient, settings.Chat.Database))
		log.Printf("chat document store connected (db=%s)", settings.Chat.Database)
	} else {
		log.Printf("warning: no document store configured; chat endpoints are disabled")
	}

	searchHandler := handlers.NewSearchHandler(resolver, enrichService, cfgManager)
	translateHandler := handlers.NewTranslateHandler(extractService)

	r := mux.NewRouter()
	api.Register(r, searchHandler, translateHandler, chatHandler)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			log.Printf("Document store disconnect error: %v", err)
		}
	}

	log.Println("✅ Shutdown complete")
}
