package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"bedrockchat/internal/capabilities"
	"bedrockchat/internal/config"
	"bedrockchat/internal/handler"
	"bedrockchat/internal/imagestore"
	"bedrockchat/internal/middleware"
	boltRepo "bedrockchat/internal/repository/bolt"
	sqliteRepo "bedrockchat/internal/repository/sqlite"
	chatSvc "bedrockchat/internal/service/chat"
	"bedrockchat/internal/service/chat/providers/lorem"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	logOut := io.Writer(os.Stdout)
	if logFile, err := config.SetupLogFile(filepath.Join(cfg.DataDir, "logs"), 5); err == nil {
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	} else {
		fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
	)

	// Storage
	archive, err := sqliteRepo.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open conversation archive: %v", err)
	}
	defer archive.Close()

	settings, err := boltRepo.Open(cfg.SettingsPath)
	if err != nil {
		log.Fatalf("Failed to open settings store: %v", err)
	}
	defer settings.Close()

	images, err := imagestore.New(cfg.ImageDir)
	if err != nil {
		log.Fatalf("Failed to create image store: %v", err)
	}

	// Model capability registry
	registry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}
	logger.Info("capability registry initialized")

	// Chat core
	store := chatSvc.NewStore(archive, logger)
	broadcaster := handler.NewBroadcaster(logger)
	store.Subscribe(broadcaster)

	// TODO: swap the lorem invoker for the Bedrock runtime transport once
	// credential handling lands.
	invoker := lorem.NewInvoker(registry, 50*time.Millisecond)

	titles := chatSvc.NewTitleUpdater(invoker, registry, store, archive, cfg.TitleModel, logger)
	orchestrator := chatSvc.NewOrchestrator(store, registry, invoker, images, settings, archive, titles, logger)
	conversations := chatSvc.NewConversationService(store, archive, settings)

	// Handlers
	chatHandler := handler.NewChatHandler(conversations, orchestrator, logger)
	eventsHandler := handler.NewEventsHandler(broadcaster, store, logger)
	modelsHandler := handler.NewModelsHandler(registry)

	logger.Info("services initialized")

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Conversation routes
	mux.HandleFunc("POST /api/conversations", chatHandler.CreateConversation)
	mux.HandleFunc("GET /api/conversations", chatHandler.ListConversations)
	mux.HandleFunc("GET /api/conversations/{id}", chatHandler.GetConversation)
	mux.HandleFunc("DELETE /api/conversations/{id}", chatHandler.DeleteConversation)

	// Send and cancel
	mux.HandleFunc("POST /api/conversations/{id}/messages", chatHandler.Send)
	mux.HandleFunc("POST /api/conversations/{id}/cancel", chatHandler.Cancel)

	// Per-conversation settings
	mux.HandleFunc("PUT /api/conversations/{id}/settings/streaming", chatHandler.SetStreaming)

	// Event stream
	mux.HandleFunc("GET /api/conversations/{id}/events", eventsHandler.Stream)

	// Model capabilities
	mux.HandleFunc("GET /api/models", modelsHandler.List)
	mux.HandleFunc("GET /api/models/classify", modelsHandler.Classify)

	var root http.Handler = mux
	root = middleware.RequestLogger(logger)(root)
	root = middleware.Recovery(logger)(root)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Last-Event-ID"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
