package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"triviaclash/internal/config"
	"triviaclash/internal/database"
	"triviaclash/internal/generator"
	"triviaclash/internal/handlers"
	"triviaclash/internal/puzzle"
	"triviaclash/internal/realtime"
	"triviaclash/internal/repository"
	"triviaclash/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithType(cfg.DatabaseType, cfg.DatabasePath, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	roomRepo := repository.NewRoomRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	puzzleRepo := repository.NewPuzzleRepository(db)
	resultRepo := repository.NewResultRepository(db)

	// Content providers, in fallback order. Providers without an API key
	// resolve to nil and are skipped by the chain.
	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}
	chain := generator.NewChain(
		generator.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, httpClient),
		generator.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel, httpClient),
		generator.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, httpClient),
	)
	if chain.Len() == 0 {
		log.Println("Warning: no content providers configured, rooms depend on the puzzle bank")
	}

	supplier := puzzle.NewSupplier(puzzleRepo, chain, cfg.QualityMinimum, cfg.MaxGenAttempts)

	// Realtime relay; it doubles as the service layer's notifier
	manager := realtime.NewManager(roomRepo, participantRepo, supplier, cfg.HubIdleTimeout)

	// Initialize services
	roomService := service.NewRoomService(roomRepo, participantRepo, puzzleRepo, resultRepo, supplier, manager, cfg.PrefetchHead)
	gameService := service.NewGameService(roomRepo, participantRepo, puzzleRepo, resultRepo, supplier, manager)

	// Initialize handlers
	middleware := handlers.NewMiddleware(cfg.JWTSecret)
	roomHandler := handlers.NewRoomHandler(roomService)
	gameHandler := handlers.NewGameHandler(gameService)
	wsHandler := handlers.NewWSHandler(roomService, manager)

	router := handlers.NewRouter(middleware, roomHandler, gameHandler, wsHandler, cfg.DevTokens, cfg.JWTSecret)

	// Wrap with logging middleware
	handler := handlers.Logging(router)

	// Start server. No blanket read/write timeouts: websocket connections
	// are long-lived.
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}
