package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kiosk/audit"
	"kiosk/backend"
	"kiosk/config"
	"kiosk/db"
	"kiosk/middleware"
	"kiosk/ratelim"
	"kiosk/rdx"
	"kiosk/routes"
	"kiosk/session"
	"kiosk/terminal"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// setupRouter builds the router with every kiosk route.
func setupRouter(h *routes.Handlers, rateLimiter *ratelim.RateLimiter) *httprouter.Router {
	router := httprouter.New()
	routes.RoutesWrapper(router, h, rateLimiter)
	return router
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// token storage: Redis when configured, else process memory
	var store session.TokenStore = session.NewMemoryStore()
	var redisStore *rdx.TokenStore
	if cfg.RedisURL != "" {
		s, err := rdx.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Redis: %v", err)
		}
		redisStore = s
		store = s
		log.Println("Tokens stored in Redis")
	}

	// checkout audit: MongoDB when configured, always logged
	recorders := audit.Multi{audit.LogRecorder{}}
	var mongoDisconnect func()
	if cfg.MongoURI != "" {
		client, err := db.Connect(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatalf("❌ MongoDB: %v", err)
		}
		mongoDisconnect = func() { db.Disconnect(client) }
		rec := audit.NewMongoRecorder(client.Database(cfg.MongoDB).Collection(db.ReconciliationsCollection))
		if err := rec.EnsureIndexes(ctx); err != nil {
			log.Printf("[audit] ensure indexes: %v", err)
		}
		recorders = append(recorders, rec)
	}

	registry := terminal.NewRegistry(terminal.Deps{
		Store:       store,
		Backend:     backend.New(cfg.BackendURL, nil),
		Audit:       recorders,
		LogoutDelay: cfg.LogoutDelay,
		TTL:         cfg.TerminalTTL,
	})
	evictCtx, stopEvict := context.WithCancel(ctx)
	go registry.Run(evictCtx, time.Minute)

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	router := setupRouter(routes.NewHandlers(registry), rateLimiter)

	// apply middleware: logging → security headers → CORS → terminal → navigate → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{middleware.NavigateHeader},
		AllowCredentials: true,
	}).Handler(middleware.Terminal(cfg.TerminalTTL)(middleware.Navigate(registry)(router)))

	handler := middleware.Logging(middleware.SecurityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		stopEvict()
		if redisStore != nil {
			if err := redisStore.Close(); err != nil {
				log.Printf("[rdx] close: %v", err)
			}
		}
		if mongoDisconnect != nil {
			mongoDisconnect()
		}
	})

	go func() {
		log.Printf("🚀 Kiosk listening on %s, backend %s", cfg.Port, cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Graceful shutdown failed: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}
