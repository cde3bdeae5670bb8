package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sparkAPI/handlers"
	"sparkAPI/internal/app"
	"sparkAPI/internal/config"
	"sparkAPI/internal/logger"
	"sparkAPI/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.RequireServer(); err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}

	clerk.SetKey(cfg.ClerkSecretKey)
	log.Info("Clerk initialized successfully")
	if cfg.ClerkWebhookSecret == "" {
		log.Warn("CLERK_WEBHOOK_SECRET not set, Clerk webhooks will be refused")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	middleware.InitPrometheus(registry)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	deps, err := app.New(ctx, cfg, log, registry)
	cancel()
	if err != nil {
		log.Fatal("Failed to initialize", "error", err)
	}
	defer deps.Close()

	coupleHandler := handlers.NewCoupleHandler(deps.Couples, log)
	challengeHandler := handlers.NewChallengeHandler(deps.Couples, deps.Challenges, deps.Stats, log)
	progressHandler := handlers.NewProgressHandler(deps.Couples, deps.Challenges, deps.Stats, log)
	contentHandler := handlers.NewContentHandler(deps.Couples, deps.Content, deps.Catalog, log)
	webhookHandler := handlers.NewWebhookHandler(deps.Couples, cfg.ClerkWebhookSecret, log)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	go limiter.CleanupVisitors(limiterCtx)

	verifier := middleware.ClerkVerifier{}

	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(middleware.MonitorMiddleware)
	standardRouter.Use(limiter.Middleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := deps.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "spark-api"}`))
	}).Methods("GET")

	standardRouter.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	// Reading content works anonymously; signed-in couples also get views recorded.
	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.OptionalAuthMiddleware(verifier))

	public.HandleFunc("/articles", contentHandler.GetArticles).Methods("GET")
	public.HandleFunc("/articles/{id}", contentHandler.GetArticle).Methods("GET")
	public.HandleFunc("/products", contentHandler.GetProducts).Methods("GET")
	public.HandleFunc("/products/{id}", contentHandler.GetProduct).Methods("GET")
	public.HandleFunc("/catalog/challenges", contentHandler.GetChallengeCatalog).Methods("GET")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware(verifier))

	protected.HandleFunc("/couple", coupleHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/couple", coupleHandler.CreateProfile).Methods("POST")
	protected.HandleFunc("/couple", coupleHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/couple", coupleHandler.DeleteProfile).Methods("DELETE")

	protected.HandleFunc("/challenge/current", challengeHandler.GetCurrentChallenge).Methods("GET")
	protected.HandleFunc("/challenge/next", challengeHandler.NextChallenge).Methods("POST")
	protected.HandleFunc("/challenge/complete", challengeHandler.CompleteChallenge).Methods("POST")

	protected.HandleFunc("/progress", progressHandler.GetProgress).Methods("GET")
	protected.HandleFunc("/progress/reset", progressHandler.ResetProgress).Methods("POST")
	protected.HandleFunc("/progress/export", progressHandler.ExportProgress).Methods("GET")
	protected.HandleFunc("/progress/calendar", progressHandler.GetCalendar).Methods("GET")
	protected.HandleFunc("/progress/categories", progressHandler.GetCategoryStats).Methods("GET")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length", "Content-Disposition"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := ":" + cfg.Port

	// Selection may wait on the external generator, so writes get more room
	// than reads.
	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Starting server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("Got signal", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", "error", err)
	}

	log.Info("Server shutdown complete")
}
