package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/medbotorg/medbot"
	"github.com/medbotorg/medbot/nlp"
)

// envConfig holds environment overrides, applied on top of the config file.
type envConfig struct {
	Addr            string `env:"MEDBOT_ADDR"`
	SnapshotPath    string `env:"MEDBOT_SNAPSHOT_PATH"`
	ChatProvider    string `env:"MEDBOT_CHAT_PROVIDER"`
	ChatModel       string `env:"MEDBOT_CHAT_MODEL"`
	ChatBaseURL     string `env:"MEDBOT_CHAT_BASE_URL"`
	ChatAPIKey      string `env:"MEDBOT_CHAT_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	DefaultLanguage string `env:"MEDBOT_DEFAULT_LANGUAGE"`
	APIKey          string `env:"MEDBOT_API_KEY"`
	CORSOrigins     string `env:"MEDBOT_CORS_ORIGINS"`
}

func newMux(h *handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", h.handleChat)
	mux.HandleFunc("POST /analyze", h.handleAnalyze)
	mux.HandleFunc("GET /diseases", h.handleSearchDiseases)
	mux.HandleFunc("GET /diseases/{id}", h.handleDiseaseDetails)
	mux.HandleFunc("DELETE /sessions/{id}", h.handleResetSession)
	mux.HandleFunc("GET /departments", h.handleDepartments)
	mux.HandleFunc("GET /stats", h.handleStats)
	mux.HandleFunc("GET /health", h.handleHealth)
	return mux
}

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := medbot.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			slog.Error("opening config", "error", err)
			os.Exit(1)
		}
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			f.Close()
			slog.Error("parsing config", "error", err)
			os.Exit(1)
		}
		f.Close()
	}

	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		slog.Error("parsing environment", "error", err)
		os.Exit(1)
	}

	if ec.SnapshotPath != "" {
		cfg.SnapshotPath = ec.SnapshotPath
	}
	if ec.ChatProvider != "" {
		cfg.Chat.Provider = ec.ChatProvider
	}
	if ec.ChatModel != "" {
		cfg.Chat.Model = ec.ChatModel
	}
	if ec.ChatBaseURL != "" {
		cfg.Chat.BaseURL = ec.ChatBaseURL
	}
	if ec.ChatAPIKey != "" {
		cfg.Chat.APIKey = ec.ChatAPIKey
	}
	if ec.DefaultLanguage != "" {
		cfg.DefaultLanguage = nlp.Language(ec.DefaultLanguage)
	}

	// Fallback: the well-known provider env var for the API key.
	if cfg.Chat.APIKey == "" && cfg.Chat.Provider == "openai" {
		cfg.Chat.APIKey = ec.OpenAIAPIKey
	}

	listenAddr := *addr
	if ec.Addr != "" {
		listenAddr = ec.Addr
	}

	engine, err := medbot.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}

	h := newHandler(engine)

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = newMux(h)
	handler = logMiddleware(handler)
	handler = authMiddleware(ec.APIKey, handler)
	handler = corsMiddleware(ec.CORSOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         listenAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // generation against a cold local model can be slow
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
