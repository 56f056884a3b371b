package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pocketbook/internal/config"
	"pocketbook/internal/handlers"
	"pocketbook/internal/logger"
	"pocketbook/internal/services"
	"pocketbook/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogEnv)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := bootstrap(ctx, cfg, db, log); err != nil {
		return err
	}

	h := handlers.NewHandlers(db, log, cfg.TemplateDir, cfg.SecureCookie)
	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        setupRouter(h, cfg.StaticDir),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	idle := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.Info("shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown", zap.Error(err))
		}
		close(idle)
	}()

	log.Info("starting server", zap.String("port", cfg.Port), zap.String("db", cfg.DBPath))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-idle
	log.Info("server stopped")
	return nil
}

// bootstrap prepares the database for serving: it drops expired sessions,
// seeds the global template categories and creates the configured admin
// account when no users exist yet.
func bootstrap(ctx context.Context, cfg *config.Config, db *storage.DB, log *zap.Logger) error {
	removed, err := db.CleanExpiredSessions(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		log.Info("expired sessions removed", zap.Int64("count", removed))
	}

	for _, name := range cfg.GlobalCategories {
		created, err := db.EnsureCategory(ctx, nil, strings.TrimSpace(name), true)
		if err != nil {
			return err
		}
		if created {
			log.Info("global category created", zap.String("name", name))
		}
	}

	if cfg.AdminUser == "" {
		return nil
	}
	count, err := db.UserCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	reg := services.NewRegistrationService(db, log)
	user, err := reg.Register(ctx, services.RegisterInput{
		Username:             cfg.AdminUser,
		Email:                cfg.AdminEmail,
		Password:             cfg.AdminPassword,
		PasswordConfirmation: cfg.AdminPassword,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Info("admin user created", zap.String("username", user.Username))
	return nil
}

func setupRouter(h *handlers.Handlers, staticDir string) http.Handler {
	mux := http.NewServeMux()
	authed := func(fn http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(fn)
	}

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})

	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /logout", h.Logout)

	mux.Handle("GET /dashboard", authed(h.Dashboard))
	mux.Handle("POST /dashboard", authed(h.Dashboard))
	mux.Handle("GET /expenses", authed(h.ListExpenses))
	mux.Handle("GET /expenses/add", authed(h.CreateExpenseForm))
	mux.Handle("POST /expenses/add", authed(h.CreateExpense))
	mux.Handle("GET /expenses/{id}/edit", authed(h.EditExpenseForm))
	mux.Handle("POST /expenses/{id}/edit", authed(h.UpdateExpense))
	mux.Handle("GET /expenses/{id}/delete", authed(h.DeleteExpenseConfirm))
	mux.Handle("POST /expenses/{id}/delete", authed(h.DeleteExpense))
	mux.Handle("POST /categories", authed(h.CreateCategory))
	mux.Handle("GET /summary", authed(h.Summary))

	return h.LogRequests(mux)
}
