package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"
	"github.com/gorilla/csrf"

	"github.com/rahul4469/code-scanner/internal/config"
	"github.com/rahul4469/code-scanner/internal/controllers"
	"github.com/rahul4469/code-scanner/internal/logging"
	"github.com/rahul4469/code-scanner/internal/middleware"
	"github.com/rahul4469/code-scanner/internal/services"
	"github.com/rahul4469/code-scanner/internal/views"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}

	err = run(cfg, logger)
	if err != nil {
		logger.Error(err, "server stopped")
	}
	_ = logging.Sync(logger)
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logr.Logger) error {
	theme, err := views.ParseTheme(cfg.UI.Theme)
	if err != nil {
		return err
	}

	// Setup templates ---------------
	uploadTpl, err := views.ParseFS("pages/upload.gohtml")
	if err != nil {
		return err
	}
	resultsTpl, err := views.ParseFS("pages/results.gohtml")
	if err != nil {
		return err
	}

	// Setup services ---------------
	backend := services.NewBackendClient(cfg.Backend.URL, cfg.Backend.Timeout, logger)

	// Setup controllers ---------------
	uploadC := controllers.NewUploadController(backend,
		controllers.UploadTemplates{Form: uploadTpl},
		cfg.Upload.MaxBytes, theme, logger)
	resultsC := controllers.NewResultsController(backend, cfg.Poll,
		controllers.ResultsTemplates{Page: resultsTpl},
		theme, logger)

	// Setup router ---------------
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.NewRequestContext(logger).Handler)
	r.Use(middleware.Logging)
	// csrf parses multipart bodies before the handlers run, so the size
	// limit has to be in place first
	r.Use(chimw.RequestSize(cfg.Upload.MaxBytes))
	if !cfg.Security.SecureCookies {
		r.Use(plaintextRequests)
	}
	r.Use(csrf.Protect(
		[]byte(cfg.Security.CSRFSecret),
		csrf.Secure(cfg.Security.SecureCookies),
		csrf.Path("/"),
		csrf.TrustedOrigins(cfg.Security.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(uploadC.CSRFFailure)),
	))

	r.Get("/", uploadC.GetUpload)
	r.Post("/upload", uploadC.PostUpload)
	r.Route("/results/{id}", func(r chi.Router) {
		r.Get("/", resultsC.GetResult)
		r.Get("/ws", resultsC.StreamResult)
	})
	r.Get("/healthz", controllers.HealthCheck)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", cfg.Server.Address, "environment", cfg.Server.Environment, "backend", cfg.Backend.URL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// plaintextRequests marks requests as served over plain HTTP so the csrf
// origin checks do not demand https during local development.
func plaintextRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
