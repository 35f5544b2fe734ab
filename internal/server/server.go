// Пакет server — HTTP-сервер Document Module с graceful shutdown.
// Без TLS: TLS termination выполняется на API Gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goartstore/document-module/internal/config"
	"github.com/bigkaa/goartstore/document-module/internal/storage"
)

// Handler — обработчики маршрутов API.
type Handler interface {
	HealthLive(w http.ResponseWriter, r *http.Request)
	HealthReady(w http.ResponseWriter, r *http.Request)
	GetMetrics(w http.ResponseWriter, r *http.Request)
	GetOptions(w http.ResponseWriter, r *http.Request)
	Download(w http.ResponseWriter, r *http.Request)
	GetLinks(w http.ResponseWriter, r *http.Request)
}

// Server — HTTP-сервер Document Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// FileRoots — директории схем, отдаваемые статикой.
// Пустая директория не отдаётся.
type FileRoots struct {
	// Public — корень public://, путь storage.PublicFilesPath
	Public string
	// Private — корень private://, путь storage.PrivateFilesPath
	Private string
}

// New создаёт HTTP-сервер с маршрутами и middleware.
// middlewares применяются в порядке переданного среза.
func New(cfg *config.Config, logger *slog.Logger, handler Handler, roots FileRoots, middlewares ...func(http.Handler) http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      NewRouter(handler, roots, middlewares...),
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
			IdleTimeout:  cfg.HTTPIdleTimeout,
		},
		logger: logger,
		cfg:    cfg,
	}
}

// NewRouter собирает chi-роутер со всеми маршрутами.
func NewRouter(handler Handler, roots FileRoots, middlewares ...func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()
	for _, mw := range middlewares {
		router.Use(mw)
	}

	router.Get("/health/live", handler.HealthLive)
	router.Get("/health/ready", handler.HealthReady)
	router.Get("/metrics", handler.GetMetrics)

	router.Route("/api/v1/documents", func(r chi.Router) {
		r.Get("/options", handler.GetOptions)
		r.Post("/download", handler.Download)
		r.Get("/links", handler.GetLinks)
	})

	mountFiles(router, storage.PublicFilesPath, roots.Public)
	mountFiles(router, storage.PrivateFilesPath, roots.Private)

	return router
}

// mountFiles отдаёт содержимое dir по префиксу prefix.
func mountFiles(router chi.Router, prefix, dir string) {
	if dir == "" {
		return
	}
	files := http.StripPrefix(prefix, http.FileServer(noListing{http.Dir(dir)}))
	router.Get(prefix+"*", files.ServeHTTP)
}

// noListing запрещает выдачу списков директорий.
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
