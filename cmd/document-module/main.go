// Точка входа Document Module — выбор документов материалов и подготовка
// скачивания одним файлом или ZIP-архивом.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт файловое хранилище, сервисный слой и API handlers,
// запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/goartstore/document-module/internal/api/handlers"
	"github.com/bigkaa/goartstore/document-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/document-module/internal/archive"
	"github.com/bigkaa/goartstore/document-module/internal/catalog"
	"github.com/bigkaa/goartstore/document-module/internal/config"
	"github.com/bigkaa/goartstore/document-module/internal/database"
	"github.com/bigkaa/goartstore/document-module/internal/repository"
	"github.com/bigkaa/goartstore/document-module/internal/server"
	"github.com/bigkaa/goartstore/document-module/internal/service"
	"github.com/bigkaa/goartstore/document-module/internal/storage"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Document Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Файловое хранилище (public://, private://, temporary://)
	fileStore, err := storage.New(map[string]string{
		storage.SchemePublic:    cfg.PublicDir,
		storage.SchemePrivate:   cfg.PrivateDir,
		storage.SchemeTemporary: cfg.TemporaryDir,
	})
	if err != nil {
		logger.Error("Ошибка инициализации хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}
	urlGen, err := storage.NewURLGenerator(cfg.BaseURL)
	if err != nil {
		logger.Error("Ошибка базового URL", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Репозитории и кэш реестра файлов
	itemRepo := repository.NewItemRepository(pool)
	fileRepo := repository.NewFileRepository(pool)
	cacheSvc := service.NewCacheService(cfg.CacheMaxSize, cfg.CacheTTL)
	fileAdapter := service.NewFileStoreAdapter(fileRepo, cacheSvc, logger)

	// 7. Сервисный слой
	builder := archive.NewBuilder(fileAdapter, fileStore, urlGen, logger,
		archive.WithDirectoryRoot(cfg.DirectoryRoot),
	)
	resolver := catalog.NewResolver(itemRepo, logger)
	documentSvc := service.NewDocumentService(resolver, builder, itemRepo,
		service.DocumentServiceConfig{
			ExternalLinksField: cfg.ExternalLinksField,
			SiteLanguages:      cfg.SiteLanguages,
		},
		logger,
	)

	// 8. API handlers
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool), fileStore)
	apiHandler := handlers.NewAPIHandler(healthHandler, documentSvc, logger)

	// 9. topologymetrics — мониторинг зависимостей (PostgreSQL)
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "document-module",
		Group:         cfg.DephealthGroup,
		PGConnURL:     cfg.DatabaseURL(),
		CheckInterval: cfg.DephealthCheckInterval,
		IsEntry:       cfg.DephealthIsEntry,
	}, pgDB, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 10. Создание и запуск HTTP-сервера (статика из корней хранилища)
	var roots server.FileRoots
	roots.Public, _ = fileStore.Root(storage.SchemePublic)
	roots.Private, _ = fileStore.Root(storage.SchemePrivate)
	srv := server.New(cfg, logger, apiHandler, roots,
		middleware.RequestLogger(logger),
		middleware.MetricsMiddleware(),
	)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 11. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Document Module остановлен")
}
