package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
	"github.com/bigkaa/goartstore/document-module/internal/repository"
)

// FileStoreAdapter — реестр файлов для сборщика архивов поверх
// repository.FileRepository с кэшированием поиска по URI.
type FileStoreAdapter struct {
	repo   repository.FileRepository
	cache  *CacheService
	logger *slog.Logger
}

// NewFileStoreAdapter создаёт адаптер. cache может быть nil.
func NewFileStoreAdapter(repo repository.FileRepository, cache *CacheService, logger *slog.Logger) *FileStoreAdapter {
	return &FileStoreAdapter{
		repo:   repo,
		cache:  cache,
		logger: logger.With(slog.String("component", "file_store")),
	}
}

// FindByURI возвращает запись файла. Сначала проверяется кэш.
func (a *FileStoreAdapter) FindByURI(ctx context.Context, uri string) (*model.StoredFile, error) {
	if a.cache != nil {
		if f, ok := a.cache.Get(uri); ok {
			a.logger.Debug("Кэш hit для файла", slog.String("uri", uri))
			return f, nil
		}
	}

	f, err := a.repo.GetByURI(ctx, uri)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("получение файла: %w", err)
	}

	if a.cache != nil {
		a.cache.Set(uri, f)
	}
	return f, nil
}

// FindByURIs выполняет запрос членства к БД, минуя кэш, и обновляет кэш
// по результату: найденные записи кладутся, отсутствующие в БД URI удаляются.
func (a *FileStoreAdapter) FindByURIs(ctx context.Context, uris []string) ([]*model.StoredFile, error) {
	files, err := a.repo.ListByURIs(ctx, uris)
	if err != nil {
		return nil, fmt.Errorf("поиск файлов: %w", err)
	}

	if a.cache != nil {
		found := make(map[string]struct{}, len(files))
		for _, f := range files {
			if _, dup := found[f.URI]; !dup {
				a.cache.Set(f.URI, f)
			}
			found[f.URI] = struct{}{}
		}
		for _, uri := range uris {
			if _, ok := found[uri]; !ok {
				a.cache.Delete(uri)
			}
		}
	}
	return files, nil
}

// CreateFileRecord регистрирует временный файл и кладёт его в кэш.
func (a *FileStoreAdapter) CreateFileRecord(ctx context.Context, uri string) (*model.StoredFile, error) {
	f, err := a.repo.Create(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("регистрация файла: %w", err)
	}
	if a.cache != nil {
		a.cache.Set(uri, f)
	}
	a.logger.Debug("Файл зарегистрирован",
		slog.String("file_id", f.ID),
		slog.String("uri", uri),
	)
	return f, nil
}
