package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
	"github.com/bigkaa/goartstore/document-module/internal/repository"
)

// mockFileRepo — мок repository.FileRepository.
type mockFileRepo struct {
	getByURIFn   func(ctx context.Context, uri string) (*model.StoredFile, error)
	listByURIsFn func(ctx context.Context, uris []string) ([]*model.StoredFile, error)
	createFn     func(ctx context.Context, uri string) (*model.StoredFile, error)
	getCalls     int
}

func (m *mockFileRepo) GetByURI(ctx context.Context, uri string) (*model.StoredFile, error) {
	m.getCalls++
	if m.getByURIFn != nil {
		return m.getByURIFn(ctx, uri)
	}
	return nil, repository.ErrNotFound
}

func (m *mockFileRepo) ListByURIs(ctx context.Context, uris []string) ([]*model.StoredFile, error) {
	if m.listByURIsFn != nil {
		return m.listByURIsFn(ctx, uris)
	}
	return nil, nil
}

func (m *mockFileRepo) Create(ctx context.Context, uri string) (*model.StoredFile, error) {
	if m.createFn != nil {
		return m.createFn(ctx, uri)
	}
	return &model.StoredFile{ID: "new", URI: uri, Status: model.FileStatusTemporary}, nil
}

// TestFileStoreAdapter_FindByURI_Cache проверяет кэширование поиска.
func TestFileStoreAdapter_FindByURI_Cache(t *testing.T) {
	repo := &mockFileRepo{
		getByURIFn: func(_ context.Context, uri string) (*model.StoredFile, error) {
			return &model.StoredFile{ID: "f1", URI: uri}, nil
		},
	}
	a := NewFileStoreAdapter(repo, NewCacheService(10, time.Minute), slog.Default())

	for range 3 {
		f, err := a.FindByURI(context.Background(), "public://a.pdf")
		if err != nil {
			t.Fatalf("FindByURI ошибка: %v", err)
		}
		if f.ID != "f1" {
			t.Errorf("ID = %q, ожидался f1", f.ID)
		}
	}
	if repo.getCalls != 1 {
		t.Errorf("обращений к репозиторию = %d, ожидалось 1", repo.getCalls)
	}
}

// TestFileStoreAdapter_FindByURI_NotFound проверяет отображение ErrNotFound.
func TestFileStoreAdapter_FindByURI_NotFound(t *testing.T) {
	a := NewFileStoreAdapter(&mockFileRepo{}, nil, slog.Default())

	_, err := a.FindByURI(context.Background(), "public://missing.pdf")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("ошибка = %v, ожидалась model.ErrNotFound", err)
	}
}

// TestFileStoreAdapter_FindByURI_Error проверяет проброс ошибки БД.
func TestFileStoreAdapter_FindByURI_Error(t *testing.T) {
	dbErr := errors.New("connection refused")
	repo := &mockFileRepo{
		getByURIFn: func(context.Context, string) (*model.StoredFile, error) { return nil, dbErr },
	}
	a := NewFileStoreAdapter(repo, nil, slog.Default())

	_, err := a.FindByURI(context.Background(), "public://a.pdf")
	if !errors.Is(err, dbErr) {
		t.Errorf("ошибка = %v, ожидалась обёртка %v", err, dbErr)
	}
	if errors.Is(err, model.ErrNotFound) {
		t.Error("ошибка БД не должна быть ErrNotFound")
	}
}

// TestFileStoreAdapter_CreateFileRecord проверяет регистрацию и кэш.
func TestFileStoreAdapter_CreateFileRecord(t *testing.T) {
	repo := &mockFileRepo{}
	a := NewFileStoreAdapter(repo, NewCacheService(10, time.Minute), slog.Default())

	f, err := a.CreateFileRecord(context.Background(), "public://downloads/x/documents.zip")
	if err != nil {
		t.Fatalf("CreateFileRecord ошибка: %v", err)
	}
	if f.Status != model.FileStatusTemporary {
		t.Errorf("Status = %d, ожидался временный", f.Status)
	}

	// Созданная запись находится без обращения к репозиторию
	if _, err := a.FindByURI(context.Background(), f.URI); err != nil {
		t.Fatalf("FindByURI ошибка: %v", err)
	}
	if repo.getCalls != 0 {
		t.Errorf("обращений к репозиторию = %d, ожидалось 0", repo.getCalls)
	}
}

// TestFileStoreAdapter_FindByURIs проверяет проброс запроса членства.
func TestFileStoreAdapter_FindByURIs(t *testing.T) {
	repo := &mockFileRepo{
		listByURIsFn: func(_ context.Context, uris []string) ([]*model.StoredFile, error) {
			if len(uris) != 3 {
				t.Errorf("len(uris) = %d, ожидалось 3", len(uris))
			}
			return []*model.StoredFile{{ID: "a"}, {ID: "b"}}, nil
		},
	}
	a := NewFileStoreAdapter(repo, nil, slog.Default())

	files, err := a.FindByURIs(context.Background(), []string{"x", "y", "x"})
	if err != nil {
		t.Fatalf("FindByURIs ошибка: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("len(files) = %d, ожидалось 2", len(files))
	}
}

// TestFileStoreAdapter_FindByURIs_RefreshesCache проверяет обновление кэша
// по результату запроса членства.
func TestFileStoreAdapter_FindByURIs_RefreshesCache(t *testing.T) {
	cache := NewCacheService(10, time.Minute)
	cache.Set("public://gone.pdf", &model.StoredFile{ID: "stale-gone", URI: "public://gone.pdf"})
	cache.Set("public://a.pdf", &model.StoredFile{ID: "stale-a", URI: "public://a.pdf"})

	repo := &mockFileRepo{
		listByURIsFn: func(context.Context, []string) ([]*model.StoredFile, error) {
			return []*model.StoredFile{
				{ID: "a-1", URI: "public://a.pdf"},
				{ID: "a-2", URI: "public://a.pdf"},
			}, nil
		},
	}
	a := NewFileStoreAdapter(repo, cache, slog.Default())

	if _, err := a.FindByURIs(context.Background(), []string{"public://a.pdf", "public://gone.pdf"}); err != nil {
		t.Fatalf("FindByURIs ошибка: %v", err)
	}

	// Первая запись URI заменяет устаревшую
	f, ok := cache.Get("public://a.pdf")
	if !ok || f.ID != "a-1" {
		t.Errorf("кэш a.pdf = %+v, ожидалась запись a-1", f)
	}
	// Удалённый из БД файл больше не отдаётся из кэша
	if _, ok := cache.Get("public://gone.pdf"); ok {
		t.Error("gone.pdf должен быть удалён из кэша")
	}
	if _, err := a.FindByURI(context.Background(), "public://gone.pdf"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("ошибка = %v, ожидалась model.ErrNotFound", err)
	}
	if repo.getCalls != 1 {
		t.Errorf("обращений к репозиторию = %d, ожидалось 1", repo.getCalls)
	}
}
