package repository

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
)

// fileColumns — столбцы managed_files для SELECT-запросов.
const fileColumns = `file_id, uri, label, status, created_at`

// FileRepository — доступ к реестру управляемых файлов.
type FileRepository interface {
	// GetByURI возвращает самую раннюю запись с данным URI.
	GetByURI(ctx context.Context, uri string) (*model.StoredFile, error)
	// ListByURIs возвращает различные записи, URI которых входит в список.
	// Повторы в uris не дают повторных записей.
	ListByURIs(ctx context.Context, uris []string) ([]*model.StoredFile, error)
	// Create регистрирует новый временный файл.
	Create(ctx context.Context, uri string) (*model.StoredFile, error)
}

type fileRepo struct {
	db    DBTX
	newID func() string
}

// NewFileRepository создаёт репозиторий файлов.
func NewFileRepository(db DBTX) FileRepository {
	return &fileRepo{db: db, newID: uuid.NewString}
}

// GetByURI возвращает запись файла по URI или ErrNotFound.
func (r *fileRepo) GetByURI(ctx context.Context, uri string) (*model.StoredFile, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM managed_files WHERE uri = $1 ORDER BY created_at, file_id LIMIT 1`,
		fileColumns,
	)

	f, err := scanFile(r.db.QueryRow(ctx, query, uri))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}
	return f, nil
}

// ListByURIs выполняет запрос членства (uri = ANY).
func (r *fileRepo) ListByURIs(ctx context.Context, uris []string) ([]*model.StoredFile, error) {
	if len(uris) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		`SELECT %s FROM managed_files WHERE uri = ANY($1) ORDER BY created_at, file_id`,
		fileColumns,
	)

	rows, err := r.db.Query(ctx, query, uris)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска файлов: %w", err)
	}
	defer rows.Close()

	var result []*model.StoredFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return result, nil
}

// Create регистрирует файл со статусом «временный».
// Метка — basename URI.
func (r *fileRepo) Create(ctx context.Context, uri string) (*model.StoredFile, error) {
	f := &model.StoredFile{
		ID:     r.newID(),
		URI:    uri,
		Label:  path.Base(uri),
		Status: model.FileStatusTemporary,
	}

	query := `INSERT INTO managed_files (file_id, uri, label, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if err := r.db.QueryRow(ctx, query, f.ID, f.URI, f.Label, f.Status).Scan(&f.CreatedAt); err != nil {
		return nil, fmt.Errorf("ошибка регистрации файла: %w", err)
	}
	return f, nil
}

// scanFile сканирует строку managed_files.
func scanFile(row pgx.Row) (*model.StoredFile, error) {
	f := &model.StoredFile{}
	if err := row.Scan(&f.ID, &f.URI, &f.Label, &f.Status, &f.CreatedAt); err != nil {
		return nil, err
	}
	return f, nil
}
