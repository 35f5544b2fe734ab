// Пакет archive — подготовка скачивания выбранных документов.
// Один URI — прямая ссылка на файл. Два и более — новый zip-архив
// в уникальной директории; нечитаемые файлы пропускаются.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
)

// ArchiveFileName — имя файла архива внутри уникальной директории.
const ArchiveFileName = "documents.zip"

// DefaultDirectoryRoot — корень директорий архивов по умолчанию.
const DefaultDirectoryRoot = "public://downloads"

// Prometheus-метрики архивации.
var (
	archivesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_archives_total",
		Help: "Количество попыток создания архива (по результату).",
	}, []string{"result"})

	archiveEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_archive_entries_total",
		Help: "Общее количество файлов, добавленных в архивы.",
	})

	archiveSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_archive_skipped_total",
		Help: "Количество файлов, пропущенных при архивации (нечитаемые или пустые).",
	})

	archiveBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_archive_bytes_total",
		Help: "Общий объём исходных данных, добавленных в архивы.",
	})
)

// FileStore — реестр управляемых файлов.
type FileStore interface {
	// FindByURI возвращает запись файла по URI или model.ErrNotFound.
	FindByURI(ctx context.Context, uri string) (*model.StoredFile, error)
	// FindByURIs возвращает различные записи, URI которых входит в uris.
	FindByURIs(ctx context.Context, uris []string) ([]*model.StoredFile, error)
	// CreateFileRecord регистрирует новый файл по URI.
	CreateFileRecord(ctx context.Context, uri string) (*model.StoredFile, error)
}

// Filesystem — операции с файлами по URI.
type Filesystem interface {
	EnsureDirectory(uri string) error
	RealPath(uri string) (string, error)
	ReadFile(uri string) ([]byte, error)
}

// LinkGenerator — построение абсолютных ссылок на файлы.
type LinkGenerator interface {
	AbsoluteURL(uri string) (string, error)
}

// Builder — подготовка скачивания: прямая ссылка или новый архив.
type Builder struct {
	files         FileStore
	fs            Filesystem
	links         LinkGenerator
	directoryRoot string
	now           func() time.Time
	newID         func() string
	logger        *slog.Logger
}

// Option — опция Builder.
type Option func(*Builder)

// WithDirectoryRoot задаёт корень директорий архивов (по умолчанию public://downloads).
func WithDirectoryRoot(root string) Option {
	return func(b *Builder) {
		if root == "" {
			return
		}
		if !strings.HasSuffix(root, "://") {
			root = strings.TrimRight(root, "/")
		}
		b.directoryRoot = root
	}
}

// WithClock задаёт источник текущего времени (для префикса даты).
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithIDGenerator задаёт генератор уникального суффикса директории.
func WithIDGenerator(newID func() string) Option {
	return func(b *Builder) { b.newID = newID }
}

// NewBuilder создаёт Builder.
func NewBuilder(files FileStore, fs Filesystem, links LinkGenerator, logger *slog.Logger, opts ...Option) *Builder {
	b := &Builder{
		files:         files,
		fs:            fs,
		links:         links,
		directoryRoot: DefaultDirectoryRoot,
		now:           time.Now,
		newID:         uuid.NewString,
		logger:        logger.With(slog.String("component", "archive_builder")),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// PrepareDownload превращает список URI в ссылку для скачивания.
//
// Меньше двух URI — прямая ссылка на файл без создания архива.
// Иначе — архив из различных записей файлов, совпавших с любым из URI.
// Возвращает model.ErrNotFound, если файл не найден или архив получился пустым.
func (b *Builder) PrepareDownload(ctx context.Context, uris []string) (*model.ArchiveResult, error) {
	if len(uris) < 2 {
		return b.single(ctx, uris)
	}
	return b.archive(ctx, uris)
}

// single — прямая ссылка на единственный файл.
func (b *Builder) single(ctx context.Context, uris []string) (*model.ArchiveResult, error) {
	if len(uris) == 0 {
		return nil, model.ErrNotFound
	}

	file, err := b.files.FindByURI(ctx, uris[0])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: поиск файла %s: %w", model.ErrStorageUnavailable, uris[0], err)
	}

	link, err := b.links.AbsoluteURL(file.URI)
	if err != nil {
		return nil, fmt.Errorf("ссылка на файл %s: %w", file.URI, err)
	}

	return &model.ArchiveResult{URL: link, URI: file.URI}, nil
}

// archive — создание нового архива.
//
// Состояния: Resolving (директория и поток открыты) → Populating (записи)
// → Finalizing (закрытие, регистрация) → Done, либо Aborted(NotFound).
func (b *Builder) archive(ctx context.Context, uris []string) (*model.ArchiveResult, error) {
	start := time.Now()

	// Resolving
	dirURI := b.directoryURI()
	archiveURI := dirURI + "/" + ArchiveFileName
	link, err := b.links.AbsoluteURL(archiveURI)
	if err != nil {
		archivesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ссылка на архив %s: %w", archiveURI, err)
	}

	if err := b.fs.EnsureDirectory(dirURI); err != nil {
		archivesTotal.WithLabelValues("io_error").Inc()
		return nil, fmt.Errorf("%w: подготовка директории %s: %w", model.ErrIOFailure, dirURI, err)
	}
	realDir, err := b.fs.RealPath(dirURI)
	if err != nil {
		archivesTotal.WithLabelValues("io_error").Inc()
		return nil, fmt.Errorf("%w: реальный путь %s: %w", model.ErrIOFailure, dirURI, err)
	}

	out, err := os.Create(filepath.Join(realDir, ArchiveFileName))
	if err != nil {
		b.removeDir(realDir)
		archivesTotal.WithLabelValues("io_error").Inc()
		return nil, fmt.Errorf("%w: создание архива: %w", model.ErrIOFailure, err)
	}
	zw := zip.NewWriter(out)

	// abort закрывает поток и удаляет директорию запроса.
	abort := func() {
		_ = zw.Close()
		_ = out.Close()
		b.removeDir(realDir)
	}

	files, err := b.files.FindByURIs(ctx, uris)
	if err != nil {
		abort()
		archivesTotal.WithLabelValues("storage_error").Inc()
		return nil, fmt.Errorf("%w: поиск файлов: %w", model.ErrStorageUnavailable, err)
	}

	// Populating
	names := newEntryNames()
	added, skipped := 0, 0
	for _, file := range files {
		data, err := b.fs.ReadFile(file.URI)
		if err != nil {
			b.logger.Warn("Файл пропущен: не удалось прочитать",
				slog.String("file_id", file.ID),
				slog.String("uri", file.URI),
				slog.String("error", err.Error()),
			)
			skipped++
			continue
		}
		if len(data) == 0 {
			b.logger.Debug("Файл пропущен: пустое содержимое",
				slog.String("file_id", file.ID),
				slog.String("uri", file.URI),
			)
			skipped++
			continue
		}

		header := &zip.FileHeader{
			Name:     names.unique(entryLabel(file)),
			Method:   zip.Deflate,
			Modified: b.now().UTC(),
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			abort()
			archivesTotal.WithLabelValues("io_error").Inc()
			return nil, fmt.Errorf("%w: запись %s: %w", model.ErrIOFailure, header.Name, err)
		}
		if _, err := w.Write(data); err != nil {
			abort()
			archivesTotal.WithLabelValues("io_error").Inc()
			return nil, fmt.Errorf("%w: запись %s: %w", model.ErrIOFailure, header.Name, err)
		}
		added++
		archiveBytesTotal.Add(float64(len(data)))
	}
	archiveSkippedTotal.Add(float64(skipped))

	// Aborted: ни одной записи
	if added == 0 {
		abort()
		archivesTotal.WithLabelValues("empty").Inc()
		b.logger.Info("Архив не создан: нет доступных файлов",
			slog.Int("requested", len(uris)),
			slog.Int("matched", len(files)),
			slog.Int("skipped", skipped),
		)
		return nil, model.ErrNotFound
	}

	// Finalizing
	if err := zw.Close(); err != nil {
		_ = out.Close()
		b.removeDir(realDir)
		archivesTotal.WithLabelValues("io_error").Inc()
		return nil, fmt.Errorf("%w: финализация архива: %w", model.ErrIOFailure, err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		b.removeDir(realDir)
		archivesTotal.WithLabelValues("io_error").Inc()
		return nil, fmt.Errorf("%w: fsync архива: %w", model.ErrIOFailure, err)
	}
	if err := out.Close(); err != nil {
		b.removeDir(realDir)
		archivesTotal.WithLabelValues("io_error").Inc()
		return nil, fmt.Errorf("%w: закрытие архива: %w", model.ErrIOFailure, err)
	}

	record, err := b.files.CreateFileRecord(ctx, archiveURI)
	if err != nil {
		b.removeDir(realDir)
		archivesTotal.WithLabelValues("storage_error").Inc()
		return nil, fmt.Errorf("%w: регистрация архива: %w", model.ErrStorageUnavailable, err)
	}

	// Done
	archivesTotal.WithLabelValues("success").Inc()
	archiveEntriesTotal.Add(float64(added))
	b.logger.Info("Архив создан",
		slog.String("uri", record.URI),
		slog.Int("entries", added),
		slog.Int("skipped", skipped),
		slog.Duration("duration", time.Since(start)),
	)

	return &model.ArchiveResult{
		URL:     link,
		URI:     record.URI,
		Archive: true,
		Entries: added,
		Skipped: skipped,
	}, nil
}

// directoryURI генерирует уникальную директорию запроса:
// <root>/<dd-mm-yyyy>-<uuid>. Дата берётся в UTC.
func (b *Builder) directoryURI() string {
	prefix := b.now().UTC().Format("02-01-2006")
	sep := "/"
	if strings.HasSuffix(b.directoryRoot, "://") {
		sep = ""
	}
	return fmt.Sprintf("%s%s%s-%s", b.directoryRoot, sep, prefix, b.newID())
}

// removeDir удаляет директорию незавершённого архива.
func (b *Builder) removeDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		b.logger.Warn("Не удалось удалить директорию архива",
			slog.String("dir", dir),
			slog.String("error", err.Error()),
		)
	}
}
