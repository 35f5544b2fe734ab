// Пакет storage — локальное файловое хранилище со схемами URI
// (public://, private://, temporary://), отображаемыми на директории диска.
// Обеспечивает создание директорий, разрешение реальных путей,
// чтение файлов и построение абсолютных ссылок для скачивания.
package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Схемы URI.
const (
	SchemePublic    = "public"
	SchemePrivate   = "private"
	SchemeTemporary = "temporary"
)

// Ошибки хранилища.
var (
	// ErrUnknownScheme — схема URI не настроена.
	ErrUnknownScheme = errors.New("неизвестная схема URI")
	// ErrInvalidURI — URI не разбирается или выходит за пределы корня схемы.
	ErrInvalidURI = errors.New("некорректный URI")
)

// FileStore — управление файлами, адресуемыми URI вида scheme://path.
type FileStore struct {
	// roots — корневая директория для каждой схемы
	roots map[string]string
}

// New создаёт FileStore. roots — отображение схема → директория.
// Директории создаются, если не существуют.
func New(roots map[string]string) (*FileStore, error) {
	fs := &FileStore{roots: make(map[string]string, len(roots))}
	for scheme, dir := range roots {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("некорректная директория схемы %s: %w", scheme, err)
		}
		if err := os.MkdirAll(abs, 0o750); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию %s: %w", abs, err)
		}
		fs.roots[scheme] = abs
	}
	return fs, nil
}

// RealPath возвращает абсолютный путь на диске для URI.
func (fs *FileStore) RealPath(uri string) (string, error) {
	scheme, target, err := splitURI(uri)
	if err != nil {
		return "", err
	}
	root, ok := fs.roots[scheme]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownScheme, scheme)
	}

	// path.Clean с ведущим "/" не даёт выйти за корень через "..".
	clean := strings.TrimPrefix(path.Clean("/"+target), "/")
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

// EnsureDirectory создаёт директорию по URI (со всеми родителями)
// и выставляет права 0750.
func (fs *FileStore) EnsureDirectory(uri string) error {
	dir, err := fs.RealPath(uri)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}
	if err := os.Chmod(dir, 0o750); err != nil {
		return fmt.Errorf("ошибка изменения прав директории %s: %w", dir, err)
	}
	return nil
}

// ReadFile читает содержимое файла по URI целиком.
func (fs *FileStore) ReadFile(uri string) ([]byte, error) {
	fullPath, err := fs.RealPath(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("файл не найден: %s", uri)
		}
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", uri, err)
	}
	return data, nil
}

// Root возвращает корневую директорию схемы.
func (fs *FileStore) Root(scheme string) (string, bool) {
	root, ok := fs.roots[scheme]
	return root, ok
}

// CheckReady проверяет, что корень public:// существует и доступен на запись.
// Реализует интерфейс handlers.ReadinessChecker.
func (fs *FileStore) CheckReady() (status string, message string) {
	root, ok := fs.roots[SchemePublic]
	if !ok {
		return "fail", "схема public:// не настроена"
	}
	probe, err := os.CreateTemp(root, ".ready-*")
	if err != nil {
		return "fail", fmt.Sprintf("директория %s недоступна на запись: %v", root, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return "ok", "хранилище доступно"
}

// splitURI разбирает scheme://target.
func splitURI(uri string) (scheme, target string, err error) {
	scheme, target, ok := strings.Cut(uri, "://")
	if !ok || scheme == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}
	return strings.ToLower(scheme), target, nil
}

// URLGenerator строит абсолютные ссылки на файлы.
// public:// отдаётся статикой по /files/, private:// — по /system/files/.
// Прочие схемы (http, https) возвращаются как есть.
type URLGenerator struct {
	baseURL *url.URL
}

// NewURLGenerator создаёт генератор ссылок от базового URL сервиса.
func NewURLGenerator(baseURL string) (*URLGenerator, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("некорректный базовый URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("базовый URL %q должен быть абсолютным", baseURL)
	}
	return &URLGenerator{baseURL: u}, nil
}

// Пути, по которым сервер отдаёт файлы схем.
const (
	PublicFilesPath  = "/files/"
	PrivateFilesPath = "/system/files/"
)

// AbsoluteURL возвращает абсолютную ссылку для URI.
func (g *URLGenerator) AbsoluteURL(uri string) (string, error) {
	scheme, target, err := splitURI(uri)
	if err != nil {
		return "", err
	}

	var prefix string
	switch scheme {
	case SchemePublic:
		prefix = PublicFilesPath
	case SchemePrivate:
		prefix = PrivateFilesPath
	case "http", "https":
		return uri, nil
	default:
		return "", fmt.Errorf("%w: для %s нет публичной ссылки", ErrUnknownScheme, scheme)
	}

	u := *g.baseURL
	u.Path = path.Join(g.baseURL.Path, prefix, path.Clean("/"+target))
	return u.String(), nil
}
