package model

import (
	"errors"
	"time"
)

// Ошибки доменного уровня. Проверяются через errors.Is.
var (
	// ErrNotFound — нет подходящего файла или архив оказался пустым.
	ErrNotFound = errors.New("документы для скачивания не найдены")
	// ErrStorageUnavailable — ошибка хранилища материалов или файлов.
	ErrStorageUnavailable = errors.New("хранилище недоступно")
	// ErrIOFailure — ошибка создания директории или финализации архива.
	ErrIOFailure = errors.New("ошибка ввода-вывода")
)

// FileReference — ссылка на один файл, прикреплённый к материалу.
type FileReference struct {
	// URI — адрес файла (public://docs/report.pdf)
	URI string
	// Category — категория по расширению
	Category Category
	// Language — код языка перевода, к которому прикреплён файл
	Language string
	// Name — отображаемое имя (basename URI)
	Name string
}

// Options — доступные для фильтрации категории и языки.
type Options struct {
	Categories []Category
	Languages  []string
}

// SelectionRequest — запрос пользователя на скачивание.
type SelectionRequest struct {
	// ItemIDs — идентификаторы материалов (порядок значим)
	ItemIDs []string
	// FieldName — машинное имя поля с файлами
	FieldName string
	// Formats — выбранные категории
	Formats []Category
	// Languages — выбранные коды языков (порядок значим)
	Languages []string
}

// StoredFile — запись управляемого файла (file handle).
type StoredFile struct {
	// ID — UUID записи
	ID string
	// URI — адрес файла в хранилище
	URI string
	// Label — отображаемое имя, используется как имя записи в архиве
	Label string
	// Status — 0 временный, 1 постоянный
	Status int
	// CreatedAt — время регистрации
	CreatedAt time.Time
}

// Статусы управляемых файлов.
const (
	FileStatusTemporary = 0
	FileStatusPermanent = 1
)

// ArchiveResult — результат подготовки скачивания.
type ArchiveResult struct {
	// URL — абсолютная ссылка на файл или архив
	URL string
	// URI — адрес файла или архива в хранилище
	URI string
	// Archive — true, если был создан новый архив
	Archive bool
	// Entries — количество записей в архиве
	Entries int
	// Skipped — количество пропущенных (нечитаемых) файлов
	Skipped int
}

// ExternalLink — внешняя ссылка, прикреплённая к материалу.
type ExternalLink struct {
	URI   string
	Title string
}
