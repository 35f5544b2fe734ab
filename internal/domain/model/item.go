package model

// ContentItem — материал CMS, доступный только для чтения.
type ContentItem interface {
	// ID возвращает идентификатор материала.
	ID() string
	// Translations возвращает коды языков, на которые переведён материал.
	Translations() []string
	// FilesIn возвращает URI файлов поля fieldName в переводе langcode
	// в порядке delta.
	FilesIn(fieldName, langcode string) []string
}

// FieldLanguage — ключ поля в конкретном переводе.
type FieldLanguage struct {
	Field    string
	Language string
}

// Item — снимок материала, загруженный из репозитория.
type Item struct {
	ItemID    string
	Languages []string
	Files     map[FieldLanguage][]string
}

// NewItem создаёт пустой снимок материала.
func NewItem(id string, languages ...string) *Item {
	return &Item{
		ItemID:    id,
		Languages: languages,
		Files:     make(map[FieldLanguage][]string),
	}
}

// AddFile добавляет URI файла в конец списка поля.
func (i *Item) AddFile(fieldName, langcode, uri string) {
	key := FieldLanguage{Field: fieldName, Language: langcode}
	i.Files[key] = append(i.Files[key], uri)
}

// ID реализует ContentItem.
func (i *Item) ID() string { return i.ItemID }

// Translations реализует ContentItem.
func (i *Item) Translations() []string { return i.Languages }

// FilesIn реализует ContentItem.
func (i *Item) FilesIn(fieldName, langcode string) []string {
	return i.Files[FieldLanguage{Field: fieldName, Language: langcode}]
}
