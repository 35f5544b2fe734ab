package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
)

// ItemStore — источник материалов.
// Отсутствующие идентификаторы просто не попадают в результат.
type ItemStore interface {
	LoadItems(ctx context.Context, ids []string) (map[string]model.ContentItem, error)
}

// Resolver — разрешение материалов и поля в набор файлов.
type Resolver struct {
	items  ItemStore
	logger *slog.Logger
}

// NewResolver создаёт Resolver поверх хранилища материалов.
func NewResolver(items ItemStore, logger *slog.Logger) *Resolver {
	return &Resolver{
		items:  items,
		logger: logger.With(slog.String("component", "catalog_resolver")),
	}
}

// References возвращает все классифицируемые файлы поля fieldName
// в порядке: материал, перевод, файл внутри перевода.
func (r *Resolver) References(ctx context.Context, ids []string, fieldName string) ([]model.FileReference, error) {
	items, err := r.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	var refs []model.FileReference
	for _, item := range items {
		for _, lang := range item.Translations() {
			for _, uri := range item.FilesIn(fieldName, lang) {
				c, ok := Classify(uri)
				if !ok {
					continue
				}
				refs = append(refs, model.FileReference{
					URI:      uri,
					Category: c,
					Language: lang,
					Name:     baseName(uri),
				})
			}
		}
	}
	return refs, nil
}

// AvailableOptions возвращает категории и языки, по которым есть хотя бы
// один классифицируемый файл. Оба набора отсортированы.
func (r *Resolver) AvailableOptions(ctx context.Context, ids []string, fieldName string) (*model.Options, error) {
	refs, err := r.References(ctx, ids, fieldName)
	if err != nil {
		return nil, err
	}

	opts := Summarize(refs)

	r.logger.Debug("Доступные опции определены",
		slog.Int("items", len(ids)),
		slog.String("field", fieldName),
		slog.Int("categories", len(opts.Categories)),
		slog.Int("languages", len(opts.Languages)),
	)

	return opts, nil
}

// FilteredFiles возвращает URI файлов поля fieldName, чья категория входит
// в formats, для запрошенных языков, которые есть у материала.
// Порядок: материал, язык (в порядке запроса), файл. Повторы не удаляются.
func (r *Resolver) FilteredFiles(
	ctx context.Context,
	ids []string,
	fieldName string,
	formats []model.Category,
	languages []string,
) ([]string, error) {
	if len(formats) == 0 || len(languages) == 0 {
		return nil, nil
	}

	items, err := r.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	wanted := make(map[model.Category]struct{}, len(formats))
	for _, f := range formats {
		wanted[f] = struct{}{}
	}
	languages = uniqueLanguages(languages)

	var uris []string
	for _, item := range items {
		translations := item.Translations()
		for _, lang := range languages {
			stored, ok := findLanguage(translations, lang)
			if !ok {
				continue
			}
			for _, uri := range item.FilesIn(fieldName, stored) {
				c, ok := Classify(uri)
				if !ok {
					continue
				}
				if _, ok := wanted[c]; ok {
					uris = append(uris, uri)
				}
			}
		}
	}
	return uris, nil
}

// Summarize сводит ссылки в отсортированные наборы категорий и языков.
func Summarize(refs []model.FileReference) *model.Options {
	categories := make(map[model.Category]struct{})
	languages := make(map[string]struct{})
	for _, ref := range refs {
		categories[ref.Category] = struct{}{}
		languages[ref.Language] = struct{}{}
	}

	opts := &model.Options{
		Categories: make([]model.Category, 0, len(categories)),
		Languages:  make([]string, 0, len(languages)),
	}
	for c := range categories {
		opts.Categories = append(opts.Categories, c)
	}
	for l := range languages {
		opts.Languages = append(opts.Languages, l)
	}
	slices.Sort(opts.Categories)
	slices.Sort(opts.Languages)
	return opts
}

// load загружает материалы и упорядочивает их по входному списку.
// Повторные идентификаторы учитываются один раз.
func (r *Resolver) load(ctx context.Context, ids []string) ([]model.ContentItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := r.items.LoadItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: загрузка материалов: %w", model.ErrStorageUnavailable, err)
	}

	seen := make(map[string]struct{}, len(ids))
	items := make([]model.ContentItem, 0, len(found))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if item, ok := found[id]; ok && item != nil {
			items = append(items, item)
		}
	}
	return items, nil
}

// SameLanguage сравнивает коды языков как BCP 47 теги (pt-br == pt-BR).
func SameLanguage(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	ta, errA := language.Parse(a)
	tb, errB := language.Parse(b)
	return errA == nil && errB == nil && ta == tb
}

// findLanguage ищет код lang среди переводов и возвращает сохранённый вариант.
func findLanguage(translations []string, lang string) (string, bool) {
	for _, t := range translations {
		if SameLanguage(t, lang) {
			return t, true
		}
	}
	return "", false
}

func uniqueLanguages(languages []string) []string {
	out := make([]string, 0, len(languages))
	for _, l := range languages {
		if _, dup := findLanguage(out, l); !dup {
			out = append(out, l)
		}
	}
	return out
}
