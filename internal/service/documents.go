// documents.go — сервис выбора документов и подготовки скачивания.
// Координирует разрешение материалов (catalog), сборку архива (archive),
// загрузку внешних ссылок и Prometheus-метрики.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/text/language"

	"github.com/bigkaa/goartstore/document-module/internal/catalog"
	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
)

// Ошибки сервисного слоя.
var (
	// ErrValidation — некорректные параметры запроса.
	ErrValidation = errors.New("ошибка валидации")
)

// DefaultExternalLinksField — поле внешних ссылок по умолчанию.
const DefaultExternalLinksField = "field_external_links"

// DefaultLinkTitle — заголовок ссылки, если он не задан.
const DefaultLinkTitle = "Website"

// fieldNamePattern — машинное имя поля.
var fieldNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Prometheus-метрики скачиваний.
var (
	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_downloads_total",
		Help: "Количество запросов на скачивание (по результату).",
	}, []string{"result"})
	downloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dm_download_duration_seconds",
		Help:    "Длительность подготовки скачивания.",
		Buckets: prometheus.DefBuckets,
	})
)

// Catalog — разрешение материалов в файлы.
type Catalog interface {
	References(ctx context.Context, ids []string, fieldName string) ([]model.FileReference, error)
	FilteredFiles(ctx context.Context, ids []string, fieldName string, formats []model.Category, languages []string) ([]string, error)
}

// Archiver — подготовка ссылки на скачивание.
type Archiver interface {
	PrepareDownload(ctx context.Context, uris []string) (*model.ArchiveResult, error)
}

// LinkLoader — загрузка внешних ссылок материалов.
type LinkLoader interface {
	LoadLinks(ctx context.Context, ids []string, fieldName, langcode string) (map[string][]model.ExternalLink, error)
}

// LinksFieldOverride позволяет заменить имя поля внешних ссылок.
// Получает текущее имя и возвращает новое.
type LinksFieldOverride func(fieldName string) string

// DocumentServiceConfig — параметры DocumentService.
type DocumentServiceConfig struct {
	// ExternalLinksField — поле внешних ссылок (по умолчанию field_external_links)
	ExternalLinksField string
	// LinksFieldOverrides применяются по порядку к имени поля
	LinksFieldOverrides []LinksFieldOverride
	// SiteLanguages — языки сайта; пустой список — без ограничения
	SiteLanguages []string
}

// CategoryOption — категория, доступная для выбора.
type CategoryOption struct {
	Category model.Category
	Label    string
	// Files — количество файлов категории
	Files int
}

// OptionsResult — опции формы скачивания.
type OptionsResult struct {
	Categories []CategoryOption
	Languages  []string
	// DefaultCategories — предвыбор, если категория единственная
	DefaultCategories []model.Category
	// DefaultLanguages — предвыбор, если язык единственный
	DefaultLanguages []string
}

// DocumentService — выбор документов и подготовка скачивания.
type DocumentService struct {
	catalog       Catalog
	archiver      Archiver
	links         LinkLoader
	linksField    string
	siteLanguages []string
	logger        *slog.Logger
}

// NewDocumentService создаёт сервис документов.
func NewDocumentService(
	catalog Catalog,
	archiver Archiver,
	links LinkLoader,
	cfg DocumentServiceConfig,
	logger *slog.Logger,
) *DocumentService {
	field := cfg.ExternalLinksField
	if field == "" {
		field = DefaultExternalLinksField
	}
	for _, override := range cfg.LinksFieldOverrides {
		if override == nil {
			continue
		}
		if name := override(field); name != "" {
			field = name
		}
	}

	return &DocumentService{
		catalog:       catalog,
		archiver:      archiver,
		links:         links,
		linksField:    field,
		siteLanguages: cfg.SiteLanguages,
		logger:        logger.With(slog.String("component", "document_service")),
	}
}

// LinksField возвращает итоговое имя поля внешних ссылок.
func (s *DocumentService) LinksField() string {
	return s.linksField
}

// ItemIDs объединяет явные идентификаторы и ключи массового выбора.
// Порядок сохраняется, повторы удаляются.
func (s *DocumentService) ItemIDs(ids, keys []string) ([]string, error) {
	result := make([]string, 0, len(ids)+len(keys))
	seen := make(map[string]struct{}, len(ids)+len(keys))
	add := func(id string) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}

	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			add(id)
		}
	}
	for _, encoded := range keys {
		key, err := catalog.DecodeBulkKey(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		if key.EntityType != "" && key.EntityType != "node" {
			return nil, fmt.Errorf("%w: тип сущности %q не поддерживается", ErrValidation, key.EntityType)
		}
		add(key.ID)
	}
	return result, nil
}

// Options возвращает доступные категории и языки для выбранных материалов.
// Языки ограничиваются языками сайта, если они заданы.
func (s *DocumentService) Options(ctx context.Context, ids []string, fieldName string) (*OptionsResult, error) {
	if err := validateSelection(ids, fieldName); err != nil {
		return nil, err
	}

	refs, err := s.catalog.References(ctx, ids, fieldName)
	if err != nil {
		return nil, fmt.Errorf("получение файлов: %w", err)
	}

	allowed := refs[:0:0]
	for _, ref := range refs {
		if s.siteLanguage(ref.Language) {
			allowed = append(allowed, ref)
		}
	}

	summary := catalog.Summarize(allowed)
	counts := make(map[model.Category]int, len(summary.Categories))
	for _, ref := range allowed {
		counts[ref.Category]++
	}

	result := &OptionsResult{
		Categories: make([]CategoryOption, 0, len(summary.Categories)),
		Languages:  summary.Languages,
	}
	for _, c := range summary.Categories {
		result.Categories = append(result.Categories, CategoryOption{
			Category: c,
			Label:    c.Label(),
			Files:    counts[c],
		})
	}
	if len(summary.Categories) == 1 {
		result.DefaultCategories = summary.Categories
	}
	if len(summary.Languages) == 1 {
		result.DefaultLanguages = summary.Languages
	}

	return result, nil
}

// Download проверяет выбор, собирает файлы и готовит ссылку на скачивание.
func (s *DocumentService) Download(ctx context.Context, req model.SelectionRequest) (*model.ArchiveResult, error) {
	start := time.Now()

	if err := validateSelection(req.ItemIDs, req.FieldName); err != nil {
		downloadsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if len(req.Formats) == 0 {
		downloadsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: выберите хотя бы один формат", ErrValidation)
	}
	languages, err := s.validateLanguages(req.Languages)
	if err != nil {
		downloadsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	uris, err := s.catalog.FilteredFiles(ctx, req.ItemIDs, req.FieldName, req.Formats, languages)
	if err != nil {
		downloadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("выбор файлов: %w", err)
	}

	result, err := s.archiver.PrepareDownload(ctx, uris)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			downloadsTotal.WithLabelValues("not_found").Inc()
		} else {
			downloadsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	duration := time.Since(start)
	downloadDuration.Observe(duration.Seconds())
	downloadsTotal.WithLabelValues("success").Inc()

	s.logger.Info("Скачивание подготовлено",
		slog.Int("items", len(req.ItemIDs)),
		slog.Int("files", len(uris)),
		slog.Bool("archive", result.Archive),
		slog.Int("entries", result.Entries),
		slog.Duration("duration", duration),
	)

	return result, nil
}

// ExternalLinks возвращает внешние ссылки материалов в порядке ids.
// Пустой заголовок заменяется на DefaultLinkTitle.
func (s *DocumentService) ExternalLinks(ctx context.Context, ids []string, langcode string) ([]model.ExternalLink, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: не выбрано ни одного материала", ErrValidation)
	}
	if langcode != "" {
		if _, err := language.Parse(langcode); err != nil {
			return nil, fmt.Errorf("%w: некорректный код языка %q", ErrValidation, langcode)
		}
	}

	byItem, err := s.links.LoadLinks(ctx, ids, s.linksField, langcode)
	if err != nil {
		return nil, fmt.Errorf("%w: загрузка ссылок: %w", model.ErrStorageUnavailable, err)
	}

	var result []model.ExternalLink
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		for _, link := range byItem[id] {
			if strings.TrimSpace(link.Title) == "" {
				link.Title = DefaultLinkTitle
			}
			result = append(result, link)
		}
	}
	return result, nil
}

// validateSelection проверяет идентификаторы и имя поля.
func validateSelection(ids []string, fieldName string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: не выбрано ни одного материала", ErrValidation)
	}
	if !fieldNamePattern.MatchString(fieldName) {
		return fmt.Errorf("%w: недопустимое имя поля %q", ErrValidation, fieldName)
	}
	return nil
}

// validateLanguages оставляет корректные теги, разрешённые сайтом.
func (s *DocumentService) validateLanguages(languages []string) ([]string, error) {
	valid := make([]string, 0, len(languages))
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		if _, err := language.Parse(lang); err != nil {
			return nil, fmt.Errorf("%w: некорректный код языка %q", ErrValidation, lang)
		}
		if !s.siteLanguage(lang) {
			s.logger.Debug("Язык не поддерживается сайтом", slog.String("language", lang))
			continue
		}
		valid = append(valid, lang)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: выберите хотя бы один язык", ErrValidation)
	}
	return valid, nil
}

// siteLanguage проверяет, что язык входит в языки сайта.
func (s *DocumentService) siteLanguage(lang string) bool {
	if len(s.siteLanguages) == 0 {
		return true
	}
	for _, site := range s.siteLanguages {
		if catalog.SameLanguage(site, lang) {
			return true
		}
	}
	return false
}
