package catalog

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"

	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
)

const fieldDocs = "field_documents"

// --- Mock хранилища материалов ---

// mockItemStore — мок ItemStore для unit-тестов.
type mockItemStore struct {
	items      map[string]model.ContentItem
	loadFn     func(ctx context.Context, ids []string) (map[string]model.ContentItem, error)
	loadCalled int
}

func (m *mockItemStore) LoadItems(ctx context.Context, ids []string) (map[string]model.ContentItem, error) {
	m.loadCalled++
	if m.loadFn != nil {
		return m.loadFn(ctx, ids)
	}
	result := make(map[string]model.ContentItem)
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			result[id] = item
		}
	}
	return result, nil
}

// scenarioStore — материалы A и B из описания сценария:
// A: report.pdf (en), report.docx (fr); B: photo.png (en).
func scenarioStore() *mockItemStore {
	a := model.NewItem("A", "en", "fr")
	a.AddFile(fieldDocs, "en", "public://docs/report.pdf")
	a.AddFile(fieldDocs, "fr", "public://docs/report.docx")

	b := model.NewItem("B", "en")
	b.AddFile(fieldDocs, "en", "public://docs/photo.png")

	return &mockItemStore{items: map[string]model.ContentItem{"A": a, "B": b}}
}

func newTestResolver(store ItemStore) *Resolver {
	return NewResolver(store, slog.Default())
}

// --- AvailableOptions ---

// TestAvailableOptions_Scenario проверяет конкретный сценарий A/B.
func TestAvailableOptions_Scenario(t *testing.T) {
	r := newTestResolver(scenarioStore())

	opts, err := r.AvailableOptions(context.Background(), []string{"A", "B"}, fieldDocs)
	if err != nil {
		t.Fatalf("AvailableOptions ошибка: %v", err)
	}

	wantCategories := []model.Category{model.CategoryDocument, model.CategoryImage, model.CategoryPDF}
	if !slices.Equal(opts.Categories, wantCategories) {
		t.Errorf("Categories = %v, ожидались %v", opts.Categories, wantCategories)
	}
	wantLanguages := []string{"en", "fr"}
	if !slices.Equal(opts.Languages, wantLanguages) {
		t.Errorf("Languages = %v, ожидались %v", opts.Languages, wantLanguages)
	}
}

// TestAvailableOptions_LanguageWithoutClassifiedFiles проверяет, что язык
// без классифицируемых файлов не считается доступным.
func TestAvailableOptions_LanguageWithoutClassifiedFiles(t *testing.T) {
	item := model.NewItem("1", "en", "de", "it")
	item.AddFile(fieldDocs, "en", "public://docs/manual.pdf")
	item.AddFile(fieldDocs, "de", "public://docs/archive.zip")
	store := &mockItemStore{items: map[string]model.ContentItem{"1": item}}

	opts, err := newTestResolver(store).AvailableOptions(context.Background(), []string{"1"}, fieldDocs)
	if err != nil {
		t.Fatalf("AvailableOptions ошибка: %v", err)
	}
	if !slices.Equal(opts.Languages, []string{"en"}) {
		t.Errorf("Languages = %v, ожидался [en]", opts.Languages)
	}
	if !slices.Equal(opts.Categories, []model.Category{model.CategoryPDF}) {
		t.Errorf("Categories = %v, ожидался [pdf]", opts.Categories)
	}
}

// TestAvailableOptions_UnknownItemAndField проверяет пустой результат
// без ошибки для несуществующих материалов и пустого поля.
func TestAvailableOptions_UnknownItemAndField(t *testing.T) {
	r := newTestResolver(scenarioStore())

	opts, err := r.AvailableOptions(context.Background(), []string{"missing"}, fieldDocs)
	if err != nil {
		t.Fatalf("AvailableOptions ошибка: %v", err)
	}
	if len(opts.Categories) != 0 || len(opts.Languages) != 0 {
		t.Errorf("ожидался пустой результат, получено %+v", opts)
	}

	opts, err = r.AvailableOptions(context.Background(), []string{"A", "B"}, "field_other")
	if err != nil {
		t.Fatalf("AvailableOptions ошибка: %v", err)
	}
	if len(opts.Categories) != 0 || len(opts.Languages) != 0 {
		t.Errorf("ожидался пустой результат для пустого поля, получено %+v", opts)
	}
}

// TestAvailableOptions_StoreError проверяет проброс ошибки хранилища.
func TestAvailableOptions_StoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	store := &mockItemStore{
		loadFn: func(_ context.Context, _ []string) (map[string]model.ContentItem, error) {
			return nil, storeErr
		},
	}

	_, err := newTestResolver(store).AvailableOptions(context.Background(), []string{"A"}, fieldDocs)
	if !errors.Is(err, model.ErrStorageUnavailable) {
		t.Errorf("ошибка = %v, ожидалась ErrStorageUnavailable", err)
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("ошибка = %v, ожидалась исходная ошибка в цепочке", err)
	}
}

// --- FilteredFiles ---

// TestFilteredFiles_Scenario проверяет порядок: материал A перед B.
func TestFilteredFiles_Scenario(t *testing.T) {
	r := newTestResolver(scenarioStore())

	uris, err := r.FilteredFiles(context.Background(), []string{"A", "B"}, fieldDocs,
		[]model.Category{model.CategoryPDF, model.CategoryImage}, []string{"en"})
	if err != nil {
		t.Fatalf("FilteredFiles ошибка: %v", err)
	}

	want := []string{"public://docs/report.pdf", "public://docs/photo.png"}
	if !slices.Equal(uris, want) {
		t.Errorf("FilteredFiles = %v, ожидалось %v", uris, want)
	}
}

// TestFilteredFiles_Order проверяет порядок: материал, язык запроса, файл.
func TestFilteredFiles_Order(t *testing.T) {
	item := model.NewItem("1", "en", "fr")
	item.AddFile(fieldDocs, "en", "public://en/b.pdf")
	item.AddFile(fieldDocs, "en", "public://en/a.pdf")
	item.AddFile(fieldDocs, "fr", "public://fr/c.pdf")
	store := &mockItemStore{items: map[string]model.ContentItem{"1": item}}

	uris, err := newTestResolver(store).FilteredFiles(context.Background(), []string{"1"}, fieldDocs,
		[]model.Category{model.CategoryPDF}, []string{"fr", "en"})
	if err != nil {
		t.Fatalf("FilteredFiles ошибка: %v", err)
	}

	want := []string{"public://fr/c.pdf", "public://en/b.pdf", "public://en/a.pdf"}
	if !slices.Equal(uris, want) {
		t.Errorf("FilteredFiles = %v, ожидалось %v", uris, want)
	}
}

// TestFilteredFiles_DuplicatesKept проверяет, что одинаковые URI не схлопываются.
func TestFilteredFiles_DuplicatesKept(t *testing.T) {
	shared := "public://docs/shared.pdf"
	a := model.NewItem("A", "en", "fr")
	a.AddFile(fieldDocs, "en", shared)
	a.AddFile(fieldDocs, "fr", shared)
	b := model.NewItem("B", "en")
	b.AddFile(fieldDocs, "en", shared)
	store := &mockItemStore{items: map[string]model.ContentItem{"A": a, "B": b}}

	uris, err := newTestResolver(store).FilteredFiles(context.Background(), []string{"A", "B"}, fieldDocs,
		[]model.Category{model.CategoryPDF}, []string{"en", "fr"})
	if err != nil {
		t.Fatalf("FilteredFiles ошибка: %v", err)
	}
	if len(uris) != 3 {
		t.Errorf("len = %d, ожидалось 3 (повторы сохраняются): %v", len(uris), uris)
	}
}

// TestFilteredFiles_AbsentFilterValue проверяет пустой результат для
// формата или языка, которых нет у материалов.
func TestFilteredFiles_AbsentFilterValue(t *testing.T) {
	r := newTestResolver(scenarioStore())
	ctx := context.Background()

	uris, err := r.FilteredFiles(ctx, []string{"A", "B"}, fieldDocs,
		[]model.Category{model.CategoryVideo}, []string{"en", "fr"})
	if err != nil || len(uris) != 0 {
		t.Errorf("video: uris = %v, err = %v, ожидался пустой результат", uris, err)
	}

	uris, err = r.FilteredFiles(ctx, []string{"A", "B"}, fieldDocs,
		[]model.Category{model.CategoryPDF}, []string{"de"})
	if err != nil || len(uris) != 0 {
		t.Errorf("de: uris = %v, err = %v, ожидался пустой результат", uris, err)
	}
}

// TestFilteredFiles_EmptyFilters проверяет, что пустые фильтры не обращаются к хранилищу.
func TestFilteredFiles_EmptyFilters(t *testing.T) {
	store := scenarioStore()
	r := newTestResolver(store)

	uris, err := r.FilteredFiles(context.Background(), []string{"A"}, fieldDocs, nil, []string{"en"})
	if err != nil || len(uris) != 0 {
		t.Errorf("uris = %v, err = %v, ожидался пустой результат", uris, err)
	}
	if store.loadCalled != 0 {
		t.Errorf("LoadItems вызван %d раз, ожидалось 0", store.loadCalled)
	}
}

// TestFilteredFiles_LanguageTagEquality проверяет сравнение тегов без учёта регистра.
func TestFilteredFiles_LanguageTagEquality(t *testing.T) {
	item := model.NewItem("1", "pt-br")
	item.AddFile(fieldDocs, "pt-br", "public://docs/guia.pdf")
	store := &mockItemStore{items: map[string]model.ContentItem{"1": item}}

	uris, err := newTestResolver(store).FilteredFiles(context.Background(), []string{"1"}, fieldDocs,
		[]model.Category{model.CategoryPDF}, []string{"pt-BR"})
	if err != nil {
		t.Fatalf("FilteredFiles ошибка: %v", err)
	}
	if !slices.Equal(uris, []string{"public://docs/guia.pdf"}) {
		t.Errorf("FilteredFiles = %v, ожидался guia.pdf", uris)
	}
}

// TestFilteredFiles_DuplicateIDs проверяет, что повторный id учитывается один раз.
func TestFilteredFiles_DuplicateIDs(t *testing.T) {
	r := newTestResolver(scenarioStore())

	uris, err := r.FilteredFiles(context.Background(), []string{"B", "B"}, fieldDocs,
		[]model.Category{model.CategoryImage}, []string{"en"})
	if err != nil {
		t.Fatalf("FilteredFiles ошибка: %v", err)
	}
	if len(uris) != 1 {
		t.Errorf("len = %d, ожидалось 1", len(uris))
	}
}

// --- Свойства ---

// richStore — набор материалов для проверки свойств.
func richStore() *mockItemStore {
	one := model.NewItem("1", "en", "fr", "de")
	one.AddFile(fieldDocs, "en", "public://1/en/spec.pdf")
	one.AddFile(fieldDocs, "en", "public://1/en/slides.pptx")
	one.AddFile(fieldDocs, "fr", "public://1/fr/spec.odt")
	one.AddFile(fieldDocs, "fr", "public://1/fr/data.bin")
	one.AddFile(fieldDocs, "de", "public://1/de/clip.MP4")

	two := model.NewItem("2", "en")
	two.AddFile(fieldDocs, "en", "public://2/en/sheet.xlsx")
	two.AddFile(fieldDocs, "en", "public://2/en/notes.txt")
	two.AddFile("field_images", "en", "public://2/en/logo.png")

	three := model.NewItem("3", "es")
	three.AddFile(fieldDocs, "es", "public://3/es/page.htm")

	return &mockItemStore{items: map[string]model.ContentItem{"1": one, "2": two, "3": three}}
}

var allCategories = []model.Category{
	model.CategoryDocument, model.CategoryImage, model.CategoryLink, model.CategoryPDF,
	model.CategoryPresentation, model.CategorySpreadsheet, model.CategoryText, model.CategoryVideo,
}

// TestAvailableOptions_Soundness проверяет, что каждая доступная категория
// и каждый доступный язык дают непустой FilteredFiles.
func TestAvailableOptions_Soundness(t *testing.T) {
	r := newTestResolver(richStore())
	ctx := context.Background()
	ids := []string{"1", "2", "3"}

	opts, err := r.AvailableOptions(ctx, ids, fieldDocs)
	if err != nil {
		t.Fatalf("AvailableOptions ошибка: %v", err)
	}

	for _, c := range opts.Categories {
		uris, err := r.FilteredFiles(ctx, ids, fieldDocs, []model.Category{c}, opts.Languages)
		if err != nil || len(uris) == 0 {
			t.Errorf("категория %s: uris = %v, err = %v", c, uris, err)
		}
	}
	for _, l := range opts.Languages {
		uris, err := r.FilteredFiles(ctx, ids, fieldDocs, allCategories, []string{l})
		if err != nil || len(uris) == 0 {
			t.Errorf("язык %s: uris = %v, err = %v", l, uris, err)
		}
	}
	if slices.Contains(opts.Categories, model.CategoryImage) {
		t.Error("image не должна быть доступна: logo.png прикреплён к другому полю")
	}
}

// TestFilteredFiles_Monotonic проверяет, что расширение фильтров не убирает URI.
func TestFilteredFiles_Monotonic(t *testing.T) {
	r := newTestResolver(richStore())
	ctx := context.Background()
	ids := []string{"1", "2", "3"}
	languages := []string{"de", "en", "es", "fr"}

	// Перебираем пары (узкий ⊆ широкий) по префиксам списков.
	for nf := 1; nf <= len(allCategories); nf++ {
		for nl := 1; nl <= len(languages); nl++ {
			narrow, err := r.FilteredFiles(ctx, ids, fieldDocs, allCategories[:nf], languages[:nl])
			if err != nil {
				t.Fatalf("FilteredFiles ошибка: %v", err)
			}
			wideFormats, err := r.FilteredFiles(ctx, ids, fieldDocs, allCategories, languages[:nl])
			if err != nil {
				t.Fatalf("FilteredFiles ошибка: %v", err)
			}
			wideLanguages, err := r.FilteredFiles(ctx, ids, fieldDocs, allCategories[:nf], languages)
			if err != nil {
				t.Fatalf("FilteredFiles ошибка: %v", err)
			}
			for _, uri := range narrow {
				if !slices.Contains(wideFormats, uri) {
					t.Errorf("formats[:%d] → all: потерян %s", nf, uri)
				}
				if !slices.Contains(wideLanguages, uri) {
					t.Errorf("languages[:%d] → all: потерян %s", nl, uri)
				}
			}
		}
	}
}

// TestReferences проверяет состав троек (URI, категория, язык).
func TestReferences(t *testing.T) {
	r := newTestResolver(scenarioStore())

	refs, err := r.References(context.Background(), []string{"A", "B"}, fieldDocs)
	if err != nil {
		t.Fatalf("References ошибка: %v", err)
	}

	want := []model.FileReference{
		{URI: "public://docs/report.pdf", Category: model.CategoryPDF, Language: "en", Name: "report.pdf"},
		{URI: "public://docs/report.docx", Category: model.CategoryDocument, Language: "fr", Name: "report.docx"},
		{URI: "public://docs/photo.png", Category: model.CategoryImage, Language: "en", Name: "photo.png"},
	}
	if !slices.Equal(refs, want) {
		t.Errorf("References = %+v, ожидалось %+v", refs, want)
	}
}
