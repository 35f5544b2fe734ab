package catalog

import (
	"strings"
	"testing"

	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
)

// TestClassify_Table проверяет всю таблицу расширений в разных регистрах.
func TestClassify_Table(t *testing.T) {
	expected := map[model.Category][]string{
		model.CategoryDocument:     {"csv", "doc", "docx", "fodg", "fodt", "odf", "odg", "odt", "pages", "rtf"},
		model.CategoryPDF:          {"pdf"},
		model.CategoryText:         {"txt"},
		model.CategoryImage:        {"gif", "jpg", "jpeg", "png", "svg"},
		model.CategoryPresentation: {"key", "fodp", "odp", "ppt", "pptx"},
		model.CategorySpreadsheet:  {"numbers", "fods", "ods", "xls", "xlsx"},
		model.CategoryLink:         {"shtml", "htm"},
		model.CategoryVideo:        {"mp4", "mov", "avi"},
	}

	total := 0
	for category, exts := range expected {
		for _, ext := range exts {
			total++
			variants := []string{ext, strings.ToUpper(ext), mixedCase(ext)}
			for _, v := range variants {
				uri := "public://documents/file." + v
				got, ok := Classify(uri)
				if !ok {
					t.Errorf("Classify(%q): категория не определена, ожидалась %s", uri, category)
					continue
				}
				if got != category {
					t.Errorf("Classify(%q) = %s, ожидалась %s", uri, got, category)
				}
			}
		}
	}

	if total != len(extensionCategories) {
		t.Errorf("таблица содержит %d расширений, тест проверил %d", len(extensionCategories), total)
	}
}

// TestClassify_Unknown проверяет неизвестные и отсутствующие расширения.
func TestClassify_Unknown(t *testing.T) {
	uris := []string{
		"public://documents/archive.zip",
		"public://documents/README",
		"public://documents/.hidden",
		"public://documents.pdf/file",
		"",
		"public://documents/file.",
		"https://example.com/page.htm?lang=en",
	}
	for _, uri := range uris {
		if c, ok := Classify(uri); ok {
			t.Errorf("Classify(%q) = %s, ожидалось отсутствие категории", uri, c)
		}
	}
}

// TestClassify_Stable проверяет, что повторные вызовы дают тот же результат.
func TestClassify_Stable(t *testing.T) {
	for i := 0; i < 3; i++ {
		c, ok := Classify("private://Reports/Q1.XLSX")
		if !ok || c != model.CategorySpreadsheet {
			t.Fatalf("Classify = (%s, %v), ожидалось (spreadsheet, true)", c, ok)
		}
	}
}

// mixedCase чередует регистр символов: pdf → PdF.
func mixedCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i%2 == 0 {
			b.WriteString(strings.ToUpper(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
