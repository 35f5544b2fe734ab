// Пакет catalog — разрешение материалов в набор файлов для скачивания.
// Классификация файлов по расширению, доступные категории и языки,
// фильтрация URI по выбранным форматам и языкам.
package catalog

import (
	"path"
	"strings"

	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
)

// extensionCategories — фиксированная таблица расширение → категория.
var extensionCategories = map[string]model.Category{
	"csv":   model.CategoryDocument,
	"doc":   model.CategoryDocument,
	"docx":  model.CategoryDocument,
	"fodg":  model.CategoryDocument,
	"fodt":  model.CategoryDocument,
	"odf":   model.CategoryDocument,
	"odg":   model.CategoryDocument,
	"odt":   model.CategoryDocument,
	"pages": model.CategoryDocument,
	"rtf":   model.CategoryDocument,

	"pdf": model.CategoryPDF,
	"txt": model.CategoryText,

	"gif":  model.CategoryImage,
	"jpg":  model.CategoryImage,
	"jpeg": model.CategoryImage,
	"png":  model.CategoryImage,
	"svg":  model.CategoryImage,

	"key":  model.CategoryPresentation,
	"fodp": model.CategoryPresentation,
	"odp":  model.CategoryPresentation,
	"ppt":  model.CategoryPresentation,
	"pptx": model.CategoryPresentation,

	"numbers": model.CategorySpreadsheet,
	"fods":    model.CategorySpreadsheet,
	"ods":     model.CategorySpreadsheet,
	"xls":     model.CategorySpreadsheet,
	"xlsx":    model.CategorySpreadsheet,

	"shtml": model.CategoryLink,
	"htm":   model.CategoryLink,

	"mp4": model.CategoryVideo,
	"mov": model.CategoryVideo,
	"avi": model.CategoryVideo,
}

// Classify определяет категорию файла по расширению URI (без учёта регистра).
// Возвращает false для неизвестного или отсутствующего расширения:
// такие файлы не попадают в наборы кандидатов.
func Classify(uri string) (model.Category, bool) {
	ext := strings.TrimPrefix(path.Ext(baseName(uri)), ".")
	if ext == "" {
		return "", false
	}
	c, ok := extensionCategories[strings.ToLower(ext)]
	return c, ok
}

// baseName возвращает последний сегмент URI вида scheme://dir/file.ext.
func baseName(uri string) string {
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
