// Пакет model — доменные модели Document Module.
// Категории документов, ссылки на файлы, материалы (content items)
// и результаты подготовки скачивания.
package model

import (
	"fmt"
	"strings"
)

// Category — грубая классификация документа по расширению файла.
type Category string

// Закрытый набор категорий.
const (
	CategoryPDF          Category = "pdf"
	CategoryDocument     Category = "document"
	CategoryText         Category = "text"
	CategoryImage        Category = "image"
	CategoryPresentation Category = "presentation"
	CategorySpreadsheet  Category = "spreadsheet"
	CategoryVideo        Category = "video"
	CategoryLink         Category = "link"
	CategoryUnknown      Category = "unknown"
)

// categoryLabels — короткие подписи категорий для UI (иконки формата).
var categoryLabels = map[Category]string{
	CategoryPDF:          "PDF",
	CategoryDocument:     "DOC",
	CategorySpreadsheet:  "XLS",
	CategoryPresentation: "PPT",
	CategoryVideo:        "VIDEO",
	CategoryText:         "TEXT",
	CategoryImage:        "IMG",
	CategoryLink:         "HTML",
}

// Label возвращает короткую подпись категории или пустую строку.
func (c Category) Label() string {
	return categoryLabels[c]
}

// String реализует fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// ParseCategory проверяет значение, пришедшее от клиента.
// Регистр не учитывается.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryPDF, CategoryDocument, CategoryText, CategoryImage,
		CategoryPresentation, CategorySpreadsheet, CategoryVideo,
		CategoryLink, CategoryUnknown:
		return c, nil
	default:
		return "", fmt.Errorf("недопустимый формат %q", s)
	}
}
