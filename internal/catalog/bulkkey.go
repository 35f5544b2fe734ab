package catalog

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// BulkKey — разобранный ключ строки таблицы массового выбора.
// Ключ кодирует тип сущности, язык, идентификатор и (опционально) ревизию.
type BulkKey struct {
	Language   string
	EntityType string
	ID         string
	RevisionID string
}

// DecodeBulkKey разбирает ключ вида base64(JSON-массив).
// Формат массива: [префикс, язык, тип сущности, id] или с ревизией пятым элементом.
func DecodeBulkKey(encoded string) (BulkKey, error) {
	raw, err := decodeBase64(strings.TrimSpace(encoded))
	if err != nil {
		return BulkKey{}, fmt.Errorf("некорректный ключ выбора: %w", err)
	}

	var parts []any
	if err := json.Unmarshal(raw, &parts); err != nil {
		return BulkKey{}, fmt.Errorf("некорректный ключ выбора: %w", err)
	}
	if len(parts) != 4 && len(parts) != 5 {
		return BulkKey{}, fmt.Errorf("некорректный ключ выбора: ожидалось 4 или 5 элементов, получено %d", len(parts))
	}

	key := BulkKey{
		Language:   scalar(parts[1]),
		EntityType: scalar(parts[2]),
		ID:         scalar(parts[3]),
	}
	if len(parts) == 5 {
		key.RevisionID = scalar(parts[4])
	}
	if key.ID == "" {
		return BulkKey{}, fmt.Errorf("некорректный ключ выбора: пустой идентификатор")
	}
	return key, nil
}

// decodeBase64 принимает стандартный и URL-safe алфавит, с паддингом и без.
func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.URLEncoding,
		base64.RawStdEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("не base64")
}

// scalar приводит элемент JSON-массива к строке (числа без дробной части).
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
