package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
)

// ItemRepository — чтение материалов, их переводов и полей.
type ItemRepository interface {
	// LoadItems загружает найденные материалы. Отсутствующие id
	// в результат не попадают.
	LoadItems(ctx context.Context, ids []string) (map[string]model.ContentItem, error)
	// LoadLinks возвращает ссылки поля fieldName для каждого материала
	// в порядке (язык, delta). Пустой langcode — ссылки всех переводов.
	LoadLinks(ctx context.Context, ids []string, fieldName, langcode string) (map[string][]model.ExternalLink, error)
}

type itemRepo struct {
	db DBTX
}

// NewItemRepository создаёт репозиторий материалов.
func NewItemRepository(db DBTX) ItemRepository {
	return &itemRepo{db: db}
}

// LoadItems выполняет три запроса: материалы, переводы, файлы полей.
func (r *itemRepo) LoadItems(ctx context.Context, ids []string) (map[string]model.ContentItem, error) {
	result := make(map[string]model.ContentItem, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	items := make(map[string]*model.Item, len(ids))

	rows, err := r.db.Query(ctx, `SELECT id FROM content_items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки материалов: %w", err)
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ошибка сканирования материала: %w", err)
		}
		items[id] = model.NewItem(id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации материалов: %w", err)
	}
	if len(items) == 0 {
		return result, nil
	}

	// Переводы
	rows, err = r.db.Query(ctx,
		`SELECT item_id, langcode FROM content_item_translations
		WHERE item_id = ANY($1) ORDER BY item_id, langcode`, ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки переводов: %w", err)
	}
	for rows.Next() {
		var itemID, langcode string
		if err := rows.Scan(&itemID, &langcode); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ошибка сканирования перевода: %w", err)
		}
		if item, ok := items[itemID]; ok {
			item.Languages = append(item.Languages, langcode)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации переводов: %w", err)
	}

	// Файлы полей в порядке delta
	rows, err = r.db.Query(ctx,
		`SELECT f.item_id, f.field_name, f.langcode, m.uri
		FROM content_item_files f
		JOIN managed_files m ON m.file_id = f.file_id
		WHERE f.item_id = ANY($1)
		ORDER BY f.item_id, f.field_name, f.langcode, f.delta`, ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки файлов материалов: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var itemID, fieldName, langcode, uri string
		if err := rows.Scan(&itemID, &fieldName, &langcode, &uri); err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла материала: %w", err)
		}
		if item, ok := items[itemID]; ok {
			item.AddFile(fieldName, langcode, uri)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации файлов материалов: %w", err)
	}

	for id, item := range items {
		result[id] = item
	}
	return result, nil
}

// LoadLinks загружает внешние ссылки поля.
func (r *itemRepo) LoadLinks(ctx context.Context, ids []string, fieldName, langcode string) (map[string][]model.ExternalLink, error) {
	result := make(map[string][]model.ExternalLink)
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT item_id, uri, title FROM content_item_links
		WHERE item_id = ANY($1) AND field_name = $2 AND ($3::text = '' OR langcode = $3::text)
		ORDER BY item_id, langcode, delta`, ids, fieldName, langcode)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки ссылок: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID string
		var link model.ExternalLink
		if err := rows.Scan(&itemID, &link.URI, &link.Title); err != nil {
			return nil, fmt.Errorf("ошибка сканирования ссылки: %w", err)
		}
		result[itemID] = append(result[itemID], link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации ссылок: %w", err)
	}
	return result, nil
}
