// documents.go — обработчики /api/v1/documents/*:
// опции формы, подготовка скачивания и внешние ссылки.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/goartstore/document-module/internal/api/errors"
	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
)

// maxRequestBody — ограничение тела запроса на скачивание.
const maxRequestBody = 1 << 20

type categoryOptionResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Files int    `json:"files"`
}

type optionsResponse struct {
	Categories        []categoryOptionResponse `json:"categories"`
	Languages         []string                 `json:"languages"`
	DefaultCategories []string                 `json:"default_categories"`
	DefaultLanguages  []string                 `json:"default_languages"`
}

type downloadRequest struct {
	IDs       []string `json:"ids"`
	Keys      []string `json:"keys"`
	Field     string   `json:"field"`
	Formats   []string `json:"formats"`
	Languages []string `json:"languages"`
}

type downloadResponse struct {
	URL     string `json:"url"`
	Archive bool   `json:"archive"`
	Entries int    `json:"entries"`
	Skipped int    `json:"skipped"`
}

type linkResponse struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type linksResponse struct {
	Items []linkResponse `json:"items"`
}

// GetOptions — GET /api/v1/documents/options?ids=...&keys=...&field=...
func (h *APIHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var ids, keys []string
	var field string
	if err := runtime.BindQueryParameter("form", true, false, "ids", query, &ids); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный параметр ids: %v", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "keys", query, &keys); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный параметр keys: %v", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "field", query, &field); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный параметр field: %v", err))
		return
	}

	itemIDs, err := h.documents.ItemIDs(ids, keys)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	opts, err := h.documents.Options(r.Context(), itemIDs, field)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := optionsResponse{
		Categories:        make([]categoryOptionResponse, 0, len(opts.Categories)),
		Languages:         nonNil(opts.Languages),
		DefaultCategories: make([]string, 0, len(opts.DefaultCategories)),
		DefaultLanguages:  nonNil(opts.DefaultLanguages),
	}
	for _, c := range opts.Categories {
		resp.Categories = append(resp.Categories, categoryOptionResponse{
			Value: c.Category.String(),
			Label: c.Label,
			Files: c.Files,
		})
	}
	for _, c := range opts.DefaultCategories {
		resp.DefaultCategories = append(resp.DefaultCategories, c.String())
	}

	writeJSON(w, http.StatusOK, resp)
}

// Download — POST /api/v1/documents/download.
func (h *APIHandler) Download(w http.ResponseWriter, r *http.Request) {
	var body downloadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&body); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректное тело запроса: %v", err))
		return
	}

	itemIDs, err := h.documents.ItemIDs(body.IDs, body.Keys)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	formats := make([]model.Category, 0, len(body.Formats))
	for _, f := range body.Formats {
		c, err := model.ParseCategory(f)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		formats = append(formats, c)
	}

	result, err := h.documents.Download(r.Context(), model.SelectionRequest{
		ItemIDs:   itemIDs,
		FieldName: body.Field,
		Formats:   formats,
		Languages: body.Languages,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, downloadResponse{
		URL:     result.URL,
		Archive: result.Archive,
		Entries: result.Entries,
		Skipped: result.Skipped,
	})
}

// GetLinks — GET /api/v1/documents/links?ids=...&lang=...
func (h *APIHandler) GetLinks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var ids, keys []string
	var lang string
	if err := runtime.BindQueryParameter("form", true, false, "ids", query, &ids); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный параметр ids: %v", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "keys", query, &keys); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный параметр keys: %v", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "lang", query, &lang); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный параметр lang: %v", err))
		return
	}

	itemIDs, err := h.documents.ItemIDs(ids, keys)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	links, err := h.documents.ExternalLinks(r.Context(), itemIDs, lang)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := linksResponse{Items: make([]linkResponse, 0, len(links))}
	for _, l := range links {
		resp.Items = append(resp.Items, linkResponse{URI: l.URI, Title: l.Title})
	}
	writeJSON(w, http.StatusOK, resp)
}

// nonNil заменяет nil на пустой срез, чтобы в JSON был [] вместо null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
