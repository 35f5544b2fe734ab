// Пакет service — бизнес-логика Document Module.
// CacheService — LRU-кэш записей управляемых файлов с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш записей файлов.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша записей файлов.",
	})
)

// CacheService — LRU-кэш записей файлов по URI.
// Кэш локален для экземпляра сервиса.
type CacheService struct {
	cache *expirable.LRU[string, *model.StoredFile]
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	return &CacheService{cache: expirable.NewLRU[string, *model.StoredFile](maxSize, nil, ttl)}
}

// Get возвращает запись по URI. Обновляет метрики hit/miss.
func (c *CacheService) Get(uri string) (*model.StoredFile, bool) {
	val, ok := c.cache.Get(uri)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись.
func (c *CacheService) Set(uri string, file *model.StoredFile) {
	c.cache.Add(uri, file)
}

// Delete удаляет запись из кэша.
func (c *CacheService) Delete(uri string) {
	c.cache.Remove(uri)
}
