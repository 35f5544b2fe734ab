package service

import (
	"testing"
	"time"

	"github.com/bigkaa/goartstore/document-module/internal/domain/model"
)

// TestCacheService_GetSet проверяет базовые операции Get/Set.
func TestCacheService_GetSet(t *testing.T) {
	cache := NewCacheService(100, 5*time.Minute)

	if _, ok := cache.Get("public://a.pdf"); ok {
		t.Fatal("ожидался cache miss для нового ключа")
	}

	cache.Set("public://a.pdf", &model.StoredFile{ID: "f1", URI: "public://a.pdf"})
	got, ok := cache.Get("public://a.pdf")
	if !ok {
		t.Fatal("ожидался cache hit после Set")
	}
	if got.ID != "f1" {
		t.Errorf("ID = %q, ожидался f1", got.ID)
	}
}

// TestCacheService_Delete проверяет инвалидацию.
func TestCacheService_Delete(t *testing.T) {
	cache := NewCacheService(100, 5*time.Minute)
	cache.Set("public://a.pdf", &model.StoredFile{ID: "f1"})
	cache.Delete("public://a.pdf")

	if _, ok := cache.Get("public://a.pdf"); ok {
		t.Error("ожидался cache miss после Delete")
	}
}

// TestCacheService_Eviction проверяет вытеснение при переполнении.
func TestCacheService_Eviction(t *testing.T) {
	cache := NewCacheService(2, 5*time.Minute)
	cache.Set("a", &model.StoredFile{ID: "a"})
	cache.Set("b", &model.StoredFile{ID: "b"})
	cache.Set("c", &model.StoredFile{ID: "c"})

	if _, ok := cache.Get("a"); ok {
		t.Error("самая старая запись должна быть вытеснена")
	}
	for _, key := range []string{"b", "c"} {
		if _, ok := cache.Get(key); !ok {
			t.Errorf("запись %s должна остаться в кэше", key)
		}
	}
}

// TestCacheService_TTL проверяет истечение срока жизни.
func TestCacheService_TTL(t *testing.T) {
	cache := NewCacheService(10, 50*time.Millisecond)
	cache.Set("a", &model.StoredFile{ID: "a"})

	time.Sleep(150 * time.Millisecond)

	if _, ok := cache.Get("a"); ok {
		t.Error("ожидался cache miss после истечения TTL")
	}
}
