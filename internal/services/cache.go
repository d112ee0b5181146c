package services

import (
	"sync"
	"time"

	"photo-album/internal/models"
)

// CacheService holds rendered thumbnails in memory for a fixed TTL.
type CacheService struct {
	cache           map[string]*models.CacheEntry
	mu              sync.RWMutex
	ttl             time.Duration
	cleanupInterval time.Duration
	done            chan struct{}
	closeOnce       sync.Once
}

func NewCacheService(ttl, cleanupInterval time.Duration) *CacheService {
	cs := &CacheService{
		cache:           make(map[string]*models.CacheEntry),
		ttl:             ttl,
		cleanupInterval: cleanupInterval,
		done:            make(chan struct{}),
	}

	// Start cleanup goroutine
	go cs.cleanupExpired()

	return cs
}

// Retrieves a cache entry by key, returning nil if not found or expired.
func (cs *CacheService) Get(key string) (*models.CacheEntry, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, ok := cs.cache[key]
	if !ok {
		return nil, false
	}

	if entry.Expires.Before(time.Now()) {
		return nil, false
	}

	return entry, true
}

// Stores data in the cache with the specified key and metadata.
// The entry will expire after the configured TTL.
func (cs *CacheService) Set(key string, data []byte, contentType, fileName string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &models.CacheEntry{
		Data:        data,
		ContentType: contentType,
		FileName:    fileName,
		Expires:     time.Now().Add(cs.ttl),
	}
}

// Delete drops key, used when the underlying image is replaced.
func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
}

// Len returns the number of entries, including expired ones not yet swept.
func (cs *CacheService) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	return len(cs.cache)
}

// Close stops the cleanup goroutine.
func (cs *CacheService) Close() {
	cs.closeOnce.Do(func() { close(cs.done) })
}

// Periodically removes expired entries from the cache.
// This runs in a background goroutine started by NewCacheService.
func (cs *CacheService) cleanupExpired() {
	ticker := time.NewTicker(cs.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cs.done:
			return
		case <-ticker.C:
			cs.sweep(time.Now())
		}
	}
}

func (cs *CacheService) sweep(now time.Time) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for k, v := range cs.cache {
		if v.Expires.Before(now) {
			delete(cs.cache, k)
		}
	}
}
