package internal

import (
	"crypto/md5"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	tt "github.com/gnolang/mexp/internal/types"
)

const cacheFileName = "expand_cache.gob"

type fileMetadata struct {
	Hash string
	// Key identifies the engine settings the result was produced with.
	Key string
}

type CacheEntry struct {
	Metadata     fileMetadata
	Result       *tt.Result
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Cache stores expansion results on disk, keyed by file name. An entry is
// only reused while the file content and the engine settings are unchanged.
type Cache struct {
	CacheDir string
	entries  map[string]CacheEntry
	mutex    sync.RWMutex
	maxAge   time.Duration
}

func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cache := &Cache{
		CacheDir: cacheDir,
		entries:  make(map[string]CacheEntry),
	}

	if err := cache.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	return cache, nil
}

func (c *Cache) load() error {
	cacheFile := filepath.Join(c.CacheDir, cacheFileName)
	file, err := os.Open(cacheFile)
	if os.IsNotExist(err) {
		return nil // cache file doesn't exist yet. This is fine.
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&c.entries); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}

	return nil
}

// save must be called with the mutex held.
func (c *Cache) save() error {
	cacheFile := filepath.Join(c.CacheDir, cacheFileName)
	file, err := os.Create(cacheFile)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(c.entries); err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}

	return nil
}

// Set records result as the expansion of source, the content filename had
// when it was expanded.
func (c *Cache) Set(filename, key string, source []byte, result *tt.Result) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	hash := fmt.Sprintf("%x", md5.Sum(source))

	now := time.Now()
	c.entries[filename] = CacheEntry{
		Metadata:     fileMetadata{Hash: hash, Key: key},
		Result:       result,
		CreatedAt:    now,
		LastAccessed: now,
	}

	return c.save()
}

func (c *Cache) Get(filename, key string) (*tt.Result, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[filename]
	if !exists {
		return nil, false
	}

	if c.isEntryInvalid(filename, key, entry) {
		delete(c.entries, filename)
		return nil, false
	}

	entry.LastAccessed = time.Now()
	c.entries[filename] = entry

	return entry.Result, true
}

func (c *Cache) isEntryInvalid(filename, key string, entry CacheEntry) bool {
	// too old
	if c.maxAge > 0 && time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}

	if entry.Metadata.Key != key {
		return true
	}

	hash, err := getFileHash(filename)
	return err != nil || hash != entry.Metadata.Hash
}

// SetMaxAge bounds how long entries stay valid. Zero keeps them until the
// file changes.
func (c *Cache) SetMaxAge(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = duration
}

func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.entries)
}

func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]CacheEntry)
	_ = c.save() // ignore error as this is a manual operation
}

func getFileHash(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
