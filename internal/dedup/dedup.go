package dedup

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go-goodhr-automation/internal/models"
)

type seenEntry struct {
	Key       string `json:"key"`
	Timestamp int64  `json:"timestamp"`
}

// CandidateCache remembers greeted candidates across sessions.
type CandidateCache struct {
	mu       sync.Mutex
	filePath string
	seen     map[string]int64
	now      func() time.Time
}

const thirtyDaysMs = int64(30 * 24 * 60 * 60 * 1000)

// NewCandidateCache creates or loads the cache in cacheDir.
func NewCandidateCache(cacheDir string) *CandidateCache {
	return newCandidateCache(cacheDir, time.Now)
}

func newCandidateCache(cacheDir string, now func() time.Time) *CandidateCache {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Printf("⚠️ Failed to create cache directory: %v", err)
	}
	cache := &CandidateCache{
		filePath: filepath.Join(cacheDir, "seen_candidates.json"),
		seen:     make(map[string]int64),
		now:      now,
	}
	cache.load()
	return cache
}

// Fingerprint identifies a candidate when the page gives no stable ID.
func Fingerprint(rec models.CandidateRecord) string {
	age := ""
	if rec.Age != nil {
		age = strconv.Itoa(*rec.Age)
	}
	parts := []string{rec.Name, age, rec.Education, rec.University}
	sum := sha1.Sum([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// Key prefers the feed's own key.
func Key(itemKey string, rec models.CandidateRecord) string {
	if itemKey != "" {
		return itemKey
	}
	return Fingerprint(rec)
}

// IsSeen checks if a candidate was greeted in the last 30 days.
func (c *CandidateCache) IsSeen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts, exists := c.seen[key]
	return exists && ts > c.now().UnixMilli()-thirtyDaysMs
}

// Mark records keys as greeted and saves when anything changed.
func (c *CandidateCache) Mark(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UnixMilli()
	changed := false
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, exists := c.seen[key]; !exists {
			c.seen[key] = now
			changed = true
		}
	}

	if changed {
		c.save()
	}
}

func (c *CandidateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// load reads the cache from disk, dropping entries older than 30 days
func (c *CandidateCache) load() {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Failed to read seen_candidates.json: %v", err)
		}
		return
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("⚠️ Failed to parse seen_candidates.json: %v", err)
		return
	}

	cutoff := c.now().UnixMilli() - thirtyDaysMs
	loaded := 0
	for _, e := range entries {
		if e.Timestamp > cutoff {
			c.seen[e.Key] = e.Timestamp
			loaded++
		}
	}
	log.Printf("📋 Loaded %d previously greeted candidates (%d expired and removed)", loaded, len(entries)-loaded)
}

// save writes the current cache to disk
func (c *CandidateCache) save() {
	entries := make([]seenEntry, 0, len(c.seen))
	for key, ts := range c.seen {
		entries = append(entries, seenEntry{Key: key, Timestamp: ts})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		log.Printf("⚠️ Failed to marshal seen candidates: %v", err)
		return
	}
	if err := os.WriteFile(c.filePath, data, 0644); err != nil {
		log.Printf("⚠️ Failed to write seen_candidates.json: %v", err)
	}
}
