package sentiment

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabrielschull/TraderML/internal/interfaces"
	"github.com/gabrielschull/TraderML/internal/logger"
	"github.com/gabrielschull/TraderML/internal/types"
)

// Service wraps a classifier with result caching and a neutral fallback.
// A classifier failure degrades to a zero-confidence neutral signal so the
// strategy takes no action instead of crashing the iteration.
type Service struct {
	classifier interfaces.Classifier
	cache      *signalCache
	cfg        *ServiceConfig
}

// ServiceConfig configures the sentiment service.
type ServiceConfig struct {
	CacheDuration time.Duration // How long to cache signals for one headline batch
	Enabled       bool          // Whether classification is enabled at all
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		CacheDuration: 1 * time.Hour,
		Enabled:       true,
	}
}

type signalCache struct {
	mu   sync.RWMutex
	data map[uint64]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	signal    types.Signal
	timestamp time.Time
}

func newSignalCache(ttl time.Duration) *signalCache {
	cache := &signalCache{
		data: make(map[uint64]*cacheEntry),
		ttl:  ttl,
	}
	go cache.cleanupLoop()
	return cache
}

func (c *signalCache) get(key uint64) (types.Signal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[key]
	if !exists {
		return types.Signal{}, false
	}
	if time.Since(entry.timestamp) > c.ttl {
		return types.Signal{}, false
	}
	return entry.signal, true
}

func (c *signalCache) set(key uint64, signal types.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = &cacheEntry{signal: signal, timestamp: time.Now()}
}

func (c *signalCache) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *signalCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, key)
		}
	}
}

// NewService creates a sentiment service around the given classifier.
func NewService(classifier interfaces.Classifier, cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	return &Service{
		classifier: classifier,
		cache:      newSignalCache(cfg.CacheDuration),
		cfg:        cfg,
	}
}

// Classify scores a headline batch, serving repeated batches from cache.
func (s *Service) Classify(ctx context.Context, headlines []string) (types.Signal, error) {
	if !s.cfg.Enabled || len(headlines) == 0 {
		return types.Signal{Probability: 0, Label: types.Neutral}, nil
	}

	key := batchKey(headlines)
	if cached, ok := s.cache.get(key); ok {
		logger.Debug(ctx, "Using cached sentiment signal", "headlines", len(headlines))
		return cached, nil
	}

	signal, err := s.classifier.Classify(ctx, headlines)
	if err != nil {
		logger.ErrorWithErr(ctx, "Classifier failed, degrading to neutral", err, "headlines", len(headlines))
		return types.Signal{Probability: 0, Label: types.Neutral}, nil
	}

	s.cache.set(key, signal)
	return signal, nil
}

func batchKey(headlines []string) uint64 {
	h := fnv.New64a()
	for i, headline := range headlines {
		h.Write([]byte(strconv.Itoa(i)))
		h.Write([]byte(strings.TrimSpace(headline)))
	}
	return h.Sum64()
}
