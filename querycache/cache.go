package querycache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/capability"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/langroute"
)

const recentListKey = "q:recent"

// Config holds the collaborators and tunables a Cache needs.
type Config struct {
	Backend   capability.Cache
	Logger    *zap.Logger
	TTL       time.Duration
	Window    int
	Threshold float64
}

func (c *Config) withDefaults() {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.TTL <= 0 {
		c.TTL = time.Hour
	}
	if c.Window <= 0 {
		c.Window = 50
	}
	if c.Threshold <= 0 {
		c.Threshold = 0.92
	}
}

// Cache wraps a capability.Cache with the key discipline, normalization,
// exact-then-fuzzy lookup, and write policy of the specification. Every
// operation here degrades to a miss/no-op on backend failure — a cache
// outage must never fail the pipeline.
type Cache struct {
	backend   capability.Cache
	logger    *zap.Logger
	ttl       time.Duration
	window    int
	threshold float64
}

func New(cfg *Config) *Cache {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.withDefaults()
	return &Cache{
		backend:   cfg.Backend,
		logger:    cfg.Logger,
		ttl:       cfg.TTL,
		window:    cfg.Window,
		threshold: cfg.Threshold,
	}
}

// Lookup returns a cached Entry for (lang, family, normalizedQuery), trying
// an exact key match first and falling back to a fuzzy match against
// recently answered queries in the same language.
func (c *Cache) Lookup(ctx context.Context, lang langroute.Code, family langroute.Family, normalizedQuery string) (*Entry, bool) {
	if c.backend == nil {
		return nil, false
	}

	key := Key(lang, family, normalizedQuery)
	if raw, ok, err := c.backend.Get(ctx, key); err != nil {
		c.logger.Warn("cache get failed", zap.Error(err))
	} else if ok {
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err == nil {
			return &entry, true
		}
		c.logger.Warn("cache entry could not be decoded, treating as a miss", zap.Error(err))
	}

	return c.fuzzyLookup(ctx, lang, family, normalizedQuery)
}

// fuzzyLookup scans the most recent window of queries in the same language,
// scoring each against normalizedQuery by Jaccard similarity over
// whitespace-split tokens. An exact normalized match always scores 1.0 and
// takes precedence over any other candidate, including one that also scores
// 1.0.
func (c *Cache) fuzzyLookup(ctx context.Context, lang langroute.Code, family langroute.Family, normalizedQuery string) (*Entry, bool) {
	raw, err := c.backend.ReadRecent(ctx, recentListKey, c.window)
	if err != nil {
		c.logger.Warn("cache recent-list read failed", zap.Error(err))
		return nil, false
	}

	queryTokens := tokenSet(normalizedQuery)
	bestScore := 0.0
	bestKey := ""
	bestExact := false

	for _, line := range raw {
		entry, ok := ParseRecentEntry(line)
		if !ok || entry.Lang != lang {
			continue
		}

		exact := entry.Normalized == normalizedQuery
		score := 1.0
		if !exact {
			score = jaccard(queryTokens, tokenSet(entry.Normalized))
		}
		if score > bestScore || (exact && !bestExact) {
			bestScore = score
			bestKey = entry.Key
			bestExact = exact
		}
	}

	if bestKey == "" || bestScore < c.threshold {
		return nil, false
	}

	raw2, ok, err := c.backend.Get(ctx, bestKey)
	if err != nil || !ok {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(raw2, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

// Write stores entry under (lang, family, normalizedQuery) and prepends the
// query to the recent-list used for fuzzy matching, trimming it to 100. Failures are logged,
// never returned — a write failure must not fail an otherwise-successful
// request.
func (c *Cache) Write(ctx context.Context, lang langroute.Code, family langroute.Family, normalizedQuery string, entry *Entry) {
	if c.backend == nil {
		return
	}

	key := Key(lang, family, normalizedQuery)
	raw, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("cache entry could not be encoded", zap.Error(err))
		return
	}

	if err := c.backend.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("cache set failed", zap.Error(err))
		return
	}

	recent := RecentEntry{Key: key, Normalized: normalizedQuery, Lang: lang}
	if err := c.backend.PushRecent(ctx, recentListKey, recent.String(), 100); err != nil {
		c.logger.Debug("recent-list update skipped", zap.Error(err))
	}
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
