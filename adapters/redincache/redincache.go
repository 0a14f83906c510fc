// Package redincache implements capability.Cache as an in-process store,
// standing in for a real Redis-backed cache without requiring a live Redis
// instance for the test suite. Every stored value is wrapped in a small
// self-describing JSON envelope (expiry + payload) via gjson/sjson, the way
// a Redis client would round-trip a structured value through bytes.
package redincache

import (
	"context"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type entry struct {
	expiresAt time.Time
	value     []byte
}

// Adapter is an in-process, mutex-guarded implementation of
// capability.Cache.
type Adapter struct {
	mu      sync.Mutex
	values  map[string]entry
	lists   map[string][]string
	nowFunc func() time.Time
}

// New returns a ready-to-use Adapter.
func New() *Adapter {
	return &Adapter{
		values:  make(map[string]entry),
		lists:   make(map[string][]string),
		nowFunc: time.Now,
	}
}

func (a *Adapter) now() time.Time {
	if a.nowFunc != nil {
		return a.nowFunc()
	}
	return time.Now()
}

// Get returns the payload stored under key, or ok=false if absent or
// expired.
func (a *Adapter) Get(ctx context.Context, key string) ([]byte, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.values[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && a.now().After(e.expiresAt) {
		delete(a.values, key)
		return nil, false, nil
	}

	payload := gjson.GetBytes(e.value, "payload")
	if !payload.Exists() {
		return nil, false, nil
	}
	return []byte(payload.String()), true, nil
}

// Set stores value under key with the given ttl (zero means no expiry),
// wrapping it in an envelope recording the expiry alongside the payload.
func (a *Adapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	envelope, err := sjson.Set("{}", "payload", string(value))
	if err != nil {
		return err
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = a.now().Add(ttl)
		envelope, err = sjson.Set(envelope, "expiresAtUnix", expiresAt.Unix())
		if err != nil {
			return err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[key] = entry{expiresAt: expiresAt, value: []byte(envelope)}
	return nil
}

// PushRecent prepends entry to the bounded list at listKey, trimming to
// maxLen.
func (a *Adapter) PushRecent(ctx context.Context, listKey string, entryText string, maxLen int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	list := append([]string{entryText}, a.lists[listKey]...)
	if maxLen > 0 && len(list) > maxLen {
		list = list[:maxLen]
	}
	a.lists[listKey] = list
	return nil
}

// ReadRecent returns up to n most-recently-pushed entries at listKey.
func (a *Adapter) ReadRecent(ctx context.Context, listKey string, n int) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	list := a.lists[listKey]
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}
