package service

import (
	"context"
	"sync"
	"time"

	"frontdesk/internal/settings/repository"
	"frontdesk/pkg/model"

	"golang.org/x/sync/singleflight"
)

// Cache is a read-through cache of the settings row. Entries older than ttl
// are reloaded on the next Get; Refresh reloads unconditionally. Concurrent
// loads are collapsed into one store read.
type Cache struct {
	repo  repository.SettingsRepository
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu       sync.RWMutex
	value    *model.Settings
	loadedAt time.Time
}

func NewCache(repo repository.SettingsRepository, ttl time.Duration) *Cache {
	return &Cache{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns a copy of the cached settings, loading them if missing or expired.
func (c *Cache) Get(ctx context.Context) (*model.Settings, error) {
	c.mu.RLock()
	value, loadedAt := c.value, c.loadedAt
	c.mu.RUnlock()

	if value != nil && c.now().Sub(loadedAt) < c.ttl {
		return clone(value), nil
	}
	return c.load(ctx)
}

func (c *Cache) Refresh(ctx context.Context) (*model.Settings, error) {
	return c.load(ctx)
}

// Put stores settings that were just written, so readers see them before the TTL.
func (c *Cache) Put(settings *model.Settings) {
	c.mu.Lock()
	c.value = clone(settings)
	c.loadedAt = c.now()
	c.mu.Unlock()
}

func (c *Cache) load(ctx context.Context) (*model.Settings, error) {
	v, err, _ := c.group.Do("settings", func() (any, error) {
		settings, err := c.repo.Get(ctx)
		if err != nil {
			return nil, err
		}
		c.Put(settings)
		return settings, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(v.(*model.Settings)), nil
}

func clone(s *model.Settings) *model.Settings {
	out := *s
	out.WebhookFields = append(make([]string, 0, len(s.WebhookFields)), s.WebhookFields...)
	return &out
}
