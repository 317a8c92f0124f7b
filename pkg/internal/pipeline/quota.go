package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/cache"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
)

// QuotaGuard 上传前的配额预检. 只做建议性检查：并发上传可能同时通过.
type QuotaGuard struct {
	store *store.Store
	cache *cache.Cache
	ttl   time.Duration
}

// NewQuotaGuard 创建配额预检. c 为 nil 时每次直接读库.
func NewQuotaGuard(s *store.Store, c *cache.Cache, ttl time.Duration) *QuotaGuard {
	return &QuotaGuard{store: s, cache: c, ttl: ttl}
}

// Profile 返回用户档案，首次见到时创建.
func (g *QuotaGuard) Profile(ctx context.Context, owner string) (*model.UserProfile, error) {
	load := func() (model.UserProfile, error) {
		p, err := g.store.EnsureProfile(ctx, owner, "")
		if err != nil {
			return model.UserProfile{}, err
		}

		return *p, nil
	}

	if g.cache == nil {
		p, err := load()

		return &p, err
	}

	p, err := cache.GetOrSet(ctx, g.cache, owner, load, g.ttl)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// Check 剩余配额不足 size 时返回 ErrQuotaExceeded.
func (g *QuotaGuard) Check(ctx context.Context, owner string, size int64) error {
	p, err := g.Profile(ctx, owner)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	if left := p.QuotaBytes - p.UsedBytes; left < size {
		return fmt.Errorf("%w: need %d bytes, %d remaining", ErrQuotaExceeded, size, max(left, 0))
	}

	return nil
}

// Invalidate 丢弃缓存的档案.
func (g *QuotaGuard) Invalidate(ctx context.Context, owner string) error {
	if g.cache == nil {
		return nil
	}

	return g.cache.Delete(ctx, owner)
}
