package service

import (
	"context"
	"time"

	"github.com/billhive/subsync/internal/cache"
	"github.com/billhive/subsync/internal/domain/discountgrid"
	"github.com/billhive/subsync/internal/domain/subscription"
	"github.com/billhive/subsync/internal/logger"
	"github.com/samber/lo"
)

const (
	cacheKeyDefaultGrid = "discountgrid:default"
	defaultGridCacheTTL = 1 * time.Hour
)

// GridResolver selects the effective discount grid for a subscription: the
// specifically referenced grid when it is active, the default active grid
// otherwise. Absence of any applicable grid is not an error; it means no
// discount.
type GridResolver struct {
	repo  discountgrid.Repository
	cache cache.Cache
	log   *logger.Logger
}

// NewGridResolver creates a new GridResolver
func NewGridResolver(repo discountgrid.Repository, c cache.Cache, log *logger.Logger) *GridResolver {
	return &GridResolver{
		repo:  repo,
		cache: c,
		log:   log,
	}
}

// Resolve returns the effective grid for a subscription. The second return
// value is false when no discount applies; callers never see a "not found"
// error.
func (r *GridResolver) Resolve(ctx context.Context, sub *subscription.Subscription) (*discountgrid.Grid, bool) {
	if sub.HasDiscountGrid() {
		grid, err := r.repo.Get(ctx, sub.DiscountGridID)
		switch {
		case err != nil:
			r.log.Warnw("discount grid lookup failed, falling back to default grid",
				"subscription_id", sub.ID, "grid_id", sub.DiscountGridID, "error", err)
		case !grid.Active:
			r.log.Warnw("referenced discount grid is inactive, falling back to default grid",
				"subscription_id", sub.ID, "grid_id", sub.DiscountGridID, "grid", grid.Name)
		default:
			return grid, true
		}
	}

	return r.resolveDefault(ctx)
}

// resolveDefault returns the default active grid, cached for the run
func (r *GridResolver) resolveDefault(ctx context.Context) (*discountgrid.Grid, bool) {
	if v, ok := r.cache.Get(ctx, cacheKeyDefaultGrid); ok {
		return v.(*discountgrid.Grid), true
	}

	grids, err := r.repo.List(ctx)
	if err != nil {
		r.log.Warnw("listing discount grids failed, no discount applied", "error", err)
		return nil, false
	}

	defaults := lo.Filter(grids, func(g *discountgrid.Grid, _ int) bool {
		return g.Default && g.Active
	})

	if len(defaults) == 0 {
		return nil, false
	}
	if len(defaults) > 1 {
		// The store does not enforce a single default; picking the first
		// match is non deterministic across backends.
		r.log.Warnw("multiple default active discount grids found, using the first",
			"count", len(defaults),
			"grids", lo.Map(defaults, func(g *discountgrid.Grid, _ int) string { return g.Name }))
	}

	grid := defaults[0]
	r.cache.Set(ctx, cacheKeyDefaultGrid, grid, defaultGridCacheTTL)
	return grid, true
}
