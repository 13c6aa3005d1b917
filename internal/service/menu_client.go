package service

import (
	"context"

	"github.com/LIGAWA25471/Villadelsolrms/internal/models"
	"github.com/LIGAWA25471/Villadelsolrms/internal/util"

	"go.uber.org/zap"
)

// MenuStore is the persistence surface for menu lookups
type MenuStore interface {
	GetMenuItemsByIDs(ctx context.Context, branchID string, ids []string) ([]models.MenuItem, error)
	GetMenuItems(ctx context.Context, branchID string) ([]models.MenuItem, error)
}

// MenuCache caches a branch's full menu. A miss is (nil, nil).
type MenuCache interface {
	GetMenu(ctx context.Context, branchID string) ([]models.MenuItem, error)
	SetMenu(ctx context.Context, branchID string, items []models.MenuItem) error
}

// MenuClient resolves menu items with a Redis read-through cache in
// front of the store. The cache is an optimization only; any cache
// failure falls back to the store.
type MenuClient struct {
	store  MenuStore
	cache  MenuCache
	logger *zap.Logger
}

// NewMenuClient creates a new menu client. cache may be nil.
func NewMenuClient(store MenuStore, cache MenuCache) *MenuClient {
	return &MenuClient{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// MenuItemsByIDs returns the branch's menu items matching ids. Items
// from other branches are never returned.
func (mc *MenuClient) MenuItemsByIDs(ctx context.Context, branchID string, ids []string) ([]models.MenuItem, error) {
	if mc.cache == nil {
		return mc.store.GetMenuItemsByIDs(ctx, branchID, ids)
	}

	menu, err := mc.cache.GetMenu(ctx, branchID)
	if err != nil {
		mc.logger.Warn("Menu cache read failed, falling back to store",
			zap.String("branch_id", branchID), zap.Error(err))
		return mc.store.GetMenuItemsByIDs(ctx, branchID, ids)
	}

	if menu == nil {
		menu, err = mc.store.GetMenuItems(ctx, branchID)
		if err != nil {
			return nil, err
		}
		if err := mc.cache.SetMenu(ctx, branchID, menu); err != nil {
			mc.logger.Warn("Menu cache write failed",
				zap.String("branch_id", branchID), zap.Error(err))
		}
	}

	byID := make(map[string]models.MenuItem, len(menu))
	for _, item := range menu {
		byID[item.ID] = item
	}

	items := make([]models.MenuItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}
