package services

import (
	"context"
	"fmt"
	"strings"

	"tableside/internal/domain/dining"
	"tableside/internal/domain/menu"
	"tableside/internal/repository"
	"tableside/internal/storage"
	tableside_errors "tableside/pkg/errors"
	"tableside/pkg/logger"

	"go.uber.org/zap"
)

// MenuCache is the part of the Redis cache the menu service reads through.
type MenuCache interface {
	GetMenu(ctx context.Context) ([]menu.MenuItem, error)
	SetMenu(ctx context.Context, items []menu.MenuItem) error
	InvalidateMenu(ctx context.Context, ids ...uint) error
}

type ImageStore interface {
	PresignImage(ctx context.Context, menuItemID uint, contentType string, sizeBytes int64) (storage.Upload, error)
}

// StockWatcher is told when a menu item runs out.
type StockWatcher interface {
	MarkUnavailable(ctx context.Context, menuItemID uint) ([]uint, error)
}

type MenuService struct {
	menu    repository.MenuRepository
	tables  repository.TableRepository
	cache   MenuCache
	images  ImageStore
	watcher StockWatcher
	log     *logger.Logger
}

func NewMenuService(menuRepo repository.MenuRepository, tables repository.TableRepository, cache MenuCache, images ImageStore, watcher StockWatcher, log *logger.Logger) *MenuService {
	return &MenuService{
		menu:    menuRepo,
		tables:  tables,
		cache:   cache,
		images:  images,
		watcher: watcher,
		log:     logger.OrNop(log).Named("menu"),
	}
}

// ListMenu reads through the cache when one is configured.
func (s *MenuService) ListMenu(ctx context.Context) ([]menu.MenuItem, error) {
	if s.cache != nil {
		items, err := s.cache.GetMenu(ctx)
		if err != nil {
			s.log.WithContext(ctx).Warn("menu cache read failed", zap.Error(err))
		} else if items != nil {
			return items, nil
		}
	}

	items, err := s.menu.FindMenuItems(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetMenu(ctx, items); err != nil {
			s.log.WithContext(ctx).Warn("menu cache write failed", zap.Error(err))
		}
	}
	return items, nil
}

func (s *MenuService) GetMenuItem(ctx context.Context, id uint) (menu.MenuItem, error) {
	return s.menu.FindMenuItem(ctx, id)
}

// UpdateMenuItem saves the editable fields of an item. Stock goes through SetStock.
func (s *MenuService) UpdateMenuItem(ctx context.Context, item menu.MenuItem) (menu.MenuItem, error) {
	if item.ID == 0 || strings.TrimSpace(item.Name) == "" || item.Price < 0 || !item.Category.Valid() {
		return menu.MenuItem{}, tableside_errors.ErrInvalidInput
	}
	current, err := s.menu.FindMenuItem(ctx, item.ID)
	if err != nil {
		return menu.MenuItem{}, err
	}
	item.Stock = current.Stock
	item.Image = current.Image
	item.CreatedAt = current.CreatedAt
	if err := s.menu.UpdateMenuItem(ctx, item); err != nil {
		return menu.MenuItem{}, err
	}
	s.invalidate(ctx, item.ID)
	return item, nil
}

// SetStock stores a new stock level. When it reaches zero every pending order
// holding the item is marked unavailable; their ids are returned.
func (s *MenuService) SetStock(ctx context.Context, id uint, stock int) ([]uint, error) {
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", tableside_errors.ErrInvalidInput)
	}
	if err := s.menu.UpdateStock(ctx, id, stock); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	if stock > 0 || s.watcher == nil {
		return nil, nil
	}
	moved, err := s.watcher.MarkUnavailable(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(moved) > 0 {
		s.log.WithContext(ctx).Info("menu item sold out", zap.Uint("menu_item_id", id), zap.Uints("orders", moved))
	}
	return moved, nil
}

// PresignImage hands out an upload URL for a new item image.
func (s *MenuService) PresignImage(ctx context.Context, id uint, contentType string, sizeBytes int64) (storage.Upload, error) {
	if s.images == nil {
		return storage.Upload{}, tableside_errors.ErrServiceUnavailable
	}
	if err := storage.ValidateImage(contentType, sizeBytes); err != nil {
		return storage.Upload{}, fmt.Errorf("%w: %v", tableside_errors.ErrInvalidInput, err)
	}
	if _, err := s.menu.FindMenuItem(ctx, id); err != nil {
		return storage.Upload{}, err
	}
	return s.images.PresignImage(ctx, id, contentType, sizeBytes)
}

func (s *MenuService) SetImage(ctx context.Context, id uint, imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return tableside_errors.ErrInvalidInput
	}
	if err := s.menu.UpdateImage(ctx, id, imageURL); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *MenuService) ListTables(ctx context.Context) ([]dining.Table, error) {
	return s.tables.FindTables(ctx)
}

func (s *MenuService) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateMenu(ctx, id); err != nil {
		s.log.WithContext(ctx).Warn("menu cache invalidation failed", zap.Uint("menu_item_id", id), zap.Error(err))
	}
}
