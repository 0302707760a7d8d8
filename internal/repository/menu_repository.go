package repository

import (
	"context"

	"tableside/internal/domain/menu"
	tableside_errors "tableside/pkg/errors"

	"gorm.io/gorm"
)

type PostgresMenuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &PostgresMenuRepository{db: db}
}

func (r *PostgresMenuRepository) FindMenuItems(ctx context.Context) ([]menu.MenuItem, error) {
	var items []menu.MenuItem
	if err := r.db.WithContext(ctx).Order("category ASC, name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresMenuRepository) FindMenuItemsByIDs(ctx context.Context, ids []uint) ([]menu.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []menu.MenuItem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresMenuRepository) FindMenuItem(ctx context.Context, id uint) (menu.MenuItem, error) {
	var item menu.MenuItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return menu.MenuItem{}, mapError(err)
	}
	return item, nil
}

func (r *PostgresMenuRepository) UpdateMenuItem(ctx context.Context, item menu.MenuItem) error {
	res := r.db.WithContext(ctx).
		Model(&menu.MenuItem{}).
		Where("id = ?", item.ID).
		Select("name", "description", "category", "price", "cost", "calories", "is_vegetarian", "is_gluten_free", "stripe_price_id").
		Updates(&item)
	return rowsOrNotFound(res)
}

func (r *PostgresMenuRepository) UpdateStock(ctx context.Context, id uint, stock int) error {
	res := r.db.WithContext(ctx).Model(&menu.MenuItem{}).Where("id = ?", id).Update("stock", stock)
	return rowsOrNotFound(res)
}

func (r *PostgresMenuRepository) UpdateImage(ctx context.Context, id uint, url string) error {
	res := r.db.WithContext(ctx).Model(&menu.MenuItem{}).Where("id = ?", id).Update("image", url)
	return rowsOrNotFound(res)
}

func rowsOrNotFound(res *gorm.DB) error {
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return tableside_errors.ErrNotFound
	}
	return nil
}
