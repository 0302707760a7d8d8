package repository

import (
	"context"

	"tableside/internal/domain/dining"

	"gorm.io/gorm"
)

type PostgresTableRepository struct {
	db *gorm.DB
}

func NewTableRepository(db *gorm.DB) TableRepository {
	return &PostgresTableRepository{db: db}
}

func (r *PostgresTableRepository) FindTables(ctx context.Context) ([]dining.Table, error) {
	var tables []dining.Table
	if err := r.db.WithContext(ctx).Order("number ASC").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

func (r *PostgresTableRepository) FindTable(ctx context.Context, id uint) (dining.Table, error) {
	var t dining.Table
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return dining.Table{}, mapError(err)
	}
	return t, nil
}

type PostgresCustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

func (r *PostgresCustomerRepository) Create(ctx context.Context, c *dining.Customer) error {
	return mapError(r.db.WithContext(ctx).Create(c).Error)
}

func (r *PostgresCustomerRepository) FindCustomer(ctx context.Context, id uint) (dining.Customer, error) {
	var c dining.Customer
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return dining.Customer{}, mapError(err)
	}
	return c, nil
}
