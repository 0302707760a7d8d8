package repository

import (
	"context"

	"tableside/internal/domain"
	"tableside/internal/domain/staff"

	"gorm.io/gorm"
)

type PostgresStaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &PostgresStaffRepository{db: db}
}

func (r *PostgresStaffRepository) FindByUsername(ctx context.Context, username string) (staff.Staff, error) {
	var s staff.Staff
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&s).Error; err != nil {
		return staff.Staff{}, mapError(err)
	}
	return s, nil
}

func (r *PostgresStaffRepository) FindStaff(ctx context.Context, id uint) (staff.Staff, error) {
	var s staff.Staff
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return staff.Staff{}, mapError(err)
	}
	return s, nil
}

func (r *PostgresStaffRepository) ListByRole(ctx context.Context, role domain.Role) ([]staff.Staff, error) {
	var members []staff.Staff
	if err := r.db.WithContext(ctx).Where("role = ?", role).Order("name ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
