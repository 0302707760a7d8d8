package staff

import (
	"time"

	"tableside/internal/domain"
)

// Staff represents the staff table
type Staff struct {
	ID           uint        `gorm:"primaryKey"`
	Username     string      `gorm:"size:64;not null;uniqueIndex"`
	Name         string      `gorm:"size:120;not null"`
	PasswordHash string      `gorm:"not null"`
	Role         domain.Role `gorm:"size:16;not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Staff) TableName() string { return "staff" }
