package dining

import "time"

// Table represents the dining_tables table
type Table struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Number    int       `gorm:"not null;uniqueIndex" json:"number"`
	Seats     int       `gorm:"not null;default:4" json:"seats"`
	WaiterID  *uint     `gorm:"index" json:"waiterId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Table) TableName() string { return "dining_tables" }

// Customer is created when a guest signs in at a table.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	TableID   uint      `gorm:"not null;index" json:"tableId"`
	Allergies string    `json:"allergies"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Customer) TableName() string { return "customers" }
