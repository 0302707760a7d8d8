package menu

import "time"

type Category string

const (
	CategoryStarter Category = "STARTER"
	CategoryMain    Category = "MAIN"
	CategoryDessert Category = "DESSERT"
	CategoryDrink   Category = "DRINK"
	CategorySide    Category = "SIDE"
)

var Categories = []Category{CategoryStarter, CategoryMain, CategoryDessert, CategoryDrink, CategorySide}

func (c Category) Valid() bool {
	switch c {
	case CategoryStarter, CategoryMain, CategoryDessert, CategoryDrink, CategorySide:
		return true
	}
	return false
}

// MenuItem represents the menu_items table
type MenuItem struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:120;not null;uniqueIndex" json:"name"`
	Description   string    `json:"description"`
	Category      Category  `gorm:"size:16;not null;index" json:"category"`
	Price         float64   `gorm:"not null" json:"price"`
	Cost          float64   `json:"cost"`
	Calories      int       `json:"calories"`
	Stock         int       `gorm:"not null;default:0" json:"stock"`
	Image         string    `json:"image"`
	IsVegetarian  bool      `json:"isVegetarian"`
	IsGlutenFree  bool      `json:"isGlutenFree"`
	StripePriceID *string   `gorm:"size:64" json:"stripePriceId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (MenuItem) TableName() string { return "menu_items" }

func (m MenuItem) Available() bool {
	return m.Stock > 0
}
