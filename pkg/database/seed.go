package database

import (
	"errors"
	"fmt"
	"log"

	"tableside/internal/domain"
	"tableside/internal/domain/dining"
	"tableside/internal/domain/menu"
	"tableside/internal/domain/staff"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedConfig holds configuration for seeding the database
type SeedConfig struct {
	AdminUsername string
	AdminPassword string
	StaffPassword string
	TableCount    int
}

// DefaultSeedConfig returns default seed configuration
func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		AdminUsername: "admin",
		AdminPassword: "Admin@123!",
		StaffPassword: "Staff@123!",
		TableCount:    8,
	}
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	Staff  []*staff.Staff
	Menu   []*menu.MenuItem
	Tables []*dining.Table
}

// Seed runs the complete database seeding. Existing rows are left untouched.
func Seed(cfg *SeedConfig) (*SeedResult, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}
	result := &SeedResult{}

	log.Println("Starting database seeding...")

	err := DB.Transaction(func(tx *gorm.DB) error {
		members, err := seedStaff(tx, cfg)
		if err != nil {
			return fmt.Errorf("failed to seed staff: %w", err)
		}
		result.Staff = members

		var waiterID *uint
		for _, m := range members {
			if m.Role == domain.RoleWaiter {
				id := m.ID
				waiterID = &id
				break
			}
		}

		tables, err := seedTables(tx, cfg.TableCount, waiterID)
		if err != nil {
			return fmt.Errorf("failed to seed tables: %w", err)
		}
		result.Tables = tables

		items, err := seedMenu(tx)
		if err != nil {
			return fmt.Errorf("failed to seed menu: %w", err)
		}
		result.Menu = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database seeding completed successfully!")
	return result, nil
}

func seedStaff(tx *gorm.DB, cfg *SeedConfig) ([]*staff.Staff, error) {
	adminHash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	staffHash, err := bcrypt.GenerateFromPassword([]byte(cfg.StaffPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	seed := []staff.Staff{
		{Username: cfg.AdminUsername, Name: "Restaurant Admin", Role: domain.RoleAdmin, PasswordHash: string(adminHash)},
		{Username: "waiter", Name: "Wendy Waiter", Role: domain.RoleWaiter, PasswordHash: string(staffHash)},
		{Username: "headchef", Name: "Hector Head", Role: domain.RoleHeadChef, PasswordHash: string(staffHash)},
		{Username: "souschef", Name: "Sam Sous", Role: domain.RoleSousChef, PasswordHash: string(staffHash)},
		{Username: "grillchef", Name: "Greta Grill", Role: domain.RoleGrillChef, PasswordHash: string(staffHash)},
		{Username: "porter", Name: "Pat Porter", Role: domain.RolePorter, PasswordHash: string(staffHash)},
		{Username: "dishwasher", Name: "Dana Dish", Role: domain.RoleDishWasher, PasswordHash: string(staffHash)},
	}

	out := make([]*staff.Staff, 0, len(seed))
	for i := range seed {
		s := seed[i]
		var existing staff.Staff
		err := tx.Where("username = ?", s.Username).First(&existing).Error
		if err == nil {
			log.Printf("Staff %s already exists, skipping creation", s.Username)
			out = append(out, &existing)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err := tx.Create(&s).Error; err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, nil
}

func seedTables(tx *gorm.DB, count int, waiterID *uint) ([]*dining.Table, error) {
	out := make([]*dining.Table, 0, count)
	for n := 1; n <= count; n++ {
		t := dining.Table{Number: n, Seats: 4, WaiterID: waiterID}
		if err := tx.Where(dining.Table{Number: n}).FirstOrCreate(&t).Error; err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, nil
}

func seedMenu(tx *gorm.DB) ([]*menu.MenuItem, error) {
	seed := []menu.MenuItem{
		{Name: "Garlic Bread", Category: menu.CategoryStarter, Price: 4.5, Cost: 1.2, Calories: 320, Stock: 40, IsVegetarian: true},
		{Name: "Tomato Soup", Category: menu.CategoryStarter, Price: 5.25, Cost: 1.5, Calories: 180, Stock: 30, IsVegetarian: true, IsGlutenFree: true},
		{Name: "Ribeye Steak", Category: menu.CategoryMain, Price: 24.99, Cost: 9.8, Calories: 850, Stock: 15, IsGlutenFree: true},
		{Name: "Mushroom Risotto", Category: menu.CategoryMain, Price: 15.5, Cost: 4.1, Calories: 640, Stock: 20, IsVegetarian: true, IsGlutenFree: true},
		{Name: "Fish and Chips", Category: menu.CategoryMain, Price: 16.75, Cost: 5.6, Calories: 980, Stock: 20},
		{Name: "Sweet Potato Fries", Category: menu.CategorySide, Price: 4.0, Cost: 0.9, Calories: 410, Stock: 50, IsVegetarian: true},
		{Name: "Chocolate Fondant", Category: menu.CategoryDessert, Price: 7.5, Cost: 1.8, Calories: 560, Stock: 12, IsVegetarian: true},
		{Name: "Lemonade", Category: menu.CategoryDrink, Price: 3.2, Cost: 0.4, Calories: 120, Stock: 80, IsVegetarian: true, IsGlutenFree: true},
	}
	out := make([]*menu.MenuItem, 0, len(seed))
	for i := range seed {
		m := seed[i]
		if err := tx.Where(menu.MenuItem{Name: m.Name}).FirstOrCreate(&m).Error; err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, nil
}
