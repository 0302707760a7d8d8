package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"tableside/config"
	"tableside/internal/domain/dining"
	"tableside/internal/domain/menu"
	"tableside/internal/domain/order"
	"tableside/internal/domain/staff"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Models lists every table owned by the service, in dependency order.
var Models = []interface{}{
	&staff.Staff{},
	&dining.Table{},
	&dining.Customer{},
	&menu.MenuItem{},
	&order.Order{},
	&order.OrderItem{},
}

func Connect(cfg *config.Config) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	logLevel := logger.Info
	if cfg.AppMode == "release" {
		logLevel = logger.Warn
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatalf("Failed to get generic database object: %v", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connection established")
}

func Close() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func Ping() error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// HealthCheck pings and runs a trivial query.
func HealthCheck() error {
	if err := Ping(); err != nil {
		return err
	}
	var one int
	if err := DB.Raw("SELECT 1").Scan(&one).Error; err != nil {
		return fmt.Errorf("health query failed: %w", err)
	}
	return nil
}

// RunMigrations creates or updates every table in Models.
func RunMigrations() error {
	if err := DB.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to apply GORM migrations: %w", err)
	}
	return nil
}

func TableExists(table string) (bool, error) {
	return DB.Migrator().HasTable(table), nil
}

func GetTableCount(table string) (int64, error) {
	var count int64
	err := DB.Table(table).Count(&count).Error
	return count, err
}

// TableNames returns the physical table names in migration order.
func TableNames() []string {
	names := make([]string, 0, len(Models))
	for _, m := range Models {
		if t, ok := m.(interface{ TableName() string }); ok {
			names = append(names, t.TableName())
		}
	}
	return names
}

func TruncateAllTables() error {
	for i := len(Models) - 1; i >= 0; i-- {
		t, ok := Models[i].(interface{ TableName() string })
		if !ok {
			continue
		}
		if err := DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", t.TableName())).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", t.TableName(), err)
		}
	}
	return nil
}
