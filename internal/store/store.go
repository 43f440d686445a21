package store

import (
	"github.com/AnirudhAnand3/liquid-gold/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the sqlite database at path and migrates the schema. The gorm
// logger is silenced; the application logs through slog instead.
func InitDB(path string) (*gorm.DB, error) {
	d, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := d.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.Notification{},
		&models.SavingsGoal{},
		&models.BudgetCategory{},
		&models.Contact{},
		&models.ScheduledPayment{},
		&models.SplitBill{},
		&models.SplitBillMember{},
		&models.ActivityLog{},
	); err != nil {
		return nil, err
	}
	return d, nil
}
