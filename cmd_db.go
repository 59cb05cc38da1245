package main

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log := logger.Init(cfg.AppEnv)
		db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	},
}

var (
	seedAdminEmail    string
	seedAdminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert an admin account and a starter catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.AppEnv)
		db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		return seed(orBackground(cmd.Context()), db, seedAdminEmail, seedAdminPassword)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@storefront.local", "email of the seeded admin")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "admin12345", "password of the seeded admin")
}

// seed inserts the admin user, one category and a few products. Existing rows
// (matched by email or slug) are left untouched.
func seed(ctx context.Context, db *gorm.DB, adminEmail, adminPassword string) error {
	log := logger.FromCtx(ctx)
	db = db.WithContext(ctx)

	var admin models.User
	err := db.First(&admin, "email = ?", adminEmail).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		admin = models.User{
			Email: adminEmail, Password: string(hash),
			FirstName: "Store", LastName: "Admin",
			Role: models.RoleAdmin, IsActive: true,
		}
		if err := db.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}
		log.Info("seeded admin", "email", adminEmail)
	case err != nil:
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	category := models.Category{Name: "Electronics", Slug: "electronics", IsActive: true}
	if err := db.Where("slug = ?", category.Slug).FirstOrCreate(&category).Error; err != nil {
		return fmt.Errorf("failed to seed category: %w", err)
	}

	products := []models.Product{
		{Name: "Laptop", Slug: "laptop", Description: strPtr("High performance laptop"), Price: decimal.RequireFromString("1200.00"), Stock: 10},
		{Name: "Keyboard", Slug: "keyboard", Description: strPtr("Mechanical keyboard"), Price: decimal.RequireFromString("75.00"), Stock: 25},
		{Name: "Mouse", Slug: "mouse", Description: strPtr("Ergonomic wireless mouse"), Price: decimal.RequireFromString("25.00"), Stock: 50},
	}
	for i := range products {
		products[i].CategoryID = category.ID
		products[i].IsActive = true
		if err := db.Omit("Category").Where("slug = ?", products[i].Slug).FirstOrCreate(&products[i]).Error; err != nil {
			return fmt.Errorf("failed to seed product %s: %w", products[i].Name, err)
		}
		log.Info("seeded product", "name", products[i].Name, "id", products[i].ID)
	}
	return nil
}

func strPtr(s string) *string { return &s }
