// seed-admin creates or updates the initial admin user so a fresh install
// can log in. Override the defaults with SEED_ADMIN_USERNAME and
// SEED_ADMIN_PASSWORD.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/models"
	"bitbucket.org/mmdatafocus/garage_backend/utils"
	"gorm.io/gorm"
)

const (
	defaultUsername = "garageAdmin"
	defaultPassword = "Gar@geAdmin1"
	adminName       = "Garage Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	username := os.Getenv("SEED_ADMIN_USERNAME")
	if username == "" {
		username = defaultUsername
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = defaultPassword
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			Username: username,
			Name:     adminName,
			Password: string(hashed),
			Role:     models.UserRoleAdmin,
			IsActive: utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created admin user %q\n", username)
		return
	}

	updates := map[string]interface{}{
		"password":  string(hashed),
		"role":      models.UserRoleAdmin,
		"is_active": true,
	}
	if err := db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("updated admin user %q\n", username)
}
