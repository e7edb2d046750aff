package cli

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/linkak/linkak/cmd"
	"github.com/linkak/linkak/internal/config"
	"github.com/linkak/linkak/internal/models"
)

// MigrateCmd creates or updates the database schema.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Executes database migrations to create or update tables.",
	Long: `Connects to the configured SQLite database and runs GORM automatic
migrations for the 'links' and 'clicks' tables based on the Go models.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("FATAL: Failed to get underlying SQL database: %v", err)
		}
		defer sqlDB.Close()

		if err := db.AutoMigrate(&models.Link{}, &models.Click{}); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}

		fmt.Println("Database migrations executed successfully.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}
