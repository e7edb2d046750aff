package cli

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/linkak/linkak/cmd"
	"github.com/linkak/linkak/internal/config"
	"github.com/linkak/linkak/internal/repository"
	"github.com/linkak/linkak/internal/services"
)

var (
	longURLFlag     string
	aliasFlag       string
	domainFlag      string
	expiresDaysFlag int
)

// CreateCmd shortens a URL from the command line.
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a short URL from a long URL.",
	Long: `Shortens the provided URL and prints the generated short code.

Example:
  linkak create --url="https://www.google.com/search?q=go+lang"
  linkak create --url="https://example.com" --alias=promo --expires-days=30`,
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

		linkRepo := repository.NewLinkRepository(db)
		linkService := services.NewLinkService(linkRepo)

		link, err := linkService.CreateLink(services.CreateLinkInput{
			OriginalURL: longURLFlag,
			CustomAlias: aliasFlag,
			Domain:      domainFlag,
			ExpiresDays: expiresDaysFlag,
		})
		if err != nil {
			log.Fatalf("Failed to create short link: %v", err)
		}

		fmt.Printf("Short URL created successfully:\n")
		fmt.Printf("Code: %s\n", link.ShortCode)
		fmt.Printf("Full URL: %s\n", link.FullShortURL(cfg.Server.BaseURL))
		if link.ExpiresAt != nil {
			fmt.Printf("Expires: %s\n", link.ExpiresAt.Format("2006-01-02 15:04:05"))
		}
	},
}

func init() {
	CreateCmd.Flags().StringVar(&longURLFlag, "url", "", "The long URL to shorten")
	CreateCmd.Flags().StringVar(&aliasFlag, "alias", "", "Optional custom alias")
	CreateCmd.Flags().StringVar(&domainFlag, "domain", "", "Optional vanity domain label")
	CreateCmd.Flags().IntVar(&expiresDaysFlag, "expires-days", 0, "Optional expiry in days")

	CreateCmd.MarkFlagRequired("url")

	cmd.RootCmd.AddCommand(CreateCmd)
}
