package cli

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/linkak/linkak/cmd"
	"github.com/linkak/linkak/internal/config"
	"github.com/linkak/linkak/internal/repository"
	"github.com/linkak/linkak/internal/services"
)

// StatsCmd prints click statistics for a short code.
var StatsCmd = &cobra.Command{
	Use:   "stats [short-code]",
	Short: "Get statistics for a short URL",
	Long:  `Prints the click total and breakdown tables for the provided short code.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

func runStats(cobraCmd *cobra.Command, args []string) {
	shortCode := args[0]

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
	clickRepo := repository.NewClickRepository(db)

	link, err := linkRepo.GetLinkByShortCode(shortCode)
	if err != nil {
		fmt.Printf("Error: short code %q not found\n", shortCode)
		os.Exit(1)
	}
	clicks, err := clickRepo.GetClicksByLinkID(link.ID)
	if err != nil {
		fmt.Printf("Error retrieving statistics: %v\n", err)
		os.Exit(1)
	}
	recorded, err := clickRepo.CountClicksByLinkID(link.ID)
	if err != nil {
		fmt.Printf("Error retrieving statistics: %v\n", err)
		os.Exit(1)
	}
	summary := services.Summarize(clicks)

	fmt.Printf("Statistics for short code: %s\n", shortCode)
	fmt.Printf("Target URL: %s\n", link.OriginalURL)
	// The counter can lag the recorded rows; show both when they differ.
	if recorded == link.ClickCount {
		fmt.Printf("Total clicks: %d\n", link.ClickCount)
	} else {
		fmt.Printf("Total clicks: %d (%d recorded events)\n", link.ClickCount, recorded)
	}
	fmt.Printf("Created: %s\n", link.CreatedAt.Format("2006-01-02 15:04:05"))
	printTable("Devices", summary.Devices)
	printTable("Browsers", summary.Browsers)
	printTable("Countries", summary.Countries)
	printTable("Referrers", summary.Referrers)
}

func printTable(title string, table map[string]int) {
	if len(table) == 0 {
		return
	}
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %-30s %d\n", k, table[k])
	}
}
