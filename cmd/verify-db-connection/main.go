package main

import (
	"context"
	"fmt"
	"log"

	"go-intents/internal/config"
	"go-intents/internal/db"
	"go-intents/internal/models"
	"go-intents/internal/repository"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("🔍 Verifying database connection and submission table...")

	if err := config.LoadConfig(""); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if config.AppConfig.Database.DSN == "" {
		log.Fatalf("database.dsn (or DATABASE_DSN) is not configured")
	}

	conn, err := db.Open(config.AppConfig.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		log.Fatalf("Failed to get database connection: %v", err)
	}
	defer sqlDB.Close()

	var dbName string
	if err := conn.Raw("SELECT current_database()").Scan(&dbName).Error; err != nil {
		log.Fatalf("Failed to get database name: %v", err)
	}
	fmt.Printf("📋 Connected to database: %s\n", dbName)

	type statusCount struct {
		Status models.SubmissionStatus
		Count  int64
	}
	var counts []statusCount
	if err := conn.Model(&models.SolutionSubmission{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error; err != nil {
		log.Fatalf("Failed to count submissions: %v", err)
	}
	for _, c := range counts {
		fmt.Printf("   %-10s %d\n", c.Status, c.Count)
	}

	recent, err := repository.NewSubmissionRepository(conn).ListRecent(context.Background(), "", 5)
	if err != nil {
		log.Fatalf("Failed to list submissions: %v", err)
	}
	for _, s := range recent {
		fmt.Printf("   %s %s %s %s\n", s.CreatedAt.Format("2006-01-02 15:04:05"), s.Network, s.Status, s.TxHash)
	}

	fmt.Println("✅ Database verification complete")
}
