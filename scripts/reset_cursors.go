package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LogSource minimal struct for cursor reset
type LogSource struct {
	SourceKey     string `gorm:"primaryKey"`
	LineCount     int64
	ColdStartDone bool
	UpdatedAt     time.Time
}

func (LogSource) TableName() string {
	return "log_sources"
}

func main() {
	dbPath := "./deadwatch.db"
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}

	fmt.Println("🔧 DeadWatch Cursor Reset Tool")
	fmt.Println("==============================")
	fmt.Printf("Database: %s\n\n", dbPath)

	// Open database
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Count tracked sources
	var totalCount int64
	db.Model(&LogSource{}).Count(&totalCount)
	fmt.Printf("📊 Found %d tracked sources\n", totalCount)

	if totalCount == 0 {
		fmt.Println("Nothing to reset.")
		return
	}

	var sources []LogSource
	if err := db.Find(&sources).Error; err != nil {
		log.Fatalf("Failed to load sources: %v", err)
	}

	for _, s := range sources {
		fmt.Printf("  - %s (line_count=%d, cold_start_done=%v)\n",
			s.SourceKey, s.LineCount, s.ColdStartDone)
	}

	// Zero every cursor. The next scan of each source behaves like a cold
	// start: state rebuilt, backlog suppressed.
	result := db.Model(&LogSource{}).Where("1 = 1").Updates(map[string]interface{}{
		"line_count":      0,
		"cold_start_done": false,
		"updated_at":      time.Now(),
	})
	if result.Error != nil {
		log.Fatalf("Failed to reset cursors: %v", result.Error)
	}

	fmt.Printf("\n✅ Reset %d cursors. Restart the server to pick up the change.\n", result.RowsAffected)
}
