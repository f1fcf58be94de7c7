package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}

	// Database connection
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_SSLMODE"),
		os.Getenv("DB_TIMEZONE"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	fmt.Println("✅ Connected to database")
	fmt.Println()

	// Check if whiteboard_strokes table exists
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_name = 'whiteboard_strokes'
		)
	`
	if err := db.Raw(query).Scan(&exists).Error; err != nil {
		log.Fatal("Failed to check whiteboard_strokes table:", err)
	}

	fmt.Printf("📊 whiteboard_strokes table exists: %v\n", exists)
	fmt.Println()

	if !exists {
		fmt.Println("⚠️ Table missing. Run the server once so migration creates it.")
		return
	}

	// Get column info
	type ColumnInfo struct {
		ColumnName    string
		DataType      string
		ColumnDefault *string
		IsNullable    string
	}
	var columns []ColumnInfo
	query = `
		SELECT column_name, data_type, column_default, is_nullable
		FROM information_schema.columns
		WHERE table_name = 'whiteboard_strokes'
		ORDER BY ordinal_position
	`
	if err := db.Raw(query).Scan(&columns).Error; err != nil {
		log.Fatal("Failed to get column info:", err)
	}

	fmt.Println("📋 Column Information:")
	for _, col := range columns {
		nullable := ""
		if col.IsNullable == "YES" {
			nullable = " (nullable)"
		}
		fmt.Printf("  - %s: %s%s\n", col.ColumnName, col.DataType, nullable)
	}
	fmt.Println()

	// Check required indexes
	for _, idx := range []string{"idx_stroke_room_token", "idx_stroke_room_created"} {
		var idxExists bool
		query = `
			SELECT EXISTS (
				SELECT 1
				FROM pg_indexes
				WHERE tablename = 'whiteboard_strokes'
				AND indexname = ?
			)
		`
		if err := db.Raw(query, idx).Scan(&idxExists).Error; err != nil {
			log.Fatal("Failed to check index:", err)
		}
		if idxExists {
			fmt.Printf("✅ Index %s exists\n", idx)
		} else {
			fmt.Printf("⚠️ Index %s missing\n", idx)
		}
	}
	fmt.Println()

	// Stroke counts
	var total, deleted int64
	if err := db.Raw(`SELECT COUNT(*) FROM whiteboard_strokes`).Scan(&total).Error; err != nil {
		log.Fatal("Failed to count strokes:", err)
	}
	if err := db.Raw(`SELECT COUNT(*) FROM whiteboard_strokes WHERE is_deleted = true`).Scan(&deleted).Error; err != nil {
		log.Fatal("Failed to count deleted strokes:", err)
	}

	fmt.Printf("🖊️ Strokes: %d total, %d soft-deleted, %d visible\n", total, deleted, total-deleted)
}
