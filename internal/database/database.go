package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"whiteboard-backend/internal/model"
)

// DB 전역 데이터베이스 인스턴스
var DB *gorm.DB

// Config 데이터베이스 설정
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

// LoadConfig 환경변수에서 DB 설정 로드
func LoadConfig() *Config {
	return &Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSLMODE", "require"),
		TimeZone: getEnv("DB_TIMEZONE", "UTC"),
	}
}

// ConnectDB 데이터베이스 연결 수립
func ConnectDB() (*gorm.DB, error) {
	cfg := LoadConfig()

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.TimeZone,
	)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	DB = db

	// AutoMigrate - 테이블 스키마 자동 업데이트
	if err := db.AutoMigrate(
		&model.User{},
		&model.Class{},
		&model.ClassMember{},
		&model.LiveSession{},
		&model.SessionParticipant{},
		&model.WhiteboardStroke{},
	); err != nil {
		log.Printf("⚠️ AutoMigrate warning: %v", err)
	}

	// FORCE MANUAL CREATION (Fallback for persistent missing table issue)
	// AutoMigrate can be skipped or silently fail in complex envs.
	sql := `CREATE TABLE IF NOT EXISTS whiteboard_strokes (
		id bigserial PRIMARY KEY,
		stroke_token varchar(64) NOT NULL,
		room_kind varchar(20) NOT NULL,
		room_id bigint NOT NULL,
		author_id bigint NOT NULL,
		tool varchar(20) NOT NULL,
		path jsonb NOT NULL DEFAULT '[]',
		color varchar(20) NOT NULL DEFAULT '#000000',
		width double precision NOT NULL DEFAULT 2,
		opacity double precision NOT NULL DEFAULT 1,
		text_content text,
		font_size double precision,
		font_family varchar(100),
		start_x double precision DEFAULT 0,
		start_y double precision DEFAULT 0,
		end_x double precision DEFAULT 0,
		end_y double precision DEFAULT 0,
		is_deleted boolean DEFAULT false,
		deleted_at timestamptz,
		created_at timestamptz DEFAULT now(),
		updated_at timestamptz DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_stroke_room_token ON whiteboard_strokes (room_kind, room_id, stroke_token);
	CREATE INDEX IF NOT EXISTS idx_stroke_room_created ON whiteboard_strokes (room_kind, room_id, created_at);`

	if err := db.Exec(sql).Error; err != nil {
		log.Printf("⚠️ Manual Table Creation Warning: %v", err)
	}

	return db, nil
}

// Ping 데이터베이스 연결 테스트
func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close 데이터베이스 연결 종료
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// getEnv 환경변수 조회 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
