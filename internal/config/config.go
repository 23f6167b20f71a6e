package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Canvas    CanvasConfig
	Upload    UploadConfig
	Vision    VisionConfig
	Database  DatabaseConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// WebSocketConfig configures the realtime endpoint.
type WebSocketConfig struct {
	ReadBufferSize   int
	WriteBufferSize  int
	PresenceAnnounce bool
}

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	AllowOrigins string
	AllowHeaders string
}

// CanvasConfig sets canvas dimension defaults and limits.
type CanvasConfig struct {
	DefaultWidth  int
	DefaultHeight int
	MaxDimension  int
}

// UploadConfig configures image uploads.
type UploadConfig struct {
	Dir         string
	MaxFileSize int
}

// VisionConfig configures the shape detection and OCR pipelines.
type VisionConfig struct {
	ShapeDetectionEnabled bool
	OCREnabled            bool
	AnalyticsEnabled      bool
	ShapeConfidence       float64
	OCRConfidence         float64
	OCRLanguage           string
}

// DatabaseConfig configures the optional canvas revision archive. The archive
// is disabled when Host is empty.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Load reads configuration from the environment, with an optional .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:   getInt("WS_READ_BUFFER_SIZE", 4096),
			WriteBufferSize:  getInt("WS_WRITE_BUFFER_SIZE", 4096),
			PresenceAnnounce: getBool("PRESENCE_ANNOUNCE", true),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
			AllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin, Content-Type, Accept"),
		},
		Canvas: CanvasConfig{
			DefaultWidth:  getInt("DEFAULT_CANVAS_WIDTH", 1920),
			DefaultHeight: getInt("DEFAULT_CANVAS_HEIGHT", 1080),
			MaxDimension:  getInt("MAX_CANVAS_SIZE", 4096),
		},
		Upload: UploadConfig{
			Dir:         getEnv("UPLOAD_DIR", "uploads"),
			MaxFileSize: getInt("MAX_FILE_SIZE", 10*1024*1024),
		},
		Vision: VisionConfig{
			ShapeDetectionEnabled: getBool("ENABLE_SHAPE_DETECTION", true),
			OCREnabled:            getBool("ENABLE_OCR", true),
			AnalyticsEnabled:      getBool("ENABLE_ANALYTICS", true),
			ShapeConfidence:       getFloat("SHAPE_CONFIDENCE_THRESHOLD", 0.7),
			OCRConfidence:         getFloat("OCR_CONFIDENCE_THRESHOLD", 0.6),
			OCRLanguage:           getEnv("OCR_LANGUAGE", "eng"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "whiteboard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}
}

// getEnv reads a string variable with a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt reads an integer variable.
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getFloat reads a float variable.
func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getBool reads a boolean variable.
func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getDuration reads a duration variable. Bare numbers are treated as seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
