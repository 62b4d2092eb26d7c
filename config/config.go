package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Identity policies for repeated product descriptions (see Config.IdentityPolicy).
const (
	PolicySkipExisting = "skip"   // a row whose description already exists is skipped
	PolicySuffix       = "suffix" // every row creates a product; repeats get " (n)"
)

// Config carries everything the import pipeline needs. No component reads
// process-wide state; the whole run is parameterized here.
type Config struct {
	// Input
	InputFile string `validate:"required"`
	SheetName string // empty: first visible sheet

	// Header detection
	HeaderScanRows   int `validate:"gt=0"`
	HeaderDefaultRow int `validate:"gte=0"`

	// Row policies
	IdentityPolicy  string `validate:"oneof=skip suffix"`
	QuantityDefault int    `validate:"gte=0"` // substituted on unparseable quantity

	// Run identity
	CategoryName string `validate:"required"` // single category per run
	Actor        string `validate:"required"` // created_by on audit rows

	// Images
	ImageDirs    []string // scanned read-only for candidate source images
	OutputDir    string   `validate:"required"`
	FetchEnabled bool
	FetchTimeout time.Duration `validate:"gt=0"`

	// Retry/backoff for transient file and network failures
	RetryAttempts int           `validate:"gt=0"`
	RetryBackoff  time.Duration `validate:"gt=0"`

	// Store
	DBDriver string `validate:"oneof=postgres sqlite3"`
	DBDSN    string `validate:"required"`

	// DryRun parses and reports without writing to the store or filesystem.
	DryRun bool
}

var validate = validator.New()

// Load builds a Config from the environment (.env supported) with defaults.
// Flag values from the CLI are layered on top by the caller before Validate.
func Load() (*Config, error) {
	// Load the .env file if one exists.
	_ = godotenv.Load()

	cfg := &Config{
		InputFile:        os.Getenv("IMPORT_FILE"),
		SheetName:        os.Getenv("IMPORT_SHEET"),
		HeaderScanRows:   getEnvInt("HEADER_SCAN_ROWS", 10),
		HeaderDefaultRow: getEnvInt("HEADER_DEFAULT_ROW", 1),
		IdentityPolicy:   getEnvDefault("IDENTITY_POLICY", PolicySkipExisting),
		QuantityDefault:  getEnvInt("QUANTITY_DEFAULT", 0),
		CategoryName:     getEnvDefault("IMPORT_CATEGORY", "Imported Products"),
		Actor:            getEnvDefault("IMPORT_ACTOR", "importer"),
		OutputDir:        getEnvDefault("UPLOADS_DIR", "uploads/products"),
		FetchEnabled:     getEnvBool("IMAGE_FETCH_ENABLED", false),
		FetchTimeout:     getEnvDuration("IMAGE_FETCH_TIMEOUT", 10*time.Second),
		RetryAttempts:    getEnvInt("RETRY_ATTEMPTS", 3),
		RetryBackoff:     getEnvDuration("RETRY_BACKOFF", 500*time.Millisecond),
		DBDriver:         getEnvDefault("DB_DRIVER", "sqlite3"),
		DBDSN:            getEnvDefault("DB_DSN", "data/inventory.db"),
	}

	if dirs := strings.TrimSpace(os.Getenv("IMAGE_DIRS")); dirs != "" {
		for _, d := range strings.Split(dirs, string(os.PathListSeparator)) {
			d = strings.TrimSpace(d)
			if d != "" {
				cfg.ImageDirs = append(cfg.ImageDirs, d)
			}
		}
	}

	return cfg, nil
}

// Validate checks the assembled configuration once flags are applied.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnvDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return val
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
