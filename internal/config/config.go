// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Sources    SourcesConfig
	Policy     PolicyConfig
	Simulation SimulationConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled              bool
	RedisURL             string
	RedisHost            string
	RedisPort            string
	RedisPassword        string
	RedisDB              int
	EvaluationTTLSeconds int
}

// SourcesConfig selects where baseline and forecast files are read from.
// Kind is one of "local", "s3" or "drive".
type SourcesConfig struct {
	Kind                 string
	LocalDir             string
	BaselineKey          string
	ForecastKey          string
	S3                   S3Config
	DriveCredentialsJSON string
	DriveFolderID        string
}

// S3Config encapsulates the connection info for S3-compatible storage.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// PolicyConfig holds the defaults applied when a request omits a field.
// HoldingCostPct and the stockout rates are fractions, not percentages.
type PolicyConfig struct {
	ServiceLevel         float64
	HoldingCostPct       float64
	StockoutCostPerUnit  float64
	LeadTimeDays         int
	ReactiveStockoutRate float64
	BaselineServiceLevel float64
	FallbackStdDev       float64
}

type SimulationConfig struct {
	HorizonDays   int
	OrderQuantity float64
	Buffer        float64
	DailySpread   float64
	SpreadMode    string
	SweepWorkers  int
}

type LogConfig struct {
	Level  string
	Format string
}

var (
	once     sync.Once
	instance *Config
)

// Load reads .env, environment variables and defaults once per process.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.New()
		SetDefaults(v)

		// Read from environment variables
		v.AutomaticEnv()

		instance = LoadFrom(v)
		if instance.Sources.Kind == "local" {
			ensureDir(instance.Sources.LocalDir)
		}
	})

	return instance
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "replenish")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_EVALUATION_TTL_SECONDS", 300)

	v.SetDefault("SOURCES_KIND", "local")
	v.SetDefault("SOURCES_LOCAL_DIR", "./data")
	v.SetDefault("SOURCES_BASELINE_KEY", "optimization_results.json")
	v.SetDefault("SOURCES_FORECAST_KEY", "forecast_output.csv")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("GOOGLE_DRIVE_CREDENTIALS_JSON", "")
	v.SetDefault("GOOGLE_DRIVE_FOLDER_ID", "")

	v.SetDefault("POLICY_SERVICE_LEVEL", 0.95)
	v.SetDefault("POLICY_HOLDING_COST_PCT", 0.20)
	v.SetDefault("POLICY_STOCKOUT_COST_PER_UNIT", 50.0)
	v.SetDefault("POLICY_LEAD_TIME_DAYS", 15)
	v.SetDefault("POLICY_REACTIVE_STOCKOUT_RATE", 0.05)
	v.SetDefault("POLICY_BASELINE_SERVICE_LEVEL", 0.95)
	v.SetDefault("POLICY_FALLBACK_STD_DEV", 5.0)

	v.SetDefault("SIM_HORIZON_DAYS", 90)
	v.SetDefault("SIM_ORDER_QUANTITY", 150.0)
	v.SetDefault("SIM_BUFFER", 50.0)
	v.SetDefault("SIM_DAILY_SPREAD", 2.0)
	v.SetDefault("SIM_SPREAD_MODE", "fixed")
	v.SetDefault("SIM_SWEEP_WORKERS", 4)

	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("LOG_FORMAT", "console")
}

// LoadFrom builds a Config from an already populated viper instance.
func LoadFrom(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Enabled:  v.GetBool("DB_ENABLED"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:              v.GetBool("CACHE_ENABLED"),
			RedisURL:             v.GetString("REDIS_URL"),
			RedisHost:            v.GetString("REDIS_HOST"),
			RedisPort:            v.GetString("REDIS_PORT"),
			RedisPassword:        v.GetString("REDIS_PASSWORD"),
			RedisDB:              v.GetInt("REDIS_DB"),
			EvaluationTTLSeconds: v.GetInt("CACHE_EVALUATION_TTL_SECONDS"),
		},
		Sources: SourcesConfig{
			Kind:        v.GetString("SOURCES_KIND"),
			LocalDir:    v.GetString("SOURCES_LOCAL_DIR"),
			BaselineKey: v.GetString("SOURCES_BASELINE_KEY"),
			ForecastKey: v.GetString("SOURCES_FORECAST_KEY"),
			S3: S3Config{
				Endpoint:  v.GetString("S3_ENDPOINT"),
				AccessKey: v.GetString("S3_ACCESS_KEY"),
				SecretKey: v.GetString("S3_SECRET_KEY"),
				Bucket:    v.GetString("S3_BUCKET"),
				Region:    v.GetString("S3_REGION"),
				UseSSL:    v.GetBool("S3_USE_SSL"),
			},
			DriveCredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			DriveFolderID:        v.GetString("GOOGLE_DRIVE_FOLDER_ID"),
		},
		Policy: PolicyConfig{
			ServiceLevel:         v.GetFloat64("POLICY_SERVICE_LEVEL"),
			HoldingCostPct:       v.GetFloat64("POLICY_HOLDING_COST_PCT"),
			StockoutCostPerUnit:  v.GetFloat64("POLICY_STOCKOUT_COST_PER_UNIT"),
			LeadTimeDays:         v.GetInt("POLICY_LEAD_TIME_DAYS"),
			ReactiveStockoutRate: v.GetFloat64("POLICY_REACTIVE_STOCKOUT_RATE"),
			BaselineServiceLevel: v.GetFloat64("POLICY_BASELINE_SERVICE_LEVEL"),
			FallbackStdDev:       v.GetFloat64("POLICY_FALLBACK_STD_DEV"),
		},
		Simulation: SimulationConfig{
			HorizonDays:   v.GetInt("SIM_HORIZON_DAYS"),
			OrderQuantity: v.GetFloat64("SIM_ORDER_QUANTITY"),
			Buffer:        v.GetFloat64("SIM_BUFFER"),
			DailySpread:   v.GetFloat64("SIM_DAILY_SPREAD"),
			SpreadMode:    v.GetString("SIM_SPREAD_MODE"),
			SweepWorkers:  v.GetInt("SIM_SWEEP_WORKERS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
