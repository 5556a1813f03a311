package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"mealpedeal-api/logger"
	"mealpedeal-api/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign tokens; replaced by Load
var JWTSecret = []byte(getEnv("JWT_SECRET", "mealpedeal_dev_secret"))

type Config struct {
	Env              string        `yaml:"env"`
	Port             string        `yaml:"port"`
	GinMode          string        `yaml:"gin_mode"`
	DBDriver         string        `yaml:"db_driver"`
	DBDSN            string        `yaml:"db_dsn"`
	JWTSecret        string        `yaml:"jwt_secret"`
	JWTTTL           time.Duration `yaml:"jwt_ttl"`
	OTPTTL           time.Duration `yaml:"otp_ttl"`
	MessengerURL     string        `yaml:"messenger_gateway_url"`
	MessengerTimeout time.Duration `yaml:"messenger_timeout"`
	MongoURI         string        `yaml:"mongo_uri"`
	MongoDB          string        `yaml:"mongo_db"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

// App is the configuration the process was started with
var App = Defaults()

func Defaults() Config {
	return Config{
		Env:              "development",
		Port:             "8080",
		GinMode:          "debug",
		DBDriver:         "sqlite",
		DBDSN:            "mealpedeal.db",
		JWTSecret:        "mealpedeal_dev_secret",
		JWTTTL:           24 * time.Hour,
		OTPTTL:           5 * time.Minute,
		MessengerTimeout: 10 * time.Second,
		MongoDB:          "mealpedeal",
		AllowedOrigins:   []string{"*"},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Load layers defaults, an optional YAML file (CONFIG_FILE) and the environment,
// in that order. A .env file in the working directory is read first if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = getEnv("DB_DSN", cfg.DBDSN)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.MessengerURL = getEnv("MESSENGER_GATEWAY_URL", cfg.MessengerURL)
	cfg.MongoURI = getEnv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDB = getEnv("MONGO_DB", cfg.MongoDB)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", cfg.JWTTTL); err != nil {
		return cfg, err
	}
	if cfg.OTPTTL, err = getDuration("OTP_TTL", cfg.OTPTTL); err != nil {
		return cfg, err
	}
	if cfg.MessengerTimeout, err = getDuration("MESSENGER_TIMEOUT", cfg.MessengerTimeout); err != nil {
		return cfg, err
	}

	if cfg.OTPTTL <= 0 {
		return cfg, fmt.Errorf("OTP_TTL must be positive, got %s", cfg.OTPTTL)
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return cfg, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.Env == "production" && cfg.JWTSecret == Defaults().JWTSecret {
		return cfg, fmt.Errorf("JWT_SECRET must be set in production")
	}

	App = cfg
	JWTSecret = []byte(cfg.JWTSecret)
	return cfg, nil
}

// OpenDB connects with the configured driver and migrates every model
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.NotificationPreferences{},
		&models.Restaurant{},
		&models.MenuItem{},
		&models.MysteryBagTemplate{},
		&models.MysteryBag{},
		&models.BagStatusChange{},
		&models.BagSale{},
		&models.RestaurantReview{},
		&models.MysteryBagReview{},
		&models.ReviewVote{},
		&models.ReviewFlag{},
	)
}

func InitDB(cfg Config) error {
	db, err := OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	DB = db
	logger.Info("database connected and migrated", zap.String("driver", cfg.DBDriver))
	return nil
}
