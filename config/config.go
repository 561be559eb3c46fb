package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything read from the environment at start-up.
// It is built once in main and handed down; no package reads os.Getenv on its own.
type Config struct {
	AppEnv     string
	APIPort    string
	CertFile   string
	KeyFile    string
	CORSOrigin string
	LogLevel   string

	MongoURI      string
	DBChoiceApp   string
	DBLeisure     string
	DBRestaurants string
	DBWellness    string
	DBTimeout     time.Duration

	CacheAddr      string
	CachePass      string
	CacheDB        int
	JWTDB          int
	FinderCacheTTL time.Duration

	UseAnalytics    bool
	AnalyticsURL    string
	AnalyticsToken  string
	AnalyticsOrg    string
	AnalyticsBucket string

	AccessSecret  string
	RefreshSecret string
	CookieName    string
	CookieHashKey string

	JobTimeout     time.Duration
	RateLimitRPS   float64
	RateLimitBurst int

	RatingWeight        float64
	RatingsTouchOnEmpty bool
}

// app environments
const (
	EnvDevelopment = "DEV"
	EnvProduction  = "PRD"
)

var defaults = map[string]interface{}{
	"APP_ENV":     EnvDevelopment,
	"API_PORT":    "3000",
	"CORS_ORIGIN": "http://localhost:4200",
	"LOG_LEVEL":   "info",

	"MONGO_URI":      "mongodb://localhost:27017",
	"DB_CHOICE_APP":  "choice_app",
	"DB_LEISURE":     "Loisir&Culture",
	"DB_RESTAURANTS": "Restauration_Officielle",
	"DB_WELLNESS":    "Beauty_Wellness",
	"DB_TIMEOUT":     "10s",

	"CACHE_HOST":       "localhost",
	"CACHE_PORT":       "6379",
	"CACHE_PASS":       "",
	"CACHE_DB":         0,
	"JWT_DB":           1,
	"FINDER_CACHE_TTL": "60s",

	"USE_ANALYTICS":    "NO",
	"ANALYTICS_URL":    "http://localhost:8086",
	"ANALYTICS_TOKEN":  "",
	"ANALYTICS_ORG":    "choice",
	"ANALYTICS_BUCKET": "choice-app",

	"JWTCK_NAME": "choice_session",

	"JOB_TIMEOUT":      "30s",
	"RATE_LIMIT_RPS":   5.0,
	"RATE_LIMIT_BURST": 10,

	"RATING_WEIGHT":          0.1,
	"RATINGS_TOUCH_ON_EMPTY": false,
}

// Load reads an optional .env file and the process environment
func Load() (*Config, error) {
	// a missing .env is fine, the variables may come from the container
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{
		AppEnv:     strings.ToUpper(v.GetString("APP_ENV")),
		APIPort:    v.GetString("API_PORT"),
		CertFile:   v.GetString("APP_CERTFILE"),
		KeyFile:    v.GetString("APP_KEYFILE"),
		CORSOrigin: v.GetString("CORS_ORIGIN"),
		LogLevel:   v.GetString("LOG_LEVEL"),

		MongoURI:      v.GetString("MONGO_URI"),
		DBChoiceApp:   v.GetString("DB_CHOICE_APP"),
		DBLeisure:     v.GetString("DB_LEISURE"),
		DBRestaurants: v.GetString("DB_RESTAURANTS"),
		DBWellness:    v.GetString("DB_WELLNESS"),
		DBTimeout:     v.GetDuration("DB_TIMEOUT"),

		CacheAddr:      v.GetString("CACHE_HOST") + ":" + v.GetString("CACHE_PORT"),
		CachePass:      v.GetString("CACHE_PASS"),
		CacheDB:        v.GetInt("CACHE_DB"),
		JWTDB:          v.GetInt("JWT_DB"),
		FinderCacheTTL: v.GetDuration("FINDER_CACHE_TTL"),

		UseAnalytics:    strings.EqualFold(v.GetString("USE_ANALYTICS"), "YES"),
		AnalyticsURL:    v.GetString("ANALYTICS_URL"),
		AnalyticsToken:  v.GetString("ANALYTICS_TOKEN"),
		AnalyticsOrg:    v.GetString("ANALYTICS_ORG"),
		AnalyticsBucket: v.GetString("ANALYTICS_BUCKET"),

		AccessSecret:  v.GetString("ACCESS_SECRET"),
		RefreshSecret: v.GetString("REFRESH_SECRET"),
		CookieName:    v.GetString("JWTCK_NAME"),
		CookieHashKey: v.GetString("JWTCK_HASHKEY"),

		JobTimeout:     v.GetDuration("JOB_TIMEOUT"),
		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),

		RatingWeight:        v.GetFloat64("RATING_WEIGHT"),
		RatingsTouchOnEmpty: v.GetBool("RATINGS_TOUCH_ON_EMPTY"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AppEnv {
	case EnvDevelopment:
	case EnvProduction:
		if c.CertFile == "" || c.KeyFile == "" {
			return fmt.Errorf("APP_CERTFILE and APP_KEYFILE are required when APP_ENV=%s", EnvProduction)
		}
	default:
		return fmt.Errorf("APP_ENV must be %s or %s, got %q", EnvDevelopment, EnvProduction, c.AppEnv)
	}

	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return fmt.Errorf("ACCESS_SECRET and REFRESH_SECRET must be set")
	}

	// securecookie rejects shorter keys
	if len(c.CookieHashKey) < 32 {
		return fmt.Errorf("JWTCK_HASHKEY must be at least 32 bytes long")
	}

	if c.RatingWeight <= 0 || c.RatingWeight > 1 {
		return fmt.Errorf("RATING_WEIGHT must be in (0, 1], got %v", c.RatingWeight)
	}

	if c.DBTimeout <= 0 || c.JobTimeout <= 0 {
		return fmt.Errorf("DB_TIMEOUT and JOB_TIMEOUT must be positive")
	}

	return nil
}
