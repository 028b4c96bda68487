package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Geocoder GeocoderConfig
	Routing  RoutingConfig
	Resolver ResolverConfig
	Cache    CacheConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StorageConfig selects the durable stores.
type StorageConfig struct {
	DBPath      string
	DatabaseURL string
	RedisAddr   string
	RedisDB     int
}

// GeocoderConfig configures the primary geocoder adapter.
type GeocoderConfig struct {
	BaseURL     string
	UserAgent   string
	RateLimit   time.Duration
	Timeout     time.Duration
	CountryCode string
}

// RoutingConfig configures the driving-route provider.
type RoutingConfig struct {
	BaseURL          string
	Timeout          time.Duration
	FallbackSpeedKmh float64
}

// ResolverConfig configures the place-resolution cascade.
type ResolverConfig struct {
	SearchRadiusMi   float64
	ExpandedRadiusMi float64
	DefaultRadiusKm  float64
	PlacesEnabled    bool
	PlacesAPIKey     string
	LLMEnabled       bool
	GeminiAPIKey     string
	GeminiModel      string
	GeminiTimeout    time.Duration
	WebSearchEnabled bool
	TavilyAPIKey     string
	TavilyTimeout    time.Duration
}

// CacheConfig configures the shared provider cache.
type CacheConfig struct {
	TTL time.Duration
}

// Load reads configuration from environment variables and an optional
// .env file, applying defaults for every knob.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "120s")
	viper.SetDefault("SERVER_IDLE_TIMEOUT", "60s")

	viper.SetDefault("DB_PATH", "data/app.db")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("PRIMARY_GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")
	viper.SetDefault("PRIMARY_GEOCODER_USER_AGENT", "ErrandRouteService/0.1.0")
	viper.SetDefault("PRIMARY_GEOCODER_RATE_LIMIT", "1s")
	viper.SetDefault("PRIMARY_GEOCODER_TIMEOUT", "10s")
	viper.SetDefault("PRIMARY_GEOCODER_COUNTRY", "us")

	viper.SetDefault("ROUTING_BASE_URL", "https://router.project-osrm.org")
	viper.SetDefault("ROUTING_TIMEOUT", "10s")
	viper.SetDefault("ROUTING_FALLBACK_SPEED_KMH", 40.0)

	viper.SetDefault("OSM_SEARCH_RADIUS_MI", 10.0)
	viper.SetDefault("OSM_EXPANDED_RADIUS_MI", 25.0)
	viper.SetDefault("DEFAULT_SEARCH_RADIUS_KM", 16.0)
	viper.SetDefault("PLACES_ENABLED", false)
	viper.SetDefault("GOOGLE_PLACES_API_KEY", "")
	viper.SetDefault("LLM_ENABLED", false)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	viper.SetDefault("GEMINI_TIMEOUT", "20s")
	viper.SetDefault("WEB_SEARCH_ENABLED", false)
	viper.SetDefault("TAVILY_API_KEY", "")
	viper.SetDefault("TAVILY_TIMEOUT", "15s")

	viper.SetDefault("CACHE_TTL_DAYS", 7)

	// Missing .env is fine; environment variables take over.
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("PORT"),
			ReadTimeout:  viper.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: viper.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:  viper.GetDuration("SERVER_IDLE_TIMEOUT"),
		},
		Storage: StorageConfig{
			DBPath:      viper.GetString("DB_PATH"),
			DatabaseURL: viper.GetString("DATABASE_URL"),
			RedisAddr:   viper.GetString("REDIS_ADDR"),
			RedisDB:     viper.GetInt("REDIS_DB"),
		},
		Geocoder: GeocoderConfig{
			BaseURL:     viper.GetString("PRIMARY_GEOCODER_BASE_URL"),
			UserAgent:   viper.GetString("PRIMARY_GEOCODER_USER_AGENT"),
			RateLimit:   viper.GetDuration("PRIMARY_GEOCODER_RATE_LIMIT"),
			Timeout:     viper.GetDuration("PRIMARY_GEOCODER_TIMEOUT"),
			CountryCode: viper.GetString("PRIMARY_GEOCODER_COUNTRY"),
		},
		Routing: RoutingConfig{
			BaseURL:          viper.GetString("ROUTING_BASE_URL"),
			Timeout:          viper.GetDuration("ROUTING_TIMEOUT"),
			FallbackSpeedKmh: viper.GetFloat64("ROUTING_FALLBACK_SPEED_KMH"),
		},
		Resolver: ResolverConfig{
			SearchRadiusMi:   viper.GetFloat64("OSM_SEARCH_RADIUS_MI"),
			ExpandedRadiusMi: viper.GetFloat64("OSM_EXPANDED_RADIUS_MI"),
			DefaultRadiusKm:  viper.GetFloat64("DEFAULT_SEARCH_RADIUS_KM"),
			PlacesEnabled:    viper.GetBool("PLACES_ENABLED"),
			PlacesAPIKey:     viper.GetString("GOOGLE_PLACES_API_KEY"),
			LLMEnabled:       viper.GetBool("LLM_ENABLED"),
			GeminiAPIKey:     viper.GetString("GEMINI_API_KEY"),
			GeminiModel:      viper.GetString("GEMINI_MODEL"),
			GeminiTimeout:    viper.GetDuration("GEMINI_TIMEOUT"),
			WebSearchEnabled: viper.GetBool("WEB_SEARCH_ENABLED"),
			TavilyAPIKey:     viper.GetString("TAVILY_API_KEY"),
			TavilyTimeout:    viper.GetDuration("TAVILY_TIMEOUT"),
		},
		Cache: CacheConfig{
			TTL: time.Duration(viper.GetInt("CACHE_TTL_DAYS")) * 24 * time.Hour,
		},
	}

	return cfg, nil
}
