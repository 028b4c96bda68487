package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"errand-route-service/internal/adapters/cache"
	"errand-route-service/internal/adapters/geocode"
	"errand-route-service/internal/adapters/llm"
	"errand-route-service/internal/adapters/places"
	"errand-route-service/internal/adapters/repositories"
	"errand-route-service/internal/adapters/routing"
	"errand-route-service/internal/adapters/websearch"
	"errand-route-service/internal/api"
	"errand-route-service/internal/config"
	"errand-route-service/internal/ports"
	"errand-route-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, Nominatim, OSRM, optional Google
// Places / Gemini / Tavily) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := openDB(cfg.Storage.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := repositories.InitSchema(db); err != nil {
		log.Fatal(err)
	}

	// Provider caches keep Nominatim within its rate limit and avoid
	// repeated paid Places/Tavily lookups across restarts.
	kv, err := newProviderCache(cfg, db)
	if err != nil {
		log.Fatal(err)
	}

	geocoder := geocode.NewNominatimGeocoder(
		cfg.Geocoder.BaseURL,
		cfg.Geocoder.UserAgent,
		cfg.Geocoder.CountryCode,
		cfg.Geocoder.RateLimit,
		cfg.Geocoder.Timeout,
		kv,
		cfg.Cache.TTL,
	)

	routeProvider := routing.NewOSRMRouteProvider(
		cfg.Routing.BaseURL,
		cfg.Routing.Timeout,
		cfg.Routing.FallbackSpeedKmh,
		kv,
		cfg.Cache.TTL,
	)

	opts := []func(*services.Resolver){
		services.WithRadii(cfg.Resolver.SearchRadiusMi, cfg.Resolver.ExpandedRadiusMi),
	}
	if cfg.Resolver.PlacesEnabled && cfg.Resolver.PlacesAPIKey != "" {
		opts = append(opts, services.WithPlaces(
			places.NewGooglePlacesSearcher(cfg.Resolver.PlacesAPIKey, kv, cfg.Cache.TTL)))
	}
	if cfg.Resolver.LLMEnabled && cfg.Resolver.GeminiAPIKey != "" {
		opts = append(opts, services.WithReranker(
			llm.NewGeminiReranker(cfg.Resolver.GeminiAPIKey, cfg.Resolver.GeminiModel, cfg.Resolver.GeminiTimeout)))
	}
	if cfg.Resolver.WebSearchEnabled && cfg.Resolver.TavilyAPIKey != "" {
		opts = append(opts, services.WithWebSearch(
			websearch.NewTavilySearcher(cfg.Resolver.TavilyAPIKey, cfg.Resolver.TavilyTimeout, geocoder, kv, cfg.Cache.TTL)))
	}

	resolver := services.NewResolver(geocoder, opts...)
	planner := services.NewDayPlanner(resolver, services.NewScheduler(routeProvider))

	router := api.NewRouter(api.Deps{
		Settings: repositories.NewSqliteSettingsRepository(db),
		Tasks:    repositories.NewSqliteTaskRepository(db),
		Blocks:   repositories.NewSqliteFixedBlockRepository(db),
		Plans:    repositories.NewSqlitePlanRepository(db),
		Resolver: resolver,
		Planner:  planner,
	})

	// Timeouts are tuned for cold-cache planning (external API latency).
	log.Printf("Server listening addr=:%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	log.Fatal(srv.ListenAndServe())
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return db, nil
}

// newProviderCache picks Redis when configured, otherwise the shared
// SQLite kv_cache table.
func newProviderCache(cfg *config.Config, db *sql.DB) (ports.KeyValueCache, error) {
	if cfg.Storage.RedisAddr == "" {
		return cache.NewSqliteCache(db), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := cache.NewRedisClient(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("newProviderCache: connect redis at %q: %w", cfg.Storage.RedisAddr, err)
	}

	return cache.NewRedisCache(client), nil
}
