// Package config loads configuration structs from environment variables.
//
// It combines github.com/joho/godotenv, for optional .env files, with
// github.com/caarlos0/env/v11, which fills struct fields from their env tags.
//
// Parse reads the environment on every call and accepts options for extra
// dotenv files, a variable prefix, or an explicit variable map. Load parses
// each configuration type once per process and serves later calls from a
// cache; failed loads are not cached. Both run Validate when the struct
// implements Validator.
//
//	type QueryConfig struct {
//		CacheSize int           `env:"QUERY_CACHE_SIZE" envDefault:"256"`
//		StaleTime time.Duration `env:"QUERY_STALE_TIME" envDefault:"0s"`
//	}
//
//	var cfg QueryConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config
