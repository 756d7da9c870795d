package config

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by configuration structs that check their own
// invariants after parsing.
type Validator interface {
	Validate() error
}

type configCache struct {
	mu     sync.RWMutex
	values map[string]any
	onces  map[string]*sync.Once
}

var (
	globalCache = &configCache{
		values: make(map[string]any),
		onces:  make(map[string]*sync.Once),
	}

	defaultEnvLoaded sync.Once
)

type loadOptions struct {
	files       []string
	prefix      string
	environment map[string]string
}

// Option configures Parse.
type Option func(*loadOptions)

// WithEnvFiles loads the given dotenv files before parsing. Variables already
// set in the process environment win over file values.
func WithEnvFiles(paths ...string) Option {
	return func(o *loadOptions) {
		o.files = append(o.files, paths...)
	}
}

// WithPrefix prepends prefix to every variable name.
func WithPrefix(prefix string) Option {
	return func(o *loadOptions) {
		o.prefix = prefix
	}
}

// WithEnvironment parses from vars instead of the process environment.
func WithEnvironment(vars map[string]string) Option {
	return func(o *loadOptions) {
		o.environment = vars
	}
}

// Parse fills v from environment variables according to its env struct tags
// and validates it when T implements Validator. Nothing is cached.
//
//	type APIConfig struct {
//		BaseURL string        `env:"BILLING_API_BASE_URL,required"`
//		Timeout time.Duration `env:"BILLING_API_TIMEOUT" envDefault:"30s"`
//	}
//
//	var cfg APIConfig
//	err := config.Parse(&cfg, config.WithEnvFiles(".env.local"))
func Parse[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if len(o.files) > 0 {
		if err := loadEnvFiles(o); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	}

	if err := env.ParseWithOptions(v, env.Options{
		Prefix:      o.prefix,
		Environment: o.environment,
	}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	if val, ok := any(v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
	}
	return nil
}

// Load parses the configuration of type T once per process and returns the
// cached copy afterwards. The first call also loads a .env file from the
// working directory when one exists.
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// A missing .env file is fine.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	typeName := getTypeName[T]()

	globalCache.mu.RLock()
	if cached, ok := globalCache.values[typeName]; ok {
		*v = cached.(T)
		globalCache.mu.RUnlock()
		return nil
	}
	globalCache.mu.RUnlock()

	globalCache.mu.Lock()
	once, exists := globalCache.onces[typeName]
	if !exists {
		once = new(sync.Once)
		globalCache.onces[typeName] = once
	}
	globalCache.mu.Unlock()

	var err error
	once.Do(func() {
		if err = Parse(v); err != nil {
			return
		}
		globalCache.mu.Lock()
		globalCache.values[typeName] = *v
		globalCache.mu.Unlock()
	})
	if err != nil {
		// Let a later call retry after the environment is fixed.
		globalCache.mu.Lock()
		delete(globalCache.onces, typeName)
		globalCache.mu.Unlock()
		return err
	}

	globalCache.mu.RLock()
	defer globalCache.mu.RUnlock()
	if cached, ok := globalCache.values[typeName]; ok {
		*v = cached.(T)
		return nil
	}
	return ErrConfigNotLoaded
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func getTypeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// loadEnvFiles loads dotenv files into the process environment, or into a copy
// of the explicit environment when one was given. Existing values win.
func loadEnvFiles(o *loadOptions) error {
	if o.environment == nil {
		return godotenv.Load(o.files...)
	}

	fileVars, err := godotenv.Read(o.files...)
	if err != nil {
		return err
	}
	merged := make(map[string]string, len(fileVars)+len(o.environment))
	maps.Copy(merged, fileVars)
	maps.Copy(merged, o.environment)
	o.environment = merged
	return nil
}
