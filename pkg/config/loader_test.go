package config_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/config"
)

type defaultsConfig struct {
	Prefix  string        `env:"TEST_API_PREFIX_DEFAULT" envDefault:"/api/v1"`
	Size    int           `env:"TEST_CACHE_SIZE_DEFAULT" envDefault:"256"`
	Timeout time.Duration `env:"TEST_TIMEOUT_DEFAULT" envDefault:"30s"`
}

type successConfig struct {
	BaseURL string        `env:"TEST_BASE_URL_SUCCESS" envDefault:"http://localhost"`
	Timeout time.Duration `env:"TEST_TIMEOUT_SUCCESS" envDefault:"30s"`
	Debug   bool          `env:"TEST_DEBUG_SUCCESS" envDefault:"true"`
}

type singletonConfig struct {
	Value string `env:"TEST_STRING_SINGLETON" envDefault:"default_value"`
}

type requiredConfig struct {
	Required string `env:"TEST_REQUIRED_VALUE,required"`
}

type fileConfig struct {
	URL     string        `env:"URL"`
	Timeout time.Duration `env:"TIMEOUT"`
}

type validatedConfig struct {
	Size int `env:"SIZE" envDefault:"0"`
}

var errSize = errors.New("size must be positive")

func (c *validatedConfig) Validate() error {
	if c.Size <= 0 {
		return errSize
	}
	return nil
}

func TestLoad_Success(t *testing.T) {
	t.Setenv("TEST_BASE_URL_SUCCESS", "https://billing.example.com")
	t.Setenv("TEST_TIMEOUT_SUCCESS", "5s")
	t.Setenv("TEST_DEBUG_SUCCESS", "false")

	var cfg successConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "https://billing.example.com", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.False(t, cfg.Debug)
}

func TestLoad_DefaultValues(t *testing.T) {
	os.Unsetenv("TEST_API_PREFIX_DEFAULT")
	os.Unsetenv("TEST_CACHE_SIZE_DEFAULT")
	os.Unsetenv("TEST_TIMEOUT_DEFAULT")

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "/api/v1", cfg.Prefix)
	assert.Equal(t, 256, cfg.Size)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("TEST_REQUIRED_VALUE")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	// A failed load is not cached.
	t.Setenv("TEST_REQUIRED_VALUE", "present")
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "present", cfg.Required)
}

func TestLoad_Singleton(t *testing.T) {
	t.Setenv("TEST_STRING_SINGLETON", "first_value")

	var first singletonConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_STRING_SINGLETON", "second_value")

	var second singletonConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first_value", second.Value)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *successConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	assert.ErrorIs(t, config.Parse(cfg), config.ErrNilPointer)
}

func TestMustLoad(t *testing.T) {
	os.Unsetenv("TEST_REQUIRED_VALUE_MUST")

	type mustConfig struct {
		Value string `env:"TEST_REQUIRED_VALUE_MUST,required"`
	}
	assert.Panics(t, func() {
		var cfg mustConfig
		config.MustLoad(&cfg)
	})
}

func TestParse(t *testing.T) {
	t.Run("explicit environment", func(t *testing.T) {
		var cfg successConfig
		err := config.Parse(&cfg, config.WithEnvironment(map[string]string{
			"TEST_BASE_URL_SUCCESS": "https://api.example.com",
		}))
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com", cfg.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
	})

	t.Run("env file with prefix", func(t *testing.T) {
		os.Unsetenv("BILLINGKIT_TEST_FILE_URL")
		os.Unsetenv("BILLINGKIT_TEST_FILE_TIMEOUT")
		t.Cleanup(func() {
			os.Unsetenv("BILLINGKIT_TEST_FILE_URL")
			os.Unsetenv("BILLINGKIT_TEST_FILE_TIMEOUT")
		})

		var cfg fileConfig
		err := config.Parse(&cfg,
			config.WithEnvFiles("testdata/.env.test"),
			config.WithPrefix("BILLINGKIT_TEST_FILE_"),
		)
		require.NoError(t, err)
		assert.Equal(t, "https://billing.example.com", cfg.URL)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("env file merged into explicit environment", func(t *testing.T) {
		var cfg fileConfig
		err := config.Parse(&cfg,
			config.WithEnvFiles("testdata/.env.test"),
			config.WithPrefix("BILLINGKIT_TEST_FILE_"),
			config.WithEnvironment(map[string]string{"BILLINGKIT_TEST_FILE_TIMEOUT": "9s"}),
		)
		require.NoError(t, err)
		assert.Equal(t, "https://billing.example.com", cfg.URL)
		assert.Equal(t, 9*time.Second, cfg.Timeout)
		_, set := os.LookupEnv("BILLINGKIT_TEST_FILE_URL")
		assert.False(t, set)
	})

	t.Run("missing env file", func(t *testing.T) {
		var cfg fileConfig
		err := config.Parse(&cfg, config.WithEnvFiles("testdata/.env.missing"))
		assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	})

	t.Run("validator", func(t *testing.T) {
		var cfg validatedConfig
		err := config.Parse(&cfg, config.WithEnvironment(map[string]string{"SIZE": "0"}))
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.ErrorIs(t, err, errSize)

		err = config.Parse(&cfg, config.WithEnvironment(map[string]string{"SIZE": "3"}))
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Size)
	})
}
