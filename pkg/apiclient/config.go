package apiclient

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds billing API settings loaded from the environment.
type Config struct {
	BaseURL string        `env:"BILLING_API_BASE_URL,required"`
	Prefix  string        `env:"BILLING_API_PREFIX" envDefault:"/api/v1"`
	Token   string        `env:"BILLING_API_TOKEN"`
	Timeout time.Duration `env:"BILLING_API_TIMEOUT" envDefault:"30s"`
	Paths   Paths         `envPrefix:"BILLING_PATH_"`
}

// Paths maps each resource to its path below the API prefix.
type Paths struct {
	Prices        string `env:"PRICES" envDefault:"/prices"`
	Products      string `env:"PRODUCTS" envDefault:"/products"`
	Subscription  string `env:"SUBSCRIPTION" envDefault:"/subscription"`
	Subscriptions string `env:"SUBSCRIPTIONS" envDefault:"/subscriptions"`
	Checkout      string `env:"CHECKOUT" envDefault:"/stripe/checkout"`
	Portal        string `env:"PORTAL" envDefault:"/stripe/portal"`
}

// DefaultPaths returns the paths used when none are configured.
func DefaultPaths() Paths {
	return Paths{
		Prices:        "/prices",
		Products:      "/products",
		Subscription:  "/subscription",
		Subscriptions: "/subscriptions",
		Checkout:      "/stripe/checkout",
		Portal:        "/stripe/portal",
	}
}

// Validate checks that BaseURL is an absolute http(s) URL and the timeout is
// not negative.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.Join(ErrInvalidConfig, errors.New("base URL is empty"))
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("base URL scheme %q is not http or https", u.Scheme))
	}
	if u.Host == "" {
		return errors.Join(ErrInvalidConfig, errors.New("base URL has no host"))
	}
	if c.Timeout < 0 {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("negative timeout %s", c.Timeout))
	}
	return nil
}
