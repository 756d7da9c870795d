package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/dmitrymomot/billingkit/pkg/accessor"
	"github.com/dmitrymomot/billingkit/pkg/apiclient"
	"github.com/dmitrymomot/billingkit/pkg/billing"
	"github.com/dmitrymomot/billingkit/pkg/broadcast"
	"github.com/dmitrymomot/billingkit/pkg/checkout"
	"github.com/dmitrymomot/billingkit/pkg/config"
	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/query"
	"github.com/dmitrymomot/billingkit/pkg/requestid"
	"github.com/dmitrymomot/billingkit/pkg/store"
)

const storeBufferSize = 16

type appConfig struct {
	Log      logger.Config
	API      apiclient.Config
	Query    query.Config
	Checkout checkout.Config
}

// Validate implements config.Validator.
func (c *appConfig) Validate() error {
	if c.Log.Level != "" {
		if _, err := logger.ParseLevel(c.Log.Level); err != nil {
			return err
		}
	}
	if c.Log.Format != "" && c.Log.Format != logger.FormatJSON && c.Log.Format != logger.FormatText {
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Query.CacheSize <= 0 {
		return fmt.Errorf("query cache size must be positive, got %d", c.Query.CacheSize)
	}
	return c.API.Validate()
}

type settings struct {
	environ map[string]string
	envFile string
	format  format
	stderr  io.Writer
}

type app struct {
	cfg      appConfig
	format   format
	logger   *slog.Logger
	registry *prometheus.Registry
	queries  *query.Client
	store    *store.Store
	accessor *accessor.Accessor
}

func loadConfig(s settings) (appConfig, error) {
	var cfg appConfig

	var opts []config.Option
	if s.envFile != "" {
		opts = append(opts, config.WithEnvFiles(s.envFile))
	}
	if s.environ != nil {
		opts = append(opts, config.WithEnvironment(s.environ))
	}

	var err error
	if len(opts) == 0 {
		err = config.Load(&cfg)
	} else {
		err = config.Parse(&cfg, opts...)
	}
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func wireApp(s settings) (*app, error) {
	cfg, err := loadConfig(s)
	if err != nil {
		return nil, err
	}

	log := logger.New(
		logger.FromConfig(cfg.Log),
		logger.WithOutput(s.stderr),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)

	registry := prometheus.NewRegistry()
	metrics, err := query.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	api, err := apiclient.New(cfg.API, apiclient.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	queries := query.NewClientFromConfig(cfg.Query,
		query.WithLogger(log),
		query.WithMetrics(metrics),
	)
	st := store.New(
		store.WithBroadcaster(broadcast.NewMemoryBroadcaster[store.Change](storeBufferSize)),
		store.WithLogger(log),
	)

	return &app{
		cfg:      cfg,
		format:   s.format,
		logger:   log,
		registry: registry,
		queries:  queries,
		store:    st,
		accessor: accessor.New(api, queries,
			accessor.WithStore(st),
			accessor.WithLogger(log),
			accessor.WithMetrics(metrics),
		),
	}, nil
}

func (a *app) checkoutFlow(nav checkout.Navigator) *checkout.Flow {
	sessions := a.accessor.CreateCheckoutSession(query.Callbacks[billing.CheckoutSession]{})
	return checkout.NewFromConfig(a.cfg.Checkout, sessions, nav, checkout.WithLogger(a.logger))
}

func (a *app) writeMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", logger.Error(err))
	}
}
