package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dnldd/vwapchart/shared"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"go.uber.org/atomic"
)

const (
	// DefaultTimeframe is the timeframe charted when none is selected.
	DefaultTimeframe = shared.OneMinute
	// shutdownTimeout is the maximum time allowed for in-flight requests on shutdown.
	shutdownTimeout = time.Second * 5
	// multipartMemory is the maximum upload size kept in memory while parsing forms.
	multipartMemory = 8 << 20
	// chartTitle is the title of the rendered chart and page.
	chartTitle = "Interactive VWAP (HLC) Chart"
)

//go:embed templates/index.html
var indexHTML string

// ChartConfig represents the configuration struct for the chart service.
type ChartConfig struct {
	// Addr is the http listen address.
	Addr string
	// MaxUploadSize is the maximum accepted request size in bytes.
	MaxUploadSize int64
	// TickSpacing is the time between labelled chart ticks.
	TickSpacing time.Duration
	// ShowVolume toggles the volume bars on the secondary axis.
	ShowVolume bool
	// AssetsHost is the host the chart assets are served from.
	AssetsHost string
	// StatsInterval is the interval service stats are logged at, zero disables it.
	StatsInterval time.Duration
}

// Validate asserts the config sane inputs.
func (cfg *ChartConfig) Validate() error {
	var errs error

	if cfg.Addr == "" {
		errs = errors.Join(errs, fmt.Errorf("listen address cannot be an empty string"))
	}
	if cfg.MaxUploadSize <= 0 {
		errs = errors.Join(errs, fmt.Errorf("max upload size must be positive"))
	}
	if cfg.TickSpacing <= 0 {
		errs = errors.Join(errs, fmt.Errorf("tick spacing must be positive"))
	}
	if cfg.StatsInterval < 0 {
		errs = errors.Join(errs, fmt.Errorf("stats interval cannot be negative"))
	}

	return errs
}

// Chart represents the interactive vwap chart service.
type Chart struct {
	cfg          *ChartConfig
	server       *http.Server
	index        *template.Template
	jobScheduler *gocron.Scheduler
	logger       *zerolog.Logger
	startTime    time.Time
	renders      atomic.Uint64
	exports      atomic.Uint64
	failures     atomic.Uint64
}

// NewChart initializes a new chart service.
func NewChart(cfg *ChartConfig) (*Chart, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating chart config: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "vwapchart").Logger()

	index, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return nil, fmt.Errorf("parsing index template: %w", err)
	}

	c := &Chart{
		cfg:          cfg,
		index:        index,
		jobScheduler: gocron.NewScheduler(time.UTC),
		logger:       &logger,
		startTime:    time.Now(),
	}

	c.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           c.routes(),
		ReadHeaderTimeout: time.Second * 10,
	}

	if cfg.StatsInterval > 0 {
		statsLogger := logger.With().Str("component", "stats").Logger()
		_, err = c.jobScheduler.Every(cfg.StatsInterval).Do(func() {
			c.logStats(&statsLogger)
		})
		if err != nil {
			return nil, fmt.Errorf("scheduling stats job: %w", err)
		}
	}

	return c, nil
}

// routes registers the service endpoints.
func (c *Chart) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", c.handleIndex)
	mux.HandleFunc("POST /api/chart", c.handleChart)
	mux.HandleFunc("POST /api/export", c.handleExport)
	mux.HandleFunc("GET /healthz", c.handleHealth)

	return mux
}

// logStats logs the service counters.
func (c *Chart) logStats(logger *zerolog.Logger) {
	logger.Info().
		Uint64("renders", c.renders.Load()).
		Uint64("exports", c.exports.Load()).
		Uint64("failures", c.failures.Load()).
		Msgf("serving for %s", time.Since(c.startTime).Round(time.Second))
}

// Run handles the lifecycle processes of the chart service.
func (c *Chart) Run(ctx context.Context) error {
	c.jobScheduler.StartAsync()
	defer c.jobScheduler.Stop()

	serveErr := make(chan error, 1)
	go func() {
		c.logger.Info().Msgf("serving on %s", c.cfg.Addr)
		err := c.server.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := c.server.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	c.logger.Info().Msg("chart service shut down")

	return nil
}
