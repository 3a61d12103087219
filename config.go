package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	// defaultAssetsHost is the host the echarts assets are served from by default.
	defaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"
)

// Config is the configuration struct for the service.
type Config struct {
	// Addr is the http listen address.
	Addr string
	// MaxUploadMB is the maximum upload size in megabytes.
	MaxUploadMB int
	// LogLevel is the logging level.
	LogLevel string
	// TickSpacing is the time between labelled chart ticks in minutes.
	TickSpacing int
	// ShowVolume toggles the volume bars on the secondary axis.
	ShowVolume bool
	// AssetsHost is the host the chart assets are served from.
	AssetsHost string
	// StatsInterval is the interval in minutes service stats are logged at, zero disables it.
	StatsInterval int

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Addr == "" {
		errs = errors.Join(errs, fmt.Errorf("listen address cannot be an empty string"))
	}
	if cfg.MaxUploadMB <= 0 {
		errs = errors.Join(errs, fmt.Errorf("max upload size must be positive, got %d", cfg.MaxUploadMB))
	}
	if cfg.TickSpacing <= 0 {
		errs = errors.Join(errs, fmt.Errorf("tick spacing must be positive, got %d", cfg.TickSpacing))
	}
	if cfg.StatsInterval < 0 {
		errs = errors.Join(errs, fmt.Errorf("stats interval cannot be negative, got %d", cfg.StatsInterval))
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		errs = errors.Join(errs, fmt.Errorf("invalid log level %q", cfg.LogLevel))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
// Environment values take precedence over the provided fallback default.
func (cfg *Config) registerFlag(name string, value interface{}, fallback string, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	if defValue == "" {
		defValue = fallback
	}

	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	err = cfg.registerFlag("addr", &cfg.Addr, ":8080", "the http listen address")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("maxuploadmb", &cfg.MaxUploadMB, "32", "the maximum upload size in megabytes")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("loglevel", &cfg.LogLevel, "info", "the logging level")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("tickspacing", &cfg.TickSpacing, "15", "the chart tick spacing in minutes")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("showvolume", &cfg.ShowVolume, "true", "the volume bars flag")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("assetshost", &cfg.AssetsHost, defaultAssetsHost, "the chart assets host")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("statsinterval", &cfg.StatsInterval, "10", "the stats logging interval in minutes")
	if err != nil {
		return err
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
