// Package config assembles the settings of a limitcheck run from command line
// flags and YAML or TOML configuration files.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BTBurke/limits/pkg/logging"
	"github.com/BTBurke/limits/pkg/registry"
	"github.com/BTBurke/limits/pkg/telemetry"
)

// Config is the settings of one run
type Config struct {
	LimitFile    string
	Source       registry.SourceID
	Telemetry    string
	Table        string
	KeepDisabled bool
	EventLog     string
	RunStore     string
	MetricsFile  string
	Start        int
	Count        int
	LogLevel     string

	RollbarToken   string
	Environment    string
	NoErrorReports bool

	Parameters []registry.Definition
}

// ConfigOption sets one field of the configuration
type ConfigOption func(c *Config) error

// New applies options over the defaults and returns every error encountered
func New(options ...ConfigOption) (Config, []error) {
	c := Config{
		Source:      registry.SourcePrimary,
		Table:       telemetry.DefaultTable,
		LogLevel:    "info",
		Environment: "production",
	}
	var errors []error
	for _, option := range options {
		if err := option(&c); err != nil {
			errors = append(errors, err)
		}
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		errors = append(errors, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if len(errors) > 0 {
		return Config{}, errors
	}
	return c, nil
}

// Missing reports the required keys that are not set
func (c Config) Missing(keys ...string) []error {
	var errors []error
	for _, k := range keys {
		var empty bool
		switch k {
		case "limits":
			empty = c.LimitFile == ""
		case "telemetry":
			empty = c.Telemetry == ""
		case "run-store":
			empty = c.RunStore == ""
		default:
			errors = append(errors, fmt.Errorf("unknown required key %s", k))
			continue
		}
		if empty {
			errors = append(errors, fmt.Errorf("%s is required, use --%s", k, k))
		}
	}
	return errors
}

func LimitFile(path string) ConfigOption {
	return func(c *Config) error {
		c.LimitFile = path
		return nil
	}
}

func Source(name string) ConfigOption {
	return func(c *Config) error {
		src, err := registry.ParseSource(name)
		if err != nil {
			return err
		}
		c.Source = src
		return nil
	}
}

func Telemetry(path string) ConfigOption {
	return func(c *Config) error {
		c.Telemetry = path
		return nil
	}
}

func Table(name string) ConfigOption {
	return func(c *Config) error {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("table name cannot be empty")
		}
		c.Table = name
		return nil
	}
}

func KeepDisabled(value string) ConfigOption {
	return func(c *Config) error {
		v, err := parseBool("keep-disabled", value)
		c.KeepDisabled = v
		return err
	}
}

// EventLog writes the event log to path.  "-" or an empty path is stdout.
func EventLog(path string) ConfigOption {
	return func(c *Config) error {
		c.EventLog = path
		return nil
	}
}

func RunStore(path string) ConfigOption {
	return func(c *Config) error {
		c.RunStore = path
		return nil
	}
}

func MetricsFile(path string) ConfigOption {
	return func(c *Config) error {
		c.MetricsFile = path
		return nil
	}
}

// Start is the first record to check
func Start(n string) ConfigOption {
	return func(c *Config) error {
		start, err := strconv.Atoi(n)
		if err != nil || start < 0 {
			return fmt.Errorf("could not convert start to a record number: %q", n)
		}
		c.Start = start
		return nil
	}
}

// Count limits the number of records checked.  Zero checks to the end.
func Count(n string) ConfigOption {
	return func(c *Config) error {
		count, err := strconv.Atoi(n)
		if err != nil || count < 0 {
			return fmt.Errorf("could not convert count to a number of records: %q", n)
		}
		c.Count = count
		return nil
	}
}

func LogLevel(level string) ConfigOption {
	return func(c *Config) error {
		c.LogLevel = level
		return nil
	}
}

func RollbarToken(token string) ConfigOption {
	return func(c *Config) error {
		c.RollbarToken = token
		return nil
	}
}

func Environment(env string) ConfigOption {
	return func(c *Config) error {
		c.Environment = env
		return nil
	}
}

func NoErrorReports(value string) ConfigOption {
	return func(c *Config) error {
		v, err := parseBool("no-error-reports", value)
		c.NoErrorReports = v
		return err
	}
}

// Parameter adds a parameter definition to the registry of the run
func Parameter(d registry.Definition) ConfigOption {
	return func(c *Config) error {
		if d.Name == "" {
			return fmt.Errorf("parameter definition without a name")
		}
		c.Parameters = append(c.Parameters, d)
		return nil
	}
}

// Registry returns the built-in registry extended with the configured parameters
func (c Config) Registry() (*registry.Registry, error) {
	reg := registry.Default()
	for _, d := range c.Parameters {
		if _, err := reg.Define(d); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func parseBool(name, value string) (bool, error) {
	if value == "" {
		return true, nil
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s expects true or false, got %q", name, value)
	}
	return v, nil
}
