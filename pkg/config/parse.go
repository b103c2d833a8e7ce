package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-yaml/yaml"
	"github.com/spf13/pflag"

	"github.com/BTBurke/limits/pkg/registry"
)

// AddFlags registers the configuration flags on pf
func AddFlags(pf *pflag.FlagSet) {
	pf.StringP("config", "c", "", "Use a YAML or TOML configuration file (chosen by extension)")
	pf.StringP("limits", "l", "", "Limit definition file")
	pf.StringP("source", "s", "primary", "Telemetry source of the limits: primary, derived or housekeeping")
	pf.StringP("telemetry", "t", "", "SQLite database holding one row per telemetry frame")
	pf.String("table", "frames", "Table of the telemetry database holding the frames")
	pf.Bool("keep-disabled", false, "Keep limit entries marked Disabled")
	pf.String("event-log", "", "Write transitions and exceedances to this file (default stdout)")
	pf.String("run-store", "", "Record the run summary in this SQLite database")
	pf.String("metrics-file", "", "Write run metrics in Prometheus text format to this file")
	pf.Int("start", 0, "First record to check")
	pf.Int("count", 0, "Number of records to check (default all)")
	pf.String("log-level", "info", "Diagnostic log level: trace, debug, info, warn, error or off")
	pf.String("rollbar-token", "", "Report unexpected errors to Rollbar with this token")
	pf.String("environment", "production", "Environment reported with unexpected errors")
	pf.Bool("no-error-reports", false, "Do not report unexpected errors")

	for _, name := range configFlags {
		pf.SetAnnotation(name, configAnnotation, []string{"true"})
	}
}

// configAnnotation marks the flags registered by AddFlags so that FromFlags
// ignores flags a command adds for itself
const configAnnotation = "limitcheck_config"

var configFlags = []string{
	"limits", "source", "telemetry", "table", "keep-disabled", "event-log", "run-store",
	"metrics-file", "start", "count", "log-level", "rollbar-token", "environment", "no-error-reports",
}

// FromFlags returns options for every flag set on pf.  A configuration file is
// applied first so that flags given on the command line override it.
func FromFlags(pf *pflag.FlagSet) ([]ConfigOption, error) {
	var options []ConfigOption
	if f := pf.Lookup("config"); f != nil && f.Changed {
		opts, err := parseFromFile(f.Value.String())
		if err != nil {
			return nil, err
		}
		options = append(options, opts...)
	}
	var err error
	pf.Visit(func(f *pflag.Flag) {
		if _, ok := f.Annotations[configAnnotation]; err != nil || !ok {
			return
		}
		var opt ConfigOption
		if opt, err = handleOption(f.Name, f.Value.String()); err == nil {
			options = append(options, opt)
		}
	})
	return options, err
}

func handleOption(name string, value string) (ConfigOption, error) {
	switch name {
	case "limits":
		return LimitFile(value), nil
	case "source":
		return Source(value), nil
	case "telemetry":
		return Telemetry(value), nil
	case "table":
		return Table(value), nil
	case "keep-disabled":
		return KeepDisabled(value), nil
	case "event-log":
		return EventLog(value), nil
	case "run-store":
		return RunStore(value), nil
	case "metrics-file":
		return MetricsFile(value), nil
	case "start":
		return Start(value), nil
	case "count":
		return Count(value), nil
	case "log-level":
		return LogLevel(value), nil
	case "rollbar-token":
		return RollbarToken(value), nil
	case "environment":
		return Environment(value), nil
	case "no-error-reports":
		return NoErrorReports(value), nil
	default:
		return nil, fmt.Errorf("Unknown option: %s", name)
	}
}

// listFields holds the keys of a configuration file whose values are lists
type listFields struct {
	Parameters []registry.Definition `yaml:"parameters" toml:"parameters"`
}

type decoder func(data []byte, v interface{}) error

func decoderFor(fpath string) decoder {
	switch strings.ToLower(filepath.Ext(fpath)) {
	case ".toml":
		return toml.Unmarshal
	default:
		return yaml.Unmarshal
	}
}

func parseFromFile(fpath string) ([]ConfigOption, error) {
	var options []ConfigOption
	data, err := os.ReadFile(fpath)
	if err != nil {
		return options, err
	}
	decode := decoderFor(fpath)

	cfg := make(map[string]interface{})
	if err := decode(data, &cfg); err != nil {
		return options, fmt.Errorf("parse %s: %w", fpath, err)
	}
	for k, v := range cfg {
		var value string
		switch v := v.(type) {
		case string:
			value = v
		case int:
			value = strconv.Itoa(v)
		case int64:
			value = strconv.FormatInt(v, 10)
		case bool:
			value = strconv.FormatBool(v)
		// the parameters list
		case []interface{}, []map[string]interface{}:
			alt := listFields{}
			if err := decode(data, &alt); err != nil {
				return options, fmt.Errorf("Could not unmarshal config value for key: %s", k)
			}
			if k != "parameters" {
				return options, fmt.Errorf("Unknown option: %s", k)
			}
			for _, p := range alt.Parameters {
				options = append(options, Parameter(p))
			}
			continue
		default:
			return options, fmt.Errorf("Could not process config key %s, unknown type", k)
		}
		opt, err := handleOption(k, value)
		if err != nil {
			return options, err
		}
		options = append(options, opt)
	}
	return options, nil
}
