package registry

import (
	"fmt"

	"github.com/BTBurke/limits/pkg/telemetry"
)

// Names of the parameters that determine the instrument state
const (
	OperationalMode = "Operational Mode"
	K9TWTAPower     = "K9 TWTA Power"
	K10TWTAPower    = "K10 TWTA Power"
	K11TWTASelect   = "K11 TWTA Select"
	K12TWTASelect   = "K12 TWTA Select"
	TrueCalPulsePos = "True Cal Pulse Pos"
)

// Units of the state parameters
const (
	UnitHex    = "hex"
	UnitMap    = "map"
	UnitCounts = "counts"
)

func stateParameters(source SourceID, withFrame bool) []Parameter {
	params := []Parameter{
		{Source: source, Name: OperationalMode, Unit: UnitHex, Kind: telemetry.KindInt},
		{Source: source, Name: K9TWTAPower, Unit: UnitMap, Kind: telemetry.KindInt},
		{Source: source, Name: K10TWTAPower, Unit: UnitMap, Kind: telemetry.KindInt},
		{Source: source, Name: K11TWTASelect, Unit: UnitMap, Kind: telemetry.KindInt},
		{Source: source, Name: K12TWTASelect, Unit: UnitMap, Kind: telemetry.KindInt},
	}
	if withFrame {
		params = append(params, Parameter{Source: source, Name: TrueCalPulsePos, Unit: UnitCounts, Kind: telemetry.KindInt})
	}
	return params
}

var builtin = []Parameter{
	{Source: SourcePrimary, Name: "Transmit Power", Unit: "dBm", Kind: telemetry.KindFloat},
	{Source: SourcePrimary, Name: "TWT Body Current", Unit: "mA", Kind: telemetry.KindFloat},
	{Source: SourcePrimary, Name: "Receiver Gain", Unit: "dB", Kind: telemetry.KindFloat},
	{Source: SourcePrimary, Name: "Noise Channel Count", Unit: "counts", Kind: telemetry.KindInt},

	{Source: SourceDerived, Name: "TWT Body Current", Unit: "A", Dataset: "twt_body_current", Coefficients: []float64{0, 0.001}},
	{Source: SourceDerived, Name: "Receiver Temperature", Unit: "degC", Dataset: "receiver_temperature_dn", Coefficients: []float64{-50, 0.1}},

	{Source: SourceHousekeeping, Name: "TWTA Temperature", Unit: "degC", Kind: telemetry.KindFloat},
	{Source: SourceHousekeeping, Name: "Bus Voltage", Unit: "V", Kind: telemetry.KindFloat},
	{Source: SourceHousekeeping, Name: "Heater Cycles", Unit: "counts", Kind: telemetry.KindInt},
}

// Default returns a Registry holding the state parameters of every source plus
// the built-in monitored parameters
func Default() *Registry {
	r := New()
	var all []Parameter
	all = append(all, stateParameters(SourcePrimary, true)...)
	all = append(all, stateParameters(SourceHousekeeping, false)...)
	all = append(all, builtin...)
	for _, p := range all {
		if _, err := r.Add(p); err != nil {
			panic(fmt.Sprintf("built-in registry: %v", err))
		}
	}
	return r
}

// Definition describes a parameter in a configuration file
type Definition struct {
	Source       string    `yaml:"source" toml:"source"`
	Name         string    `yaml:"name" toml:"name"`
	Unit         string    `yaml:"unit" toml:"unit"`
	Kind         string    `yaml:"kind" toml:"kind"`
	Dataset      string    `yaml:"dataset" toml:"dataset"`
	Coefficients []float64 `yaml:"coefficients" toml:"coefficients"`
}

// Define registers the parameter described by d
func (r *Registry) Define(d Definition) (*Parameter, error) {
	source, err := ParseSource(d.Source)
	if err != nil {
		return nil, fmt.Errorf("define %s: %w", d.Name, err)
	}
	p := Parameter{
		Source:       source,
		Name:         d.Name,
		Unit:         d.Unit,
		Dataset:      d.Dataset,
		Coefficients: d.Coefficients,
	}
	if len(d.Coefficients) == 0 {
		kind, err := telemetry.ParseKind(d.Kind)
		if err != nil {
			return nil, fmt.Errorf("define %s: %w", d.Name, err)
		}
		p.Kind = kind
	}
	return r.Add(p)
}
