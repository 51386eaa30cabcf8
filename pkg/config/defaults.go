// Package config defines default configuration, service limits, and tariff parameters.
package config

// LimitsConfig defines the voltage and loading thresholds the built-in
// policy rules check against.
type LimitsConfig struct {
	// WarnPerUnit is the voltage level below which a bus gets flagged.
	WarnPerUnit float64 `mapstructure:"warn_per_unit"`
	// CriticalPerUnit is the voltage level below the service band.
	CriticalPerUnit float64 `mapstructure:"critical_per_unit"`
	// WarnLoadingPercent flags segments approaching their ampacity.
	WarnLoadingPercent float64 `mapstructure:"warn_loading_percent"`
	// CriticalLoadingPercent flags segments past their ampacity.
	CriticalLoadingPercent float64 `mapstructure:"critical_loading_percent"`
}

// TariffConfig prices resistive losses for reports and the advisor.
type TariffConfig struct {
	// PerKWh is the flat energy price applied to annual losses.
	PerKWh float64 `mapstructure:"per_kwh"`
	// Currency is a display label, never used in arithmetic.
	Currency string `mapstructure:"currency"`
}

// Defaults.
const (
	DefaultHistoryFile = "feederflow_history.jsonl"
)

// DefaultLimitsConfig returns the standard service-voltage band.
func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		WarnPerUnit:            0.95,
		CriticalPerUnit:        0.90,
		WarnLoadingPercent:     80.0,
		CriticalLoadingPercent: 100.0,
	}
}

// DefaultTariffConfig returns default pricing values.
func DefaultTariffConfig() TariffConfig {
	return TariffConfig{
		PerKWh:   0.12,
		Currency: "USD",
	}
}
