// Package config loads the solver's tunable knobs from environment
// variables prefixed SCHEDULE_, an optional schedule.yaml override
// file, and compiled-in defaults, using a Load()/setDefaults() split.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full set of knobs loaded by Load.
type Config struct {
	MaxGroupCapacity int
	Phase2Iterations int
	RNGSeed          int64

	VariableOrderHeuristic string
	ValuePenaltyWeights    Weights

	HTTPAddr               string
	ProgressReportInterval int
	CORSAllowedOrigins     []string
	LogLevel               string
}

// Weights mirrors solver.Weights without importing the solver package,
// so config stays a leaf in the dependency graph.
type Weights struct {
	NotPreferredSlot    int
	NoPreferredMatch    int
	PreferredInstructor int
}

// Load reads configuration from an optional schedule.yaml file, then
// SCHEDULE_-prefixed environment variables, then compiled-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("schedule")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	v.SetEnvPrefix("SCHEDULE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		MaxGroupCapacity: v.GetInt("max_group_capacity"),
		Phase2Iterations: v.GetInt("phase2_iterations"),
		RNGSeed:          v.GetInt64("rng_seed"),

		VariableOrderHeuristic: v.GetString("variable_order_heuristic"),
		ValuePenaltyWeights: Weights{
			NotPreferredSlot:    v.GetInt("value_penalty_weights.not_preferred_slot"),
			NoPreferredMatch:    v.GetInt("value_penalty_weights.no_preferred_match"),
			PreferredInstructor: v.GetInt("value_penalty_weights.preferred_instructor"),
		},

		HTTPAddr:               v.GetString("http_addr"),
		ProgressReportInterval: v.GetInt("progress_report_interval"),
		CORSAllowedOrigins:     splitAndTrim(v.GetString("cors_allowed_origins")),
		LogLevel:               v.GetString("log_level"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_group_capacity", 75)
	v.SetDefault("phase2_iterations", 20000)
	v.SetDefault("rng_seed", 1)

	v.SetDefault("variable_order_heuristic", "static_mrv")
	v.SetDefault("value_penalty_weights.not_preferred_slot", 10)
	v.SetDefault("value_penalty_weights.no_preferred_match", 5)
	v.SetDefault("value_penalty_weights.preferred_instructor", -20)

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("progress_report_interval", 500)
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("log_level", "info")
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
