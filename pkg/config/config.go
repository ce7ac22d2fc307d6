// Package config loads and validates the daemon configuration from YAML.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"pingmon/pkg/endpoint"
)

// OutputConfig configures one optional sample output.
type OutputConfig struct {
	Name   string `mapstructure:"name"`
	Type   string `mapstructure:"type"`
	Listen string `mapstructure:"listen,omitempty"`
	URL    string `mapstructure:"url,omitempty"`
	Token  string `mapstructure:"token,omitempty"`
	Org    string `mapstructure:"org,omitempty"`
	Bucket string `mapstructure:"bucket,omitempty"`
	Path   string `mapstructure:"path,omitempty"`
}

// Config is the full daemon configuration.
type Config struct {
	Interval      time.Duration       `mapstructure:"interval"`
	Timeout       time.Duration       `mapstructure:"timeout"`
	Listen        string              `mapstructure:"listen"`
	Privileged    bool                `mapstructure:"privileged"`
	SystemMetrics bool                `mapstructure:"system_metrics"`
	Buckets       []float64           `mapstructure:"buckets,omitempty"`
	Endpoints     []endpoint.Endpoint `mapstructure:"endpoints"`
	Outputs       []OutputConfig      `mapstructure:"outputs,omitempty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", 5*time.Second)
	v.SetDefault("timeout", 1*time.Second)
	v.SetDefault("listen", "0.0.0.0:9898")
	v.SetDefault("privileged", false)
	v.SetDefault("system_metrics", true)
}

// Load reads and validates the configuration from the given file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded configuration. Endpoint identity rules are
// enforced again by endpoint.NewRegistry; validating here keeps startup
// errors close to the file they came from.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	for i, b := range c.Buckets {
		if b <= 0 {
			return fmt.Errorf("bucket bounds must be positive, got %g", b)
		}
		if i > 0 && b <= c.Buckets[i-1] {
			return fmt.Errorf("bucket bounds must be strictly ascending: %g after %g", b, c.Buckets[i-1])
		}
	}
	if _, err := endpoint.NewRegistry(c.Endpoints); err != nil {
		return err
	}
	for _, o := range c.Outputs {
		switch o.Type {
		case "ws":
			if o.Listen == "" {
				return fmt.Errorf("output %q: ws output requires a listen address", o.Name)
			}
		case "influxdb":
			if o.URL == "" {
				return fmt.Errorf("output %q: influxdb output requires a url", o.Name)
			}
		case "file":
			if o.Path == "" {
				return fmt.Errorf("output %q: file output requires a path", o.Name)
			}
		default:
			return fmt.Errorf("output %q: unknown type %q", o.Name, o.Type)
		}
	}
	return nil
}
