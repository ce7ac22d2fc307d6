// Package output fans completed probe samples out to optional side
// channels: a websocket broadcaster, an InfluxDB writer and a CSV file.
// Outputs observe samples only; the metrics pipeline never depends on them.
package output

import (
	"context"
	"fmt"
	"time"

	"pingmon/pkg/config"
)

// Sample is one completed probe, as delivered to outputs.
type Sample struct {
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Location       string    `json:"location,omitempty"`
	Time           time.Time `json:"time"`
	Success        bool      `json:"success"`
	LatencySeconds float64   `json:"latency_seconds,omitempty"`
}

// Output receives probe samples. Send must not block; failures are an
// output's own problem and never reach the probing path.
type Output interface {
	Name() string
	Start(ctx context.Context) error
	Send(s Sample)
	Stop() error
}

// New builds an output from its configuration.
func New(cfg config.OutputConfig) (Output, error) {
	switch cfg.Type {
	case "ws":
		return newWS(cfg), nil
	case "influxdb":
		return newInflux(cfg), nil
	case "file":
		return newFile(cfg)
	default:
		return nil, fmt.Errorf("unknown output type: %s", cfg.Type)
	}
}
