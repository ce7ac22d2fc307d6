package output

import (
	"context"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"pingmon/pkg/config"
)

// Influx writes each sample as a point in the "ping" measurement.
type Influx struct {
	name     string
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func newInflux(cfg config.OutputConfig) *Influx {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		name:     cfg.Name,
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

func (o *Influx) Name() string                    { return o.name }
func (o *Influx) Start(ctx context.Context) error { return nil }

// Send writes one point. Latency is recorded for successes only.
func (o *Influx) Send(s Sample) {
	point := influxdb2.NewPointWithMeasurement("ping").
		AddTag("name", s.Name).
		AddTag("address", s.Address).
		SetTime(s.Time)
	if s.Location != "" {
		point.AddTag("location", s.Location)
	}
	if s.Success {
		point.AddField("success", 1).AddField("latency", s.LatencySeconds)
	} else {
		point.AddField("success", 0)
	}

	if err := o.writeAPI.WritePoint(context.Background(), point); err != nil {
		slog.Warn("influx write failed", "output", o.name, "err", err)
	}
}

func (o *Influx) Stop() error {
	o.client.Close()
	return nil
}
