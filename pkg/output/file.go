package output

import (
	"context"
	"fmt"
	"os"
	"sync"

	"pingmon/pkg/config"
)

// File appends samples to a CSV file:
// unix,name,address,success,latency_seconds
type File struct {
	name string
	mu   sync.Mutex
	f    *os.File
}

func newFile(cfg config.OutputConfig) (*File, error) {
	f, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	return &File{name: cfg.Name, f: f}, nil
}

func (o *File) Name() string                    { return o.name }
func (o *File) Start(ctx context.Context) error { return nil }

func (o *File) Send(s Sample) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.f, "%d,%s,%s,%t,%.6f\n",
		s.Time.Unix(), s.Name, s.Address, s.Success, s.LatencySeconds)
}

func (o *File) Stop() error {
	return o.f.Close()
}
