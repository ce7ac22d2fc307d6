// Package sysmetrics exports host-level gauges alongside the ping metrics:
// CPU core count, 1-minute load average and total memory. Values are read
// from /proc at scrape time.
package sysmetrics

import (
	"fmt"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/procfs"
)

var (
	descCores = prometheus.NewDesc(
		"system_cpu_cores", "Number of CPU cores", nil, nil)
	descLoad = prometheus.NewDesc(
		"system_load_average", "System load average", nil, nil)
	descMem = prometheus.NewDesc(
		"system_memory_total", "Total system memory in bytes", nil, nil)
)

// Collector reads the host gauges on each scrape.
type Collector struct {
	fs procfs.FS
}

// New returns a collector, or an error when /proc is not available
// (non-Linux hosts, restricted containers).
func New() (*Collector, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("open procfs: %w", err)
	}
	return &Collector{fs: fs}, nil
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descCores
	ch <- descLoad
	ch <- descMem
}

// Collect implements prometheus.Collector. A gauge whose source cannot be
// read is skipped for that scrape rather than reported as zero.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(
		descCores, prometheus.GaugeValue, float64(runtime.NumCPU()))

	if load, err := c.fs.LoadAvg(); err == nil {
		ch <- prometheus.MustNewConstMetric(
			descLoad, prometheus.GaugeValue, load.Load1)
	}
	if mem, err := c.fs.Meminfo(); err == nil && mem.MemTotal != nil {
		ch <- prometheus.MustNewConstMetric(
			descMem, prometheus.GaugeValue, float64(*mem.MemTotal)*1024)
	}
}
