package sysmetrics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configure a Collector.
type Options struct {
	DiskPath     string // mount point for disk usage, "/" by default
	ProcessLimit int    // maximum processes listed, 0 for all
}

// Collector gathers Snapshots. It keeps no state between calls.
type Collector struct {
	probes Probes
	opts   Options
	now    func() time.Time
	log    logrus.FieldLogger
}

// NewCollector returns a Collector over the given probes. Use HostProbes for
// the real machine.
func NewCollector(probes Probes, opts Options, log logrus.FieldLogger) *Collector {
	if opts.DiskPath == "" {
		opts.DiskPath = "/"
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Collector{probes: probes, opts: opts, now: time.Now, log: log}
}

// Snapshot queries every reading once. Each reading is isolated: an error or
// panic in one probe is recorded and the rest are still collected. Optional
// sensors that are missing come back as unavailable, not as errors.
func (c *Collector) Snapshot(ctx context.Context) Snapshot {
	s := Snapshot{
		CollectedAt: c.now(),
		DiskPath:    c.opts.DiskPath,
		Errors:      make(map[string]string),
	}
	p := c.probes

	c.read(&s, "cpu_percent", func() (err error) {
		s.CPUPercent, err = p.CPUPercent(ctx)
		return
	})
	c.read(&s, "memory_percent", func() (err error) {
		s.MemoryPercent, err = p.MemoryPercent(ctx)
		return
	})
	c.read(&s, "swap_percent", func() (err error) {
		s.SwapPercent, err = p.SwapPercent(ctx)
		return
	})
	c.read(&s, "disk_percent", func() (err error) {
		s.DiskPercent, err = p.DiskPercent(ctx, c.opts.DiskPath)
		return
	})
	c.read(&s, "boot_time", func() error {
		boot, err := p.BootTime(ctx)
		if err != nil {
			return err
		}
		s.BootTime = boot
		s.UptimeHours = UptimeHours(boot, s.CollectedAt)
		return nil
	})
	c.read(&s, "users", func() (err error) {
		s.Users, err = p.Users(ctx)
		return
	})
	c.read(&s, "process_count", func() error {
		pids, err := p.PIDs(ctx)
		s.ProcessCount = len(pids)
		return err
	})
	c.read(&s, "core_count", func() (err error) {
		s.CoreCount, err = p.CoreCount(ctx)
		return
	})
	c.read(&s, "load_average", func() (err error) {
		s.LoadAverage, err = p.LoadAverage(ctx)
		return
	})
	c.read(&s, "traffic", func() (err error) {
		s.Traffic, err = p.Traffic(ctx)
		return
	})
	c.read(&s, "processes", func() (err error) {
		s.Processes, err = p.Processes(ctx, c.opts.ProcessLimit)
		return
	})

	s.Battery = sense(c, "battery", func() ([]Battery, error) { return p.Batteries(ctx) })
	s.Temperatures = sense(c, "temperatures", func() ([]Temperature, error) { return p.Temperatures(ctx) })
	s.Fans = sense(c, "fans", func() ([]Fan, error) { return p.Fans(ctx) })

	return s
}

// read runs one core probe behind its own failure boundary.
func (c *Collector) read(s *Snapshot, name string, fn func() error) {
	if err := guard(fn); err != nil {
		s.Errors[name] = err.Error()
		c.log.WithError(err).WithField("reading", name).Debug("metric unavailable")
	}
}

// sense runs one optional sensor probe; any failure becomes an unavailable marker.
func sense[T any](c *Collector, name string, fn func() (T, error)) Sensor[T] {
	var v T
	err := guard(func() (err error) {
		v, err = fn()
		return
	})
	if err != nil {
		c.log.WithField("sensor", name).Debugf("sensor unavailable: %v", err)
		return unavailable[T](err)
	}
	return present(v)
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	return fn()
}

// UptimeHours returns the hours elapsed since boot (epoch seconds), rounded
// to two decimals.
func UptimeHours(boot uint64, now time.Time) float64 {
	seconds := float64(now.Unix()) - float64(boot)
	return round2(seconds / 3600)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
