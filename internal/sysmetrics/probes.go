package sysmetrics

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// Probes are the OS queries behind a snapshot, one per reading.
type Probes struct {
	CPUPercent    func(ctx context.Context) (float64, error)
	MemoryPercent func(ctx context.Context) (float64, error)
	SwapPercent   func(ctx context.Context) (float64, error)
	DiskPercent   func(ctx context.Context, path string) (float64, error)
	BootTime      func(ctx context.Context) (uint64, error)
	Users         func(ctx context.Context) ([]User, error)
	PIDs          func(ctx context.Context) ([]int32, error)
	CoreCount     func(ctx context.Context) (int, error)
	LoadAverage   func(ctx context.Context) (LoadAverage, error)
	Traffic       func(ctx context.Context) (Traffic, error)
	Batteries     func(ctx context.Context) ([]Battery, error)
	Temperatures  func(ctx context.Context) ([]Temperature, error)
	Fans          func(ctx context.Context) ([]Fan, error)
	Processes     func(ctx context.Context, limit int) ([]Process, error)
}

// HostProbes returns probes backed by gopsutil, the battery package and the
// hwmon sysfs tree.
func HostProbes() Probes {
	return Probes{
		CPUPercent:    cpuPercent,
		MemoryPercent: memoryPercent,
		SwapPercent:   swapPercent,
		DiskPercent:   diskPercent,
		BootTime:      host.BootTimeWithContext,
		Users:         users,
		PIDs:          process.PidsWithContext,
		CoreCount: func(ctx context.Context) (int, error) {
			return cpu.CountsWithContext(ctx, true)
		},
		LoadAverage:  loadAverage,
		Traffic:      traffic,
		Batteries:    batteries,
		Temperatures: temperatures,
		Fans: func(ctx context.Context) ([]Fan, error) {
			return ReadFans(os.DirFS("/sys/class/hwmon"))
		},
		Processes: processes,
	}
}

func cpuPercent(ctx context.Context) (float64, error) {
	// Interval 0 compares against the previous call (or boot on the first one).
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(pct) == 0 {
		return 0, fmt.Errorf("cpu percent: no data")
	}
	return pct[0], nil
}

func memoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

func swapPercent(ctx context.Context) (float64, error) {
	sw, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return sw.UsedPercent, nil
}

func diskPercent(ctx context.Context, path string) (float64, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, err
	}
	return u.UsedPercent, nil
}

func users(ctx context.Context) ([]User, error) {
	stats, err := host.UsersWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(stats))
	for _, s := range stats {
		out = append(out, User{Name: s.User, Terminal: s.Terminal, Host: s.Host, Started: s.Started})
	}
	return out, nil
}

func loadAverage(ctx context.Context) (LoadAverage, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return LoadAverage{}, err
	}
	return LoadAverage{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}, nil
}

func traffic(ctx context.Context) (Traffic, error) {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return Traffic{}, err
	}
	if len(counters) == 0 {
		return Traffic{}, fmt.Errorf("network counters: no data")
	}
	return Traffic{BytesSent: counters[0].BytesSent, BytesRecv: counters[0].BytesRecv}, nil
}

func batteries(_ context.Context) ([]Battery, error) {
	bats, err := battery.GetAll()
	var out []Battery
	for _, b := range bats {
		if b == nil {
			continue
		}
		pct := 0.0
		if b.Full > 0 {
			pct = round2(100 * b.Current / b.Full)
		}
		out = append(out, Battery{Percent: pct, State: b.State.String()})
	}
	if len(out) > 0 {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, ErrNoSensor
}

func temperatures(ctx context.Context) ([]Temperature, error) {
	// gopsutil may return readings alongside a warning error.
	stats, err := host.SensorsTemperaturesWithContext(ctx)
	var out []Temperature
	for _, s := range stats {
		out = append(out, Temperature{Sensor: s.SensorKey, Current: s.Temperature, High: s.High, Critical: s.Critical})
	}
	if len(out) > 0 {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, ErrNoSensor
}

// ReadFans reads every hwmon fan*_input file under fsys, which is rooted at
// the hwmon class directory (/sys/class/hwmon on Linux).
func ReadFans(fsys fs.FS) ([]Fan, error) {
	matches, err := doublestar.Glob(fsys, "hwmon*/fan*_input")
	if err != nil {
		return nil, err
	}

	var out []Fan
	for _, m := range matches {
		raw, err := fs.ReadFile(fsys, m)
		if err != nil {
			continue
		}
		rpm, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil {
			continue
		}

		dir := path.Dir(m)
		sensor := dir
		if name, err := fs.ReadFile(fsys, path.Join(dir, "name")); err == nil {
			sensor = strings.TrimSpace(string(name))
		}
		fan := strings.TrimSuffix(path.Base(m), "_input")
		out = append(out, Fan{Sensor: sensor + "/" + fan, RPM: rpm})
	}
	if len(out) == 0 {
		return nil, ErrNoSensor
	}
	return out, nil
}

func processes(ctx context.Context, limit int) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(procs) > limit {
		procs = procs[:limit]
	}

	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		// The process may exit between listing and inspection.
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		var status string
		if st, err := p.StatusWithContext(ctx); err == nil {
			status = strings.Join(st, ",")
		}
		out = append(out, Process{PID: p.Pid, Name: name, Status: status})
	}
	return out, nil
}
