// Package sysmetrics takes one-shot snapshots of host resource usage.
package sysmetrics

import (
	"errors"
	"time"
)

// ErrNoSensor is returned by a probe when the platform exposes no device of
// that class.
var ErrNoSensor = errors.New("sensor not present on this platform")

// Sensor is an optional reading. When the platform cannot provide it,
// Available is false and Reason says why; it is never an error.
type Sensor[T any] struct {
	Available bool   `json:"available"`
	Value     T      `json:"value,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func present[T any](v T) Sensor[T] {
	return Sensor[T]{Available: true, Value: v}
}

func unavailable[T any](err error) Sensor[T] {
	return Sensor[T]{Reason: err.Error()}
}

// LoadAverage holds the 1, 5 and 15 minute run-queue averages.
type LoadAverage struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// Traffic holds cumulative network byte counters across all interfaces.
type Traffic struct {
	BytesSent uint64 `json:"sent"`
	BytesRecv uint64 `json:"received"`
}

// User is a logged-in session.
type User struct {
	Name     string `json:"name"`
	Terminal string `json:"terminal"`
	Host     string `json:"host"`
	Started  int    `json:"started"`
}

// Battery is one power supply.
type Battery struct {
	Percent float64 `json:"percent"`
	State   string  `json:"state"`
}

// Temperature is one thermal sensor, in degrees Celsius.
type Temperature struct {
	Sensor   string  `json:"sensor"`
	Current  float64 `json:"current"`
	High     float64 `json:"high,omitempty"`
	Critical float64 `json:"critical,omitempty"`
}

// Fan is one fan speed sensor.
type Fan struct {
	Sensor string `json:"sensor"`
	RPM    int    `json:"rpm"`
}

// Process is a live process handle.
type Process struct {
	PID    int32  `json:"pid"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// Snapshot is a point-in-time bundle of host readings. A core reading that
// failed is left at its zero value and listed in Errors.
type Snapshot struct {
	CollectedAt   time.Time   `json:"collected_at"`
	CPUPercent    float64     `json:"cpu_percent"`
	MemoryPercent float64     `json:"memory_percent"`
	SwapPercent   float64     `json:"swap_percent"`
	DiskPath      string      `json:"disk_path"`
	DiskPercent   float64     `json:"disk_percent"`
	BootTime      uint64      `json:"boot_time"`
	UptimeHours   float64     `json:"uptime_hours"`
	Users         []User      `json:"users"`
	ProcessCount  int         `json:"process_count"`
	CoreCount     int         `json:"core_count"`
	LoadAverage   LoadAverage `json:"load_average"`
	Traffic       Traffic     `json:"traffic"`

	Battery      Sensor[[]Battery]     `json:"battery"`
	Temperatures Sensor[[]Temperature] `json:"temperatures"`
	Fans         Sensor[[]Fan]         `json:"fans"`

	Processes []Process         `json:"processes"`
	Errors    map[string]string `json:"errors,omitempty"`
}
