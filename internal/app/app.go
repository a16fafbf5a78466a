// Package app wires the uio device, the GPIO interrupt cycle, and the
// optional observability endpoint into a runnable process.
package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/sukinull/vivado-zed-pieces/internal/logging"
	"github.com/sukinull/vivado-zed-pieces/internal/uio"
	"github.com/sukinull/vivado-zed-pieces/pkg/gpio"
)

// Exit codes. Setup failures are negative and distinct, matching what the
// classic C tool signalled with exit(-1); PosixExitCode maps them to the
// 8-bit value a shell actually observes. 0 exists only for completeness:
// the steady-state cycle has no normal exit.
const (
	ExitOK          = 0
	ExitBadSizeFile = -1
	ExitOpenFailed  = -2
	ExitMapFailed   = -3
	ExitCycleFailed = -4
)

// PosixExitCode converts an internal (possibly negative) exit code into the
// value to hand to os.Exit: -1 becomes 255, -2 becomes 254, and so on.
func PosixExitCode(code int) int {
	return code & 0xff
}

// Config is the process configuration, normally filled from flags.
type Config struct {
	DevicePath string // uio character device, e.g. /dev/uio0
	SizePath   string // sysfs map-size file for map 0
	HTTPAddr   string // metrics/health listen address; empty disables
	QueueCap   int    // dispatcher event queue capacity
	Workers    int    // dispatcher worker pool size
}

// Device is the slice of uio.Device the app needs; a seam for the test
// harness, which substitutes scripted fakes for real hardware.
type Device interface {
	Window() gpio.Window
	Wait() (uint32, error)
	Rearm() error
	Close() error
}

// hooks are the process's touchpoints with the outside world, overridden
// in tests.
type hooks struct {
	readMapSize func(path string) (uint32, error)
	openDevice  func(path string, size uint32) (Device, error)
	listen      func(addr string, handler http.Handler) error
}

func run(cfg Config, h hooks) int {
	banner()

	size, err := h.readMapSize(cfg.SizePath)
	if err != nil {
		logging.Errorf("resolve register window size: %v", err)
		return ExitBadSizeFile
	}
	logging.Infof("register window: %#x bytes (from %s)", size, cfg.SizePath)

	dev, err := h.openDevice(cfg.DevicePath, size)
	if err != nil {
		logging.Errorf("open %s: %v", cfg.DevicePath, err)
		if errors.Is(err, uio.ErrMapFailed) {
			return ExitMapFailed
		}
		return ExitOpenFailed
	}
	defer func() {
		if cerr := dev.Close(); cerr != nil {
			logging.Warnf("close device: %v", cerr)
		}
	}()

	if cfg.QueueCap <= 0 {
		cfg.QueueCap = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	disp, err := gpio.NewDispatcher(cfg.QueueCap, cfg.Workers)
	if err != nil {
		logging.Errorf("start dispatcher: %v", err)
		return ExitOpenFailed
	}
	defer disp.Close()

	m := newMetrics(disp)
	disp.Subscribe("metrics", m.observe)

	ctrl, err := gpio.NewController(gpio.Config{
		Window:     dev.Window(),
		Notifier:   dev,
		Dispatcher: disp,
	})
	if err != nil {
		logging.Errorf("build controller: %v", err)
		return ExitOpenFailed
	}

	if cfg.HTTPAddr != "" {
		go serveHTTP(cfg.HTTPAddr, h, m, ctrl)
	}

	ctrl.Setup()
	logging.Infof("waiting for interrupts on %s", cfg.DevicePath)
	if err := ctrl.Run(context.Background()); err != nil {
		logging.Errorf("interrupt cycle failed: %v", err)
		return ExitCycleFailed
	}
	return ExitOK
}

func banner() {
	logging.Infof("ugpio: AXI GPIO interrupt handler over uio")
	if info, err := host.Info(); err == nil {
		logging.Infof("host: %s %s %s (kernel %s, %s)",
			info.Hostname, info.Platform, info.PlatformVersion, info.KernelVersion, info.KernelArch)
	}
}

func serveHTTP(addr string, h hooks, m *metrics, ctrl *gpio.Controller) {
	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(200))
	health.AddReadinessCheck("cycle-running", func() error {
		if ctrl.State() == gpio.StateIdle {
			return errors.New("interrupt cycle not running")
		}
		return nil
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/live", health.LiveEndpoint)
	mux.HandleFunc("/ready", health.ReadyEndpoint)

	logging.Infof("observability endpoint on %s", addr)
	if err := h.listen(addr, mux); err != nil {
		logging.Warnf("observability endpoint: %v", err)
	}
}

// metrics aggregates handled-interrupt observations off the hardware path.
type metrics struct {
	registry *prometheus.Registry
	handled  prometheus.Counter
	lastData prometheus.Gauge
	pending  prometheus.Gauge
	dropped  prometheus.CounterFunc
}

func newMetrics(disp *gpio.Dispatcher) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		handled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ugpio_interrupts_handled_total",
			Help: "Interrupts handled by the wait-acknowledge-rearm cycle.",
		}),
		lastData: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ugpio_channel2_data",
			Help: "Channel-2 data register value from the last interrupt.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ugpio_pending_count",
			Help: "Kernel pending-interrupt count from the last wait.",
		}),
		dropped: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "ugpio_events_dropped_total",
			Help: "Observer events dropped on dispatcher overflow.",
		}, func() float64 { return float64(disp.Dropped()) }),
	}
	m.registry.MustRegister(m.handled, m.lastData, m.pending, m.dropped)
	return m
}

func (m *metrics) observe(ev gpio.Event) {
	m.handled.Inc()
	m.lastData.Set(float64(ev.Data))
	m.pending.Set(float64(ev.Pending))
}
