// Package gpio implements the interrupt cycle for a memory-mapped dual
// channel AXI GPIO block behind a uio-style interrupt device.
//
// The steady state is a two-state cycle: Waiting, blocked on the
// notification channel, and Handling, acknowledging the peripheral and
// re-arming the channel. Acknowledgment is two-level and strictly ordered:
// the peripheral's latched status bit is cleared before the channel is
// re-armed, so an edge cannot be lost between clear and re-arm.
package gpio

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/sukinull/vivado-zed-pieces/internal/logging"
)

// Window is a register block with volatile 32-bit access at fixed byte
// offsets. Production code passes the mmap'd hwio.Region; tests substitute
// a recording fake.
type Window interface {
	Read32(off uint32) uint32
	Write32(off, val uint32)
}

// Notifier is the interrupt notification channel. Wait blocks until the
// kernel delivers a notification and returns the pending-interrupt count;
// Rearm unmasks the source for the next delivery. One Rearm per Wait.
type Notifier interface {
	Wait() (uint32, error)
	Rearm() error
}

// State of the cycle, observable for diagnostics.
type State int32

const (
	StateIdle State = iota // before Run
	StateWaiting
	StateHandling
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateHandling:
		return "handling"
	default:
		return "idle"
	}
}

// Sample is one handled interrupt.
type Sample struct {
	Seq     uint64    // 1-based count of handled interrupts
	Pending uint32    // kernel pending-interrupt count from Wait
	Status  uint32    // IP_ISR value observed before clearing
	Data    uint32    // channel-2 data register value
	At      time.Time
}

// Config wires a Controller. Window and Notifier are required; Dispatcher,
// Meter and Tracer are optional instrumentation.
type Config struct {
	Window     Window
	Notifier   Notifier
	Dispatcher *Dispatcher
	Meter      metric.Meter
	Tracer     trace.Tracer
	Logger     *logging.Logger
}

// Controller runs the setup sequence and the wait-acknowledge-rearm cycle.
// All register and notifier access happens on the goroutine that calls Run;
// there is no locking on the hardware path.
type Controller struct {
	win    Window
	not    Notifier
	disp   *Dispatcher
	tracer trace.Tracer
	log    *logging.Logger

	handled metric.Int64Counter
	seq     uint64
	state   atomic.Int32
}

// NewController validates cfg and builds a Controller. When a Meter is
// configured, a handled-interrupt counter is registered on it.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Window == nil {
		return nil, errors.New("gpio: Config.Window is required")
	}
	if cfg.Notifier == nil {
		return nil, errors.New("gpio: Config.Notifier is required")
	}
	c := &Controller{
		win:    cfg.Window,
		not:    cfg.Notifier,
		disp:   cfg.Dispatcher,
		tracer: cfg.Tracer,
		log:    cfg.Logger,
	}
	if cfg.Meter != nil {
		var err error
		c.handled, err = cfg.Meter.Int64Counter("gpio.interrupts.handled")
		if err != nil {
			return nil, fmt.Errorf("gpio: register counter: %w", err)
		}
	}
	return c, nil
}

// State reports which half of the cycle the controller is in.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Handled reports how many interrupts have been handled so far.
func (c *Controller) Handled() uint64 {
	return atomic.LoadUint64(&c.seq)
}

// Setup programs the peripheral for interrupt generation. Channel 1 drives
// all lines as outputs, channel 2 senses its low nibble as inputs, then the
// master and channel-2 interrupt enables are set. Run once, before Run.
func (c *Controller) Setup() {
	c.win.Write32(RegTri, TriAllOutputs)
	c.win.Write32(RegTri2, Tri2LowNibbleIn)
	c.win.Write32(RegGIER, GIEREnable)
	c.win.Write32(RegIPIER, IPIERChannel2)
	c.logf("peripheral configured: tri=%#x tri2=%#x gier=%#x ipier=%#x",
		uint32(TriAllOutputs), uint32(Tri2LowNibbleIn), uint32(GIEREnable), uint32(IPIERChannel2))
}

// HandleOnce runs a single Waiting -> Handling transition: block for a
// notification, clear the peripheral's latched status if set, read the
// channel-2 data that triggered the interrupt, then re-arm the channel.
//
// The peripheral-level clear always precedes the channel-level re-arm.
// When IP_ISR reads zero the clear is skipped but the re-arm still happens;
// skipping the re-arm would silence the channel for good.
func (c *Controller) HandleOnce(ctx context.Context) (Sample, error) {
	c.state.Store(int32(StateWaiting))
	pending, err := c.not.Wait()
	if err != nil {
		return Sample{}, fmt.Errorf("gpio: wait for interrupt: %w", err)
	}

	c.state.Store(int32(StateHandling))
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "gpio.handle")
		defer span.End()
	}

	status := c.win.Read32(RegIPISR)
	if status != 0 {
		// Write-to-clear: the line stays asserted until this lands,
		// independent of the channel's own masking state.
		c.win.Write32(RegIPISR, ISRChannel2)
	}
	data := c.win.Read32(RegData2)

	if err := c.not.Rearm(); err != nil {
		return Sample{}, fmt.Errorf("gpio: rearm after interrupt: %w", err)
	}

	s := Sample{
		Seq:     atomic.AddUint64(&c.seq, 1),
		Pending: pending,
		Status:  status,
		Data:    data,
		At:      time.Now(),
	}
	c.logf("interrupt %d: pending=%d status=%#x channel-2 data=%#x", s.Seq, s.Pending, s.Status, s.Data)
	if c.handled != nil {
		c.handled.Add(ctx, 1)
	}
	if c.disp != nil {
		if err := c.disp.Post(s); err != nil {
			c.logf("event dropped: %v", err)
		}
	}
	return s, nil
}

// Run executes the cycle until a notifier operation fails or ctx is
// cancelled. Cancellation is only observed between cycles: the blocking
// wait itself has no deadline, so a cancel during Waiting takes effect
// after the next delivery.
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			c.state.Store(int32(StateIdle))
			return err
		}
		if _, err := c.HandleOnce(ctx); err != nil {
			c.state.Store(int32(StateIdle))
			return err
		}
	}
}

func (c *Controller) logf(format string, a ...interface{}) {
	if c.log != nil {
		c.log.Infof(format, a...)
		return
	}
	logging.Infof(format, a...)
}
