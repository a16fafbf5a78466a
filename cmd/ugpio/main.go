//go:build linux

// Command ugpio services interrupts from a memory-mapped dual-channel AXI
// GPIO block exposed through a generic uio device. It maps the register
// window, enables channel-2 interrupt generation, then loops forever:
// block on the device, clear the peripheral's latched status, print the
// channel-2 input data, re-arm the kernel side.
package main

import (
	"flag"
	"os"

	"github.com/sukinull/vivado-zed-pieces/internal/app"
)

func main() {
	var cfg app.Config
	flag.StringVar(&cfg.DevicePath, "device", "/dev/uio0", "uio character device")
	flag.StringVar(&cfg.SizePath, "size", "/sys/class/uio/uio0/maps/map0/size",
		"sysfs file holding the register window size (0xXXXXXXXX)")
	flag.StringVar(&cfg.HTTPAddr, "http", "", "metrics/health listen address (empty disables)")
	flag.IntVar(&cfg.QueueCap, "event-queue", 64, "observer event queue capacity")
	flag.IntVar(&cfg.Workers, "event-workers", 2, "observer worker pool size")
	flag.Parse()

	os.Exit(app.PosixExitCode(app.Run(cfg)))
}
