//go:build linux

package app

import (
	"net/http"

	"github.com/sukinull/vivado-zed-pieces/internal/uio"
	"github.com/sukinull/vivado-zed-pieces/pkg/gpio"
)

// Run resolves the register window size, opens and maps the device,
// programs the peripheral, and drives the interrupt cycle until the process
// is killed or the notification channel fails. The returned code is meant
// for PosixExitCode + os.Exit.
func Run(cfg Config) int {
	return run(cfg, defaultHooks())
}

func defaultHooks() hooks {
	return hooks{
		readMapSize: uio.ReadMapSize,
		openDevice:  openUIO,
		listen: func(addr string, handler http.Handler) error {
			return http.ListenAndServe(addr, handler)
		},
	}
}

func openUIO(path string, size uint32) (Device, error) {
	dev, err := uio.Open(path, size)
	if err != nil {
		return nil, err
	}
	return &uioDevice{dev}, nil
}

// uioDevice adapts *uio.Device's concrete Window type to the gpio.Window
// interface the app seam expects.
type uioDevice struct {
	*uio.Device
}

func (d *uioDevice) Window() gpio.Window {
	return d.Device.Window()
}
