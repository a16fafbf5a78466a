//go:build linux

package uio

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/sukinull/vivado-zed-pieces/internal/hwio"
)

// Device is an open uio device. It owns both facets of the handle: the
// mapped register window and the interrupt notification channel. They share
// one file descriptor and are released together by Close.
type Device struct {
	path string
	fd   int
	mem  []byte
	win  *hwio.Region
}

// Open opens the uio character device read/write and maps size bytes of its
// first map region into the process. The mapping is MAP_SHARED at offset 0:
// stores go straight to the peripheral. Open and mmap failures are
// distinguishable through ErrOpenDevice and ErrMapFailed.
func Open(path string, size uint32) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOpenDevice, path, err)
	}
	mem, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w %s (%d bytes): %v", ErrMapFailed, path, size, err)
	}
	win, err := hwio.NewRegion(mem)
	if err != nil {
		_ = unix.Munmap(mem)
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w %s: %v", ErrMapFailed, path, err)
	}
	return &Device{path: path, fd: fd, mem: mem, win: win}, nil
}

// Window returns the mapped register block. Valid until Close.
func (d *Device) Window() *hwio.Region {
	return d.win
}

// Wait blocks until the kernel signals an interrupt and returns the
// monotonically increasing pending-interrupt count. The read has no
// deadline; the only way out is delivery, device failure, or process
// termination.
func (d *Device) Wait() (uint32, error) {
	var buf [4]byte
	for {
		n, err := unix.Read(d.fd, buf[:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("uio: wait on %s: %w", d.path, err)
		}
		if n != len(buf) {
			return 0, fmt.Errorf("uio: wait on %s: short read (%d bytes)", d.path, n)
		}
		return binary.NativeEndian.Uint32(buf[:]), nil
	}
}

// Rearm unmasks the interrupt in the kernel so the next notification can be
// delivered. Must be called exactly once per consumed Wait.
func (d *Device) Rearm() error {
	var buf [4]byte
	binary.NativeEndian.PutUint32(buf[:], 1)
	n, err := unix.Write(d.fd, buf[:])
	if err != nil {
		return fmt.Errorf("uio: rearm %s: %w", d.path, err)
	}
	if n != len(buf) {
		return fmt.Errorf("uio: rearm %s: short write (%d bytes)", d.path, n)
	}
	return nil
}

// Close unmaps the register window and closes the device. The window must
// not be touched afterwards.
func (d *Device) Close() error {
	var first error
	if d.mem != nil {
		if err := unix.Munmap(d.mem); err != nil {
			first = fmt.Errorf("uio: unmap %s: %w", d.path, err)
		}
		d.mem = nil
		d.win = nil
	}
	if d.fd >= 0 {
		if err := unix.Close(d.fd); err != nil && first == nil {
			first = fmt.Errorf("uio: close %s: %w", d.path, err)
		}
		d.fd = -1
	}
	return first
}
