// Package uio wraps a Linux userspace-I/O (uio_pdrv_genirq style) device:
// a character device whose mmap exposes the peripheral's register block and
// whose read/write pair carries interrupt delivery. A blocking 4-byte read
// returns the pending-interrupt count; writing the 4-byte value 1 re-arms
// the interrupt in the kernel. Exactly one re-arm must follow each consumed
// notification or delivery stops.
package uio

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrOpenDevice wraps failures to open the uio character device.
	ErrOpenDevice = errors.New("uio: open device")
	// ErrMapFailed wraps failures to mmap the register block after a
	// successful open.
	ErrMapFailed = errors.New("uio: map register block")
)

// ReadMapSize reads the byte size of a uio map region from its sysfs size
// file (e.g. /sys/class/uio/uio0/maps/map0/size). The file holds a single
// text token of the form 0xXXXXXXXX derived from the device tree reg
// property.
func ReadMapSize(path string) (uint32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("uio: read map size: %w", err)
	}
	return parseMapSize(string(raw))
}

func parseMapSize(text string) (uint32, error) {
	tok := strings.TrimSpace(text)
	hex, ok := strings.CutPrefix(tok, "0x")
	if !ok {
		hex, ok = strings.CutPrefix(tok, "0X")
	}
	if !ok || hex == "" {
		return 0, fmt.Errorf("uio: malformed map size %q: want 0xXXXXXXXX", tok)
	}
	size, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("uio: malformed map size %q: %w", tok, err)
	}
	return uint32(size), nil
}
