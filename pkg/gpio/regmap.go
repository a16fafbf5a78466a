package gpio

// AXI GPIO register offsets. The block has two independent channels; this
// program drives channel 1 as outputs and senses channel 2 as inputs, with
// channel 2 wired to the interrupt line.
const (
	RegData  = 0x000 // channel-1 data (output value)
	RegTri   = 0x004 // channel-1 direction, 0 = all outputs
	RegData2 = 0x008 // channel-2 data (input value)
	RegTri2  = 0x00C // channel-2 direction, 1 bits = inputs
	RegGIER  = 0x11C // global interrupt enable
	RegIPISR = 0x120 // interrupt status, write-to-clear
	RegIPIER = 0x128 // per-channel interrupt enable
)

// Register values used by the setup and acknowledge protocol.
const (
	TriAllOutputs   = 0x0        // channel-1 direction: drive every line
	Tri2LowNibbleIn = 0xF        // channel-2 direction: low nibble as inputs
	GIEREnable      = 0x80000000 // GIER bit 31, master enable
	IPIERChannel2   = 0x2        // IP_IER bit 1, enable channel-2 interrupts
	ISRChannel2     = 0x2        // IP_ISR bit 1, acknowledge channel 2
)
