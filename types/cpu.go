package types

// CPU identifies the target instruction set architecture. Ohlink is
// AArch64-only; the type retains the Mach-O-style arch-mask encoding
// purely because every other constant in this package follows it.
type CPU uint32

const (
	cpuArch64 = 0x01000000 // 64-bit ABI bit, Mach-O convention
	cpuArm    = 12
)

// CPUArm64 is the single cpu_type this system ever emits or accepts.
const CPUArm64 CPU = cpuArm | cpuArch64 // 0x0100000C

var cpuStrings = []IntName{
	{uint32(CPUArm64), "AARCH64"},
}

func (c CPU) String() string   { return StringName(uint32(c), cpuStrings, false) }
func (c CPU) GoString() string { return StringName(uint32(c), cpuStrings, true) }

// CPUSubtype is carried through the header untouched; this system does not
// interpret its bits beyond the default "all" value.
type CPUSubtype uint32

const CPUSubtypeArm64All CPUSubtype = 0
