package native

import (
	"strings"

	"github.com/viterin/vek/vek32"
)

// HardwareAcceleration names the kernel backend used for distance
// computations.
func HardwareAcceleration() string {
	info := vek32.Info()
	if !info.Acceleration {
		return "serial"
	}
	return "simd(" + strings.Join(info.CPUFeatures, ",") + ")"
}
