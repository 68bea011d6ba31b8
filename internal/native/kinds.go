package native

import "fmt"

// Key is the caller-assigned vector identifier.
type Key = uint64

// MetricKind selects a builtin distance function.
type MetricKind uint8

const (
	MetricUnknown MetricKind = iota
	MetricIP
	MetricL2sq
	MetricCos
	MetricPearson
	MetricHaversine
	MetricDivergence
	MetricHamming
	MetricTanimoto
	MetricSorensen
)

var metricNames = [...]string{
	MetricUnknown:    "unknown",
	MetricIP:         "ip",
	MetricL2sq:       "l2sq",
	MetricCos:        "cos",
	MetricPearson:    "pearson",
	MetricHaversine:  "haversine",
	MetricDivergence: "divergence",
	MetricHamming:    "hamming",
	MetricTanimoto:   "tanimoto",
	MetricSorensen:   "sorensen",
}

func (k MetricKind) String() string {
	if int(k) < len(metricNames) {
		return metricNames[k]
	}
	return fmt.Sprintf("MetricKind(%d)", uint8(k))
}

// ParseMetricKind resolves a metric name as printed by String.
func ParseMetricKind(s string) (MetricKind, error) {
	for k, name := range metricNames {
		if name == s && k != int(MetricUnknown) {
			return MetricKind(k), nil
		}
	}
	return MetricUnknown, fmt.Errorf("unknown metric %q", s)
}

// ScalarKind is the binary layout of one vector element.
type ScalarKind uint8

const (
	ScalarUnknown ScalarKind = iota
	ScalarF32
	ScalarF64
	ScalarF16
	ScalarBF16
	ScalarI8
	ScalarB1
)

var scalarNames = [...]string{
	ScalarUnknown: "unknown",
	ScalarF32:     "f32",
	ScalarF64:     "f64",
	ScalarF16:     "f16",
	ScalarBF16:    "bf16",
	ScalarI8:      "i8",
	ScalarB1:      "b1",
}

func (k ScalarKind) String() string {
	if int(k) < len(scalarNames) {
		return scalarNames[k]
	}
	return fmt.Sprintf("ScalarKind(%d)", uint8(k))
}

// ParseScalarKind resolves a scalar name as printed by String.
func ParseScalarKind(s string) (ScalarKind, error) {
	for k, name := range scalarNames {
		if name == s && k != int(ScalarUnknown) {
			return ScalarKind(k), nil
		}
	}
	return ScalarUnknown, fmt.Errorf("unknown scalar kind %q", s)
}

// VectorBytes returns the encoded size of one vector of dims elements.
// B1 packs eight dimensions per byte.
func (k ScalarKind) VectorBytes(dims int) int {
	switch k {
	case ScalarF64:
		return dims * 8
	case ScalarF32:
		return dims * 4
	case ScalarF16, ScalarBF16:
		return dims * 2
	case ScalarI8:
		return dims
	case ScalarB1:
		return (dims + 7) / 8
	default:
		return 0
	}
}

func (k ScalarKind) valid() bool {
	return k > ScalarUnknown && k <= ScalarB1
}
