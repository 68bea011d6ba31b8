package typedann

import (
	"github.com/hupe1980/typedann/internal/native"
	"github.com/hupe1980/typedann/scalar"
)

// Key identifies a vector.
type Key = native.Key

// Scalar lists the element types an Index can store.
type Scalar interface {
	float32 | float64 | int8 | scalar.F16 | scalar.BF16 | scalar.B1x8
}

// ScalarKind is the binary layout the engine stores.
type ScalarKind = native.ScalarKind

const (
	ScalarF32  = native.ScalarF32
	ScalarF64  = native.ScalarF64
	ScalarF16  = native.ScalarF16
	ScalarBF16 = native.ScalarBF16
	ScalarI8   = native.ScalarI8
	ScalarB1   = native.ScalarB1
)

// IndexOptions is the configuration an index runs with or was saved with.
type IndexOptions struct {
	Dimensions      int
	Metric          MetricKind
	Quantization    ScalarKind
	Connectivity    int
	ExpansionAdd    int
	ExpansionSearch int
	Multi           bool
}

func fromNativeOptions(o native.IndexOptions) IndexOptions {
	return IndexOptions{
		Dimensions:      o.Dimensions,
		Metric:          o.Metric,
		Quantization:    o.Quantization,
		Connectivity:    o.Connectivity,
		ExpansionAdd:    o.ExpansionAdd,
		ExpansionSearch: o.ExpansionSearch,
		Multi:           o.Multi,
	}
}

// ReadMetadata returns the configuration of the index saved at path without
// loading it.
func ReadMetadata(path string) (IndexOptions, error) {
	o, err := native.Metadata(path)
	if err != nil {
		return IndexOptions{}, translateError(err)
	}
	return fromNativeOptions(o), nil
}

// ReadMetadataBuffer is ReadMetadata for serialized bytes.
func ReadMetadataBuffer(buf []byte) (IndexOptions, error) {
	o, err := native.MetadataBuffer(buf)
	if err != nil {
		return IndexOptions{}, translateError(err)
	}
	return fromNativeOptions(o), nil
}

// HardwareAcceleration names the distance kernel backend in use.
func HardwareAcceleration() string {
	return native.HardwareAcceleration()
}
