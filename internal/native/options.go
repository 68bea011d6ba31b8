package native

import (
	"log/slog"

	"github.com/hupe1980/typedann/internal/resource"
)

const (
	DefaultConnectivity    = 16
	DefaultExpansionAdd    = 128
	DefaultExpansionSearch = 64
)

// IndexOptions describes the shape of an index.
type IndexOptions struct {
	Dimensions      int
	Metric          MetricKind
	Quantization    ScalarKind
	Connectivity    int
	ExpansionAdd    int
	ExpansionSearch int
	Multi           bool

	// CustomMetric overrides Metric when Fn is set.
	CustomMetric Metric

	// Resources accounts arena growth. Nil means unlimited.
	Resources *resource.Controller

	// Logger receives engine diagnostics. Nil discards them.
	Logger *slog.Logger

	// Seed drives level assignment. Zero picks a random seed.
	Seed uint64
}

func (o *IndexOptions) applyDefaults() {
	if o.Connectivity <= 0 {
		o.Connectivity = DefaultConnectivity
	}
	if o.Connectivity == 1 {
		// 1/ln(1) is undefined.
		o.Connectivity = 2
	}
	if o.ExpansionAdd <= 0 {
		o.ExpansionAdd = DefaultExpansionAdd
	}
	if o.ExpansionSearch <= 0 {
		o.ExpansionSearch = DefaultExpansionSearch
	}
}

func (o *IndexOptions) validate(op string) error {
	if o.Dimensions <= 0 {
		return errorf(op, "dimensions must be positive, got %d", o.Dimensions)
	}
	if !o.Quantization.valid() {
		return errorf(op, "unsupported quantization %s", o.Quantization)
	}
	if !o.CustomMetric.valid() {
		if o.Metric == MetricUnknown || o.Metric > MetricSorensen {
			return errorf(op, "unknown metric %s without a custom function", o.Metric)
		}
		if o.Metric == MetricHaversine && o.Dimensions != 2 {
			return errorf(op, "haversine needs 2 dimensions, got %d", o.Dimensions)
		}
	}
	return nil
}
