package typedann

import (
	"strconv"
	"time"

	"github.com/hupe1980/typedann/internal/native"
)

// Save writes the index to path.
func (idx *Index[T, D, M]) Save(path string) error {
	return idx.persist("save", path, func() error {
		return idx.handle.Save(path)
	})
}

// Load replaces the index content with the index saved at path. The saved
// dimensions and quantization must match the index type.
func (idx *Index[T, D, M]) Load(path string) error {
	return idx.persist("load", path, func() error {
		meta, err := native.Metadata(path)
		if err != nil {
			return err
		}
		if err := idx.checkMetadata(meta); err != nil {
			return err
		}
		if err := idx.handle.Load(path); err != nil {
			return err
		}
		return idx.rebindMetric()
	})
}

// View serves the index saved at path from a read-only memory mapping.
// The view rejects mutations until Reset.
func (idx *Index[T, D, M]) View(path string) error {
	return idx.persist("view", path, func() error {
		meta, err := native.Metadata(path)
		if err != nil {
			return err
		}
		if err := idx.checkMetadata(meta); err != nil {
			return err
		}
		if err := idx.handle.View(path); err != nil {
			return err
		}
		return idx.rebindMetric()
	})
}

// SaveToBuffer serializes the index into buf, which must hold at least
// SerializedLength bytes.
func (idx *Index[T, D, M]) SaveToBuffer(buf []byte) error {
	return idx.persist("save", "buffer", func() error {
		return idx.handle.SaveBuffer(buf)
	})
}

// LoadFromBuffer replaces the index content with a copy of buf.
func (idx *Index[T, D, M]) LoadFromBuffer(buf []byte) error {
	return idx.persist("load", "buffer", func() error {
		meta, err := native.MetadataBuffer(buf)
		if err != nil {
			return err
		}
		if err := idx.checkMetadata(meta); err != nil {
			return err
		}
		if err := idx.handle.LoadBuffer(buf); err != nil {
			return err
		}
		return idx.rebindMetric()
	})
}

// ViewFromBuffer serves searches directly from buf without copying the
// vectors. buf must outlive the index, or the next Reset or load, and must
// not be modified meanwhile; violating this is undefined behavior.
func (idx *Index[T, D, M]) ViewFromBuffer(buf []byte) error {
	return idx.persist("view", "buffer", func() error {
		meta, err := native.MetadataBuffer(buf)
		if err != nil {
			return err
		}
		if err := idx.checkMetadata(meta); err != nil {
			return err
		}
		if err := idx.handle.ViewBuffer(buf); err != nil {
			return err
		}
		return idx.rebindMetric()
	})
}

func (idx *Index[T, D, M]) persist(op, target string, fn func() error) error {
	if idx.closed.Load() {
		return ErrClosed
	}

	start := time.Now()
	err := translateError(fn())

	idx.opts.metricsCollector.RecordPersist(op, time.Since(start), err)
	idx.opts.logger.LogPersist(op, target, err)
	return err
}

func (idx *Index[T, D, M]) checkMetadata(meta native.IndexOptions) error {
	if meta.Dimensions != idx.dims {
		return &ErrConfigMismatch{
			Field:    "dimensions",
			Expected: strconv.Itoa(idx.dims),
			Actual:   strconv.Itoa(meta.Dimensions),
		}
	}
	if q := idx.vt.quantType(); meta.Quantization != q {
		return &ErrConfigMismatch{
			Field:    "quantization",
			Expected: q.String(),
			Actual:   meta.Quantization.String(),
		}
	}
	return nil
}

// rebindMetric installs the metric of M after the engine adopted the stored
// one.
func (idx *Index[T, D, M]) rebindMetric() error {
	var m M
	return idx.vt.changeMetric(idx.handle, m.Kind(), idx.distance)
}
