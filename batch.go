package typedann

import (
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pair is a key and vector for BatchInsert.
type Pair[T Scalar] struct {
	Key    Key
	Vector []T
}

// BatchInsert reserves room for all pairs once and inserts them on a
// bounded pool of goroutines (WithBatchWorkers). It returns the first error.
// Pairs already inserted when an error occurs stay in the index, and no
// further pairs are dispatched after it.
//
// The engine links one vector into the graph at a time, so extra workers do
// not shorten graph construction. BatchInsert saves the repeated storage
// growth of an Add loop.
func (idx *Index[T, D, M]) BatchInsert(pairs []Pair[T]) error {
	if idx.closed.Load() {
		return ErrClosed
	}
	if len(pairs) == 0 {
		return nil
	}

	start := time.Now()

	// Removed vectors keep their slots; new ones are appended after them.
	if err := idx.Reserve(idx.handle.Slots() + len(pairs)); err != nil {
		idx.opts.logger.LogBatchInsert(len(pairs), len(pairs), err)
		idx.opts.metricsCollector.RecordBatchInsert(len(pairs), len(pairs), time.Since(start))
		return err
	}

	var (
		g      errgroup.Group
		stop   atomic.Bool
		failed atomic.Int64
	)
	g.SetLimit(idx.opts.batchWorkers)

	for _, p := range pairs {
		if stop.Load() {
			break
		}
		g.Go(func() error {
			if err := idx.add(p.Key, p.Vector); err != nil {
				stop.Store(true)
				failed.Add(1)
				return err
			}
			return nil
		})
	}

	err := g.Wait()

	idx.opts.metricsCollector.RecordBatchInsert(len(pairs), int(failed.Load()), time.Since(start))
	idx.opts.logger.LogBatchInsert(len(pairs), int(failed.Load()), err)
	return err
}

// SearchBatch runs Search for every query in parallel and returns the
// results in query order. The first error aborts the batch.
func (idx *Index[T, D, M]) SearchBatch(queries [][]T, count int) ([]Matches, error) {
	if idx.closed.Load() {
		return nil, ErrClosed
	}

	out := make([]Matches, len(queries))

	var g errgroup.Group
	g.SetLimit(idx.opts.batchWorkers)

	for i, q := range queries {
		g.Go(func() error {
			m, err := idx.Search(q, count)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
