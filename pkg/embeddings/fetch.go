package embeddings

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Embedded is a window that was embedded successfully.
type Embedded struct {
	// Index is the position of the window in the input.
	Index  int
	Text   string
	Vector []float32
}

// Failure records a window whose embedding could not be fetched.
type Failure struct {
	Index int
	Err   error
}

// Batch is the outcome of embedding a set of windows.
type Batch struct {
	// Embedded holds the successful windows in input order.
	Embedded []Embedded

	// Failed lists the windows that were dropped, in input order.
	Failed []Failure
}

// Vectors returns the vectors of the embedded windows in order.
func (b *Batch) Vectors() [][]float32 {
	out := make([][]float32, len(b.Embedded))
	for i, e := range b.Embedded {
		out[i] = e.Vector
	}
	return out
}

// FetchOptions tunes FetchAll.
type FetchOptions struct {
	// MaxConcurrency bounds the number of in-flight Embed calls.
	// Zero or negative means one goroutine per window.
	MaxConcurrency int
}

// FetchAll embeds every window concurrently and waits for all of them. Each
// goroutine writes only to its own result slot. A failing window is recorded
// in Batch.Failed and never affects the others.
func FetchAll(ctx context.Context, e Embedder, windows []string, opts FetchOptions) *Batch {
	type slot struct {
		vector []float32
		err    error
	}
	slots := make([]slot, len(windows))

	var g errgroup.Group
	if opts.MaxConcurrency > 0 {
		g.SetLimit(opts.MaxConcurrency)
	}

	for i, w := range windows {
		g.Go(func() error {
			v, err := e.Embed(ctx, w)
			switch {
			case err != nil:
				slots[i].err = err
			case len(v) == 0:
				slots[i].err = fmt.Errorf("%w: empty vector", ErrProviderFailure)
			default:
				slots[i].vector = v
			}
			return nil
		})
	}
	_ = g.Wait()

	batch := &Batch{
		Embedded: make([]Embedded, 0, len(windows)),
	}
	for i, s := range slots {
		if s.err != nil {
			batch.Failed = append(batch.Failed, Failure{Index: i, Err: s.err})
			continue
		}
		batch.Embedded = append(batch.Embedded, Embedded{Index: i, Text: windows[i], Vector: s.vector})
	}
	return batch
}
