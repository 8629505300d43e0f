// Package batch splits Note writes into chunks and runs them concurrently, returning
// only once every chunk has been written or one has failed.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/lloydmeta/notesync/internal/config"
	"github.com/lloydmeta/notesync/internal/domain/note"
)

const (
	DefaultChunkSize   uint = 100
	DefaultConcurrency uint = 4
)

// Writes a chunk of Notes
type WriteFunc func(ctx context.Context, notes []note.Note) error

type Dispatcher struct {
	ChunkSize   uint
	Concurrency uint
}

func NewDispatcher(conf *config.Sync) Dispatcher {
	d := Dispatcher{ChunkSize: DefaultChunkSize, Concurrency: DefaultConcurrency}
	if conf != nil {
		if conf.WriteChunkSize > 0 {
			d.ChunkSize = conf.WriteChunkSize
		}
		if conf.WriteConcurrency > 0 {
			d.Concurrency = conf.WriteConcurrency
		}
	}
	return d
}

// Run writes the Notes in chunks, with at most Concurrency writes in flight.
//
// Returns the first error encountered; the context passed to the other writes is
// cancelled at that point, but chunks already written stay written.
func (d Dispatcher) Run(ctx context.Context, notes []note.Note, write WriteFunc) error {
	if len(notes) == 0 {
		return nil
	}
	chunks := d.chunk(notes)
	if len(chunks) == 1 {
		return write(ctx, chunks[0])
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(int(max(d.Concurrency, 1)))
	for _, c := range chunks {
		c := c
		group.Go(func() error {
			return write(groupCtx, c)
		})
	}
	return group.Wait()
}

func (d Dispatcher) chunk(notes []note.Note) [][]note.Note {
	size := int(max(d.ChunkSize, 1))
	chunks := make([][]note.Note, 0, (len(notes)+size-1)/size)
	for start := 0; start < len(notes); start += size {
		end := min(start+size, len(notes))
		chunks = append(chunks, notes[start:end])
	}
	return chunks
}
