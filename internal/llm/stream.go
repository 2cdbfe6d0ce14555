package llm

import (
	"context"
	"io"
	"sync"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/types"
)

// streamItem pairs a chunk with a terminal error for channel delivery.
type streamItem struct {
	chunk Chunk
	err   error
}

// Stream is a pull-based handle over a streamed generation response.
// Chunks arrive in order and the sequence terminates with a chunk whose Done
// flag is set, after which Next returns io.EOF. Cancellation is first-class:
// Close (or cancelling the context passed to Next) stops delivery and
// releases the underlying connection slot without affecting other in-flight
// requests. A stream cannot be restarted; callers re-issue the request.
type Stream struct {
	items  <-chan streamItem
	cancel context.CancelFunc
	once   sync.Once
}

// Next returns the next chunk in the sequence. It blocks until a chunk is
// available, the stream ends (io.EOF), the stream fails, or ctx is cancelled.
func (s *Stream) Next(ctx context.Context) (Chunk, error) {
	select {
	case <-ctx.Done():
		s.Close()
		return Chunk{}, types.WrapError(ErrContextCanceled, "stream consumer cancelled", ctx.Err())
	case item, ok := <-s.items:
		if !ok {
			return Chunk{}, io.EOF
		}
		if item.err != nil {
			return Chunk{}, item.err
		}
		return item.chunk, nil
	}
}

// Collect drains the stream into a single buffered string. It stops at the
// terminal chunk and returns everything received so far along with any
// stream error.
func (s *Stream) Collect(ctx context.Context) (string, error) {
	var out []byte
	for {
		chunk, err := s.Next(ctx)
		if err == io.EOF {
			return string(out), nil
		}
		if err != nil {
			return string(out), err
		}
		out = append(out, chunk.Text...)
		if chunk.Done {
			return string(out), nil
		}
	}
}

// Close cancels the stream and releases its pooled connection slot.
// Safe to call multiple times and concurrently with Next.
func (s *Stream) Close() {
	s.once.Do(s.cancel)
}
