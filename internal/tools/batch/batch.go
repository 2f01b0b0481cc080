package batch

import (
	"context"
	"fmt"
)

// DefaultSize is the chunk size used when a tool call does not specify one.
const DefaultSize = 50

// Failure records one item that could not be processed, together with the
// error from its individual retry.
type Failure[T any] struct {
	Item T
	Err  error
}

// Result aggregates the outcome of a batch run. Every input item appears in
// exactly one of the two partitions:
// len(Successes) + len(Failures) == len(items).
type Result[T, U any] struct {
	Successes []U
	Failures  []Failure[T]
}

// ProcessFunc processes one chunk of items and returns one result per item,
// order-preserving. An error means the whole chunk attempt failed.
type ProcessFunc[T, U any] func(ctx context.Context, items []T) ([]U, error)

// Process partitions items into consecutive chunks of size and runs fn on
// each chunk in order. A failed chunk call is abandoned and each of its
// items is retried once as a singleton; persistent failures are recorded,
// never retried again. Chunks are strictly sequential: all items of chunk i
// are resolved before chunk i+1 begins.
func Process[T, U any](ctx context.Context, items []T, size int, fn ProcessFunc[T, U]) Result[T, U] {
	if size <= 0 {
		size = DefaultSize
	}

	res := Result[T, U]{
		Successes: make([]U, 0, len(items)),
	}

	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunk := items[start:end]

		out, err := fn(ctx, chunk)
		if err == nil {
			res.Successes = append(res.Successes, out...)
			continue
		}

		// Chunk failed as a whole; pinpoint the bad items one by one.
		for _, item := range chunk {
			out, err := fn(ctx, []T{item})
			if err != nil {
				res.Failures = append(res.Failures, Failure[T]{Item: item, Err: err})
				continue
			}
			res.Successes = append(res.Successes, out...)
		}
	}

	return res
}

// FormatSummary renders a human-readable summary of a batch over string
// items, in the shape the batch tools return to callers.
func FormatSummary[U any](verb string, res Result[string, U]) string {
	out := fmt.Sprintf("Batch %s complete.\nSuccessfully processed: %d messages\n", verb, len(res.Successes))
	if len(res.Failures) == 0 {
		return out
	}
	out += fmt.Sprintf("Failed to process: %d messages\n\nFailed message IDs:\n", len(res.Failures))
	for _, f := range res.Failures {
		out += fmt.Sprintf("- %s (%s)\n", truncateID(f.Item), f.Err)
	}
	return out
}

func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:16] + "..."
}
