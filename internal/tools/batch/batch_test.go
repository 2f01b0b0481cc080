package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func echoChunk(ctx context.Context, items []string) ([]string, error) {
	return items, nil
}

func TestProcessAllSucceed(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	res := Process(context.Background(), items, 2, echoChunk)

	if len(res.Successes) != len(items) {
		t.Fatalf("expected %d successes, got %d", len(items), len(res.Successes))
	}
	if len(res.Failures) != 0 {
		t.Fatalf("expected no failures, got %d", len(res.Failures))
	}
	for i, item := range items {
		if res.Successes[i] != item {
			t.Errorf("success[%d] = %q, want %q", i, res.Successes[i], item)
		}
	}
}

func TestProcessEmptyInput(t *testing.T) {
	calls := 0
	res := Process(context.Background(), nil, 10, func(ctx context.Context, items []string) ([]string, error) {
		calls++
		return items, nil
	})

	if calls != 0 {
		t.Errorf("expected no chunk calls for empty input, got %d", calls)
	}
	if len(res.Successes) != 0 || len(res.Failures) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestProcessChunkSizing(t *testing.T) {
	tests := []struct {
		name       string
		items      int
		size       int
		wantChunks []int
	}{
		{name: "exact multiple", items: 6, size: 3, wantChunks: []int{3, 3}},
		{name: "remainder chunk", items: 7, size: 3, wantChunks: []int{3, 3, 1}},
		{name: "single oversized chunk", items: 4, size: 10, wantChunks: []int{4}},
		{name: "zero size falls back to default", items: DefaultSize + 1, size: 0, wantChunks: []int{DefaultSize, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]string, tt.items)
			for i := range items {
				items[i] = fmt.Sprintf("id-%d", i)
			}

			var got []int
			Process(context.Background(), items, tt.size, func(ctx context.Context, chunk []string) ([]string, error) {
				got = append(got, len(chunk))
				return chunk, nil
			})

			if len(got) != len(tt.wantChunks) {
				t.Fatalf("chunk count = %d, want %d", len(got), len(tt.wantChunks))
			}
			for i := range got {
				if got[i] != tt.wantChunks[i] {
					t.Errorf("chunk[%d] size = %d, want %d", i, got[i], tt.wantChunks[i])
				}
			}
		})
	}
}

func TestProcessSingletonFallback(t *testing.T) {
	// The chunk containing "bad" fails wholesale; every item in it is
	// retried alone and only "bad" stays failed.
	boom := errors.New("boom")
	fn := func(ctx context.Context, items []string) ([]string, error) {
		for _, item := range items {
			if item == "bad" {
				return nil, boom
			}
		}
		return items, nil
	}

	items := []string{"a", "bad", "c", "d"}
	res := Process(context.Background(), items, 2, fn)

	if len(res.Successes) != 3 {
		t.Fatalf("expected 3 successes, got %d: %v", len(res.Successes), res.Successes)
	}
	if len(res.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(res.Failures))
	}
	if res.Failures[0].Item != "bad" {
		t.Errorf("failed item = %q, want %q", res.Failures[0].Item, "bad")
	}
	if !errors.Is(res.Failures[0].Err, boom) {
		t.Errorf("failure error = %v, want %v", res.Failures[0].Err, boom)
	}
}

func TestProcessSingletonRetriedOnce(t *testing.T) {
	// Each item in a failed chunk gets exactly one singleton attempt.
	attempts := map[string]int{}
	fn := func(ctx context.Context, items []string) ([]string, error) {
		if len(items) == 1 {
			attempts[items[0]]++
		}
		return nil, errors.New("always fails")
	}

	res := Process(context.Background(), []string{"a", "b", "c"}, 3, fn)

	if len(res.Failures) != 3 {
		t.Fatalf("expected 3 failures, got %d", len(res.Failures))
	}
	for _, id := range []string{"a", "b", "c"} {
		if attempts[id] != 1 {
			t.Errorf("item %q retried %d times, want 1", id, attempts[id])
		}
	}
}

func TestProcessPartitionInvariant(t *testing.T) {
	fn := func(ctx context.Context, items []string) ([]string, error) {
		for _, item := range items {
			if strings.HasPrefix(item, "x") {
				return nil, errors.New("rejected")
			}
		}
		return items, nil
	}

	items := []string{"a", "x1", "b", "x2", "c", "d", "x3"}
	res := Process(context.Background(), items, 3, fn)

	if got := len(res.Successes) + len(res.Failures); got != len(items) {
		t.Fatalf("successes+failures = %d, want %d", got, len(items))
	}
}

func TestFormatSummary(t *testing.T) {
	res := Result[string, string]{
		Successes: []string{"ok1", "ok2"},
		Failures: []Failure[string]{
			{Item: "short-id", Err: errors.New("gone")},
			{Item: "a-very-long-message-identifier", Err: errors.New("nope")},
		},
	}

	out := FormatSummary("delete", res)

	if !strings.Contains(out, "Batch delete complete.") {
		t.Errorf("missing header in %q", out)
	}
	if !strings.Contains(out, "Successfully processed: 2 messages") {
		t.Errorf("missing success count in %q", out)
	}
	if !strings.Contains(out, "Failed to process: 2 messages") {
		t.Errorf("missing failure count in %q", out)
	}
	if !strings.Contains(out, "- short-id (gone)") {
		t.Errorf("missing short ID line in %q", out)
	}
	if !strings.Contains(out, "- a-very-long-mess... (nope)") {
		t.Errorf("long ID not truncated in %q", out)
	}
}

func TestFormatSummaryNoFailures(t *testing.T) {
	res := Result[string, string]{Successes: []string{"a"}}

	out := FormatSummary("label modification", res)
	if strings.Contains(out, "Failed") {
		t.Errorf("unexpected failure section in %q", out)
	}
}
