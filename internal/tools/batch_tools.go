package tools

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/inletmail/gmail-mcp/internal/auth"
	"github.com/inletmail/gmail-mcp/internal/gmail"
	"github.com/inletmail/gmail-mcp/internal/tools/batch"
)

// perMessage builds a chunk processor that applies op to every message ID in
// a chunk concurrently. Any single failure fails the whole chunk attempt,
// which makes the processor fall back to per-item retries.
func perMessage(op func(ctx context.Context, messageID string) error) batch.ProcessFunc[string, string] {
	return func(ctx context.Context, ids []string) ([]string, error) {
		results := make([]string, len(ids))
		g, gctx := errgroup.WithContext(ctx)
		for i, id := range ids {
			g.Go(func() error {
				if err := op(gctx, id); err != nil {
					return err
				}
				results[i] = id
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return results, nil
	}
}

func handleBatchModifyEmails(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	messageIDs, err := requireStringSlice(args, "messageIds")
	if err != nil {
		return "", err
	}
	addLabelIDs, err := stringSlice(args, "addLabelIds")
	if err != nil {
		return "", err
	}
	removeLabelIDs, err := stringSlice(args, "removeLabelIds")
	if err != nil {
		return "", err
	}
	if len(addLabelIDs) == 0 && len(removeLabelIDs) == 0 {
		return "", auth.NewError(auth.KindValidation, "at least one of addLabelIds or removeLabelIds is required")
	}
	batchSize := int(intArg(args, "batchSize", batch.DefaultSize))

	res := batch.Process(ctx, messageIDs, batchSize, perMessage(func(ctx context.Context, id string) error {
		return client.ModifyMessage(ctx, id, addLabelIDs, removeLabelIDs)
	}))
	return batch.FormatSummary("label modification", res), nil
}

func handleBatchDeleteEmails(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	messageIDs, err := requireStringSlice(args, "messageIds")
	if err != nil {
		return "", err
	}
	batchSize := int(intArg(args, "batchSize", batch.DefaultSize))

	res := batch.Process(ctx, messageIDs, batchSize, perMessage(client.DeleteMessage))
	return batch.FormatSummary("delete", res), nil
}
