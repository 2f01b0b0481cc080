package tools

import (
	"context"
	"fmt"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/inletmail/gmail-mcp/internal/auth"
	"github.com/inletmail/gmail-mcp/internal/gmail"
)

func labelOptionsFromArgs(args map[string]any) gmail.LabelOptions {
	return gmail.LabelOptions{
		MessageListVisibility: stringArg(args, "messageListVisibility", ""),
		LabelListVisibility:   stringArg(args, "labelListVisibility", ""),
	}
}

func handleListLabels(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	labels, err := client.ListLabels(ctx)
	if err != nil {
		return "", err
	}
	return gmail.FormatLabelList(gmail.PartitionLabels(labels)), nil
}

func handleCreateLabel(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	name, err := requireString(args, "name")
	if err != nil {
		return "", err
	}
	opts := labelOptionsFromArgs(args)

	labels, err := client.ListLabels(ctx)
	if err != nil {
		return "", err
	}
	if existing := gmail.FindLabelByName(labels, name); existing != nil {
		return "", auth.NewError(auth.KindValidation, "label %q already exists with ID %s", name, existing.Id)
	}

	label, _, err := gmail.GetOrCreateLabel(ctx, client, name, opts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Label created successfully:\nID: %s\nName: %s\nType: %s", label.Id, label.Name, label.Type), nil
}

func handleUpdateLabel(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	id, err := requireString(args, "id")
	if err != nil {
		return "", err
	}

	patch := &gmailapi.Label{
		Name:                  stringArg(args, "name", ""),
		MessageListVisibility: stringArg(args, "messageListVisibility", ""),
		LabelListVisibility:   stringArg(args, "labelListVisibility", ""),
	}
	if patch.Name == "" && patch.MessageListVisibility == "" && patch.LabelListVisibility == "" {
		return "", auth.NewError(auth.KindValidation, "at least one of name, messageListVisibility or labelListVisibility is required")
	}

	label, err := client.UpdateLabel(ctx, id, patch)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Label updated successfully:\nID: %s\nName: %s\nType: %s", label.Id, label.Name, label.Type), nil
}

func handleDeleteLabel(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	id, err := requireString(args, "id")
	if err != nil {
		return "", err
	}
	if err := client.DeleteLabel(ctx, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("Label %s deleted successfully", id), nil
}

func handleGetOrCreateLabel(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	name, err := requireString(args, "name")
	if err != nil {
		return "", err
	}

	label, created, err := gmail.GetOrCreateLabel(ctx, client, name, labelOptionsFromArgs(args))
	if err != nil {
		return "", err
	}
	if created {
		return fmt.Sprintf("Label created:\nID: %s\nName: %s\nType: %s", label.Id, label.Name, label.Type), nil
	}
	return fmt.Sprintf("Found existing label:\nID: %s\nName: %s\nType: %s", label.Id, label.Name, label.Type), nil
}
