package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/inletmail/gmail-mcp/internal/auth"
	"github.com/inletmail/gmail-mcp/internal/gmail"
)

func outgoingFromArgs(args map[string]any) (*gmail.OutgoingMessage, error) {
	to, err := requireStringSlice(args, "to")
	if err != nil {
		return nil, err
	}
	subject, err := requireString(args, "subject")
	if err != nil {
		return nil, err
	}
	cc, err := stringSlice(args, "cc")
	if err != nil {
		return nil, err
	}
	bcc, err := stringSlice(args, "bcc")
	if err != nil {
		return nil, err
	}
	attachments, err := stringSlice(args, "attachments")
	if err != nil {
		return nil, err
	}

	return &gmail.OutgoingMessage{
		To:          to,
		Cc:          cc,
		Bcc:         bcc,
		Subject:     subject,
		Body:        stringArg(args, "body", ""),
		HTMLBody:    stringArg(args, "htmlBody", ""),
		MimeType:    stringArg(args, "mimeType", ""),
		ThreadID:    stringArg(args, "threadId", ""),
		InReplyTo:   stringArg(args, "inReplyTo", ""),
		Attachments: attachments,
	}, nil
}

func handleSendEmail(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	msg, err := outgoingFromArgs(args)
	if err != nil {
		return "", err
	}
	raw, err := gmail.BuildRaw(msg)
	if err != nil {
		return "", auth.WrapError(auth.KindValidation, err, "failed to build email")
	}
	id, err := client.SendRaw(ctx, raw, msg.ThreadID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Email sent successfully with ID: %s", id), nil
}

func handleDraftEmail(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	msg, err := outgoingFromArgs(args)
	if err != nil {
		return "", err
	}
	raw, err := gmail.BuildRaw(msg)
	if err != nil {
		return "", auth.WrapError(auth.KindValidation, err, "failed to build email")
	}
	id, err := client.CreateDraft(ctx, raw, msg.ThreadID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Email draft created successfully with ID: %s", id), nil
}

func handleReadEmail(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	messageID, err := requireString(args, "messageId")
	if err != nil {
		return "", err
	}
	details, err := client.ReadEmail(ctx, messageID)
	if err != nil {
		return "", err
	}
	return details.FormatDetails(), nil
}

func handleSearchEmails(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	query, err := requireString(args, "query")
	if err != nil {
		return "", err
	}
	maxResults := intArg(args, "maxResults", gmail.DefaultSearchResults)

	summaries, err := client.SearchEmails(ctx, query, maxResults)
	if err != nil {
		return "", err
	}
	if len(summaries) == 0 {
		return "No messages found matching the query.", nil
	}

	var sb strings.Builder
	for _, s := range summaries {
		fmt.Fprintf(&sb, "ID: %s\nSubject: %s\nFrom: %s\nDate: %s\n\n", s.ID, s.Subject, s.From, s.Date)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func handleModifyEmail(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	messageID, err := requireString(args, "messageId")
	if err != nil {
		return "", err
	}
	addLabelIDs, err := stringSlice(args, "addLabelIds")
	if err != nil {
		return "", err
	}
	if len(addLabelIDs) == 0 {
		// labelIds is the deprecated alias for addLabelIds.
		if addLabelIDs, err = stringSlice(args, "labelIds"); err != nil {
			return "", err
		}
	}
	removeLabelIDs, err := stringSlice(args, "removeLabelIds")
	if err != nil {
		return "", err
	}
	if len(addLabelIDs) == 0 && len(removeLabelIDs) == 0 {
		return "", auth.NewError(auth.KindValidation, "at least one of addLabelIds or removeLabelIds is required")
	}

	if err := client.ModifyMessage(ctx, messageID, addLabelIDs, removeLabelIDs); err != nil {
		return "", err
	}
	return fmt.Sprintf("Email %s labels updated successfully", messageID), nil
}

func handleDeleteEmail(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	messageID, err := requireString(args, "messageId")
	if err != nil {
		return "", err
	}
	if err := client.DeleteMessage(ctx, messageID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Email %s deleted successfully", messageID), nil
}
