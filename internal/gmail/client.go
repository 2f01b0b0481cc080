package gmail

import (
	"context"
	"fmt"
	"net/http"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// gmailUserID addresses the authenticated user in every API call.
const gmailUserID = "me"

// Client wraps the Gmail Users service for one authorization client.
type Client struct {
	svc *gmailapi.UsersService
}

// NewClient creates a Gmail client on top of an authorized HTTP client.
func NewClient(ctx context.Context, hc *http.Client) (*Client, error) {
	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users}, nil
}

// SendRaw sends a fully-assembled RFC 2822 message. raw must already be
// base64url encoded. threadID, when non-empty, attaches the message to an
// existing thread.
func (c *Client) SendRaw(ctx context.Context, raw, threadID string) (string, error) {
	msg := &gmailapi.Message{Raw: raw}
	if threadID != "" {
		msg.ThreadId = threadID
	}
	sent, err := c.svc.Messages.Send(gmailUserID, msg).Context(ctx).Do()
	if err != nil {
		return "", wrapAPIError("failed to send email", err)
	}
	return sent.Id, nil
}

// CreateDraft stores a fully-assembled message as a draft.
func (c *Client) CreateDraft(ctx context.Context, raw, threadID string) (string, error) {
	msg := &gmailapi.Message{Raw: raw}
	if threadID != "" {
		msg.ThreadId = threadID
	}
	draft, err := c.svc.Drafts.Create(gmailUserID, &gmailapi.Draft{Message: msg}).Context(ctx).Do()
	if err != nil {
		return "", wrapAPIError("failed to create draft", err)
	}
	return draft.Id, nil
}

// GetMessage retrieves a message with its full payload.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*gmailapi.Message, error) {
	msg, err := c.svc.Messages.Get(gmailUserID, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(fmt.Sprintf("failed to get message %s", messageID), err)
	}
	return msg, nil
}

// GetMessageMetadata retrieves only the listed headers of a message.
func (c *Client) GetMessageMetadata(ctx context.Context, messageID string, headers ...string) (*gmailapi.Message, error) {
	call := c.svc.Messages.Get(gmailUserID, messageID).Format("metadata")
	if len(headers) > 0 {
		call = call.MetadataHeaders(headers...)
	}
	msg, err := call.Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(fmt.Sprintf("failed to get message %s", messageID), err)
	}
	return msg, nil
}

// ListMessageIDs returns the IDs of messages matching a Gmail search query.
func (c *Client) ListMessageIDs(ctx context.Context, query string, maxResults int64) ([]string, error) {
	resp, err := c.svc.Messages.List(gmailUserID).Q(query).MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("failed to search messages", err)
	}
	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// ModifyMessage adds and removes labels on one message.
func (c *Client) ModifyMessage(ctx context.Context, messageID string, addLabelIDs, removeLabelIDs []string) error {
	req := &gmailapi.ModifyMessageRequest{
		AddLabelIds:    addLabelIDs,
		RemoveLabelIds: removeLabelIDs,
	}
	_, err := c.svc.Messages.Modify(gmailUserID, messageID, req).Context(ctx).Do()
	if err != nil {
		return wrapAPIError(fmt.Sprintf("failed to modify message %s", messageID), err)
	}
	return nil
}

// DeleteMessage permanently deletes one message. This bypasses the trash.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	if err := c.svc.Messages.Delete(gmailUserID, messageID).Context(ctx).Do(); err != nil {
		return wrapAPIError(fmt.Sprintf("failed to delete message %s", messageID), err)
	}
	return nil
}

// GetRawAttachment fetches the base64url-encoded body of an attachment.
func (c *Client) GetRawAttachment(ctx context.Context, messageID, attachmentID string) (string, error) {
	att, err := c.svc.Messages.Attachments.Get(gmailUserID, messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return "", wrapAPIError(fmt.Sprintf("failed to get attachment %s", attachmentID), err)
	}
	if att.Data == "" {
		return "", fmt.Errorf("no attachment data received for %s", attachmentID)
	}
	return att.Data, nil
}

// ListLabels fetches all labels of the mailbox.
func (c *Client) ListLabels(ctx context.Context) ([]*gmailapi.Label, error) {
	resp, err := c.svc.Labels.List(gmailUserID).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("failed to list labels", err)
	}
	return resp.Labels, nil
}

// CreateLabel creates a new user label.
func (c *Client) CreateLabel(ctx context.Context, label *gmailapi.Label) (*gmailapi.Label, error) {
	created, err := c.svc.Labels.Create(gmailUserID, label).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(fmt.Sprintf("failed to create label %q", label.Name), err)
	}
	return created, nil
}

// UpdateLabel patches an existing label. Only the fields set on label are
// changed.
func (c *Client) UpdateLabel(ctx context.Context, labelID string, label *gmailapi.Label) (*gmailapi.Label, error) {
	updated, err := c.svc.Labels.Patch(gmailUserID, labelID, label).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(fmt.Sprintf("failed to update label %s", labelID), err)
	}
	return updated, nil
}

// DeleteLabel removes a label. Messages carrying it keep their other labels.
func (c *Client) DeleteLabel(ctx context.Context, labelID string) error {
	if err := c.svc.Labels.Delete(gmailUserID, labelID).Context(ctx).Do(); err != nil {
		return wrapAPIError(fmt.Sprintf("failed to delete label %s", labelID), err)
	}
	return nil
}
