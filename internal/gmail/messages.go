package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	gmailapi "google.golang.org/api/gmail/v1"
)

// DefaultSearchResults bounds a search when the caller does not specify
// maxResults.
const DefaultSearchResults = 10

// EmailContent holds the plain-text and HTML bodies extracted from a
// message payload.
type EmailContent struct {
	Text string
	HTML string
}

// AttachmentInfo is the attachment metadata reported by read_email.
type AttachmentInfo struct {
	ID       string
	Filename string
	MimeType string
	Size     int64
}

// EmailDetails is the result of reading one message.
type EmailDetails struct {
	MessageID   string
	ThreadID    string
	Subject     string
	From        string
	To          string
	Date        string
	Body        string
	HTMLOnly    bool
	Attachments []AttachmentInfo
}

// EmailSummary is one search result.
type EmailSummary struct {
	ID      string
	Subject string
	From    string
	Date    string
}

// ReadEmail fetches a message and resolves its headers, body and attachment
// metadata.
func (c *Client) ReadEmail(ctx context.Context, messageID string) (*EmailDetails, error) {
	msg, err := c.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	content := ExtractContent(msg.Payload)
	body := content.Text
	htmlOnly := false
	if body == "" && content.HTML != "" {
		body = content.HTML
		htmlOnly = true
	}

	return &EmailDetails{
		MessageID:   messageID,
		ThreadID:    msg.ThreadId,
		Subject:     HeaderValue(msg.Payload, "Subject"),
		From:        HeaderValue(msg.Payload, "From"),
		To:          HeaderValue(msg.Payload, "To"),
		Date:        HeaderValue(msg.Payload, "Date"),
		Body:        body,
		HTMLOnly:    htmlOnly,
		Attachments: CollectAttachments(msg.Payload),
	}, nil
}

// SearchEmails lists messages matching query and resolves Subject/From/Date
// for each hit. The per-hit metadata fetches are issued concurrently; the
// returned order matches the list order.
func (c *Client) SearchEmails(ctx context.Context, query string, maxResults int64) ([]EmailSummary, error) {
	if maxResults <= 0 {
		maxResults = DefaultSearchResults
	}

	ids, err := c.ListMessageIDs(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	summaries := make([]EmailSummary, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			msg, err := c.GetMessageMetadata(gctx, id, "Subject", "From", "Date")
			if err != nil {
				return err
			}
			summaries[i] = EmailSummary{
				ID:      id,
				Subject: HeaderValue(msg.Payload, "Subject"),
				From:    HeaderValue(msg.Payload, "From"),
				Date:    HeaderValue(msg.Payload, "Date"),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// HeaderValue returns the value of the named header, case-insensitively.
func HeaderValue(payload *gmailapi.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// ExtractContent recursively collects the text/plain and text/html bodies
// from a message payload, concatenating nested parts in order.
func ExtractContent(part *gmailapi.MessagePart) EmailContent {
	var content EmailContent
	if part == nil {
		return content
	}

	if part.Body != nil && part.Body.Data != "" {
		if data, err := decodeBody(part.Body.Data); err == nil {
			switch part.MimeType {
			case "text/plain":
				content.Text += data
			case "text/html":
				content.HTML += data
			}
		}
	}

	for _, sub := range part.Parts {
		nested := ExtractContent(sub)
		content.Text += nested.Text
		content.HTML += nested.HTML
	}
	return content
}

// CollectAttachments walks a message payload and returns metadata for every
// part that carries an attachment ID.
func CollectAttachments(payload *gmailapi.MessagePart) []AttachmentInfo {
	var attachments []AttachmentInfo
	walkParts(payload, func(part *gmailapi.MessagePart) {
		if part.Body == nil || part.Body.AttachmentId == "" {
			return
		}
		filename := part.Filename
		if filename == "" {
			filename = "attachment-" + part.Body.AttachmentId
		}
		mimeType := part.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		attachments = append(attachments, AttachmentInfo{
			ID:       part.Body.AttachmentId,
			Filename: filename,
			MimeType: mimeType,
			Size:     part.Body.Size,
		})
	})
	return attachments
}

// FormatDetails renders message details in the text shape the read_email
// tool returns.
func (d *EmailDetails) FormatDetails() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Thread ID: %s\nSubject: %s\nFrom: %s\nTo: %s\nDate: %s\n\n",
		d.ThreadID, d.Subject, d.From, d.To, d.Date)
	if d.HTMLOnly {
		sb.WriteString("[Note: This email is HTML-formatted. Plain text version not available.]\n\n")
	}
	sb.WriteString(d.Body)
	if len(d.Attachments) > 0 {
		fmt.Fprintf(&sb, "\n\nAttachments (%d):\n", len(d.Attachments))
		for _, a := range d.Attachments {
			fmt.Fprintf(&sb, "- %s (%s, %d KB, ID: %s)\n", a.Filename, a.MimeType, (a.Size+512)/1024, a.ID)
		}
	}
	return sb.String()
}

// walkParts recursively visits a message part and all its descendants.
func walkParts(part *gmailapi.MessagePart, fn func(*gmailapi.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, sub := range part.Parts {
		walkParts(sub, fn)
	}
}

// decodeBody decodes a Gmail API body. The API uses base64url, with or
// without padding depending on the producer; standard base64 is the last
// resort.
func decodeBody(data string) (string, error) {
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding} {
		if b, err := enc.DecodeString(data); err == nil {
			return string(b), nil
		}
	}
	return "", fmt.Errorf("undecodable body data")
}
