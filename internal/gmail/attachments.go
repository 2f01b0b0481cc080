package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/inletmail/gmail-mcp/internal/auth"
)

// MaxAttachmentSize caps downloads at Gmail's own attachment limit (25MB).
const MaxAttachmentSize = 25 * 1024 * 1024

// DownloadResult reports where an attachment was written.
type DownloadResult struct {
	Filename string
	Path     string
	Size     int
}

// DownloadAttachment fetches an attachment body and writes it to disk.
// When filename is empty the original filename is resolved from the message
// parts; savePath defaults to the current directory.
func (c *Client) DownloadAttachment(ctx context.Context, messageID, attachmentID, savePath, filename string) (*DownloadResult, error) {
	if messageID == "" {
		return nil, auth.NewError(auth.KindValidation, "messageId is required")
	}
	if attachmentID == "" {
		return nil, auth.NewError(auth.KindValidation, "attachmentId is required")
	}

	raw, err := c.GetRawAttachment(ctx, messageID, attachmentID)
	if err != nil {
		return nil, err
	}

	data, err := decodeAttachment(raw)
	if err != nil {
		return nil, auth.WrapError(auth.KindUpstream, err, "failed to decode attachment %s", attachmentID)
	}
	if len(data) > MaxAttachmentSize {
		return nil, auth.NewError(auth.KindValidation, "attachment size %d exceeds maximum %d", len(data), MaxAttachmentSize)
	}

	if filename == "" {
		msg, err := c.GetMessage(ctx, messageID)
		if err != nil {
			return nil, err
		}
		filename = FindAttachmentFilename(msg.Payload, attachmentID)
		if filename == "" {
			filename = fmt.Sprintf("attachment-%s", attachmentID)
		}
	}
	filename = SanitizeFilename(filename)

	if savePath == "" {
		savePath = "."
	}
	if err := os.MkdirAll(savePath, 0o755); err != nil {
		return nil, auth.WrapError(auth.KindInternal, err, "failed to create directory %s", savePath)
	}

	target := filepath.Join(savePath, filename)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return nil, auth.WrapError(auth.KindInternal, err, "failed to write attachment to %s", target)
	}

	return &DownloadResult{Filename: filename, Path: target, Size: len(data)}, nil
}

// FindAttachmentFilename walks the message parts for the part carrying the
// given attachment ID and returns its original filename, or "".
func FindAttachmentFilename(payload *gmailapi.MessagePart, attachmentID string) string {
	var filename string
	walkParts(payload, func(part *gmailapi.MessagePart) {
		if filename == "" && part.Body != nil && part.Body.AttachmentId == attachmentID && part.Filename != "" {
			filename = part.Filename
		}
	})
	return filename
}

// SanitizeFilename strips path separators and traversal sequences so an
// attachment name cannot escape the save directory.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")
	return filename
}

// decodeAttachment decodes the base64url body data the API returns, falling
// back to standard base64 for the occasional non-conforming payload.
func decodeAttachment(data string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding} {
		if b, err := enc.DecodeString(data); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("undecodable attachment data")
}
