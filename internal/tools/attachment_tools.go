package tools

import (
	"context"
	"fmt"

	"github.com/inletmail/gmail-mcp/internal/gmail"
)

func handleDownloadAttachment(ctx context.Context, args map[string]any, client *gmail.Client) (string, error) {
	messageID, err := requireString(args, "messageId")
	if err != nil {
		return "", err
	}
	attachmentID, err := requireString(args, "attachmentId")
	if err != nil {
		return "", err
	}
	savePath := stringArg(args, "savePath", "")
	filename := stringArg(args, "filename", "")

	res, err := client.DownloadAttachment(ctx, messageID, attachmentID, savePath, filename)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Attachment downloaded successfully:\nFile: %s\nSize: %d bytes\nSaved to: %s", res.Filename, res.Size, res.Path), nil
}
