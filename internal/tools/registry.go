// Package tools declares the Gmail tool surface: a closed registry of tool
// definitions shared by the stdio and HTTP transports, argument validation,
// and the dispatcher that binds a tool call to an authorization client.
package tools

import (
	"context"
	"fmt"

	"github.com/inletmail/gmail-mcp/internal/auth"
	"github.com/inletmail/gmail-mcp/internal/gmail"
)

// Param types used in tool schemas.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Param describes one tool argument.
type Param struct {
	Name        string
	Type        string
	Required    bool
	Description string
	Enum        []string
}

// ToolFunc is a tool's business function. It receives sanitized domain
// arguments and a Gmail client bound to the request's credentials.
type ToolFunc func(ctx context.Context, args map[string]any, client *gmail.Client) (string, error)

// Definition binds a tool name to its schema and handler.
type Definition struct {
	Name        string
	Description string
	Params      []Param
	Handler     ToolFunc
}

// registry is the closed tool table. Both transports expose exactly this
// set; unknown names funnel through the single not-found path in Lookup.
var registry = []Definition{
	{
		Name:        "send_email",
		Description: "Sends a new email",
		Params:      composeParams,
		Handler:     handleSendEmail,
	},
	{
		Name:        "draft_email",
		Description: "Draft a new email",
		Params:      composeParams,
		Handler:     handleDraftEmail,
	},
	{
		Name:        "read_email",
		Description: "Retrieves the content of a specific email",
		Params: []Param{
			{Name: "messageId", Type: TypeString, Required: true, Description: "ID of the email message to retrieve"},
		},
		Handler: handleReadEmail,
	},
	{
		Name:        "search_emails",
		Description: "Searches for emails using Gmail search syntax",
		Params: []Param{
			{Name: "query", Type: TypeString, Required: true, Description: "Gmail search query (e.g., 'from:example@gmail.com')"},
			{Name: "maxResults", Type: TypeNumber, Description: "Maximum number of results to return (default: 10)"},
		},
		Handler: handleSearchEmails,
	},
	{
		Name:        "modify_email",
		Description: "Modifies email labels (move to different folders)",
		Params: []Param{
			{Name: "messageId", Type: TypeString, Required: true, Description: "ID of the email message to modify"},
			{Name: "addLabelIds", Type: TypeArray, Description: "List of label IDs to add to the message"},
			{Name: "removeLabelIds", Type: TypeArray, Description: "List of label IDs to remove from the message"},
			{Name: "labelIds", Type: TypeArray, Description: "Deprecated alias for addLabelIds"},
		},
		Handler: handleModifyEmail,
	},
	{
		Name:        "delete_email",
		Description: "Permanently deletes an email",
		Params: []Param{
			{Name: "messageId", Type: TypeString, Required: true, Description: "ID of the email message to delete"},
		},
		Handler: handleDeleteEmail,
	},
	{
		Name:        "list_email_labels",
		Description: "Retrieves all available Gmail labels",
		Params:      nil,
		Handler:     handleListLabels,
	},
	{
		Name:        "create_label",
		Description: "Creates a new Gmail label",
		Params: []Param{
			{Name: "name", Type: TypeString, Required: true, Description: "Name for the new label"},
			{Name: "messageListVisibility", Type: TypeString, Description: "Whether to show the label in the message list", Enum: []string{gmail.MessageShow, gmail.MessageHide}},
			{Name: "labelListVisibility", Type: TypeString, Description: "Visibility of the label in the label list", Enum: []string{gmail.LabelShow, gmail.LabelShowIfUnread, gmail.LabelHide}},
		},
		Handler: handleCreateLabel,
	},
	{
		Name:        "update_label",
		Description: "Updates an existing Gmail label",
		Params: []Param{
			{Name: "id", Type: TypeString, Required: true, Description: "ID of the label to update"},
			{Name: "name", Type: TypeString, Description: "New name for the label"},
			{Name: "messageListVisibility", Type: TypeString, Description: "Whether to show the label in the message list", Enum: []string{gmail.MessageShow, gmail.MessageHide}},
			{Name: "labelListVisibility", Type: TypeString, Description: "Visibility of the label in the label list", Enum: []string{gmail.LabelShow, gmail.LabelShowIfUnread, gmail.LabelHide}},
		},
		Handler: handleUpdateLabel,
	},
	{
		Name:        "delete_label",
		Description: "Deletes a Gmail label",
		Params: []Param{
			{Name: "id", Type: TypeString, Required: true, Description: "ID of the label to delete"},
		},
		Handler: handleDeleteLabel,
	},
	{
		Name:        "get_or_create_label",
		Description: "Gets an existing label by name or creates it if it doesn't exist",
		Params: []Param{
			{Name: "name", Type: TypeString, Required: true, Description: "Name of the label to get or create"},
			{Name: "messageListVisibility", Type: TypeString, Description: "Whether to show the label in the message list", Enum: []string{gmail.MessageShow, gmail.MessageHide}},
			{Name: "labelListVisibility", Type: TypeString, Description: "Visibility of the label in the label list", Enum: []string{gmail.LabelShow, gmail.LabelShowIfUnread, gmail.LabelHide}},
		},
		Handler: handleGetOrCreateLabel,
	},
	{
		Name:        "batch_modify_emails",
		Description: "Modifies labels for multiple emails in batches",
		Params: []Param{
			{Name: "messageIds", Type: TypeArray, Required: true, Description: "List of message IDs to modify"},
			{Name: "addLabelIds", Type: TypeArray, Description: "List of label IDs to add to all messages"},
			{Name: "removeLabelIds", Type: TypeArray, Description: "List of label IDs to remove from all messages"},
			{Name: "batchSize", Type: TypeNumber, Description: "Number of messages to process per batch (default: 50)"},
		},
		Handler: handleBatchModifyEmails,
	},
	{
		Name:        "batch_delete_emails",
		Description: "Permanently deletes multiple emails in batches",
		Params: []Param{
			{Name: "messageIds", Type: TypeArray, Required: true, Description: "List of message IDs to delete"},
			{Name: "batchSize", Type: TypeNumber, Description: "Number of messages to process per batch (default: 50)"},
		},
		Handler: handleBatchDeleteEmails,
	},
	{
		Name:        "download_attachment",
		Description: "Downloads an email attachment to a specified location",
		Params: []Param{
			{Name: "messageId", Type: TypeString, Required: true, Description: "ID of the email message containing the attachment"},
			{Name: "attachmentId", Type: TypeString, Required: true, Description: "ID of the attachment to download"},
			{Name: "savePath", Type: TypeString, Description: "Directory to save the attachment to (default: current directory)"},
			{Name: "filename", Type: TypeString, Description: "Filename to save the attachment as (default: original filename)"},
		},
		Handler: handleDownloadAttachment,
	},
}

// composeParams is shared by send_email and draft_email.
var composeParams = []Param{
	{Name: "to", Type: TypeArray, Required: true, Description: "List of recipient email addresses"},
	{Name: "subject", Type: TypeString, Required: true, Description: "Email subject"},
	{Name: "body", Type: TypeString, Required: true, Description: "Email body content (plain text)"},
	{Name: "htmlBody", Type: TypeString, Description: "HTML version of the email body"},
	{Name: "mimeType", Type: TypeString, Description: "Email content type", Enum: []string{gmail.MimeTextPlain, gmail.MimeTextHTML, gmail.MimeMultipartAlt}},
	{Name: "cc", Type: TypeArray, Description: "List of CC recipients"},
	{Name: "bcc", Type: TypeArray, Description: "List of BCC recipients"},
	{Name: "threadId", Type: TypeString, Description: "Thread ID to reply to"},
	{Name: "inReplyTo", Type: TypeString, Description: "Message ID being replied to"},
	{Name: "attachments", Type: TypeArray, Description: "List of file paths to attach"},
}

// All returns the tool table in declaration order.
func All() []Definition {
	return registry
}

// Lookup resolves a tool by name. The boolean is false for unknown names;
// callers surface that through the not-found error path.
func Lookup(name string) (Definition, bool) {
	for _, def := range registry {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

// ValidateArgs checks args against the tool's declared schema: required
// params must be present, and present params must have the declared type.
// Undeclared keys (including credential fields) pass through untouched.
func ValidateArgs(def Definition, args map[string]any) error {
	for _, p := range def.Params {
		val, ok := args[p.Name]
		if !ok || val == nil {
			if p.Required {
				return auth.NewError(auth.KindValidation, "%s: missing required parameter %q", def.Name, p.Name)
			}
			continue
		}
		if err := checkType(p, val); err != nil {
			return auth.WrapError(auth.KindValidation, err, "%s: invalid parameter %q", def.Name, p.Name)
		}
	}
	return nil
}

func checkType(p Param, val any) error {
	switch p.Type {
	case TypeString:
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", val)
		}
		if p.Required && s == "" {
			return fmt.Errorf("must not be empty")
		}
		if len(p.Enum) > 0 && s != "" && !containsString(p.Enum, s) {
			return fmt.Errorf("must be one of %v", p.Enum)
		}
	case TypeNumber:
		switch val.(type) {
		case float64, int, int64:
		default:
			return fmt.Errorf("expected number, got %T", val)
		}
	case TypeBoolean:
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", val)
		}
	case TypeArray:
		// A bare string is accepted as a one-element array for callers that
		// pass a single ID.
		switch val.(type) {
		case []any, []string, string:
		default:
			return fmt.Errorf("expected array, got %T", val)
		}
	case TypeObject:
		if _, ok := val.(map[string]any); !ok {
			return fmt.Errorf("expected object, got %T", val)
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
