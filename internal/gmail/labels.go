package gmail

import (
	"context"
	"fmt"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/inletmail/gmail-mcp/internal/auth"
)

// Label visibility values accepted by the Gmail API.
const (
	LabelShow         = "labelShow"
	LabelShowIfUnread = "labelShowIfUnread"
	LabelHide         = "labelHide"

	MessageShow = "show"
	MessageHide = "hide"
)

// LabelOptions carries the optional visibility settings for new labels.
type LabelOptions struct {
	MessageListVisibility string
	LabelListVisibility   string
}

func (o LabelOptions) withDefaults() LabelOptions {
	if o.MessageListVisibility == "" {
		o.MessageListVisibility = MessageShow
	}
	if o.LabelListVisibility == "" {
		o.LabelListVisibility = LabelShow
	}
	return o
}

// LabelAPI is the subset of label operations the resolver needs. The full
// Client satisfies it; tests substitute a fake.
type LabelAPI interface {
	ListLabels(ctx context.Context) ([]*gmailapi.Label, error)
	CreateLabel(ctx context.Context, label *gmailapi.Label) (*gmailapi.Label, error)
}

// LabelSet partitions an account's labels by ownership.
type LabelSet struct {
	System []*gmailapi.Label
	User   []*gmailapi.Label
}

func (s LabelSet) Count() int { return len(s.System) + len(s.User) }

// PartitionLabels splits labels into Gmail-managed and user-created ones.
// Order within each group follows the input.
func PartitionLabels(labels []*gmailapi.Label) LabelSet {
	var set LabelSet
	for _, l := range labels {
		if l.Type == "system" {
			set.System = append(set.System, l)
		} else {
			set.User = append(set.User, l)
		}
	}
	return set
}

// FindLabelByName returns the label whose name matches exactly, or nil.
// Gmail label names are case sensitive.
func FindLabelByName(labels []*gmailapi.Label, name string) *gmailapi.Label {
	for _, l := range labels {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// GetOrCreateLabel returns the existing label with the given name or creates
// it with the supplied options. Options only apply on the create path; an
// existing label is returned unmodified. Two concurrent callers may both miss
// the lookup and race on create, in which case Gmail rejects the duplicate
// and the error surfaces to one of them.
func GetOrCreateLabel(ctx context.Context, api LabelAPI, name string, opts LabelOptions) (*gmailapi.Label, bool, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, false, auth.NewError(auth.KindValidation, "label name cannot be empty")
	}

	labels, err := api.ListLabels(ctx)
	if err != nil {
		return nil, false, err
	}
	if existing := FindLabelByName(labels, trimmed); existing != nil {
		return existing, false, nil
	}

	opts = opts.withDefaults()
	created, err := api.CreateLabel(ctx, &gmailapi.Label{
		Name:                  trimmed,
		MessageListVisibility: opts.MessageListVisibility,
		LabelListVisibility:   opts.LabelListVisibility,
	})
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// FormatLabelList renders the partitioned label catalogue as text, system
// labels first.
func FormatLabelList(set LabelSet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d labels (%d system, %d user):\n", set.Count(), len(set.System), len(set.User))
	sb.WriteString("\nSystem Labels:\n")
	for _, l := range set.System {
		fmt.Fprintf(&sb, "ID: %s\nName: %s\n\n", l.Id, l.Name)
	}
	sb.WriteString("User Labels:\n")
	for _, l := range set.User {
		fmt.Fprintf(&sb, "ID: %s\nName: %s\n\n", l.Id, l.Name)
	}
	return strings.TrimRight(sb.String(), "\n")
}
