package gmail

import (
	"context"
	"errors"
	"strings"
	"testing"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/inletmail/gmail-mcp/internal/auth"
)

// fakeLabelAPI implements LabelAPI against an in-memory label set.
type fakeLabelAPI struct {
	labels    []*gmailapi.Label
	listErr   error
	createErr error
	created   []*gmailapi.Label
}

func (f *fakeLabelAPI) ListLabels(ctx context.Context) ([]*gmailapi.Label, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.labels, nil
}

func (f *fakeLabelAPI) CreateLabel(ctx context.Context, label *gmailapi.Label) (*gmailapi.Label, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := &gmailapi.Label{
		Id:                    "Label_new",
		Name:                  label.Name,
		Type:                  "user",
		MessageListVisibility: label.MessageListVisibility,
		LabelListVisibility:   label.LabelListVisibility,
	}
	f.created = append(f.created, created)
	return created, nil
}

func sampleLabels() []*gmailapi.Label {
	return []*gmailapi.Label{
		{Id: "INBOX", Name: "INBOX", Type: "system"},
		{Id: "SENT", Name: "SENT", Type: "system"},
		{Id: "Label_1", Name: "Receipts", Type: "user"},
		{Id: "Label_2", Name: "receipts", Type: "user"},
	}
}

func TestPartitionLabels(t *testing.T) {
	set := PartitionLabels(sampleLabels())

	if len(set.System) != 2 {
		t.Errorf("system labels = %d, want 2", len(set.System))
	}
	if len(set.User) != 2 {
		t.Errorf("user labels = %d, want 2", len(set.User))
	}
	if set.Count() != 4 {
		t.Errorf("Count() = %d, want 4", set.Count())
	}
	if set.System[0].Id != "INBOX" || set.User[0].Id != "Label_1" {
		t.Error("partition should preserve input order within each group")
	}
}

func TestFindLabelByName(t *testing.T) {
	labels := sampleLabels()

	tests := []struct {
		name   string
		lookup string
		wantID string
	}{
		{name: "exact match", lookup: "Receipts", wantID: "Label_1"},
		{name: "case sensitive", lookup: "receipts", wantID: "Label_2"},
		{name: "system label", lookup: "INBOX", wantID: "INBOX"},
		{name: "no match", lookup: "Missing", wantID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindLabelByName(labels, tt.lookup)
			if tt.wantID == "" {
				if got != nil {
					t.Errorf("FindLabelByName(%q) = %v, want nil", tt.lookup, got)
				}
				return
			}
			if got == nil || got.Id != tt.wantID {
				t.Errorf("FindLabelByName(%q) = %v, want ID %s", tt.lookup, got, tt.wantID)
			}
		})
	}
}

func TestGetOrCreateLabel_Existing(t *testing.T) {
	api := &fakeLabelAPI{labels: sampleLabels()}

	label, created, err := GetOrCreateLabel(context.Background(), api, "Receipts", LabelOptions{
		LabelListVisibility: LabelHide,
	})
	if err != nil {
		t.Fatalf("GetOrCreateLabel() error = %v", err)
	}
	if created {
		t.Error("existing label reported as created")
	}
	if label.Id != "Label_1" {
		t.Errorf("label ID = %s, want Label_1", label.Id)
	}
	if len(api.created) != 0 {
		t.Error("no create call expected for existing label")
	}
}

func TestGetOrCreateLabel_Creates(t *testing.T) {
	api := &fakeLabelAPI{labels: sampleLabels()}

	label, created, err := GetOrCreateLabel(context.Background(), api, "Projects/Q3", LabelOptions{})
	if err != nil {
		t.Fatalf("GetOrCreateLabel() error = %v", err)
	}
	if !created {
		t.Error("new label not reported as created")
	}
	if label.Name != "Projects/Q3" {
		t.Errorf("label name = %s", label.Name)
	}
	if label.MessageListVisibility != MessageShow || label.LabelListVisibility != LabelShow {
		t.Errorf("default visibility not applied: %+v", label)
	}
}

func TestGetOrCreateLabel_TrimsName(t *testing.T) {
	api := &fakeLabelAPI{labels: sampleLabels()}

	label, created, err := GetOrCreateLabel(context.Background(), api, "  Receipts  ", LabelOptions{})
	if err != nil {
		t.Fatalf("GetOrCreateLabel() error = %v", err)
	}
	if created || label.Id != "Label_1" {
		t.Errorf("trimmed lookup should find existing label, got created=%v id=%s", created, label.Id)
	}
}

func TestGetOrCreateLabel_EmptyName(t *testing.T) {
	api := &fakeLabelAPI{}

	_, _, err := GetOrCreateLabel(context.Background(), api, "   ", LabelOptions{})
	if err == nil {
		t.Fatal("expected error for empty name")
	}
	if auth.KindOf(err) != auth.KindValidation {
		t.Errorf("error kind = %v, want validation", auth.KindOf(err))
	}
}

func TestGetOrCreateLabel_ListError(t *testing.T) {
	wantErr := errors.New("list failed")
	api := &fakeLabelAPI{listErr: wantErr}

	_, _, err := GetOrCreateLabel(context.Background(), api, "Receipts", LabelOptions{})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}

func TestFormatLabelList(t *testing.T) {
	set := PartitionLabels(sampleLabels())
	out := FormatLabelList(set)

	for _, want := range []string{
		"Found 4 labels (2 system, 2 user):",
		"System Labels:",
		"User Labels:",
		"ID: INBOX",
		"Name: Receipts",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatLabelList() missing %q in:\n%s", want, out)
		}
	}
}
