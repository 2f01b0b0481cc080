package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inletmail/gmail-mcp/internal/auth"
)

func TestLookup(t *testing.T) {
	def, ok := Lookup("send_email")
	require.True(t, ok)
	assert.Equal(t, "send_email", def.Name)
	assert.NotNil(t, def.Handler)

	_, ok = Lookup("no_such_tool")
	assert.False(t, ok)
}

func TestAll_CoversToolSurface(t *testing.T) {
	want := []string{
		"send_email", "draft_email", "read_email", "search_emails",
		"modify_email", "delete_email",
		"list_email_labels", "create_label", "update_label", "delete_label",
		"get_or_create_label",
		"batch_modify_emails", "batch_delete_emails",
		"download_attachment",
	}

	var got []string
	for _, def := range All() {
		got = append(got, def.Name)
	}
	assert.ElementsMatch(t, want, got)
}

func TestAll_UniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range All() {
		assert.False(t, seen[def.Name], "duplicate tool name %s", def.Name)
		seen[def.Name] = true
	}
}

func TestValidateArgs(t *testing.T) {
	readEmail, ok := Lookup("read_email")
	require.True(t, ok)
	searchEmails, ok := Lookup("search_emails")
	require.True(t, ok)
	createLabel, ok := Lookup("create_label")
	require.True(t, ok)
	batchModify, ok := Lookup("batch_modify_emails")
	require.True(t, ok)

	tests := []struct {
		name    string
		def     Definition
		args    map[string]any
		wantErr bool
	}{
		{
			name: "valid args",
			def:  readEmail,
			args: map[string]any{"messageId": "m1"},
		},
		{
			name:    "missing required",
			def:     readEmail,
			args:    map[string]any{},
			wantErr: true,
		},
		{
			name:    "nil required value",
			def:     readEmail,
			args:    map[string]any{"messageId": nil},
			wantErr: true,
		},
		{
			name:    "wrong string type",
			def:     readEmail,
			args:    map[string]any{"messageId": 42},
			wantErr: true,
		},
		{
			name: "optional number accepted",
			def:  searchEmails,
			args: map[string]any{"query": "is:unread", "maxResults": float64(5)},
		},
		{
			name:    "wrong number type",
			def:     searchEmails,
			args:    map[string]any{"query": "is:unread", "maxResults": "five"},
			wantErr: true,
		},
		{
			name: "enum accepted",
			def:  createLabel,
			args: map[string]any{"name": "Receipts", "labelListVisibility": "labelHide"},
		},
		{
			name:    "enum rejected",
			def:     createLabel,
			args:    map[string]any{"name": "Receipts", "labelListVisibility": "sometimes"},
			wantErr: true,
		},
		{
			name: "array of strings",
			def:  batchModify,
			args: map[string]any{"messageIds": []any{"m1", "m2"}},
		},
		{
			name: "bare string accepted as array",
			def:  batchModify,
			args: map[string]any{"messageIds": "m1"},
		},
		{
			name:    "number rejected as array",
			def:     batchModify,
			args:    map[string]any{"messageIds": 42},
			wantErr: true,
		},
		{
			name: "undeclared credential keys pass through",
			def:  readEmail,
			args: map[string]any{
				"messageId":        "m1",
				"_userCredentials": map[string]any{"accessToken": "tok"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArgs(tt.def, tt.args)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, auth.KindValidation, auth.KindOf(err))
		})
	}
}

func TestStringSlice(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    []string
		wantErr bool
	}{
		{name: "absent", args: map[string]any{}, want: nil},
		{name: "empty string", args: map[string]any{"ids": ""}, want: nil},
		{name: "single string", args: map[string]any{"ids": "a"}, want: []string{"a"}},
		{name: "any slice", args: map[string]any{"ids": []any{"a", "b"}}, want: []string{"a", "b"}},
		{name: "string slice", args: map[string]any{"ids": []string{"a", "b"}}, want: []string{"a", "b"}},
		{name: "mixed slice", args: map[string]any{"ids": []any{"a", 1}}, wantErr: true},
		{name: "wrong type", args: map[string]any{"ids": 42}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stringSlice(tt.args, "ids")
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, auth.KindValidation, auth.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntArg(t *testing.T) {
	args := map[string]any{
		"float": float64(25),
		"int":   7,
	}
	assert.Equal(t, int64(25), intArg(args, "float", 50))
	assert.Equal(t, int64(7), intArg(args, "int", 50))
	assert.Equal(t, int64(50), intArg(args, "absent", 50))
}
