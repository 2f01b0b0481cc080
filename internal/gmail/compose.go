package gmail

import (
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// Supported top-level content types for outgoing mail.
const (
	MimeTextPlain        = "text/plain"
	MimeTextHTML         = "text/html"
	MimeMultipartAlt     = "multipart/alternative"
	defaultAttachmentCT  = "application/octet-stream"
	composeBoundaryAlt   = "alt"
	composeBoundaryMixed = "mixed"
)

// OutgoingMessage describes an email to send or draft.
type OutgoingMessage struct {
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	HTMLBody    string
	MimeType    string // text/plain, text/html or multipart/alternative
	ThreadID    string
	InReplyTo   string
	Attachments []string // local file paths
}

// BuildRaw assembles the RFC 2822 message and returns it base64url encoded,
// ready for the messages.send / drafts.create calls.
func BuildRaw(msg *OutgoingMessage) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}
	if msg.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}

	var raw string
	var err error
	if len(msg.Attachments) > 0 {
		raw, err = buildMixed(msg)
	} else {
		raw, err = buildSimple(msg)
	}
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

// buildSimple renders a message without attachments: single-part plain or
// HTML, or multipart/alternative when both bodies are supplied.
func buildSimple(msg *OutgoingMessage) (string, error) {
	var sb strings.Builder
	writeAddressHeaders(&sb, msg)

	mimeType := msg.MimeType
	if mimeType == "" {
		mimeType = MimeTextPlain
	}

	switch mimeType {
	case MimeTextPlain:
		sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		sb.WriteString("MIME-Version: 1.0\r\n\r\n")
		sb.WriteString(msg.Body)
	case MimeTextHTML:
		body := msg.HTMLBody
		if body == "" {
			body = msg.Body
		}
		sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
		sb.WriteString("MIME-Version: 1.0\r\n\r\n")
		sb.WriteString(body)
	case MimeMultipartAlt:
		boundary := newBoundary(composeBoundaryAlt)
		fmt.Fprintf(&sb, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
		sb.WriteString("MIME-Version: 1.0\r\n\r\n")
		writeAlternativeParts(&sb, boundary, msg)
	default:
		return "", fmt.Errorf("unsupported mimeType %q", mimeType)
	}

	return sb.String(), nil
}

// buildMixed renders a multipart/mixed message: the body (plain, HTML or
// alternative) followed by one base64 part per attachment file.
func buildMixed(msg *OutgoingMessage) (string, error) {
	var body strings.Builder
	writeAddressHeaders(&body, msg)

	var parts strings.Builder
	writer := multipart.NewWriter(&parts)

	fmt.Fprintf(&body, "Content-Type: multipart/mixed; boundary=%q\r\n", writer.Boundary())
	body.WriteString("MIME-Version: 1.0\r\n\r\n")

	// Body part first.
	if err := writeBodyPart(writer, msg); err != nil {
		return "", err
	}

	for _, path := range msg.Attachments {
		if err := writeAttachmentPart(writer, path); err != nil {
			return "", err
		}
	}

	if err := writer.Close(); err != nil {
		return "", err
	}

	body.WriteString(parts.String())
	return body.String(), nil
}

func writeBodyPart(writer *multipart.Writer, msg *OutgoingMessage) error {
	header := make(textproto.MIMEHeader)
	body := msg.Body
	switch {
	case msg.MimeType == MimeMultipartAlt || (msg.HTMLBody != "" && msg.Body != ""):
		var alt strings.Builder
		boundary := newBoundary(composeBoundaryAlt)
		writeAlternativeParts(&alt, boundary, msg)
		header.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", boundary))
		body = alt.String()
	case msg.MimeType == MimeTextHTML || (msg.HTMLBody != "" && msg.Body == ""):
		header.Set("Content-Type", "text/html; charset=\"UTF-8\"")
		if msg.HTMLBody != "" {
			body = msg.HTMLBody
		}
	default:
		header.Set("Content-Type", "text/plain; charset=\"UTF-8\"")
	}

	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write([]byte(body))
	return err
}

func writeAttachmentPart(writer *multipart.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read attachment %s: %w", path, err)
	}

	filename := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = defaultAttachmentCT
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Type", fmt.Sprintf("%s; name=%q", contentType, filename))
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	header.Set("Content-Transfer-Encoding", "base64")

	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write([]byte(base64.StdEncoding.EncodeToString(data)))
	return err
}

// writeAlternativeParts renders plain and HTML alternatives between the
// given boundary markers.
func writeAlternativeParts(sb *strings.Builder, boundary string, msg *OutgoingMessage) {
	fmt.Fprintf(sb, "--%s\r\n", boundary)
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	sb.WriteString(msg.Body)
	sb.WriteString("\r\n")
	html := msg.HTMLBody
	if html == "" {
		html = msg.Body
	}
	fmt.Fprintf(sb, "--%s\r\n", boundary)
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	sb.WriteString(html)
	fmt.Fprintf(sb, "\r\n--%s--\r\n", boundary)
}

func writeAddressHeaders(sb *strings.Builder, msg *OutgoingMessage) {
	fmt.Fprintf(sb, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(sb, "Cc: %s\r\n", strings.Join(msg.Cc, ", "))
	}
	if len(msg.Bcc) > 0 {
		fmt.Fprintf(sb, "Bcc: %s\r\n", strings.Join(msg.Bcc, ", "))
	}
	fmt.Fprintf(sb, "Subject: %s\r\n", encodeRFC2047(msg.Subject))
	if msg.InReplyTo != "" {
		fmt.Fprintf(sb, "In-Reply-To: %s\r\n", msg.InReplyTo)
		fmt.Fprintf(sb, "References: %s\r\n", msg.InReplyTo)
	}
}

// encodeRFC2047 encodes a header value when it contains non-ASCII runes,
// as required for subjects with umlauts and similar.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

var boundarySeq atomic.Int64

// newBoundary returns a boundary marker unique within one process. There is
// no need for cryptographic randomness; the marker only has to avoid
// colliding with message content.
func newBoundary(tag string) string {
	return fmt.Sprintf("=_%s_%06d", tag, boundarySeq.Add(1))
}
