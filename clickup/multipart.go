package clickup

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
)

// Multipart is a pre-built multipart/form-data payload. It is held as
// bytes so the same content can be sent again on retry.
type Multipart struct {
	ContentType string
	Body        []byte
}

// FilePart is one file in a multipart payload.
type FilePart struct {
	FieldName   string // Default: "attachment"
	FileName    string
	ContentType string // Default: application/octet-stream
	Content     []byte
}

// NewMultipart encodes form fields (in key order) followed by files.
func NewMultipart(fields map[string]string, files ...FilePart) (*Multipart, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, fmt.Errorf("clickup: multipart field %s: %w", k, err)
		}
	}

	for _, f := range files {
		field := f.FieldName
		if field == "" {
			field = "attachment"
		}
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(field), escapeQuotes(f.FileName)))
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("clickup: multipart file %s: %w", f.FileName, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("clickup: multipart file %s: %w", f.FileName, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("clickup: multipart close: %w", err)
	}
	return &Multipart{ContentType: w.FormDataContentType(), Body: buf.Bytes()}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
