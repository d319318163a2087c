package clickup

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"testing"
)

func TestNewMultipart(t *testing.T) {
	m, err := NewMultipart(
		map[string]string{"z": "last", "a": "first"},
		FilePart{FileName: `report "q1".pdf`, Content: []byte("%PDF")},
		FilePart{FieldName: "image", FileName: "logo.png", ContentType: "image/png", Content: []byte{0x89, 'P'}},
	)
	if err != nil {
		t.Fatalf("NewMultipart() error = %v", err)
	}

	mediaType, params, err := mime.ParseMediaType(m.ContentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("ContentType = %q (%v)", m.ContentType, err)
	}

	r := multipart.NewReader(bytes.NewReader(m.Body), params["boundary"])
	type part struct{ name, file, ctype, body string }
	var parts []part
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart() error = %v", err)
		}
		b, _ := io.ReadAll(p)
		parts = append(parts, part{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(b)})
	}

	want := []part{
		{"a", "", "", "first"},
		{"z", "", "", "last"},
		{"attachment", `report "q1".pdf`, "application/octet-stream", "%PDF"},
		{"image", "logo.png", "image/png", "\x89P"},
	}
	if len(parts) != len(want) {
		t.Fatalf("parts = %+v", parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("part %d = %+v, want %+v", i, parts[i], want[i])
		}
	}
}
