package attachment

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/spec-kit/ticket-console/pkg/util"
)

// minimalPNG is the 8-byte PNG signature, enough for content sniffing.
var minimalPNG = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

func TestValidateRejectsDeclaredOversize(t *testing.T) {
	v := NewValidator()

	_, err := v.Validate("huge.bin", MaxFileSize+1, bytes.NewReader(nil))
	if !util.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	clientErr := util.ToClientError(err)
	if clientErr.Code != util.CodeFileTooLarge {
		t.Fatalf("code = %q", clientErr.Code)
	}
	if !strings.Contains(clientErr.Message, "10 MiB") {
		t.Fatalf("message = %q, want limit text", clientErr.Message)
	}
}

func TestValidateRejectsActualOversize(t *testing.T) {
	// Declared size lies; the content itself is over the cap.
	v := &Validator{maxSize: 16}

	_, err := v.Validate("lying.bin", 4, bytes.NewReader(make([]byte, 32)))
	if !util.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestValidateAtExactLimit(t *testing.T) {
	v := &Validator{maxSize: 16}

	pending, err := v.Validate("edge.bin", 16, bytes.NewReader(make([]byte, 16)))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if pending.Size != 16 {
		t.Fatalf("size = %d", pending.Size)
	}
}

func TestValidateImageGetsPreview(t *testing.T) {
	v := NewValidator()

	pending, err := v.Validate("shot.png", int64(len(minimalPNG)), bytes.NewReader(minimalPNG))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if pending.MIMEType != "image/png" {
		t.Fatalf("mime = %q", pending.MIMEType)
	}
	if !pending.IsImage() {
		t.Fatal("expected image")
	}
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(minimalPNG)
	if pending.PreviewDataURL != want {
		t.Fatalf("preview = %q", pending.PreviewDataURL)
	}
	if pending.ID == "" {
		t.Fatal("missing id")
	}
}

func TestValidateNonImageHasNoPreview(t *testing.T) {
	v := NewValidator()

	pending, err := v.Validate("notes.pdf", 8, bytes.NewReader([]byte("%PDF-1.7")))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if pending.MIMEType != "application/pdf" {
		t.Fatalf("mime = %q", pending.MIMEType)
	}
	if pending.PreviewDataURL != "" {
		t.Fatalf("preview = %q, want none", pending.PreviewDataURL)
	}
}

func TestDetectMIMEFallsBackToExtension(t *testing.T) {
	// Content sniffing cannot identify this payload; the extension decides.
	got := detectMIME("report.json", []byte{0x00, 0x01, 0x02, 0x03})
	if got != "application/json" {
		t.Fatalf("mime = %q", got)
	}
}

func TestDetectMIMEUnknownFallsThrough(t *testing.T) {
	got := detectMIME("blob.xyzzy", []byte{0x00, 0x01, 0x02, 0x03})
	if got != "application/octet-stream" {
		t.Fatalf("mime = %q", got)
	}
}
