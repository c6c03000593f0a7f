package attachment

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-console/internal/domain"
	"github.com/spec-kit/ticket-console/pkg/util"
)

// MaxFileSize is the client-side attachment cap: 10 MiB. This is a
// pre-check only; the server enforces its own policy independently and a
// server rejection is handled by the send protocol.
const MaxFileSize int64 = 10 * 1024 * 1024

// Validator inspects a selected file and produces a pending attachment or
// a rejection. Only one file per selection is considered.
type Validator struct {
	maxSize int64
}

// NewValidator creates a validator with the default size policy.
func NewValidator() *Validator {
	return &Validator{maxSize: MaxFileSize}
}

// Validate enforces the size policy on the selected file and builds a
// PendingAttachment. The declared size is checked before any content is
// read; image files additionally get a locally generated data-URL preview
// with no network round-trip.
func (v *Validator) Validate(fileName string, size int64, content io.Reader) (*domain.PendingAttachment, error) {
	if size > v.maxSize {
		return nil, util.NewValidationError(util.CodeFileTooLarge,
			fmt.Sprintf("file %q exceeds the %d MiB limit", fileName, v.maxSize/(1024*1024)))
	}

	data, err := io.ReadAll(io.LimitReader(content, v.maxSize+1))
	if err != nil {
		return nil, util.NewTransportFailure(fmt.Errorf("attachment: reading %q: %w", fileName, err))
	}
	// The declared size can lie (or be unknown); re-check what was read.
	if int64(len(data)) > v.maxSize {
		return nil, util.NewValidationError(util.CodeFileTooLarge,
			fmt.Sprintf("file %q exceeds the %d MiB limit", fileName, v.maxSize/(1024*1024)))
	}

	mimeType := detectMIME(fileName, data)
	pending := &domain.PendingAttachment{
		ID:       uuid.NewString(),
		FileName: fileName,
		Size:     int64(len(data)),
		MIMEType: mimeType,
		Data:     data,
	}
	if strings.HasPrefix(mimeType, "image/") {
		pending.PreviewDataURL = dataURL(mimeType, data)
	}
	return pending, nil
}

// detectMIME sniffs the content and falls back to the file extension when
// sniffing is inconclusive.
func detectMIME(fileName string, data []byte) string {
	sniffed := http.DetectContentType(data)
	if sniffed != "application/octet-stream" {
		// DetectContentType appends charset parameters for text types.
		if idx := strings.Index(sniffed, ";"); idx >= 0 {
			sniffed = strings.TrimSpace(sniffed[:idx])
		}
		return sniffed
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); byExt != "" {
		if idx := strings.Index(byExt, ";"); idx >= 0 {
			byExt = strings.TrimSpace(byExt[:idx])
		}
		return byExt
	}
	return "application/octet-stream"
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
