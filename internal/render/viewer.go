package render

import (
	"net/url"
	"path"
	"strings"
)

// DefaultDownloadName is used when neither the trigger's alt text nor its
// URL yields a usable file name.
const DefaultDownloadName = "attachment"

// Trigger describes the element a click landed on, as seen by the single
// delegated handler. Only elements tagged as attachment triggers activate
// the viewer; thumbnails are added dynamically, so per-thumbnail
// registration is never used.
type Trigger struct {
	// AttachmentTrigger mirrors the data-attachment-trigger tag.
	AttachmentTrigger bool
	// FullSrc is the explicit data attribute carrying the image URL.
	FullSrc string
	// Src is the element's rendered source, the fallback.
	Src string
	// Alt is the element's alt text (the attachment file name).
	Alt string
}

// Modal is the full-size viewer markup, when the page has one.
type Modal interface {
	Show(src, downloadName string)
}

// ImageViewer opens full-size views of rendered attachment thumbnails.
// When no modal markup exists on the page it degrades to opening the
// image in a new browsing context instead of erroring.
type ImageViewer struct {
	modal        Modal
	openExternal func(url string)
}

// NewImageViewer creates the viewer. Either argument may be nil; with
// neither wired, activation is a no-op.
func NewImageViewer(modal Modal, openExternal func(url string)) *ImageViewer {
	return &ImageViewer{modal: modal, openExternal: openExternal}
}

// Activate handles one delegated click. It reports whether the trigger
// was handled; untagged elements are ignored so a second viewer instance
// on another page variant never double-handles them.
func (v *ImageViewer) Activate(trigger Trigger) bool {
	if !trigger.AttachmentTrigger {
		return false
	}
	src := resolveSource(trigger)
	if src == "" {
		return false
	}
	name := DeriveDownloadName(trigger)
	if v.modal != nil {
		v.modal.Show(src, name)
		return true
	}
	if v.openExternal != nil {
		v.openExternal(src)
		return true
	}
	return true
}

// DeriveDownloadName derives a file name for the download control: the
// trigger's alt text when it carries an extension, otherwise the last
// path segment of the URL, otherwise a fixed default. Derivation is pure;
// deriving twice from the same trigger yields the same name.
func DeriveDownloadName(trigger Trigger) string {
	if strings.Contains(trigger.Alt, ".") {
		return trigger.Alt
	}
	src := resolveSource(trigger)
	if parsed, err := url.Parse(src); err == nil {
		segment := path.Base(parsed.Path)
		if strings.Contains(segment, ".") {
			return segment
		}
	}
	return DefaultDownloadName
}

func resolveSource(trigger Trigger) string {
	if trigger.FullSrc != "" {
		return trigger.FullSrc
	}
	return trigger.Src
}
