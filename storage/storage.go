package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// PublicPrefix is the URL path attachments are served under.
const PublicPrefix = "/uploads/feedback"

// AttachmentStore saves uploaded files and turns the stored reference into a
// URL. The reference is the generated file name; it is what feedback items keep.
// Delete is only used to discard an upload no item ended up referencing.
type AttachmentStore interface {
	Put(ctx context.Context, originalName string, r io.Reader) (string, error)
	Resolve(ref string) string
	Delete(ctx context.Context, ref string) error
}

// fileName builds "<unix millis><ext>" from the upload's original name.
func fileName(now time.Time, originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	return fmt.Sprintf("%d%s", now.UnixMilli(), ext)
}

var errInvalidRef = errors.New("invalid attachment reference")

// validRef rejects references that would escape the upload directory.
func validRef(ref string) bool {
	if ref == "" || ref == "." || ref == ".." {
		return false
	}
	return !strings.ContainsAny(ref, `/\`)
}
