package preview

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"sync"

	_ "image/gif"
	_ "image/png"

	"github.com/nfnt/resize"

	"pkt.systems/fotodrop/intake"
)

// Resource is a transient, revocable in-memory thumbnail handle. It is owned
// by the window that allocated it and must be released exactly once.
type Resource struct {
	mu       sync.Mutex
	data     []byte
	released bool
}

// Bytes returns the thumbnail bytes, or nil after release.
func (r *Resource) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}

// Len returns the thumbnail size in bytes, zero after release.
func (r *Resource) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// Release revokes the handle and frees its memory. The first call reports
// true; later calls are no-ops reporting false.
func (r *Resource) Release() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return false
	}
	r.released = true
	r.data = nil
	return true
}

// Released reports whether the handle has been revoked.
func (r *Resource) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

// AllocFunc builds a preview resource for a pending upload.
type AllocFunc func(intake.PendingUpload) (*Resource, error)

const (
	thumbnailEdge    = 300
	thumbnailQuality = 85
)

// Thumbnail decodes the pending upload and renders a bounded JPEG thumbnail
// into memory. It is the default window allocator.
func Thumbnail(pending intake.PendingUpload) (*Resource, error) {
	f, err := pending.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.New("undecodable image: " + pending.Handle.Name)
	}
	thumb := resize.Thumbnail(thumbnailEdge, thumbnailEdge, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, err
	}
	return &Resource{data: buf.Bytes()}, nil
}
