// Package upload packages pending uploads into a single multipart transfer
// and tracks its lifecycle. A batch's membership is fixed at construction;
// success and error are terminal, and retrying means deriving a fresh batch
// over the same files.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"

	"github.com/google/uuid"

	"pkt.systems/fotodrop/intake"
	"pkt.systems/fotodrop/schema"
	"pkt.systems/pslog"
)

// Phase is the batch transfer state.
type Phase int

const (
	// PhaseIdle means the batch has not been submitted.
	PhaseIdle Phase = iota
	// PhaseUploading means a transfer is in flight.
	PhaseUploading
	// PhaseSuccess means the transfer completed; terminal.
	PhaseSuccess
	// PhaseError means the transfer failed; terminal for this batch.
	PhaseError
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseUploading:
		return "uploading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// photoField is the multipart field name the backend expects for each photo.
const photoField = "photo"

// Uploader issues the multipart transfer. *client.Client satisfies it.
type Uploader interface {
	UploadPhotos(ctx context.Context, id schema.EventID, contentType string, body io.Reader) (json.RawMessage, error)
}

// Batch is an ordered set of pending uploads submitted as one request.
type Batch struct {
	id      string
	eventID schema.EventID
	pending []intake.PendingUpload
	log     pslog.Logger

	mu      sync.Mutex
	phase   Phase
	lastErr error
}

// NewBatch constructs a batch over the pending collection, preserving its
// resolution order.
func NewBatch(eventID schema.EventID, pending []intake.PendingUpload) (*Batch, error) {
	return NewBatchWithLogger(eventID, pending, nil)
}

// NewBatchWithLogger constructs a batch with logging.
func NewBatchWithLogger(eventID schema.EventID, pending []intake.PendingUpload, logger pslog.Logger) (*Batch, error) {
	if eventID == "" {
		return nil, schema.ErrNoEventID
	}
	if len(pending) == 0 {
		return nil, schema.ErrNoPendingUploads
	}
	items := make([]intake.PendingUpload, len(pending))
	copy(items, pending)
	id := uuid.NewString()
	if logger != nil {
		logger = logger.With("batch", id)
	}
	return &Batch{
		id:      id,
		eventID: eventID,
		pending: items,
		log:     logger,
	}, nil
}

// ID returns the batch identifier.
func (b *Batch) ID() string { return b.id }

// EventID returns the target event.
func (b *Batch) EventID() schema.EventID { return b.eventID }

// Len returns the number of pending uploads in the batch.
func (b *Batch) Len() int { return len(b.pending) }

// Pending returns a copy of the batch's pending uploads in order.
func (b *Batch) Pending() []intake.PendingUpload {
	items := make([]intake.PendingUpload, len(b.pending))
	copy(items, b.pending)
	return items
}

// Phase returns the current transfer phase.
func (b *Batch) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Err returns the failure that moved the batch to PhaseError, if any.
func (b *Batch) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Submit streams every pending upload as one multipart request, in
// resolution order. A submit while another is in flight is rejected with
// schema.ErrUploadInFlight; a submit on a finished batch with
// schema.ErrBatchFinished.
func (b *Batch) Submit(ctx context.Context, up Uploader) (json.RawMessage, error) {
	b.mu.Lock()
	switch b.phase {
	case PhaseUploading:
		b.mu.Unlock()
		return nil, schema.ErrUploadInFlight
	case PhaseSuccess, PhaseError:
		b.mu.Unlock()
		return nil, schema.ErrBatchFinished
	}
	b.phase = PhaseUploading
	b.mu.Unlock()

	if b.log != nil {
		b.log.Info("upload started", "event", b.eventID, "photos", len(b.pending))
	}
	body, contentType := b.multipartBody()
	raw, err := up.UploadPhotos(ctx, b.eventID, contentType, body)

	b.mu.Lock()
	if err != nil {
		b.phase = PhaseError
		b.lastErr = err
	} else {
		b.phase = PhaseSuccess
	}
	b.mu.Unlock()

	if err != nil {
		if b.log != nil {
			b.log.Warn("upload failed", "event", b.eventID, "err", err)
		}
		return nil, err
	}
	if b.log != nil {
		b.log.Info("upload complete", "event", b.eventID, "photos", len(b.pending))
	}
	return raw, nil
}

// Retry derives a fresh batch over the same pending uploads. Only valid
// after PhaseError; the files need not be re-selected.
func (b *Batch) Retry() (*Batch, error) {
	b.mu.Lock()
	phase := b.phase
	b.mu.Unlock()
	if phase != PhaseError {
		return nil, fmt.Errorf("retry from phase %s: %w", phase, schema.ErrBatchFinished)
	}
	return NewBatchWithLogger(b.eventID, b.pending, b.log)
}

// multipartBody streams the batch as multipart form parts. The pipe writer
// side runs in its own goroutine so the transfer never buffers whole files.
func (b *Batch) multipartBody() (io.Reader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		for _, p := range b.pending {
			if err := writePart(mw, p); err != nil {
				_ = pw.CloseWithError(err)
				return
			}
		}
		if err := mw.Close(); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.Close()
	}()
	return pr, mw.FormDataContentType()
}

func writePart(mw *multipart.Writer, p intake.PendingUpload) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, photoField, escapeQuotes(p.Handle.Name)))
	if p.MediaType != "" {
		header.Set("Content-Type", p.MediaType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	f, err := p.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", p.Handle.Name, err)
	}
	defer f.Close()
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("stream %s: %w", p.Handle.Name, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
