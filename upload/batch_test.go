package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"pkt.systems/fotodrop/intake"
	"pkt.systems/fotodrop/schema"
)

func stagePending(t *testing.T, files map[string]string) []intake.PendingUpload {
	t.Helper()
	dir := t.TempDir()
	pending := make([]intake.PendingUpload, 0, len(files))
	for _, name := range sortedKeys(files) {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(files[name]), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		pending = append(pending, intake.PendingUpload{
			Handle:    intake.Handle{Name: name, Path: path},
			MediaType: "image/jpeg",
		})
	}
	return pending
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	return keys
}

type part struct {
	field    string
	filename string
	content  string
}

// recordingUploader parses the multipart body it receives.
type recordingUploader struct {
	mu      sync.Mutex
	calls   int
	parts   []part
	eventID schema.EventID
	fail    error
	block   chan struct{}
}

func (u *recordingUploader) UploadPhotos(ctx context.Context, id schema.EventID, contentType string, body io.Reader) (json.RawMessage, error) {
	u.mu.Lock()
	u.calls++
	u.eventID = id
	u.mu.Unlock()
	if u.block != nil {
		<-u.block
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, err
	}
	reader := multipart.NewReader(body, params["boundary"])
	for {
		p, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(p)
		if err != nil {
			return nil, err
		}
		u.mu.Lock()
		u.parts = append(u.parts, part{field: p.FormName(), filename: p.FileName(), content: string(data)})
		u.mu.Unlock()
	}
	if u.fail != nil {
		return nil, u.fail
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func TestSubmitStreamsPartsInOrder(t *testing.T) {
	pending := stagePending(t, map[string]string{
		"a.jpg": "content-a",
		"b.jpg": "content-b",
		"c.jpg": "content-c",
	})
	batch, err := NewBatch("event-1", pending)
	if err != nil {
		t.Fatalf("new batch: %v", err)
	}

	up := &recordingUploader{}
	raw, err := batch.Submit(context.Background(), up)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Fatalf("unexpected ack %s", raw)
	}
	if batch.Phase() != PhaseSuccess {
		t.Fatalf("expected success phase, got %s", batch.Phase())
	}
	if up.eventID != "event-1" {
		t.Fatalf("unexpected event id %q", up.eventID)
	}

	want := []part{
		{field: "photo", filename: "a.jpg", content: "content-a"},
		{field: "photo", filename: "b.jpg", content: "content-b"},
		{field: "photo", filename: "c.jpg", content: "content-c"},
	}
	if !reflect.DeepEqual(up.parts, want) {
		t.Fatalf("parts mismatch:\nwant %+v\ngot  %+v", want, up.parts)
	}
}

func TestSubmitWhileUploadingIsRejected(t *testing.T) {
	pending := stagePending(t, map[string]string{"a.jpg": "a"})
	batch, err := NewBatch("event-1", pending)
	if err != nil {
		t.Fatalf("new batch: %v", err)
	}

	up := &recordingUploader{block: make(chan struct{})}
	done := make(chan error, 1)
	go func() {
		_, err := batch.Submit(context.Background(), up)
		done <- err
	}()

	deadline := time.Now().Add(5 * time.Second)
	for batch.Phase() != PhaseUploading {
		if time.Now().After(deadline) {
			t.Fatalf("first submit never reached uploading phase")
		}
		time.Sleep(time.Millisecond)
	}
	if _, err := batch.Submit(context.Background(), up); !errors.Is(err, schema.ErrUploadInFlight) {
		t.Fatalf("expected ErrUploadInFlight, got %v", err)
	}

	close(up.block)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if up.calls != 1 {
		t.Fatalf("expected a single transfer, saw %d", up.calls)
	}
}

func TestSubmitOnFinishedBatchIsRejected(t *testing.T) {
	pending := stagePending(t, map[string]string{"a.jpg": "a"})
	batch, err := NewBatch("event-1", pending)
	if err != nil {
		t.Fatalf("new batch: %v", err)
	}
	if _, err := batch.Submit(context.Background(), &recordingUploader{}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := batch.Submit(context.Background(), &recordingUploader{}); !errors.Is(err, schema.ErrBatchFinished) {
		t.Fatalf("expected ErrBatchFinished, got %v", err)
	}
}

func TestErrorLeavesBatchIntactForRetry(t *testing.T) {
	pending := stagePending(t, map[string]string{"a.jpg": "a", "b.jpg": "b"})
	batch, err := NewBatch("event-1", pending)
	if err != nil {
		t.Fatalf("new batch: %v", err)
	}

	boom := errors.New("backend unavailable")
	if _, err := batch.Submit(context.Background(), &recordingUploader{fail: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	if batch.Phase() != PhaseError {
		t.Fatalf("expected error phase, got %s", batch.Phase())
	}
	if !errors.Is(batch.Err(), boom) {
		t.Fatalf("expected recorded failure, got %v", batch.Err())
	}

	fresh, err := batch.Retry()
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if fresh.ID() == batch.ID() {
		t.Fatalf("expected a fresh batch id")
	}
	if fresh.Phase() != PhaseIdle {
		t.Fatalf("expected fresh batch idle, got %s", fresh.Phase())
	}
	if !reflect.DeepEqual(fresh.Pending(), batch.Pending()) {
		t.Fatalf("expected same pending uploads on retry")
	}
	if _, err := fresh.Submit(context.Background(), &recordingUploader{}); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
}

func TestRetryOnlyValidAfterError(t *testing.T) {
	pending := stagePending(t, map[string]string{"a.jpg": "a"})
	batch, err := NewBatch("event-1", pending)
	if err != nil {
		t.Fatalf("new batch: %v", err)
	}
	if _, err := batch.Retry(); err == nil {
		t.Fatalf("expected retry rejection from idle")
	}
	if _, err := batch.Submit(context.Background(), &recordingUploader{}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := batch.Retry(); err == nil {
		t.Fatalf("expected retry rejection from success")
	}
}

func TestNewBatchValidation(t *testing.T) {
	pending := stagePending(t, map[string]string{"a.jpg": "a"})
	if _, err := NewBatch("", pending); !errors.Is(err, schema.ErrNoEventID) {
		t.Fatalf("expected ErrNoEventID, got %v", err)
	}
	if _, err := NewBatch("event-1", nil); !errors.Is(err, schema.ErrNoPendingUploads) {
		t.Fatalf("expected ErrNoPendingUploads, got %v", err)
	}
}
