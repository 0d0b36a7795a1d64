package preview

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"pkt.systems/fotodrop/intake"
)

func fakePending(n int) []intake.PendingUpload {
	pending := make([]intake.PendingUpload, n)
	for i := range pending {
		pending[i] = intake.PendingUpload{
			Handle:    intake.Handle{Name: fmt.Sprintf("p%d.jpg", i), Path: fmt.Sprintf("/tmp/p%d.jpg", i)},
			MediaType: "image/jpeg",
		}
	}
	return pending
}

// countingAlloc tracks every resource it hands out.
type countingAlloc struct {
	allocated []*Resource
}

func (c *countingAlloc) alloc(intake.PendingUpload) (*Resource, error) {
	res := &Resource{data: []byte("thumb")}
	c.allocated = append(c.allocated, res)
	return res, nil
}

func (c *countingAlloc) releasedExactlyOnce() bool {
	for _, res := range c.allocated {
		if !res.Released() {
			return false
		}
		if res.Release() {
			// Release after Released() reported true means double release.
			return false
		}
	}
	return true
}

func TestPageSizeForWidth(t *testing.T) {
	cases := []struct {
		width int
		want  int
	}{
		{0, 2},
		{500, 2},
		{639, 2},
		{640, 4},
		{1023, 4},
		{1024, 6},
		{1920, 6},
	}
	for _, tc := range cases {
		if got := PageSizeForWidth(tc.width); got != tc.want {
			t.Fatalf("width %d: want %d got %d", tc.width, tc.want, got)
		}
	}
}

func TestTotalPagesAndBounds(t *testing.T) {
	alloc := &countingAlloc{}
	w := NewWindow(fakePending(10), 500, alloc.alloc, nil)
	if w.PageSize() != 2 {
		t.Fatalf("expected page size 2, got %d", w.PageSize())
	}
	if w.TotalPages() != 5 {
		t.Fatalf("expected 5 pages, got %d", w.TotalPages())
	}
	if w.Prev() {
		t.Fatalf("prev should hold at first page")
	}
	for i := 0; i < 5; i++ {
		w.Next()
	}
	if w.Page() != 4 {
		t.Fatalf("expected to hold at page 4, got %d", w.Page())
	}
	if w.Next() {
		t.Fatalf("next should hold at last page")
	}
}

func TestTotalPagesCeiling(t *testing.T) {
	w := NewWindow(fakePending(7), 700, (&countingAlloc{}).alloc, nil)
	if w.PageSize() != 4 {
		t.Fatalf("expected page size 4, got %d", w.PageSize())
	}
	if w.TotalPages() != 2 {
		t.Fatalf("expected 2 pages, got %d", w.TotalPages())
	}
}

func TestSetWidthClampsPage(t *testing.T) {
	w := NewWindow(fakePending(10), 500, (&countingAlloc{}).alloc, nil)
	for i := 0; i < 4; i++ {
		w.Next()
	}
	w.SetWidth(1920)
	if w.TotalPages() != 2 {
		t.Fatalf("expected 2 pages after resize, got %d", w.TotalPages())
	}
	if w.Page() != 1 {
		t.Fatalf("expected page clamped to 1, got %d", w.Page())
	}
}

func TestVisibleAllocatesLazilyOncePerItem(t *testing.T) {
	alloc := &countingAlloc{}
	w := NewWindow(fakePending(6), 500, alloc.alloc, nil)

	first := w.Visible()
	if len(first) != 2 {
		t.Fatalf("expected 2 visible items, got %d", len(first))
	}
	if len(alloc.allocated) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(alloc.allocated))
	}
	// Revisiting the same page must not reallocate.
	w.Visible()
	if len(alloc.allocated) != 2 {
		t.Fatalf("expected no reallocation, got %d", len(alloc.allocated))
	}
	w.Next()
	w.Visible()
	if len(alloc.allocated) != 4 {
		t.Fatalf("expected 4 allocations after next page, got %d", len(alloc.allocated))
	}
}

func TestCloseReleasesEverythingExactlyOnce(t *testing.T) {
	alloc := &countingAlloc{}
	w := NewWindow(fakePending(6), 1920, alloc.alloc, nil)
	w.Visible()
	if len(alloc.allocated) != 6 {
		t.Fatalf("expected 6 allocations, got %d", len(alloc.allocated))
	}
	w.Close()
	w.Close() // teardown must be idempotent
	if !alloc.releasedExactlyOnce() {
		t.Fatalf("expected every resource released exactly once")
	}
	if w.Visible() != nil {
		t.Fatalf("closed window must not expose items")
	}
}

func TestResetReleasesPriorSelection(t *testing.T) {
	alloc := &countingAlloc{}
	w := NewWindow(fakePending(4), 500, alloc.alloc, nil)
	w.Visible()
	prior := len(alloc.allocated)
	if prior == 0 {
		t.Fatalf("expected allocations before reset")
	}

	w.Reset(fakePending(3))
	for _, res := range alloc.allocated[:prior] {
		if !res.Released() {
			t.Fatalf("expected prior selection released on reset")
		}
	}
	if w.Page() != 0 {
		t.Fatalf("expected page reset, got %d", w.Page())
	}
	w.Visible()
	w.Close()
	if !alloc.releasedExactlyOnce() {
		t.Fatalf("expected all resources released exactly once")
	}
}

func TestAllocationFailureIsNotFatal(t *testing.T) {
	failing := func(intake.PendingUpload) (*Resource, error) {
		return nil, errors.New("boom")
	}
	w := NewWindow(fakePending(2), 500, failing, nil)
	items := w.Visible()
	if len(items) != 2 {
		t.Fatalf("expected items despite allocation failure, got %d", len(items))
	}
	for _, item := range items {
		if item.Resource != nil {
			t.Fatalf("expected nil resource on failed allocation")
		}
	}
	w.Close()
}

func TestThumbnailFromRealImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	res, err := Thumbnail(intake.PendingUpload{
		Handle:    intake.Handle{Name: "shot.png", Path: path},
		MediaType: "image/png",
	})
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	if res.Len() == 0 {
		t.Fatalf("expected thumbnail bytes")
	}
	if !res.Release() {
		t.Fatalf("expected first release to report true")
	}
	if res.Release() {
		t.Fatalf("expected second release to be a no-op")
	}
	if res.Bytes() != nil {
		t.Fatalf("expected bytes revoked after release")
	}
}
