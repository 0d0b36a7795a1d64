// Package preview derives a paginated view over a pending-upload collection
// and manages the transient thumbnail resources backing it. Every resource a
// window allocates is released when the batch is cancelled, replaced by a new
// selection, or the window is closed; leaking one is a defect.
package preview

import (
	"sync"

	"pkt.systems/fotodrop/intake"
	"pkt.systems/pslog"
)

// Viewport width breakpoints, in pixels.
const (
	narrowWidth = 640
	mediumWidth = 1024
)

// PageSizeForWidth maps a viewport width to a preview page size.
func PageSizeForWidth(width int) int {
	switch {
	case width < narrowWidth:
		return 2
	case width < mediumWidth:
		return 4
	default:
		return 6
	}
}

// Item pairs a pending upload with its preview resource. Resource is nil
// until the item first enters the visible window, and again after release.
type Item struct {
	Pending  intake.PendingUpload
	Resource *Resource
}

// Window is a paginated view over pending uploads.
type Window struct {
	mu       sync.Mutex
	items    []Item
	pageSize int
	page     int
	alloc    AllocFunc
	log      pslog.Logger
	closed   bool
}

// NewWindow constructs a window over the pending collection sized for the
// given viewport width. A nil alloc uses the Thumbnail allocator.
func NewWindow(pending []intake.PendingUpload, width int, alloc AllocFunc, logger pslog.Logger) *Window {
	if alloc == nil {
		alloc = Thumbnail
	}
	w := &Window{
		pageSize: PageSizeForWidth(width),
		alloc:    alloc,
		log:      logger,
	}
	w.items = wrap(pending)
	return w
}

func wrap(pending []intake.PendingUpload) []Item {
	items := make([]Item, len(pending))
	for i, p := range pending {
		items[i] = Item{Pending: p}
	}
	return items
}

// Count returns the number of pending uploads in the window.
func (w *Window) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

// PageSize returns the current page size.
func (w *Window) PageSize() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pageSize
}

// Page returns the current page index.
func (w *Window) Page() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.page
}

// TotalPages returns ceil(count/pageSize).
func (w *Window) TotalPages() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalPagesLocked()
}

func (w *Window) totalPagesLocked() int {
	return (len(w.items) + w.pageSize - 1) / w.pageSize
}

func (w *Window) clampLocked() {
	max := w.totalPagesLocked() - 1
	if max < 0 {
		max = 0
	}
	if w.page > max {
		w.page = max
	}
	if w.page < 0 {
		w.page = 0
	}
}

// Next advances one page, holding at the last page. Reports whether it moved.
func (w *Window) Next() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.page >= w.totalPagesLocked()-1 {
		return false
	}
	w.page++
	return true
}

// Prev moves one page back, holding at the first page. Reports whether it moved.
func (w *Window) Prev() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.page <= 0 {
		return false
	}
	w.page--
	return true
}

// SetWidth recomputes the page size for a new viewport width, keeping the
// page index within bounds.
func (w *Window) SetWidth(width int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pageSize = PageSizeForWidth(width)
	w.clampLocked()
}

// Visible returns the current page's items, lazily allocating a preview
// resource for each item that lacks one. Allocation failure leaves the item
// without a resource and is logged, not fatal.
func (w *Window) Visible() []Item {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	start := w.page * w.pageSize
	if start > len(w.items) {
		start = len(w.items)
	}
	end := start + w.pageSize
	if end > len(w.items) {
		end = len(w.items)
	}
	for i := start; i < end; i++ {
		if w.items[i].Resource != nil {
			continue
		}
		res, err := w.alloc(w.items[i].Pending)
		if err != nil {
			if w.log != nil {
				w.log.Warn("preview allocation failed", "file", w.items[i].Pending.Handle.Name, "err", err)
			}
			continue
		}
		w.items[i].Resource = res
	}
	page := make([]Item, end-start)
	copy(page, w.items[start:end])
	return page
}

// Reset replaces the pending collection with a new selection, releasing
// every resource the prior one held.
func (w *Window) Reset(pending []intake.PendingUpload) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.releaseAllLocked()
	w.items = wrap(pending)
	w.page = 0
	w.closed = false
}

// Close releases every allocated resource and tears the window down. It is
// safe to call on every exit path; repeat calls are no-ops.
func (w *Window) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.releaseAllLocked()
	w.closed = true
}

func (w *Window) releaseAllLocked() {
	released := 0
	for i := range w.items {
		if w.items[i].Resource == nil {
			continue
		}
		if w.items[i].Resource.Release() {
			released++
		}
		w.items[i].Resource = nil
	}
	if released > 0 && w.log != nil {
		w.log.Debug("previews released", "count", released)
	}
}
