package stencil

import "sync"

// renderHistory keeps the most recent render results in a fixed-size ring.
type renderHistory struct {
	mu      sync.Mutex
	entries []RenderResult
	next    int
	full    bool
}

func newRenderHistory(size int) *renderHistory {
	if size <= 0 {
		return &renderHistory{}
	}
	return &renderHistory{entries: make([]RenderResult, size)}
}

func (h *renderHistory) record(r *RenderResult) {
	if len(h.entries) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.next] = r.clone()
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
}

// snapshot returns the recorded results, oldest first.
func (h *renderHistory) snapshot() []RenderResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.full {
		out := make([]RenderResult, h.next)
		copy(out, h.entries[:h.next])
		return out
	}

	out := make([]RenderResult, 0, len(h.entries))
	out = append(out, h.entries[h.next:]...)
	out = append(out, h.entries[:h.next]...)
	return out
}
