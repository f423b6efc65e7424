package engine

// eventHeap is a container/heap priority queue of *Event ordered by
// (time ascending, insertion-sequence ascending) — the tie-break the
// engine needs for deterministic output under a fixed seed (§3, §4.6).
// The teacher's own scheduler.go carries an unused "container/heap"
// import; this is where that intent is actually exercised.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].Seq < h[j].Seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
