package ingest

// Deduplicator remembers the IDs seen during one run. It is not safe for
// concurrent use and is never persisted.
type Deduplicator struct {
	seen map[string]struct{}
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Offer registers id and reports whether it was new. Empty IDs are never
// accepted since they cannot be upserted.
func (d *Deduplicator) Offer(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := d.seen[id]; ok {
		return false
	}
	d.seen[id] = struct{}{}
	return true
}

// Len reports how many distinct IDs were accepted.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}
