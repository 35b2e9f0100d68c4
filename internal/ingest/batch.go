package ingest

// RowSet is a run of rows bound for one table.
type RowSet struct {
	Table   string
	Key     string
	Columns []string
	Rows    []Row
}

// Batch groups the parent rows of one page with the child rows they
// produced. Writers store parents before children.
type Batch struct {
	Parent   RowSet
	Children []RowSet
}

// Add appends one flattened record.
func (b *Batch) Add(row Row, children []ChildRows) {
	b.Parent.Rows = append(b.Parent.Rows, row)
	for i, c := range children {
		if i < len(b.Children) {
			b.Children[i].Rows = append(b.Children[i].Rows, c.Rows...)
		}
	}
}

// Len counts parent rows.
func (b *Batch) Len() int {
	return len(b.Parent.Rows)
}

// Sets returns parent then children, the order they must be written in.
func (b *Batch) Sets() []RowSet {
	return append([]RowSet{b.Parent}, b.Children...)
}
