package ingest

import "time"

// Resource describes how one upstream collection is paged.
type Resource struct {
	Name      string
	Path      string
	PageParam string
	// SizeParam is omitted from requests when empty.
	SizeParam string
	// PageSize of 0 disables the short-page stop rule.
	PageSize int
	// ItemsKeys are tried in order to find the item list in a page body.
	ItemsKeys []string
	// Pacing is the minimum spacing between successful page fetches.
	Pacing time.Duration
	// RetryDelay is waited before re-requesting a rate-limited page.
	RetryDelay time.Duration
	// DateFromParam and DateToParam carry the day of a date-scoped request.
	DateFromParam string
	DateToParam   string
	// Exhaustion stops paging once pages stop contributing new IDs, for
	// endpoints that ignore their page parameter.
	Exhaustion bool
}

// DateScoped reports whether requests are issued one day at a time.
func (r Resource) DateScoped() bool {
	return r.DateFromParam != "" && r.DateToParam != ""
}

// Entity is the complete per-entity sync configuration.
type Entity struct {
	Name     string
	Resource Resource
	Table    Table
	Children []Child
	// Schema is idempotent DDL run before the first fetch.
	Schema string
	// DayPause separates the days of a date-scoped sweep.
	DayPause time.Duration
}

// NewBatch returns an empty batch shaped for the entity's tables.
func (e Entity) NewBatch() *Batch {
	b := &Batch{
		Parent: RowSet{Table: e.Table.Name, Key: e.Table.Key, Columns: e.Table.ColumnNames()},
	}
	for _, c := range e.Children {
		b.Children = append(b.Children, RowSet{Table: c.Table.Name, Key: c.Table.Key, Columns: c.ColumnNames()})
	}
	return b
}

// Scope narrows one fetch. A zero Day means the whole collection.
type Scope struct {
	Day time.Time
}

func (s Scope) String() string {
	if s.Day.IsZero() {
		return "all"
	}
	return s.Day.Format(time.DateOnly)
}

// Window is the inclusive day range swept by date-scoped entities.
type Window struct {
	From time.Time
	To   time.Time
}

// DefaultWindow spans lookback days before and lookahead days after now.
func DefaultWindow(now time.Time, lookback, lookahead int) Window {
	day := truncateDay(now)
	return Window{From: day.AddDate(0, 0, -lookback), To: day.AddDate(0, 0, lookahead)}
}

// Days lists every day of the window, From and To included.
func (w Window) Days() []time.Time {
	from, to := truncateDay(w.From), truncateDay(w.To)
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
