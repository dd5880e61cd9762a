package sdk

import (
	"context"
	"sync"
)

// Selection identifies the upload whose rows the detail store holds.
type Selection struct {
	ClinicID string
	UploadID string
	Filename string
}

// DetailStore holds the measurement rows for the currently selected
// upload. It reuses ListStore for pagination; changing the selection
// synchronously discards the previous rows and cursor before the new
// fetch is issued, so stale rows are never visible, even transiently.
type DetailStore struct {
	rows *ListStore[DetailRow]

	mu  sync.Mutex
	sel *Selection
}

// DetailStoreConfig configures fetching for a DetailStore.
type DetailStoreConfig struct {
	Client *Client
	Limit  int
	Public bool
}

// NewDetailStore builds a detail store over the client's detail
// endpoint.
func NewDetailStore(cfg DetailStoreConfig) *DetailStore {
	d := &DetailStore{}
	d.rows = NewListStore(func(ctx context.Context, startKey string) (Page[DetailRow], error) {
		sel, ok := d.Selection()
		if !ok {
			return Page[DetailRow]{}, nil
		}
		return cfg.Client.UploadDetail(ctx, DetailInput{
			ClinicID: sel.ClinicID,
			UploadID: sel.UploadID,
			Limit:    cfg.Limit,
			StartKey: startKey,
			Public:   cfg.Public,
		})
	}, func(r DetailRow) string { return r.SK })
	return d
}

// Selection returns the current selection, if any.
func (d *DetailStore) Selection() (Selection, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sel == nil {
		return Selection{}, false
	}
	return *d.sel, true
}

// Select switches the store to a new upload. The previous rows and
// cursor are cleared before the reset load goes out; a page still in
// flight for the previous selection is discarded on arrival.
func (d *DetailStore) Select(ctx context.Context, sel Selection) error {
	d.mu.Lock()
	d.sel = &sel
	d.mu.Unlock()
	d.rows.Clear()
	return d.rows.Load(ctx)
}

// ClearSelection drops the selection and all resident rows.
func (d *DetailStore) ClearSelection() {
	d.mu.Lock()
	d.sel = nil
	d.mu.Unlock()
	d.rows.Clear()
}

// Rows returns a copy of the resident rows for the current selection.
func (d *DetailStore) Rows() []DetailRow { return d.rows.Items() }

// HasMore reports whether further row pages exist.
func (d *DetailStore) HasMore() bool { return d.rows.HasMore() }

// LoadMore appends the next page of rows for the current selection.
func (d *DetailStore) LoadMore(ctx context.Context) error { return d.rows.LoadMore(ctx) }
