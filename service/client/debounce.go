package client

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/itiky/collaborate-canvas/model"
)

// DefaultDebounceDelay is the mentions search quiet period.
const DefaultDebounceDelay = 500 * time.Millisecond

type (
	// Debouncer delays a call until no new call was made for the delay period.
	Debouncer struct {
		sync.Mutex
		delay time.Duration
		timer *time.Timer
	}

	// UserSearcher searches mentionable users.
	UserSearcher interface {
		SearchUsers(ctx context.Context, query string, limit int) ([]model.User, error)
	}

	// MentionSearch runs debounced user searches while a mention query is typed.
	// Results of outdated queries are never delivered.
	MentionSearch struct {
		sync.Mutex
		debouncer *Debouncer
		searcher  UserSearcher
		limit     int
		timeout   time.Duration
		onResult  func(query string, users []model.User, err error)
		seq       uint64
	}
)

// Call schedules fn, cancelling the previously scheduled one.
func (d *Debouncer) Call(fn func()) {
	d.Lock()
	defer d.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels the scheduled call.
func (d *Debouncer) Stop() {
	d.Lock()
	defer d.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Query schedules a search for the query.
// An empty query cancels the pending search.
func (m *MentionSearch) Query(query string) {
	m.Lock()
	m.seq++
	seq := m.seq
	m.Unlock()

	if query == "" {
		m.debouncer.Stop()
		return
	}

	m.debouncer.Call(func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		users, err := m.searcher.SearchUsers(ctx, query, m.limit)
		if err != nil {
			log.Printf("MentionSearch: %q: %v", query, err)
		}

		m.Lock()
		outdated := seq != m.seq
		m.Unlock()
		if outdated {
			return
		}

		m.onResult(query, users, err)
	})
}

// Stop cancels the pending search.
func (m *MentionSearch) Stop() {
	m.Lock()
	m.seq++
	m.Unlock()

	m.debouncer.Stop()
}

// NewDebouncer creates a new Debouncer object.
func NewDebouncer(delay time.Duration) (*Debouncer, error) {
	if delay <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "delay")
	}

	return &Debouncer{delay: delay}, nil
}

// NewMentionSearch creates a new MentionSearch object.
func NewMentionSearch(searcher UserSearcher, delay time.Duration, limit int, onResult func(query string, users []model.User, err error)) (*MentionSearch, error) {
	if searcher == nil {
		return nil, fmt.Errorf("%s: nil", "searcher")
	}
	if onResult == nil {
		return nil, fmt.Errorf("%s: nil", "onResult")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "limit")
	}

	debouncer, err := NewDebouncer(delay)
	if err != nil {
		return nil, err
	}

	return &MentionSearch{
		debouncer: debouncer,
		searcher:  searcher,
		limit:     limit,
		timeout:   5 * time.Second,
		onResult:  onResult,
	}, nil
}
