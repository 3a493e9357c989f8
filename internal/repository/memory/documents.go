// Package memory contains an in-process DocumentStore used for development
// runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/and161185/framez/internal/errs"
	"github.com/and161185/framez/internal/repository"
	"github.com/gofrs/uuid/v5"
)

type record struct {
	doc repository.Document
	seq uint64 // insertion order, breaks createdAt ties
}

// DocumentStore implements repository.DocumentStore in memory.
type DocumentStore struct {
	mu   sync.RWMutex
	cols map[string]map[string]*record
	seq  uint64
	now  func() time.Time
}

var _ repository.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore constructs an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{cols: map[string]map[string]*record{}, now: time.Now}
}

// WithClock replaces the timestamp source (tests).
func (s *DocumentStore) WithClock(now func() time.Time) *DocumentStore {
	s.now = now
	return s
}

// Get returns a copy of the stored document.
func (s *DocumentStore) Get(_ context.Context, collection, id string) (*repository.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.cols[collection][id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	d := clone(rec.doc)
	return &d, nil
}

// Set creates or replaces a document; the original createdAt is kept on replace.
func (s *DocumentStore) Set(_ context.Context, collection, id string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.col(collection)
	if rec, ok := col[id]; ok {
		rec.doc.Data = cloneData(data)
		return nil
	}
	s.insert(col, id, data, s.stamp())
	return nil
}

// Add stores a document under a fresh UUID.
func (s *DocumentStore) Add(_ context.Context, collection string, data map[string]any) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(s.col(collection), id.String(), data, s.stamp())
	return id.String(), nil
}

// Seed inserts a document as-is, including a nil CreatedAt (imports, tests).
func (s *DocumentStore) Seed(collection string, doc repository.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(s.col(collection), doc.ID, doc.Data, doc.CreatedAt)
}

// Query filters by string equality and sorts; documents without the order
// field sort last in either direction.
func (s *DocumentStore) Query(_ context.Context, collection string, filters []repository.Filter, order repository.Order) ([]repository.Document, error) {
	s.mu.RLock()
	recs := make([]*record, 0, len(s.cols[collection]))
	for _, rec := range s.cols[collection] {
		if matches(rec.doc, filters) {
			recs = append(recs, rec)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(recs, func(i, j int) bool { return less(recs[i], recs[j], order) })

	out := make([]repository.Document, 0, len(recs))
	for _, rec := range recs {
		out = append(out, clone(rec.doc))
	}
	return out, nil
}

func (s *DocumentStore) col(name string) map[string]*record {
	c, ok := s.cols[name]
	if !ok {
		c = map[string]*record{}
		s.cols[name] = c
	}
	return c
}

func (s *DocumentStore) stamp() *time.Time {
	t := s.now().UTC()
	return &t
}

func (s *DocumentStore) insert(col map[string]*record, id string, data map[string]any, created *time.Time) {
	s.seq++
	col[id] = &record{
		doc: repository.Document{ID: id, Data: cloneData(data), CreatedAt: created},
		seq: s.seq,
	}
}

func matches(doc repository.Document, filters []repository.Filter) bool {
	for _, f := range filters {
		v, ok := doc.Data[f.Field].(string)
		if !ok || v != f.Value {
			return false
		}
	}
	return true
}

func less(a, b *record, order repository.Order) bool {
	if order.Field == "" {
		return a.seq < b.seq
	}
	if order.Field == repository.FieldCreatedAt {
		ta, tb := a.doc.CreatedAt, b.doc.CreatedAt
		switch {
		case ta == nil && tb == nil:
			return a.seq < b.seq
		case ta == nil:
			return false
		case tb == nil:
			return true
		case ta.Equal(*tb):
			if order.Desc {
				return a.seq > b.seq
			}
			return a.seq < b.seq
		case order.Desc:
			return ta.After(*tb)
		default:
			return ta.Before(*tb)
		}
	}
	va, oka := a.doc.Data[order.Field].(string)
	vb, okb := b.doc.Data[order.Field].(string)
	switch {
	case !oka && !okb:
		return a.seq < b.seq
	case !oka:
		return false
	case !okb:
		return true
	case va == vb:
		return a.seq < b.seq
	case order.Desc:
		return va > vb
	default:
		return va < vb
	}
}

func clone(d repository.Document) repository.Document {
	out := repository.Document{ID: d.ID, Data: cloneData(d.Data)}
	if d.CreatedAt != nil {
		t := *d.CreatedAt
		out.CreatedAt = &t
	}
	return out
}

func cloneData(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
