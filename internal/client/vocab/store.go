package vocab

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Persister writes the whole list to durable storage.
type Persister interface {
	SaveWords(records []Record) error
}

// Syncer mirrors mutations to the remote service. Every method is
// best-effort: a nil or false result means "not synced" and is ignored.
type Syncer interface {
	// Connected reports whether an auth token is available.
	Connected() bool
	Create(ctx context.Context, rec Record) *Record
	Patch(ctx context.Context, remoteID string, update map[string]any) *Record
	Delete(ctx context.Context, remoteID string) bool
}

// Store is the single in-memory source of truth for the deck. It keeps
// the full list in insertion order (newest first), a filtered view of
// record ids, and a cursor into that view.
//
// Local persistence happens synchronously inside every mutation, before
// any remote call for the same mutation is dispatched.
type Store struct {
	mu      sync.Mutex
	records []Record
	view    []string
	cursor  int
	status  string
	query   string
	flipped bool

	persist Persister
	syncer  Syncer
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now   func() time.Time
	newID func() string
}

// NewStore creates an empty store. syncer may be nil when the client runs
// offline; log may be nil.
func NewStore(persist Persister, syncer Syncer, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		status:  FilterAll,
		persist: persist,
		syncer:  syncer,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Load seeds the store with records read from local storage. It does not
// persist.
func (s *Store) Load(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = normalizeAll(records)
	s.refilter()
}

// ApplyFilter recomputes the view for the given status ("all", "new",
// "learning", "known") and search text. The cursor is kept when it is
// still in range and reset to 0 otherwise.
func (s *Store) ApplyFilter(status, search string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == "" {
		status = FilterAll
	}
	s.status = status
	s.query = strings.ToLower(strings.TrimSpace(search))
	s.refilter()
}

// Filter returns the active status filter and search text.
func (s *Store) Filter() (status, search string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.query
}

func (s *Store) refilter() {
	view := make([]string, 0, len(s.records))
	for _, r := range s.records {
		if r.Matches(s.status, s.query) {
			view = append(view, r.ID)
		}
	}
	s.view = view
	s.flipped = false
	if s.cursor >= len(s.view) {
		s.cursor = 0
	}
}

// Advance moves the cursor by direction, wrapping at both ends. It is a
// no-op on an empty view.
func (s *Store) Advance(direction int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.view)
	if n == 0 {
		return
	}
	s.cursor = ((s.cursor+direction)%n + n) % n
	s.flipped = false
}

// Next moves to the following card.
func (s *Store) Next() { s.Advance(1) }

// Prev moves to the previous card.
func (s *Store) Prev() { s.Advance(-1) }

// Shuffle permutes the filtered view uniformly and resets the cursor.
// The underlying list keeps its order.
func (s *Store) Shuffle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	rand.Shuffle(len(s.view), func(i, j int) {
		s.view[i], s.view[j] = s.view[j], s.view[i]
	})
	s.cursor = 0
	s.flipped = false
}

// Flip toggles which face of the current card is shown.
func (s *Store) Flip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flipped = !s.flipped
	return s.flipped
}

// Flipped reports whether the back face is shown.
func (s *Store) Flipped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flipped
}

// Current returns the record under the cursor.
func (s *Store) Current() (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

func (s *Store) current() (Record, bool) {
	if len(s.view) == 0 {
		return Record{}, false
	}
	i := s.indexOf(s.view[s.cursor])
	if i < 0 {
		return Record{}, false
	}
	return s.records[i], true
}

// Position returns the cursor and the size of the view.
func (s *Store) Position() (index, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, len(s.view)
}

// View returns a copy of the filtered records in view order.
func (s *Store) View() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.view))
	for _, id := range s.view {
		if i := s.indexOf(id); i >= 0 {
			out = append(out, s.records[i])
		}
	}
	return out
}

// All returns a copy of the full list.
func (s *Store) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

// Len returns the size of the full list.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// First returns the newest record, the one the daily reminder mentions.
func (s *Store) First() (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return Record{}, false
	}
	return s.records[0], true
}

// Get looks a record up by local id.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.records[i], true
	}
	return Record{}, false
}

// ToggleKnown flips the current record between known and learning.
func (s *Store) ToggleKnown() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.current()
	if !ok {
		return Record{}, nil
	}
	i := s.indexOf(cur.ID)
	next := StatusKnown
	if s.records[i].Status == StatusKnown {
		next = StatusLearning
	}
	s.records[i].Status = next
	rec := s.records[i]

	if err := s.save(); err != nil {
		return rec, err
	}
	if rec.RemoteID != "" {
		s.goSync(func(ctx context.Context) {
			if s.syncer.Patch(ctx, rec.RemoteID, map[string]any{"status": next}) == nil {
				s.log.Debug("status not synced", zap.String("id", rec.ID))
			}
		})
	}
	s.refilter()
	return rec, nil
}

// DeleteCurrent removes the current record from the list.
func (s *Store) DeleteCurrent() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.current()
	if !ok {
		return Record{}, nil
	}
	i := s.indexOf(cur.ID)
	s.records = append(s.records[:i], s.records[i+1:]...)

	if err := s.save(); err != nil {
		s.refilter()
		return cur, err
	}
	if cur.RemoteID != "" {
		s.goSync(func(ctx context.Context) {
			if !s.syncer.Delete(ctx, cur.RemoteID) {
				s.log.Debug("delete not synced", zap.String("id", cur.ID))
			}
		})
	}
	s.refilter()
	return cur, nil
}

// AddRecord inserts partial at the front of the list with a fresh id,
// status "new" and, when unset, a creation time of now. When the remote
// create succeeds the server id is attached and the list saved again.
func (s *Store) AddRecord(partial Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := partial
	rec.ID = s.newID()
	rec.RemoteID = ""
	rec.Status = StatusNew
	if rec.CreatedAt == 0 {
		rec.CreatedAt = s.now().UnixMilli()
	}
	s.records = append([]Record{rec}, s.records...)

	if err := s.save(); err != nil {
		s.refilter()
		return rec, err
	}
	s.goSync(func(ctx context.Context) {
		doc := s.syncer.Create(ctx, rec)
		if doc == nil || doc.RemoteID == "" {
			s.log.Debug("create not synced", zap.String("id", rec.ID))
			return
		}
		s.attachRemoteID(rec.ID, doc.RemoteID)
	})
	s.refilter()
	return rec, nil
}

func (s *Store) attachRemoteID(id, remoteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.records[i].RemoteID = remoteID
	if err := s.save(); err != nil {
		s.log.Warn("save after remote create", zap.Error(err))
	}
}

// MergeEnrichment fills the empty enrichment fields of the record with
// this id. It returns the merged record and false when the id is gone.
func (s *Store) MergeEnrichment(id string, info Enrichment) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Record{}, false, nil
	}
	s.records[i] = s.records[i].Merge(info)
	return s.records[i], true, s.save()
}

// ReplaceAll swaps the whole list, typically after a full remote fetch.
func (s *Store) ReplaceAll(records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = normalizeAll(records)
	s.refilter()
	return s.save()
}

// Wait blocks until every in-flight remote call has returned.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight remote calls and waits for them.
func (s *Store) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Store) save() error {
	if err := s.persist.SaveWords(append([]Record(nil), s.records...)); err != nil {
		s.log.Error("failed to persist words", zap.Error(err))
		return err
	}
	return nil
}

// goSync runs fn on its own goroutine when a syncer is connected. The
// caller must hold s.mu; fn must not assume it does.
func (s *Store) goSync(fn func(ctx context.Context)) {
	if s.syncer == nil || !s.syncer.Connected() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

func (s *Store) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func normalizeAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		r.Status = r.Status.Normalize()
		out[i] = r
	}
	return out
}
