package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/audithawk/internal/common"
	"github.com/Veraticus/audithawk/internal/ingest"
	"github.com/Veraticus/audithawk/internal/model"
	"github.com/Veraticus/audithawk/internal/rules"
	"github.com/Veraticus/audithawk/internal/service"
)

// ErrNoLiveSession is returned by review operations before any session has
// been analyzed or selected.
var ErrNoLiveSession = errors.New("no live session: analyze a file or select one from history")

// SyntheticFileName labels sessions produced without an input file.
const SyntheticFileName = "synthetic-batch"

// ProgressFunc is told how many records have been evaluated so far.
type ProgressFunc func(done, total int)

// AnalyzeRequest describes one analysis run.
type AnalyzeRequest struct {
	Content   io.Reader
	Progress  ProgressFunc
	FileName  string
	Threshold float64
	Synthetic bool
}

// Options configures a State. Zero values use the wall clock, random UUIDs
// and a time-seeded random source.
type Options struct {
	Now            func() time.Time
	NewID          func() string
	Rand           *rand.Rand
	TrustedVendors []string
}

// State owns the application state the presentation layers act on: the
// trusted vendor set, the live working set under review and the history in
// storage. All methods are safe for concurrent use.
type State struct {
	store    service.Storage
	vendors  *rules.TrustedVendorSet
	live     *model.AuditSession
	rng      *rand.Rand
	now      func() time.Time
	newID    func() string
	selected string
	mu       sync.Mutex
}

// NewState loads the trusted vendors from store and seeds any configured
// names that are not already present.
func NewState(ctx context.Context, store service.Storage, opts Options) (*State, error) {
	if store == nil {
		return nil, errors.New("storage is required")
	}

	s := &State{
		store: store,
		rng:   opts.Rand,
		now:   opts.Now,
		newID: opts.NewID,
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // demo signal only
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	stored, err := store.ListTrustedVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load trusted vendors: %w", err)
	}
	names := make([]string, len(stored))
	for i, v := range stored {
		names[i] = v.Name
	}
	s.vendors = rules.NewTrustedVendorSet(names...)

	for _, name := range opts.TrustedVendors {
		if strings.TrimSpace(name) == "" || s.vendors.Contains(name) {
			continue
		}
		if err := s.addVendor(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to seed trusted vendor %q: %w", name, err)
		}
	}

	return s, nil
}

// Analyze runs ingestion, evaluation and session building, then records the
// session in history and makes a copy of it the live working set. On error
// nothing changes.
func (s *State) Analyze(ctx context.Context, req AnalyzeRequest) (*model.AuditSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !req.Synthetic && (strings.TrimSpace(req.FileName) == "" || req.Content == nil) {
		return nil, ingest.ErrNoFile
	}
	if err := rules.ValidateThreshold(req.Threshold); err != nil {
		return nil, err
	}

	var (
		records  []model.TransactionRecord
		ev       rules.Evaluator
		fileName = req.FileName
		err      error
	)
	if req.Synthetic {
		records = rules.SyntheticBatch(s.rng, rules.SyntheticBatchSize)
		ev, err = rules.NewSyntheticEvaluator(s.vendors, req.Threshold, s.rng)
		if fileName == "" {
			fileName = SyntheticFileName
		}
	} else {
		records, err = ingest.Parse(ctx, req.FileName, req.Content)
		if err == nil {
			ev, err = rules.NewThresholdEvaluator(s.vendors, req.Threshold)
		}
	}
	if err != nil {
		return nil, err
	}

	var onEach func()
	if req.Progress != nil {
		done, total := 0, len(records)
		onEach = func() {
			done++
			req.Progress(done, total)
		}
	}
	evaluated := rules.EvaluateAll(ev, records, onEach)

	session := BuildSession(fileName, evaluated, BuildOptions{
		Now:       s.now,
		NewID:     s.newID,
		Mode:      ev.Mode(),
		Threshold: req.Threshold,
	})

	if err := s.store.SaveSession(ctx, &session); err != nil {
		return nil, fmt.Errorf("failed to record session: %w", err)
	}

	s.live = session.Clone()
	s.selected = ""

	common.LogInfo("Analyzed transactions", common.Fields{
		"file":       session.FileName,
		"mode":       session.Mode,
		"records":    len(session.Transactions),
		"flagged":    len(session.Flagged),
		"risk_score": session.RiskScore,
	})

	return session.Clone(), nil
}

// Live returns a copy of the live working set.
func (s *State) Live() (*model.AuditSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live == nil {
		return nil, ErrNoLiveSession
	}
	return s.live.Clone(), nil
}

// Summary derives the aggregates for the live working set.
func (s *State) Summary() (model.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live == nil {
		return model.Summary{}, ErrNoLiveSession
	}
	return Summarize(*s.live), nil
}

// Selected returns the history id the live set was loaded from, or "" when
// it came from the latest analysis.
func (s *State) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// ClearLive drops the live working set.
func (s *State) ClearLive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = nil
	s.selected = ""
}

// History returns every recorded session, most recent first.
func (s *State) History(ctx context.Context) ([]model.AuditSession, error) {
	return s.store.ListSessions(ctx, 0)
}

// Session returns one recorded session as it was when analyzed.
func (s *State) Session(ctx context.Context, id string) (*model.AuditSession, error) {
	return s.store.GetSession(ctx, id)
}

// SelectSession loads a recorded session as the live working set. Review
// decisions made afterwards apply to the copy, not to history.
func (s *State) SelectSession(ctx context.Context, id string) (*model.AuditSession, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = session
	s.selected = id
	return session.Clone(), nil
}

// Accept marks a live record accepted.
func (s *State) Accept(index int) (*model.AuditSession, error) {
	return s.SetStatus(index, model.StatusAccepted)
}

// Reject marks a live record rejected.
func (s *State) Reject(index int) (*model.AuditSession, error) {
	return s.SetStatus(index, model.StatusRejected)
}

// SetStatus applies any disposition, including a return to pending, to a
// live record.
func (s *State) SetStatus(index int, status model.Status) (*model.AuditSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live == nil {
		return nil, ErrNoLiveSession
	}
	updated, err := ApplyDisposition(*s.live, index, status)
	if err != nil {
		return nil, err
	}
	s.live = &updated

	common.LogDebug("Recorded disposition", common.Fields{"index": index, "status": status})
	return updated.Clone(), nil
}

// Vendors returns the trusted vendor names in insertion order.
func (s *State) Vendors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vendors.Names()
}

// AddVendor trusts a merchant for future analyses. Sessions already
// recorded are not re-evaluated.
func (s *State) AddVendor(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addVendor(ctx, name)
}

func (s *State) addVendor(ctx context.Context, name string) error {
	next := s.vendors.Clone()
	if err := next.Add(name); err != nil {
		return err
	}

	if _, err := s.store.AddTrustedVendor(ctx, strings.TrimSpace(name)); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			return fmt.Errorf("%w: %s", rules.ErrDuplicateVendor, name)
		}
		return fmt.Errorf("failed to store trusted vendor: %w", err)
	}

	s.vendors = next
	return nil
}

// RemoveVendor stops trusting a merchant.
func (s *State) RemoveVendor(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.vendors.Clone()
	if err := next.Remove(name); err != nil {
		return err
	}

	// The store folds case for ASCII only; delete by the spelling it holds.
	stored, _ := s.vendors.Lookup(name)
	if err := s.store.RemoveTrustedVendor(ctx, stored); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: %s", rules.ErrVendorNotFound, name)
		}
		return fmt.Errorf("failed to remove trusted vendor: %w", err)
	}

	s.vendors = next
	return nil
}
