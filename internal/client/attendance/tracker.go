package attendance

import (
	"context"
	"sync"
	"time"

	"the-work-standard/internal/client/session"
	"the-work-standard/internal/shared/result"

	"go.uber.org/zap"
)

const (
	defaultNotesDebounce = 800 * time.Millisecond
	notesSaveTimeout     = 10 * time.Second
)

// Snapshot is the tracker state for the active user.
type Snapshot struct {
	UserID   string
	State    State
	Record   *Record
	Notes    string
	InFlight bool
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger.Named("attendance")
		}
	}
}

func WithNotesDebounce(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.debounce = d
		}
	}
}

// SessionSource is what Bind follows to learn the active user.
type SessionSource interface {
	View() session.View
	Observe(fn session.Observer) session.Subscription
}

// Tracker owns today's attendance state for one user at a time. Check-in and
// check-out are serialised: a second call while one is outstanding fails with
// in_flight. Results that arrive after the active user changed are dropped.
type Tracker struct {
	store    Store
	now      func() time.Time
	logger   *zap.Logger
	debounce time.Duration

	mu       sync.Mutex
	userID   string
	gen      uint64
	record   *Record
	notes    string
	inFlight bool

	pendingNotes *string
	notesTimer   *time.Timer

	observers session.Broadcaster[Snapshot]
}

func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:    store,
		now:      time.Now,
		logger:   zap.L().Named("attendance"),
		debounce: defaultNotesDebounce,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Observe(fn func(Snapshot)) session.Subscription {
	return t.observers.Add(fn)
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	s := Snapshot{
		UserID:   t.userID,
		State:    StateOf(t.record),
		Notes:    t.notes,
		InFlight: t.inFlight,
	}
	if t.record != nil {
		s.Record = copyRecord(t.record)
	}
	return s
}

// Display computes the live values from the record and the clock.
func (t *Tracker) Display() Display {
	t.mu.Lock()
	rec := t.record
	t.mu.Unlock()
	if rec == nil {
		return Display{}
	}
	return Compute(rec.CheckInTime, rec.CheckOutTime, t.now())
}

func (t *Tracker) publish() {
	t.observers.Publish(t.Snapshot())
}

// Reset drops everything held for the previous user, including unsaved
// notes, and makes userID the active user.
func (t *Tracker) Reset(userID string) {
	t.mu.Lock()
	if t.pendingNotes != nil && t.userID != "" {
		t.logger.Debug("discard unsaved notes", zap.String("user_id", t.userID))
	}
	t.gen++
	t.userID = userID
	t.record = nil
	t.notes = ""
	t.inFlight = false
	t.dropPendingNotesLocked()
	t.mu.Unlock()
	t.publish()
}

// Clear signs the tracker out.
func (t *Tracker) Clear() {
	t.Reset("")
}

// SetUser resets for userID and then loads its status.
func (t *Tracker) SetUser(ctx context.Context, userID string) result.Result {
	t.Reset(userID)
	if userID == "" {
		return result.Success("")
	}
	return t.FetchTodayStatus(ctx)
}

// Bind follows src: every change of active identity resets the tracker
// before the new user's status is fetched.
func (t *Tracker) Bind(ctx context.Context, src SessionSource) session.Subscription {
	follow := func(v session.View) {
		if v.UserID() == t.activeUser() {
			return
		}
		if res := t.SetUser(ctx, v.UserID()); !res.OK() {
			t.logger.Warn("load attendance for new user failed",
				zap.String("user_id", v.UserID()),
				zap.String("reason", string(res.Reason)),
			)
		}
	}
	sub := src.Observe(follow)
	follow(src.View())
	return sub
}

func (t *Tracker) activeUser() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.userID
}

// FetchTodayStatus loads today's record. No record is the NotCheckedIn
// state, not an error.
func (t *Tracker) FetchTodayStatus(ctx context.Context) result.Result {
	t.mu.Lock()
	userID, gen := t.userID, t.gen
	t.mu.Unlock()
	if userID == "" {
		return result.Fail(result.ReasonUnauthenticated, "")
	}

	rec, err := t.store.GetToday(ctx, userID)
	if err != nil {
		t.logger.Warn("fetch today failed", zap.String("user_id", userID), zap.Error(err))
		return result.FromError(err)
	}

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return result.Success("")
	}
	t.record = nil
	if rec != nil {
		t.record = copyRecord(rec)
	}
	if t.pendingNotes == nil {
		t.notes = ""
		if rec != nil {
			t.notes = rec.Notes
		}
	}
	t.mu.Unlock()
	t.publish()
	return result.Success("")
}

func (t *Tracker) CheckIn(ctx context.Context) result.Result {
	return t.mutate(ctx, "check in", t.store.CheckIn)
}

func (t *Tracker) CheckOut(ctx context.Context) result.Result {
	return t.mutate(ctx, "check out", t.store.CheckOut)
}

func (t *Tracker) mutate(ctx context.Context, op string, call func(context.Context, string) result.Result) result.Result {
	t.mu.Lock()
	if t.userID == "" {
		t.mu.Unlock()
		return result.Fail(result.ReasonUnauthenticated, "")
	}
	if t.inFlight {
		t.mu.Unlock()
		return result.Fail(result.ReasonInFlight, "")
	}
	t.inFlight = true
	userID, gen := t.userID, t.gen
	t.mu.Unlock()
	t.publish()

	res := call(ctx, userID)

	t.mu.Lock()
	current := gen == t.gen
	if current {
		t.inFlight = false
	}
	t.mu.Unlock()
	if !current {
		return res
	}
	t.publish()

	if !res.OK() {
		t.logger.Info(op+" rejected", zap.String("user_id", userID), zap.String("reason", string(res.Reason)))
		return res
	}
	// status and duration come from the store
	if refreshed := t.FetchTodayStatus(ctx); !refreshed.OK() {
		t.logger.Warn("reload after "+op+" failed", zap.String("reason", string(refreshed.Reason)))
	}
	return res
}

// UpdateNotes saves text now. It fails with no_record_for_notes before the
// day's check-in.
func (t *Tracker) UpdateNotes(ctx context.Context, text string) result.Result {
	t.mu.Lock()
	userID, gen := t.userID, t.gen
	t.mu.Unlock()
	return t.saveNotes(ctx, userID, gen, text)
}

func (t *Tracker) saveNotes(ctx context.Context, userID string, gen uint64, text string) result.Result {
	if userID == "" {
		return result.Fail(result.ReasonUnauthenticated, "")
	}

	res := t.store.SetNotes(ctx, userID, text)
	if !res.OK() {
		t.logger.Info("save notes rejected", zap.String("user_id", userID), zap.String("reason", string(res.Reason)))
		return res
	}

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return res
	}
	if t.pendingNotes == nil {
		t.notes = text
	}
	if t.record != nil {
		t.record.Notes = text
	}
	t.mu.Unlock()
	t.publish()
	return res
}

// EditNotes records text locally and saves it once edits stop for the
// debounce period.
func (t *Tracker) EditNotes(text string) {
	t.mu.Lock()
	if t.userID == "" {
		t.mu.Unlock()
		return
	}
	t.notes = text
	t.pendingNotes = &text
	t.stopNotesTimerLocked()
	gen := t.gen
	t.notesTimer = time.AfterFunc(t.debounce, func() { t.flushPending(gen) })
	t.mu.Unlock()
	t.publish()
}

// FlushNotes saves pending edits immediately.
func (t *Tracker) FlushNotes(ctx context.Context) result.Result {
	t.mu.Lock()
	t.stopNotesTimerLocked()
	userID, gen, text, ok := t.takePendingLocked()
	t.mu.Unlock()
	if !ok {
		return result.Success("")
	}

	res := t.saveNotes(ctx, userID, gen, text)
	if !res.OK() {
		t.restorePending(gen, text)
	}
	return res
}

func (t *Tracker) flushPending(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.notesTimer = nil
	userID, _, text, ok := t.takePendingLocked()
	t.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notesSaveTimeout)
	defer cancel()
	if res := t.saveNotes(ctx, userID, gen, text); !res.OK() {
		t.restorePending(gen, text)
	}
}

func (t *Tracker) takePendingLocked() (string, uint64, string, bool) {
	if t.pendingNotes == nil {
		return "", 0, "", false
	}
	text := *t.pendingNotes
	t.pendingNotes = nil
	return t.userID, t.gen, text, true
}

// restorePending keeps a failed save for the next flush unless newer edits
// arrived meanwhile.
func (t *Tracker) restorePending(gen uint64, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen == t.gen && t.pendingNotes == nil {
		t.pendingNotes = &text
	}
}

func (t *Tracker) stopNotesTimerLocked() {
	if t.notesTimer != nil {
		t.notesTimer.Stop()
		t.notesTimer = nil
	}
}

func (t *Tracker) dropPendingNotesLocked() {
	t.stopNotesTimerLocked()
	t.pendingNotes = nil
}

// DefaultTickInterval replaces a non-positive RunTicker interval.
const DefaultTickInterval = time.Second

// RunTicker calls fn with fresh display values every interval until ctx is
// done. It never touches the store.
func (t *Tracker) RunTicker(ctx context.Context, interval time.Duration, fn func(Snapshot, Display)) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(t.Snapshot(), t.Display())
		}
	}
}

func copyRecord(r *Record) *Record {
	cp := *r
	if r.CheckInTime != nil {
		v := *r.CheckInTime
		cp.CheckInTime = &v
	}
	if r.CheckOutTime != nil {
		v := *r.CheckOutTime
		cp.CheckOutTime = &v
	}
	if r.WorkDuration != nil {
		v := *r.WorkDuration
		cp.WorkDuration = &v
	}
	return &cp
}
