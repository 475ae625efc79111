package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rskariadi-dev/manrura/internal/domain"
)

var (
	ErrUnknownPoint   = errors.New("unknown checklist point")
	ErrUnknownWard    = errors.New("unknown ward")
	ErrWardName       = errors.New("ward name is required")
	ErrUserFields     = errors.New("name, email and password are required")
	ErrDuplicateEmail = errors.New("a user with this email already exists")
)

// UploadError is an evidence transfer failure. It only concerns the field it names.
type UploadError struct {
	Field string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload for %s failed: %v", e.Field, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Remote is the data API the engine reconciles with.
type Remote interface {
	GetAllData(ctx context.Context) (*domain.Snapshot, error)
	AddUser(ctx context.Context, user domain.User) (*domain.User, error)
	AddWard(ctx context.Context, ward domain.Ward) (*domain.Ward, error)
	AddAssessmentPeriod(ctx context.Context, period domain.AssessmentPeriod) (*domain.AssessmentPeriod, error)
	UpdateAssessment(ctx context.Context, wardID, pointID string, slot domain.ScoreSlot, update domain.ScoreUpdate) error
	UploadFile(ctx context.Context, fileName, mimeType string, content []byte) (*domain.Evidence, error)
}

// Actor yields the signed-in user, if any.
type Actor interface {
	CurrentUser() (*domain.User, bool)
}

// PointCatalog is the part of the checklist the engine needs.
type PointCatalog interface {
	HasPoint(id string) bool
	PointIDs() []string
}

// strategy selects how a local mutation relates to the remote call that follows it.
type strategy int

const (
	// mutateThenConfirm keeps the local change whatever the remote outcome (score edits).
	mutateThenConfirm strategy = iota
	// mutateThenCommitOrRevert undoes the local change when the remote call fails (entity
	// creation), so no client-only records are left behind.
	mutateThenCommitOrRevert
)

type operation struct {
	name     string
	strategy strategy
	mutate   func()
	revert   func()
	call     func(ctx context.Context) error
}

// Pending tracks one in-flight remote call.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) finish(err error) {
	p.err = err
	close(p.done)
}

func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the remote call has finished and returns its error.
func (p *Pending) Wait() error {
	<-p.done
	return p.err
}

// Engine applies user actions to the local store and reconciles them with the remote API.
type Engine struct {
	store  *Store
	remote Remote
	actor  Actor
	points PointCatalog
	status *StatusBoard
	clock  func() time.Time
	newID  func() string
	logger *slog.Logger

	inflight sync.WaitGroup

	mu   sync.Mutex
	busy map[string]bool
}

type Option func(*Engine)

func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func WithStatusBoard(b *StatusBoard) Option {
	return func(e *Engine) {
		if b != nil {
			e.status = b
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

func NewEngine(store *Store, remote Remote, actor Actor, points PointCatalog, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		remote: remote,
		actor:  actor,
		points: points,
		status: NewStatusBoard(),
		clock:  time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
		busy:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Store() *Store {
	return e.store
}

func (e *Engine) Status() *StatusBoard {
	return e.status
}

// Capabilities resolves the signed-in user's role once for the views.
func (e *Engine) Capabilities() Capabilities {
	user, _ := e.actor.CurrentUser()
	return CapabilitiesFor(user)
}

func (e *Engine) ActivePeriod() (domain.AssessmentPeriod, bool) {
	return ActivePeriod(e.store.Periods(), e.clock())
}

// Refresh replaces local state with a fresh fetch-all.
func (e *Engine) Refresh(ctx context.Context) error {
	snap, err := e.remote.GetAllData(ctx)
	if err != nil {
		return err
	}
	e.store.Load(*snap)
	return nil
}

// CheckWrite runs the policy for a score write without performing it. Views use it to decide
// whether to offer an edit affordance.
func (e *Engine) CheckWrite(wardID, pointID string, slot domain.ScoreSlot) (*domain.User, error) {
	user, _ := e.actor.CurrentUser()
	active := IsActive(e.store.Periods(), e.clock())
	assessor := e.store.Point(wardID, pointID).Assessor
	if err := Authorize(user, wardID, slot, active, assessor); err != nil {
		return nil, err
	}
	return user, nil
}

// ApplyUpdate merges update into the local score right away and saves it remotely in the
// background. Policy refusals are returned before anything is mutated or sent.
func (e *Engine) ApplyUpdate(ctx context.Context, wardID, pointID string, slot domain.ScoreSlot, update domain.ScoreUpdate) (*Pending, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	if !e.points.HasPoint(pointID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPoint, pointID)
	}

	user, err := e.CheckWrite(wardID, pointID, slot)
	if err != nil {
		return nil, err
	}

	update.AssessorID = ""
	if slot == domain.SlotAssessor {
		update.AssessorID = user.ID
	}

	return e.dispatch(ctx, operation{
		name:     "updateAssessment",
		strategy: mutateThenConfirm,
		mutate: func() {
			e.store.Merge(wardID, pointID, slot, update)
		},
		call: func(ctx context.Context) error {
			return e.remote.UpdateAssessment(ctx, wardID, pointID, slot, update)
		},
	}), nil
}

func (e *Engine) ClearEvidence(ctx context.Context, wardID, pointID string, slot domain.ScoreSlot) (*Pending, error) {
	return e.ApplyUpdate(ctx, wardID, pointID, slot, domain.ScoreUpdate{ClearEvidence: true})
}

func fieldKey(wardID, pointID string, slot domain.ScoreSlot) string {
	return wardID + "/" + pointID + "/" + string(slot)
}

// Uploading reports whether an evidence upload is running for the field.
func (e *Engine) Uploading(wardID, pointID string, slot domain.ScoreSlot) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy[fieldKey(wardID, pointID, slot)]
}

func (e *Engine) setBusy(key string, v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v {
		e.busy[key] = true
		return
	}
	delete(e.busy, key)
}

// UploadEvidence transfers the file first and attaches the returned reference once the
// upload has completed. Upload failures leave every field untouched.
func (e *Engine) UploadEvidence(ctx context.Context, wardID, pointID string, slot domain.ScoreSlot, fileName, mimeType string, content []byte) (*Pending, error) {
	if !e.points.HasPoint(pointID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPoint, pointID)
	}
	if _, err := e.CheckWrite(wardID, pointID, slot); err != nil {
		return nil, err
	}

	key := fieldKey(wardID, pointID, slot)
	e.setBusy(key, true)
	evidence, err := e.remote.UploadFile(ctx, fileName, mimeType, content)
	e.setBusy(key, false)
	if err != nil {
		e.logger.Error("evidence upload failed", "field", key, "error", err)
		return nil, &UploadError{Field: key, Err: err}
	}

	return e.ApplyUpdate(ctx, wardID, pointID, slot, domain.ScoreUpdate{Evidence: evidence})
}

// AddWard creates the ward locally and remotely; the local ward is removed again if the
// remote call fails.
func (e *Engine) AddWard(ctx context.Context, name string) (domain.Ward, *Pending, error) {
	user, _ := e.actor.CurrentUser()
	if err := AuthorizeManage(user); err != nil {
		return domain.Ward{}, nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Ward{}, nil, ErrWardName
	}

	ward := domain.Ward{ID: "ward-" + e.newID(), Name: name}
	p := e.dispatch(ctx, operation{
		name:     "addWard",
		strategy: mutateThenCommitOrRevert,
		mutate:   func() { e.store.AddWard(ward) },
		revert:   func() { e.store.RemoveWard(ward.ID) },
		call: func(ctx context.Context) error {
			_, err := e.remote.AddWard(ctx, ward)
			return err
		},
	})
	return ward, p, nil
}

// AddUser creates the account locally (without its password) and remotely, rolling back on
// failure like AddWard.
func (e *Engine) AddUser(ctx context.Context, user domain.User) (domain.User, *Pending, error) {
	actor, _ := e.actor.CurrentUser()
	if err := AuthorizeManage(actor); err != nil {
		return domain.User{}, nil, err
	}

	user.Name = strings.TrimSpace(user.Name)
	user.Email = strings.TrimSpace(user.Email)
	user.Password = strings.TrimSpace(user.Password)
	if user.Name == "" || user.Email == "" || user.Password == "" {
		return domain.User{}, nil, ErrUserFields
	}
	if user.Role != domain.RoleWardStaff {
		user.WardID = ""
	}
	if err := user.Validate(); err != nil {
		return domain.User{}, nil, err
	}
	if user.WardID != "" {
		if _, ok := e.store.Ward(user.WardID); !ok {
			return domain.User{}, nil, fmt.Errorf("%w: %s", ErrUnknownWard, user.WardID)
		}
	}
	for _, u := range e.store.Users() {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.User{}, nil, ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = "user-" + e.newID()
	}

	p := e.dispatch(ctx, operation{
		name:     "addUser",
		strategy: mutateThenCommitOrRevert,
		mutate:   func() { e.store.AddUser(user) },
		revert:   func() { e.store.RemoveUser(user.ID) },
		call: func(ctx context.Context) error {
			_, err := e.remote.AddUser(ctx, user)
			return err
		},
	})
	return user.Sanitized(), p, nil
}

// AddPeriod only touches local state after the server has stored the period and assigned
// its id. Overlapping periods are refused up front.
func (e *Engine) AddPeriod(ctx context.Context, name string, start, end time.Time) (domain.AssessmentPeriod, error) {
	user, _ := e.actor.CurrentUser()
	if err := AuthorizeManage(user); err != nil {
		return domain.AssessmentPeriod{}, err
	}

	candidate := domain.AssessmentPeriod{Name: strings.TrimSpace(name), StartDate: start, EndDate: end}
	if err := ValidatePeriod(candidate, e.store.Periods()); err != nil {
		return domain.AssessmentPeriod{}, err
	}

	created, err := e.remote.AddAssessmentPeriod(ctx, candidate)
	if err != nil {
		e.logger.Error("failed to add assessment period", "name", candidate.Name, "error", err)
		return domain.AssessmentPeriod{}, err
	}
	e.store.AddPeriod(*created)
	return *created, nil
}

// Summary aggregates every ward the signed-in user can see.
func (e *Engine) Summary() []WardSummary {
	caps := e.Capabilities()
	wards := make([]domain.Ward, 0)
	for _, w := range e.store.Wards() {
		if caps.CanView(w.ID) {
			wards = append(wards, w)
		}
	}
	return Summarize(e.points.PointIDs(), wards, e.store.All())
}

// Wait blocks until every background save has finished.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) dispatch(ctx context.Context, op operation) *Pending {
	op.mutate()
	e.status.Saving()

	// in-flight requests are not cancelled, they run to completion or failure
	ctx = context.WithoutCancel(ctx)

	p := newPending()
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()

		err := op.call(ctx)
		if err != nil {
			if op.strategy == mutateThenCommitOrRevert && op.revert != nil {
				op.revert()
			}
			e.logger.Error("remote call failed", "operation", op.name, "error", err)
			e.status.Failed(err.Error())
		} else {
			e.status.Saved()
		}
		p.finish(err)
	}()
	return p
}
