package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mobilekit/core/logger"
	"github.com/dmitrymomot/mobilekit/pkg/async"
	"github.com/dmitrymomot/mobilekit/pkg/ratelimiter"
)

// Default attempt policies for credential-submitting operations. Sign-up is
// stricter than sign-in.
var (
	DefaultSignInPolicy = ratelimiter.Policy{
		MaxAttempts:   5,
		Window:        15 * time.Minute,
		BlockDuration: 30 * time.Minute,
		MinDelay:      time.Second,
	}

	DefaultSignUpPolicy = ratelimiter.Policy{
		MaxAttempts:   3,
		Window:        time.Hour,
		BlockDuration: 2 * time.Hour,
		MinDelay:      2 * time.Second,
	}
)

// groupChangeBuffer bounds the group-change stream; a slow consumer drops
// intermediate values rather than blocking the controller.
const groupChangeBuffer = 8

// Controller governs the client-side session lifecycle: acquisition,
// post-auth hydration, external auth-event handling, and foreground
// resynchronization. It exposes a {Session, IsLoading} contract to the UI.
type Controller struct {
	backend  AuthBackend
	hydrator Hydrator
	notifier AppStateNotifier

	limiter      *ratelimiter.Limiter
	signInPolicy ratelimiter.Policy
	signUpPolicy ratelimiter.Policy

	cfg   Config
	log   *slog.Logger
	clock func() time.Time

	debounce *async.Debouncer

	mu           sync.Mutex
	state        lifecycleState
	session      Session
	group        uuid.UUID
	groupChecked bool
	groupEpoch   uint64
	started      bool
	runCtx       context.Context
	safety       *time.Timer
	fgSafety     *time.Timer

	groupCh chan uuid.UUID
}

// Option configures a Controller.
type Option func(*Controller)

// WithConfig overrides the default timing configuration.
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		c.cfg = cfg.withDefaults()
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRateLimiter guards sign-in and sign-up with the given limiter.
// Without one, credential operations are not rate-limited.
func WithRateLimiter(l *ratelimiter.Limiter) Option {
	return func(c *Controller) {
		c.limiter = l
	}
}

// WithSignInPolicy overrides the sign-in attempt policy.
func WithSignInPolicy(p ratelimiter.Policy) Option {
	return func(c *Controller) {
		c.signInPolicy = p
	}
}

// WithSignUpPolicy overrides the sign-up attempt policy.
func WithSignUpPolicy(p ratelimiter.Policy) Option {
	return func(c *Controller) {
		c.signUpPolicy = p
	}
}

// WithAppStateNotifier wires OS foreground/background transitions into Start.
func WithAppStateNotifier(n AppStateNotifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithClock injects a time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.clock = now
		}
	}
}

// New creates a Controller for the given collaborators.
func New(backend AuthBackend, hydrator Hydrator, opts ...Option) *Controller {
	c := &Controller{
		backend:      backend,
		hydrator:     hydrator,
		signInPolicy: DefaultSignInPolicy,
		signUpPolicy: DefaultSignUpPolicy,
		cfg:          DefaultConfig(),
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:        time.Now,
		groupCh:      make(chan uuid.UUID, groupChangeBuffer),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.debounce = async.NewDebouncer(c.cfg.AuthChangeDebounce)

	return c
}

// Session returns the current session value.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// IsLoading reports whether a session acquisition or hydration pass is
// visible to the UI.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.loading
}

// HasInitialized reports whether the first acquisition sequence completed.
func (c *Controller) HasInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.hasInitialized
}

// CurrentGroup returns the user's current group, or uuid.Nil.
func (c *Controller) CurrentGroup() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.group
}

// HasCheckedGroup reports whether group membership was resolved since the
// last sign-in. Sign-out clears the gate.
func (c *Controller) HasCheckedGroup() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groupChecked
}

// GroupChanges streams the current group whenever it changes, including
// uuid.Nil on sign-out. Intermediate values may be dropped for slow
// consumers.
func (c *Controller) GroupChanges() <-chan uuid.UUID {
	return c.groupCh
}

// Start runs the controller until ctx is done: it launches initialization
// and consumes the backend's auth events plus OS app-state transitions.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.runCtx = ctx
	c.mu.Unlock()

	go c.Initialize(ctx)

	events := c.backend.Events()
	var states <-chan AppState
	if c.notifier != nil {
		states = c.notifier.States()
	}

	for {
		select {
		case <-ctx.Done():
			c.stopTimers()
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				events = nil
				if states == nil {
					c.stopTimers()
					return nil
				}
				continue
			}
			c.HandleAuthChange(ev.Kind, ev.Session)

		case st, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			if st == AppStateActive {
				c.HandleForeground()
			} else {
				c.HandleBackground()
			}
		}
	}
}

// Initialize runs the session-acquisition sequence once per process
// lifetime. A call while a sequence is in flight, or after one completed, is
// a no-op; use Reinitialize to force a fresh pass.
func (c *Controller) Initialize(ctx context.Context) {
	c.initialize(ctx, false)
}

// Reinitialize forces a fresh acquisition sequence even after completion.
func (c *Controller) Reinitialize(ctx context.Context) {
	c.initialize(ctx, true)
}

func (c *Controller) initialize(ctx context.Context, force bool) {
	c.mu.Lock()
	next, effects := transition(c.state, stateEvent{kind: eventInitStart, force: force})
	c.state = next
	if !hasEffect(effects, effectBeginInitialization) {
		c.mu.Unlock()
		c.log.DebugContext(ctx, "initialization skipped, already in flight or complete",
			logger.Component("session"))
		return
	}
	c.armSafetyLocked()
	c.mu.Unlock()

	started := c.clock()
	sess, err := async.WithTimeout(ctx, c.cfg.SessionRetrievalTimeout,
		"session retrieval timed out", c.backend.CurrentSession)
	if err != nil {
		// Fail-safe: a broken or slow backend means "not signed in", never a
		// permanently stuck UI.
		c.log.WarnContext(ctx, "session retrieval failed, proceeding unauthenticated",
			logger.Component("session"), logger.Error(err))
		sess = Session{}
	}

	c.mu.Lock()
	// The safety timer or a foreground reset may have superseded this
	// sequence; its late result is then discarded, not applied. The safety
	// timer armed for this pass is stopped so it cannot fire into a later
	// hydration.
	if !c.state.initializing {
		c.stopSafetyLocked()
		c.mu.Unlock()
		c.log.Debug("initialization superseded, late result discarded",
			logger.Component("session"))
		return
	}
	c.session = sess
	c.mu.Unlock()

	if sess.IsAuthenticated() {
		c.hydrate(ctx)
	}

	c.mu.Lock()
	if c.state.initializing {
		c.state, _ = transition(c.state, stateEvent{kind: eventInitDone})
	}
	c.stopSafetyLocked()
	c.mu.Unlock()

	c.log.InfoContext(ctx, "session initialization complete",
		logger.Component("session"),
		logger.UserID(sess.UserID),
		logger.Elapsed(started))
}

// HandleAuthChange reacts to one backend auth-change notification.
//
// Token refreshes for the current user apply immediately, bypassing all
// guards, so the exposed session value is never stale. Any other event is
// dropped while initialization or a prior handling pass is in flight, and
// otherwise debounced so bursts collapse into one pass.
func (c *Controller) HandleAuthChange(kind EventKind, sess Session) {
	c.mu.Lock()
	cur := c.session
	if kind == EventTokenRefreshed && sess.UserID != uuid.Nil && sess.UserID == cur.UserID {
		c.session = sess
		c.mu.Unlock()
		c.log.Debug("token refreshed", logger.Component("session"), logger.UserID(sess.UserID))
		return
	}
	busy := c.state.initializing || c.state.handlingAuthChange
	c.mu.Unlock()

	if busy {
		// The backend delivers a consistent final state on its next event;
		// dropping avoids overlapping hydration passes.
		c.log.Debug("auth event dropped, handler busy",
			logger.Component("session"), logger.Event(string(kind)))
		return
	}

	c.debounce.Trigger(func() {
		c.processAuthChange(kind, sess)
	})
}

func (c *Controller) processAuthChange(kind EventKind, sess Session) {
	ctx := c.runContext()

	c.mu.Lock()
	next, effects := transition(c.state, stateEvent{kind: eventAuthChangeStart})
	c.state = next
	if !hasEffect(effects, effectBeginAuthChange) {
		c.mu.Unlock()
		return
	}
	cur := c.session

	// Sign-out replaces the session and clears the group gate immediately;
	// it must never block on the network.
	if !sess.IsAuthenticated() {
		c.session = Session{}
		c.state, _ = transition(c.state, stateEvent{kind: eventAuthChangeDone})
		c.mu.Unlock()
		c.clearGroup()
		c.log.Info("signed out", logger.Component("session"), logger.Event(string(kind)))
		return
	}

	needsHydration := cur.UserID == uuid.Nil || cur.UserID != sess.UserID
	c.session = sess
	if !needsHydration {
		c.state, _ = transition(c.state, stateEvent{kind: eventAuthChangeDone})
		c.mu.Unlock()
		return
	}

	c.state, _ = transition(c.state, stateEvent{kind: eventAuthChangeHydrate})
	c.mu.Unlock()

	c.log.Info("auth change requires hydration",
		logger.Component("session"), logger.Event(string(kind)), logger.UserID(sess.UserID))
	c.hydrate(ctx)

	c.mu.Lock()
	c.state, _ = transition(c.state, stateEvent{kind: eventAuthChangeDone})
	c.mu.Unlock()
}

// HandleBackground records the moment the app left the foreground.
func (c *Controller) HandleBackground() {
	c.mu.Lock()
	c.state, _ = transition(c.state, stateEvent{kind: eventBackgrounded, at: c.clock()})
	c.mu.Unlock()
}

// HandleForeground resynchronizes after a resume: any stale loading state is
// cleared immediately, pending work from before a long background stay is
// cancelled, and a short safety alarm re-checks the loading flag.
func (c *Controller) HandleForeground() {
	c.mu.Lock()
	next, effects := transition(c.state, stateEvent{
		kind:           eventForegrounded,
		at:             c.clock(),
		staleThreshold: c.cfg.BackgroundResetThreshold,
	})
	c.state = next
	if hasEffect(effects, effectCancelPendingAuthChange) {
		// The guard reset abandons any in-flight initialization; its safety
		// timer must not fire into work started after the resume.
		c.stopSafetyLocked()
	}
	if hasEffect(effects, effectArmForegroundSafety) {
		c.armForegroundSafetyLocked()
	}
	c.mu.Unlock()

	if hasEffect(effects, effectClearLoading) {
		c.log.Warn("stale loading state cleared on foreground", logger.Component("session"))
	}
	if hasEffect(effects, effectCancelPendingAuthChange) {
		c.debounce.Cancel()
		c.log.Info("stale pending work cancelled after long background stay",
			logger.Component("session"))
	}
}

// SignIn authenticates the identifier after a local rate limit check.
// Session state is applied through the backend's subsequent auth event, not
// here.
func (c *Controller) SignIn(ctx context.Context, identifier, secret string) (Session, error) {
	if err := c.checkLimit(ctx, identifier, c.signInPolicy); err != nil {
		return Session{}, err
	}

	sess, err := c.backend.SignIn(ctx, identifier, secret)
	if err != nil {
		c.recordFailure(ctx, identifier, c.signInPolicy, err)
		return Session{}, err
	}

	c.clearLimit(ctx, identifier)
	return sess, nil
}

// SignUp registers the identifier after a local rate limit check, with a
// stricter policy than sign-in.
func (c *Controller) SignUp(ctx context.Context, identifier, secret string, profile map[string]string) (Session, error) {
	if err := c.checkLimit(ctx, identifier, c.signUpPolicy); err != nil {
		return Session{}, err
	}

	sess, err := c.backend.SignUp(ctx, identifier, secret, profile)
	if err != nil {
		c.recordFailure(ctx, identifier, c.signUpPolicy, err)
		return Session{}, err
	}

	c.clearLimit(ctx, identifier)
	return sess, nil
}

// SignOut clears local state and delegates to the backend. It is never
// rate-limited and never blocked by the concurrency guards.
func (c *Controller) SignOut(ctx context.Context) error {
	c.debounce.Cancel()

	c.mu.Lock()
	c.session = Session{}
	c.mu.Unlock()
	c.clearGroup()

	return c.backend.SignOut(ctx)
}

func (c *Controller) checkLimit(ctx context.Context, identifier string, policy ratelimiter.Policy) error {
	if c.limiter == nil {
		return nil
	}

	res := c.limiter.Check(ctx, identifier, policy)
	if res.Allowed {
		return nil
	}

	c.log.InfoContext(ctx, "attempt rate limited",
		logger.Component("session"),
		logger.Identifier(identifier),
		logger.Duration(res.RetryAfter))
	return &RateLimitError{Message: res.Message, RetryAfter: res.RetryAfter}
}

func (c *Controller) recordFailure(ctx context.Context, identifier string, policy ratelimiter.Policy, err error) {
	// Only failures attributable to bad credentials count; transport errors
	// never penalize the identifier.
	if c.limiter == nil || !IsCredentialError(err) {
		return
	}
	c.limiter.RecordFailure(ctx, identifier, policy)
}

func (c *Controller) clearLimit(ctx context.Context, identifier string) {
	if c.limiter == nil {
		return
	}
	c.limiter.Clear(ctx, identifier)
}

// hydrate runs the three post-auth fetches concurrently, each bounded by
// HydrationTimeout. Individual failures are logged and swallowed: the app
// proceeds with partial data rather than hanging.
//
// Each pass bumps the group epoch, so a fetch that outlives its timeout
// cannot apply its result after a sign-out or a newer pass superseded it.
func (c *Controller) hydrate(ctx context.Context) {
	names := [...]string{"profile", "group", "preferences"}

	c.mu.Lock()
	c.groupEpoch++
	epoch := c.groupEpoch
	c.mu.Unlock()

	results := async.AllSettled(ctx, c.cfg.HydrationTimeout,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.hydrator.FetchProfile(ctx)
		},
		func(ctx context.Context) (struct{}, error) {
			gid, err := c.hydrator.FetchCurrentGroup(ctx)
			if err != nil {
				return struct{}{}, err
			}
			c.setGroup(gid, epoch)
			return struct{}{}, nil
		},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.hydrator.FetchPreferences(ctx)
		},
	)

	for i, r := range results {
		if !r.OK() {
			c.log.WarnContext(ctx, "hydration fetch failed, proceeding with partial data",
				logger.Component("session"),
				slog.String("fetch", names[i]),
				logger.Error(r.Err))
		}
	}
}

// setGroup records a resolved group and publishes the change. Results from a
// stale epoch are dropped: the fetch they came from was superseded.
func (c *Controller) setGroup(gid uuid.UUID, epoch uint64) {
	c.mu.Lock()
	if epoch != c.groupEpoch {
		c.mu.Unlock()
		c.log.Debug("late group result discarded",
			logger.Component("session"), logger.GroupID(gid))
		return
	}
	changed := c.group != gid
	c.group = gid
	c.groupChecked = true
	c.mu.Unlock()

	if changed {
		c.publishGroup(gid)
	}
}

// clearGroup resets the group gate on sign-out and publishes the teardown.
// Bumping the epoch invalidates any group fetch still in flight.
func (c *Controller) clearGroup() {
	c.mu.Lock()
	c.groupEpoch++
	changed := c.group != uuid.Nil
	c.group = uuid.Nil
	c.groupChecked = false
	c.mu.Unlock()

	if changed {
		c.publishGroup(uuid.Nil)
	}
}

func (c *Controller) publishGroup(gid uuid.UUID) {
	select {
	case c.groupCh <- gid:
	default:
		c.log.Debug("group change dropped, consumer too slow",
			logger.Component("session"), logger.GroupID(gid))
	}
}

func (c *Controller) runContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runCtx != nil {
		return c.runCtx
	}
	return context.Background()
}

// onSafetyFired force-clears the loading flag. Idempotent: the transition is
// a no-op when nothing is stuck.
func (c *Controller) onSafetyFired() {
	c.mu.Lock()
	next, effects := transition(c.state, stateEvent{kind: eventSafetyFired})
	c.state = next
	c.mu.Unlock()

	if hasEffect(effects, effectClearLoading) {
		c.log.Warn("safety timeout fired, loading state force-cleared",
			logger.Component("session"))
	}
}

func (c *Controller) armSafetyLocked() {
	if c.safety != nil {
		c.safety.Stop()
	}
	c.safety = time.AfterFunc(c.cfg.SafetyTimeout, c.onSafetyFired)
}

func (c *Controller) stopSafetyLocked() {
	if c.safety != nil {
		c.safety.Stop()
		c.safety = nil
	}
}

func (c *Controller) armForegroundSafetyLocked() {
	if c.fgSafety != nil {
		c.fgSafety.Stop()
	}
	c.fgSafety = time.AfterFunc(c.cfg.ForegroundSafetyDelay, c.onSafetyFired)
}

func (c *Controller) stopTimers() {
	c.debounce.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopSafetyLocked()
	if c.fgSafety != nil {
		c.fgSafety.Stop()
		c.fgSafety = nil
	}
}
