// Package session implements the client-side authentication session
// lifecycle: acquisition at startup, post-auth data hydration, debounced
// external auth-event handling, and foreground resynchronization.
//
// # Lifecycle
//
// The Controller is mounted once per process. Initialize restores the
// session from the backend under a bounded timeout, hydrates profile, group,
// and preference data concurrently, and exposes a simple {Session, IsLoading}
// contract. A top-level safety alarm guarantees the loading state always
// clears, even when the backend never answers.
//
//	ctrl := session.New(backend, hydrator,
//		session.WithRateLimiter(limiter),
//		session.WithAppStateNotifier(notifier),
//		session.WithLogger(log),
//	)
//	go ctrl.Start(ctx)
//
// # Concurrency Model
//
// All guard state lives in one lifecycleState value owned by the controller
// and mutated exclusively through a pure transition function, so the
// mutual-exclusion rules are unit-testable without timers. At most one of
// initialization and auth-change handling hydrates at a time; conflicting
// requests are dropped, not queued. Token refreshes bypass the guards: the
// session value is replaced immediately so it is never stale.
//
// There is no cooperative cancellation of in-flight fetches. Timeouts force
// progress, and late results of abandoned work are discarded.
//
// # OS Transitions
//
// Backgrounding records a timestamp. Foregrounding force-clears any stale
// loading state, cancels pending debounced work after a long background stay
// (event delivery while backgrounded is unreliable), and arms a short safety
// alarm that re-checks the loading flag.
//
// # Credential Operations
//
// SignIn and SignUp consult the rate limiter before contacting the backend
// and surface *RateLimitError with a retry-after duration when blocked.
// Credential failures (structured *AuthError codes, with a message heuristic
// fallback) count against the limiter; transport failures do not. Sign-out
// is never rate-limited or guarded.
package session
