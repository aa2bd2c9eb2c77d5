package session

import "time"

// lifecyclePhase is the coarse controller phase.
type lifecyclePhase int

const (
	phaseUninitialized lifecyclePhase = iota
	phaseInitializing
	phaseReady
)

// lifecycleState is the single-owner guard state of the controller. It is a
// plain value: the controller holds the only copy, mutating it exclusively
// through transition under its lock.
//
// Invariant: at most one of {initializing, handlingAuthChange} performs a
// hydration pass at any instant.
type lifecycleState struct {
	phase              lifecyclePhase
	hasInitialized     bool
	initializing       bool
	handlingAuthChange bool
	loading            bool
	backgroundedAt     time.Time
}

type stateEventKind int

const (
	// eventInitStart requests the first session-acquisition sequence.
	eventInitStart stateEventKind = iota
	// eventInitDone completes initialization, success or failure.
	eventInitDone
	// eventAuthChangeStart requests handling of a debounced auth event.
	eventAuthChangeStart
	// eventAuthChangeHydrate marks the hydration portion of auth handling.
	eventAuthChangeHydrate
	// eventAuthChangeDone completes auth-change handling.
	eventAuthChangeDone
	// eventSafetyFired is a safety timer expiry; forces progress.
	eventSafetyFired
	// eventBackgrounded records the app leaving the foreground.
	eventBackgrounded
	// eventForegrounded handles the app returning to the foreground.
	eventForegrounded
)

// stateEvent is one input to the transition function.
type stateEvent struct {
	kind stateEventKind

	// force bypasses the init-once guard (eventInitStart only).
	force bool

	// at is the wall-clock time of OS transitions.
	at time.Time

	// staleThreshold is the backgrounded duration beyond which pending work
	// is considered stale (eventForegrounded only).
	staleThreshold time.Duration
}

// effect is an action the controller must execute after a transition.
// The transition function itself stays pure and timer-free.
type effect int

const (
	// effectBeginInitialization signals that the init request was accepted.
	effectBeginInitialization effect = iota
	// effectBeginAuthChange signals that the auth-change request was
	// accepted rather than dropped.
	effectBeginAuthChange
	// effectClearLoading signals that the loading flag was force-cleared.
	effectClearLoading
	// effectCancelPendingAuthChange cancels any debounced pending handler.
	effectCancelPendingAuthChange
	// effectArmForegroundSafety arms the short post-foreground safety timer.
	effectArmForegroundSafety
)

// transition is the pure lifecycle transition function. Given the current
// state and an event it returns the next state and the effects to execute.
// Requests that violate the mutual-exclusion invariant produce no
// begin-effect, which callers treat as "dropped".
func transition(s lifecycleState, ev stateEvent) (lifecycleState, []effect) {
	switch ev.kind {
	case eventInitStart:
		if (s.initializing || s.hasInitialized) && !ev.force {
			return s, nil
		}
		s.phase = phaseInitializing
		s.initializing = true
		s.loading = true
		return s, []effect{effectBeginInitialization}

	case eventInitDone:
		s.phase = phaseReady
		s.initializing = false
		s.hasInitialized = true
		s.loading = false
		return s, nil

	case eventAuthChangeStart:
		if s.initializing || s.handlingAuthChange {
			return s, nil
		}
		s.handlingAuthChange = true
		return s, []effect{effectBeginAuthChange}

	case eventAuthChangeHydrate:
		s.loading = true
		return s, nil

	case eventAuthChangeDone:
		s.handlingAuthChange = false
		s.loading = false
		return s, nil

	case eventSafetyFired:
		// Idempotent: repeated firing has no additional effect.
		if !s.loading && !s.initializing && !s.handlingAuthChange {
			return s, nil
		}
		s.phase = phaseReady
		s.loading = false
		s.initializing = false
		s.handlingAuthChange = false
		s.hasInitialized = true
		return s, []effect{effectClearLoading}

	case eventBackgrounded:
		s.backgroundedAt = ev.at
		return s, nil

	case eventForegrounded:
		var effects []effect

		// A resume must never inherit a stale loading state.
		if s.loading {
			s.loading = false
			effects = append(effects, effectClearLoading)
		}

		// Event delivery while backgrounded is unreliable; after a long
		// absence any pending work is stale and the guards are reset.
		if !s.backgroundedAt.IsZero() && ev.at.Sub(s.backgroundedAt) > ev.staleThreshold {
			s.initializing = false
			s.handlingAuthChange = false
			effects = append(effects, effectCancelPendingAuthChange)
		}

		s.backgroundedAt = time.Time{}
		effects = append(effects, effectArmForegroundSafety)
		return s, effects
	}

	return s, nil
}

// hasEffect reports whether effects contains e.
func hasEffect(effects []effect, e effect) bool {
	for _, cur := range effects {
		if cur == e {
			return true
		}
	}
	return false
}
