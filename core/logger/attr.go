package logger

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Attribute helpers use the empty Attr pattern for nil safety.
// This allows calls like log.Warn("msg", logger.Error(err)) without explicit
// nil checks, following the principle of making zero values useful.

// Error creates an attribute for a single error under the key "error".
// Returns empty Attr for nil errors, enabling safe usage without nil checks.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed calculates and logs the duration since the start time.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// Component names the subsystem emitting the record.
func Component(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("component", name)
}

// UserID creates an attribute for the authenticated user identity.
// Returns empty Attr for uuid.Nil.
func UserID(id uuid.UUID) slog.Attr {
	if id == uuid.Nil {
		return slog.Attr{}
	}
	return slog.String("user_id", id.String())
}

// GroupID creates an attribute for the user's current group.
// Returns empty Attr for uuid.Nil.
func GroupID(id uuid.UUID) slog.Attr {
	if id == uuid.Nil {
		return slog.Attr{}
	}
	return slog.String("group_id", id.String())
}

// Event creates an attribute for auth or lifecycle event names.
func Event(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("event", name)
}

// Category creates an attribute for realtime record categories.
func Category(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("category", name)
}

// Identifier creates an attribute for a sign-in identifier with the local
// part masked, so emails never appear verbatim in logs.
func Identifier(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("identifier", mask(id))
}

func mask(id string) string {
	at := strings.IndexByte(id, '@')
	if at <= 1 {
		return "***"
	}
	return id[:1] + "***" + id[at:]
}
