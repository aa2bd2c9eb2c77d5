// Package logger provides slog.Attr helpers shared across the toolkit.
//
// All helpers return an empty slog.Attr for zero values (nil errors,
// uuid.Nil, empty strings), which slog omits from output. This keeps call
// sites free of nil checks:
//
//	log.Warn("hydration fetch failed",
//		logger.Component("session"),
//		logger.UserID(sess.UserID),
//		logger.Error(err))
//
// Identifier masks the local part of email-shaped identifiers so credentials
// context never lands in logs verbatim.
package logger
