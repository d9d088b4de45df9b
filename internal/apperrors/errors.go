// Package apperrors defines the fixed error taxonomy the wire protocol
// exposes to clients. Every error a command can fail with is wrapped in one
// of these sentinels (via %w) so the connection-handling stage can
// translate it into the matching "ERR <CODE>" reply with errors.Is, without
// the worker package needing to know anything about wire encoding.
package apperrors

import "errors"

// Sentinel errors, one per wire protocol error code.
var (
	ErrProto   = errors.New("malformed request")
	ErrAuth    = errors.New("authentication required or invalid credentials")
	ErrExists  = errors.New("resource already exists")
	ErrNoFile  = errors.New("file not found")
	ErrIO      = errors.New("local I/O failure")
	ErrDB      = errors.New("metadata store failure")
	ErrQuota   = errors.New("quota exceeded")
	ErrMove    = errors.New("failed to place uploaded content")
	ErrUnknown = errors.New("unknown command")
)

// Code returns the wire protocol error code for err, matching it against
// the sentinel taxonomy with errors.Is. Unrecognized errors map to UNKNOWN.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrProto):
		return "PROTO"
	case errors.Is(err, ErrAuth):
		return "AUTH"
	case errors.Is(err, ErrExists):
		return "EXISTS"
	case errors.Is(err, ErrNoFile):
		return "NOFILE"
	case errors.Is(err, ErrIO):
		return "IO"
	case errors.Is(err, ErrDB):
		return "DB"
	case errors.Is(err, ErrQuota):
		return "QUOTA"
	case errors.Is(err, ErrMove):
		return "MOVE"
	default:
		return "UNKNOWN"
	}
}
