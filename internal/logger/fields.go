package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// Distributed tracing
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// Wire protocol / command
	KeyCommand  = "command"  // wire protocol command: SIGNUP, LOGIN, UPLOAD, ...
	KeyFilename = "filename" // file name argument of the command
	KeySize     = "size"     // payload size in bytes

	// Client & session
	KeyClientIP   = "client_ip"   // client IP address
	KeyClientPort = "client_port" // client source port
	KeyUsername   = "username"    // authenticated username
	KeyUserID     = "user_id"     // numeric user id

	// Queueing & workers
	KeyQueueDepth = "queue_depth" // current depth of a bounded queue
	KeyWorkerID   = "worker_id"   // worker goroutine identifier
	KeyTaskKind   = "task_kind"   // worker task kind: upload, download, delete, list

	// Storage
	KeyStoreBackend = "store_backend" // metadata store backend: sqlite, badger
	KeyBytesRead    = "bytes_read"
	KeyBytesWritten = "bytes_written"

	// Operation metadata
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyErrorCode  = "error_code"  // wire protocol error code
)

// TraceID returns a slog.Attr for an OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for an OpenTelemetry span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Command returns a slog.Attr for the wire protocol command name.
func Command(name string) slog.Attr {
	return slog.String(KeyCommand, name)
}

// Filename returns a slog.Attr for a file name.
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// Size returns a slog.Attr for a byte size.
func Size(n int64) slog.Attr {
	return slog.Int64(KeySize, n)
}

// ClientIP returns a slog.Attr for the client's IP address.
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// ClientPort returns a slog.Attr for the client's source port.
func ClientPort(port int) slog.Attr {
	return slog.Int(KeyClientPort, port)
}

// Username returns a slog.Attr for an authenticated username.
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// UserID returns a slog.Attr for a numeric user id.
func UserID(id int64) slog.Attr {
	return slog.Int64(KeyUserID, id)
}

// QueueDepth returns a slog.Attr for a bounded queue's current depth.
func QueueDepth(n int) slog.Attr {
	return slog.Int(KeyQueueDepth, n)
}

// WorkerID returns a slog.Attr for a worker goroutine identifier.
func WorkerID(id int) slog.Attr {
	return slog.Int(KeyWorkerID, id)
}

// TaskKind returns a slog.Attr for a worker task kind.
func TaskKind(kind string) slog.Attr {
	return slog.String(KeyTaskKind, kind)
}

// StoreBackend returns a slog.Attr for the metadata store backend name.
func StoreBackend(name string) slog.Attr {
	return slog.String(KeyStoreBackend, name)
}

// BytesRead returns a slog.Attr for bytes read from a connection.
func BytesRead(n int64) slog.Attr {
	return slog.Int64(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for bytes written to a connection.
func BytesWritten(n int64) slog.Attr {
	return slog.Int64(KeyBytesWritten, n)
}

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a wire protocol error code.
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}
