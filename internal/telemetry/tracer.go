package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for wire protocol operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	AttrCommand  = "dropvault.command"  // SIGNUP, LOGIN, UPLOAD, DOWNLOAD, DELETE, LIST
	AttrFilename = "dropvault.filename" // file name argument
	AttrSize     = "dropvault.size"     // payload size in bytes
	AttrUsername = "dropvault.username"
	AttrUserID   = "dropvault.user_id"

	AttrQueueDepth = "dropvault.queue_depth"
	AttrTaskKind   = "dropvault.task_kind"
	AttrWorkerID   = "dropvault.worker_id"

	AttrStoreBackend = "dropvault.store_backend" // sqlite, badger
)

// Span names for operations.
const (
	SpanConnRequest = "conn.request" // root span for one wire protocol command

	SpanTaskUpload   = "task.upload"
	SpanTaskDownload = "task.download"
	SpanTaskDelete   = "task.delete"
	SpanTaskList     = "task.list"

	SpanMetaLookup = "metadata.lookup"
	SpanMetaUpsert = "metadata.upsert"
	SpanMetaDelete = "metadata.delete"
)

// ClientIP returns an attribute for the client's IP address.
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for the full client address (ip:port).
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// Command returns an attribute for the wire protocol command name.
func Command(name string) attribute.KeyValue {
	return attribute.String(AttrCommand, name)
}

// Filename returns an attribute for a file name.
func Filename(name string) attribute.KeyValue {
	return attribute.String(AttrFilename, name)
}

// Size returns an attribute for a payload size in bytes.
func Size(n int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, n)
}

// Username returns an attribute for an authenticated username.
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// UserID returns an attribute for a numeric user id.
func UserID(id int64) attribute.KeyValue {
	return attribute.Int64(AttrUserID, id)
}

// QueueDepth returns an attribute for a bounded queue's current depth.
func QueueDepth(n int) attribute.KeyValue {
	return attribute.Int(AttrQueueDepth, n)
}

// TaskKind returns an attribute for a worker task kind.
func TaskKind(kind string) attribute.KeyValue {
	return attribute.String(AttrTaskKind, kind)
}

// WorkerID returns an attribute for a worker goroutine identifier.
func WorkerID(id int) attribute.KeyValue {
	return attribute.Int(AttrWorkerID, id)
}

// StoreBackend returns an attribute for the metadata store backend name.
func StoreBackend(name string) attribute.KeyValue {
	return attribute.String(AttrStoreBackend, name)
}

// StartConnSpan starts the root span for one wire protocol command on a
// connection.
func StartConnSpan(ctx context.Context, command, clientAddr string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Command(command),
		ClientAddr(clientAddr),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanConnRequest, trace.WithAttributes(allAttrs...))
}

// StartTaskSpan starts a span for a worker task execution.
func StartTaskSpan(ctx context.Context, kind string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		TaskKind(kind),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "task."+kind, trace.WithAttributes(allAttrs...))
}

// StartMetadataSpan starts a span for a metadata store operation.
func StartMetadataSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "metadata."+operation, trace.WithAttributes(attrs...))
}
