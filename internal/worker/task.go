// Package worker implements the task execution stage: a pool of goroutines
// that pop tasks off a bounded queue and execute UPLOAD, DOWNLOAD, DELETE
// and LIST requests against the filesystem and the metadata store under the
// appropriate lockmgr locks.
package worker

import (
	"github.com/Bilal079/dropvault/internal/lockmgr"
	"github.com/Bilal079/dropvault/internal/metadata"
	"github.com/Bilal079/dropvault/internal/queue"
)

// Kind identifies the operation a Task performs.
type Kind int

const (
	KindUpload Kind = iota
	KindDownload
	KindDelete
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindUpload:
		return "UPLOAD"
	case KindDownload:
		return "DOWNLOAD"
	case KindDelete:
		return "DELETE"
	case KindList:
		return "LIST"
	default:
		return "UNKNOWN"
	}
}

// Result carries the outcome of an executed Task back to the connection
// handler that submitted it. Done is closed exactly once, after the task
// has fully executed (including any filesystem/metadata compensation), so
// the submitter can safely block on it.
type Result struct {
	Done chan struct{}

	Err error

	// RespPath is the absolute path to stream back to the client for a
	// successful DOWNLOAD.
	RespPath string
	// Size is the file size for a successful UPLOAD or DOWNLOAD.
	Size int64
	// Names holds the sorted file names for a successful LIST.
	Names []string
}

// NewResult returns a Result ready to be waited on.
func NewResult() *Result {
	return &Result{Done: make(chan struct{})}
}

// signal marks the result complete exactly once.
func (r *Result) signal() {
	select {
	case <-r.Done:
	default:
		close(r.Done)
	}
}

// Task is one unit of work submitted by a connection handler.
type Task struct {
	Kind     Kind
	UserID   int64
	Username string
	Filename string

	// Size is the declared size of the uploaded payload; ignored for
	// DOWNLOAD, DELETE and LIST.
	Size int64
	// UploadTmpPath is the path to the spooled temp file already written
	// to disk by the connection handler, ready to be moved into place.
	UploadTmpPath string

	Result *Result
}

// NewTask creates a Task with a fresh, unsignaled Result.
func NewTask(kind Kind) *Task {
	return &Task{Kind: kind, Result: NewResult()}
}

// Pool executes Tasks popped from a bounded queue.Queue.
type Pool struct {
	tasks   *queue.Queue[*Task]
	store   metadata.Store
	locks   *lockmgr.Manager
	rootDir string

	workers int
	done    chan struct{}
}
