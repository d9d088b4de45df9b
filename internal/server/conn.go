package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Bilal079/dropvault/internal/apperrors"
	"github.com/Bilal079/dropvault/internal/identity"
	"github.com/Bilal079/dropvault/internal/logger"
	"github.com/Bilal079/dropvault/internal/metadata"
	"github.com/Bilal079/dropvault/internal/session"
	"github.com/Bilal079/dropvault/internal/telemetry"
	"github.com/Bilal079/dropvault/internal/wire"
	"github.com/Bilal079/dropvault/internal/worker"
)

// handleClient serves one connection to completion: it reads commands
// until the client disconnects or sends something unreadable, dispatching
// SIGNUP and LOGIN directly against the metadata store and everything else
// as a Task submitted to the worker pool.
func (s *Server) handleClient(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	sess := session.New()

	remoteIP := conn.RemoteAddr().String()
	lc := logger.NewLogContext(remoteIP)
	ctx = logger.WithContext(ctx, lc)

	for {
		cmd, err := wire.ReadCommand(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.WarnCtx(ctx, "connection read error", "error", err)
			}
			return
		}
		if cmd.Name == "" {
			continue
		}

		lc = logger.NewLogContext(remoteIP).WithCommand(cmd.Name)
		if _, username, ok := sess.User(); ok {
			lc = lc.WithUsername(username)
		}
		cmdCtx := logger.WithContext(ctx, lc)
		cmdCtx, span := telemetry.StartConnSpan(cmdCtx, cmd.Name, remoteIP)
		lc = lc.WithTrace(telemetry.TraceID(cmdCtx), telemetry.SpanID(cmdCtx))
		cmdCtx = logger.WithContext(cmdCtx, lc)

		switch cmd.Name {
		case "SIGNUP":
			s.handleSignup(cmdCtx, conn, cmd)
		case "LOGIN":
			s.handleLogin(cmdCtx, conn, cmd, sess)
		case "UPLOAD":
			s.handleUploadCmd(cmdCtx, conn, r, cmd, sess)
		case "DOWNLOAD":
			s.handleDownloadCmd(cmdCtx, conn, cmd, sess)
		case "DELETE":
			s.handleDeleteCmd(cmdCtx, conn, cmd, sess)
		case "LIST":
			s.handleListCmd(cmdCtx, conn, sess)
		default:
			wire.WriteErr(conn, apperrors.Code(apperrors.ErrUnknown))
		}
		span.End()
		logger.DebugCtx(cmdCtx, "command handled", "duration_ms", lc.DurationMs())
	}
}

func (s *Server) handleSignup(ctx context.Context, conn net.Conn, cmd wire.Command) {
	if len(cmd.Args) != 2 {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrProto))
		return
	}
	username, password := cmd.Args[0], cmd.Args[1]

	hash, err := identity.HashPassword(password)
	if err != nil {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrProto))
		return
	}

	if _, err := s.store.Signup(ctx, username, hash, int64(s.defaultQuota)); err != nil {
		if errors.Is(err, metadata.ErrUserExists) {
			wire.WriteErr(conn, apperrors.Code(apperrors.ErrExists))
			return
		}
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrDB))
		return
	}
	wire.WriteOK(conn)
}

func (s *Server) handleLogin(ctx context.Context, conn net.Conn, cmd wire.Command, sess *session.Session) {
	if len(cmd.Args) != 2 {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrProto))
		return
	}
	username, password := cmd.Args[0], cmd.Args[1]

	user, err := s.store.GetUser(ctx, username)
	if err != nil || !identity.VerifyPassword(password, user.PassHash) {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrAuth))
		return
	}
	sess.Authenticate(user.ID, user.Username)
	wire.WriteOK(conn)
}

func (s *Server) handleUploadCmd(ctx context.Context, conn net.Conn, r *bufio.Reader, cmd wire.Command, sess *session.Session) {
	userID, username, ok := sess.User()
	if !ok {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrAuth))
		return
	}
	if len(cmd.Args) != 2 {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrProto))
		return
	}
	filename := cmd.Args[0]
	size, err := wire.ParseSize(cmd.Args[1])
	if err != nil {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrProto))
		return
	}

	tmpPath, err := s.spoolUpload(r, username, size)
	if err != nil {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrIO))
		return
	}

	t := worker.NewTask(worker.KindUpload)
	t.UserID = userID
	t.Username = username
	t.Filename = filename
	t.Size = size
	t.UploadTmpPath = tmpPath

	if err := s.submitAndWait(conn, t); err != nil {
		return
	}
	if s.metrics != nil {
		s.metrics.BytesUploaded.Add(float64(size))
	}
	wire.WriteOK(conn)
}

func (s *Server) handleDownloadCmd(ctx context.Context, conn net.Conn, cmd wire.Command, sess *session.Session) {
	userID, username, ok := sess.User()
	if !ok {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrAuth))
		return
	}
	if len(cmd.Args) != 1 {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrProto))
		return
	}

	t := worker.NewTask(worker.KindDownload)
	t.UserID = userID
	t.Username = username
	t.Filename = cmd.Args[0]

	if err := s.submitAndWait(conn, t); err != nil {
		return
	}

	f, err := os.Open(t.Result.RespPath)
	if err != nil {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrIO))
		return
	}
	defer f.Close()

	if err := wire.WriteDownloadHeader(conn, t.Result.Size); err != nil {
		return
	}
	n, err := io.Copy(conn, f)
	if err != nil {
		logger.WarnCtx(ctx, "download stream interrupted", "username", username, "filename", t.Filename, "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.BytesDownloaded.Add(float64(n))
	}
}

func (s *Server) handleDeleteCmd(ctx context.Context, conn net.Conn, cmd wire.Command, sess *session.Session) {
	userID, username, ok := sess.User()
	if !ok {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrAuth))
		return
	}
	if len(cmd.Args) != 1 {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrProto))
		return
	}

	t := worker.NewTask(worker.KindDelete)
	t.UserID = userID
	t.Username = username
	t.Filename = cmd.Args[0]

	if err := s.submitAndWait(conn, t); err != nil {
		return
	}
	wire.WriteOK(conn)
}

func (s *Server) handleListCmd(ctx context.Context, conn net.Conn, sess *session.Session) {
	userID, username, ok := sess.User()
	if !ok {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrAuth))
		return
	}

	t := worker.NewTask(worker.KindList)
	t.UserID = userID
	t.Username = username

	if err := s.submitAndWait(conn, t); err != nil {
		return
	}
	if err := wire.WriteListHeader(conn, len(t.Result.Names)); err != nil {
		return
	}
	for _, name := range t.Result.Names {
		if err := wire.WriteLine(conn, name); err != nil {
			return
		}
	}
}

// submitAndWait submits t to the worker pool, blocks for its result, and on
// failure writes the matching ERR reply and returns a non-nil error so the
// caller can skip its own success reply.
func (s *Server) submitAndWait(conn net.Conn, t *worker.Task) error {
	if err := s.pool.Submit(t); err != nil {
		wire.WriteErr(conn, apperrors.Code(apperrors.ErrIO))
		return err
	}
	<-t.Result.Done
	if s.metrics != nil {
		s.metrics.ObserveTask(t.Kind.String(), apperrors.Code(t.Result.Err))
	}
	if t.Result.Err != nil {
		wire.WriteErr(conn, apperrors.Code(t.Result.Err))
		return t.Result.Err
	}
	return nil
}

// spoolUpload reads exactly size bytes of payload from r into a temp file
// under the user's directory, fsyncing before returning its path so the
// worker pool can rename it into place.
func (s *Server) spoolUpload(r *bufio.Reader, username string, size int64) (string, error) {
	dir := filepath.Join(s.rootDir, username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ".tmp.upload."+uuid.NewString())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}

	if _, err := io.CopyN(f, r, size); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
