// Package server implements the connection-accepting and connection-
// handling stage: it owns the listener, a bounded queue of accepted
// connections served by a fixed pool of handler goroutines, and the
// sequencing of a graceful shutdown across the listener, those handlers,
// the worker pool and the metadata store.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/Bilal079/dropvault/internal/config"
	"github.com/Bilal079/dropvault/internal/logger"
	"github.com/Bilal079/dropvault/internal/metadata"
	"github.com/Bilal079/dropvault/internal/metrics"
	"github.com/Bilal079/dropvault/internal/queue"
	"github.com/Bilal079/dropvault/internal/worker"
)

// Server accepts connections and hands them to a bounded pool of handler
// goroutines, which in turn submit Tasks to a worker.Pool.
type Server struct {
	cfg          config.ServerConfig
	rootDir      string
	defaultQuota uint64
	store        metadata.Store
	metrics      *metrics.Metrics

	pool *worker.Pool

	listener net.Listener
	conns    *queue.Queue[net.Conn]

	mu        sync.Mutex
	liveConns map[net.Conn]struct{}

	handlerWG sync.WaitGroup
}

// New creates a Server. Call ListenAndServe to start accepting connections.
// defaultQuota is the byte quota assigned to new accounts on SIGNUP.
func New(cfg config.ServerConfig, rootDir string, defaultQuota uint64, store metadata.Store, m *metrics.Metrics) *Server {
	pool := worker.NewPool(store, rootDir, cfg.TaskQueueDepth, cfg.Workers)
	return &Server{
		cfg:          cfg,
		rootDir:      rootDir,
		defaultQuota: defaultQuota,
		store:        store,
		metrics:      m,
		pool:         pool,
		conns:        queue.New[net.Conn](cfg.ClientQueueDepth),
		liveConns:    make(map[net.Conn]struct{}),
	}
}

// ListenAndServe binds the listener, starts the worker pool and the
// connection handler goroutines, and accepts connections until ctx is
// canceled. It returns once ctx is canceled (or Accept fails) without
// waiting for the handlers or the worker pool; Shutdown stops those.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.cfg.Port, err)
	}
	s.listener = ln
	logger.Info("server listening", "port", s.cfg.Port)

	s.pool.Start(ctx)

	s.handlerWG.Add(s.cfg.ClientThreads)
	for i := 0; i < s.cfg.ClientThreads; i++ {
		go s.clientThreadMain(ctx)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}
		logger.Info("client connected", "remote_addr", conn.RemoteAddr().String())
		s.trackConn(conn)
		if s.metrics != nil {
			s.metrics.ActiveClients.Inc()
		}
		if err := s.conns.Push(conn); err != nil {
			conn.Close()
		}
	}
}

// Shutdown closes the listener, drains in-flight connections and the
// worker pool, and closes the metadata store, in that order, the same
// sequence the original implementation follows: stop accepting new work
// before tearing down the stages that process it.
func (s *Server) Shutdown(timeout time.Duration) error {
	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Close()

	s.mu.Lock()
	for c := range s.liveConns {
		c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.handlerWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("timed out waiting for client handlers to finish")
	}

	s.pool.Stop()
	return s.store.Close()
}

func (s *Server) clientThreadMain(ctx context.Context) {
	defer s.handlerWG.Done()
	for {
		conn, err := s.conns.Pop()
		if err != nil {
			return
		}
		s.handleClient(ctx, conn)
		s.untrackConn(conn)
		if s.metrics != nil {
			s.metrics.ActiveClients.Dec()
		}
	}
}

func (s *Server) trackConn(c net.Conn) {
	s.mu.Lock()
	s.liveConns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrackConn(c net.Conn) {
	s.mu.Lock()
	delete(s.liveConns, c)
	s.mu.Unlock()
}
