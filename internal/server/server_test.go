package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/Bilal079/dropvault/internal/config"
	"github.com/Bilal079/dropvault/internal/metadata/badgerstore"
)

func startTestServer(t *testing.T) (addr string, stop func()) {
	t.Helper()
	store, err := badgerstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("badgerstore.Open: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	cfg := config.ServerConfig{
		Port:             port,
		ClientThreads:    2,
		Workers:          2,
		ClientQueueDepth: 8,
		TaskQueueDepth:   8,
	}
	srv := New(cfg, t.TempDir(), 1<<20, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	addr = fmt.Sprintf("127.0.0.1:%d", port)
	waitForListener(t, addr)

	return addr, func() {
		cancel()
		srv.Shutdown(5 * time.Second)
	}
}

func waitForListener(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			c.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server never started listening on %s", addr)
}

func sendLine(t *testing.T, rw *bufio.ReadWriter, line string) string {
	t.Helper()
	if _, err := rw.WriteString(line + "\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := rw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	reply, err := rw.ReadString('\n')
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	return strings.TrimRight(reply, "\r\n")
}

func TestSignupLoginUploadDownloadListDelete(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	if got := sendLine(t, rw, "SIGNUP alice secretpw"); got != "OK" {
		t.Fatalf("SIGNUP reply = %q, want OK", got)
	}
	if got := sendLine(t, rw, "LOGIN alice secretpw"); got != "OK" {
		t.Fatalf("LOGIN reply = %q, want OK", got)
	}

	content := "hello from a test"
	if _, err := rw.WriteString(fmt.Sprintf("UPLOAD hello.txt %d\n", len(content))); err != nil {
		t.Fatalf("write upload header: %v", err)
	}
	if _, err := rw.WriteString(content); err != nil {
		t.Fatalf("write upload payload: %v", err)
	}
	if err := rw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	reply, err := rw.ReadString('\n')
	if err != nil {
		t.Fatalf("read upload reply: %v", err)
	}
	if strings.TrimRight(reply, "\r\n") != "OK" {
		t.Fatalf("UPLOAD reply = %q, want OK", reply)
	}

	if got := sendLine(t, rw, "LIST"); got != "OK 1" {
		t.Fatalf("LIST header = %q, want OK 1", got)
	}
	name, err := rw.ReadString('\n')
	if err != nil {
		t.Fatalf("read list entry: %v", err)
	}
	if strings.TrimRight(name, "\r\n") != "hello.txt" {
		t.Fatalf("LIST entry = %q, want hello.txt", name)
	}

	header := sendLine(t, rw, "DOWNLOAD hello.txt")
	if header != fmt.Sprintf("OK %d", len(content)) {
		t.Fatalf("DOWNLOAD header = %q, want OK %d", header, len(content))
	}
	body := make([]byte, len(content))
	if _, err := readFull(rw, body); err != nil {
		t.Fatalf("read download body: %v", err)
	}
	if string(body) != content {
		t.Fatalf("downloaded body = %q, want %q", body, content)
	}

	if got := sendLine(t, rw, "DELETE hello.txt"); got != "OK" {
		t.Fatalf("DELETE reply = %q, want OK", got)
	}
	if got := sendLine(t, rw, "LIST"); got != "OK 0" {
		t.Fatalf("LIST after delete = %q, want OK 0", got)
	}
}

func readFull(rw *bufio.ReadWriter, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := rw.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func TestCommandsBeforeLoginRequireAuth(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	if got := sendLine(t, rw, "LIST"); got != "ERR AUTH" {
		t.Fatalf("LIST before login = %q, want ERR AUTH", got)
	}
}

func TestDuplicateSignupRejected(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	sendLine(t, rw, "SIGNUP bob pw12345")
	if got := sendLine(t, rw, "SIGNUP bob pw12345"); got != "ERR EXISTS" {
		t.Fatalf("duplicate SIGNUP = %q, want ERR EXISTS", got)
	}
}
