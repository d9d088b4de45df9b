// Package client implements a thin synchronous client for the wire
// protocol, used by the CLI.
package client

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// Client is a single connection to a dropvault server.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to addr ("host:port").
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) sendLine(line string) error {
	_, err := io.WriteString(c.conn, line+"\n")
	return err
}

func (c *Client) readReply() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func okOrErr(reply string) error {
	if reply == "OK" {
		return nil
	}
	if strings.HasPrefix(reply, "ERR ") {
		return fmt.Errorf("server error: %s", strings.TrimPrefix(reply, "ERR "))
	}
	return fmt.Errorf("unexpected reply: %q", reply)
}

// Signup registers a new account.
func (c *Client) Signup(username, password string) error {
	if err := c.sendLine(fmt.Sprintf("SIGNUP %s %s", username, password)); err != nil {
		return err
	}
	reply, err := c.readReply()
	if err != nil {
		return err
	}
	return okOrErr(reply)
}

// Login authenticates the connection as username.
func (c *Client) Login(username, password string) error {
	if err := c.sendLine(fmt.Sprintf("LOGIN %s %s", username, password)); err != nil {
		return err
	}
	reply, err := c.readReply()
	if err != nil {
		return err
	}
	return okOrErr(reply)
}

// Upload sends size bytes read from r as the named file's content.
func (c *Client) Upload(name string, size int64, r io.Reader) error {
	if err := c.sendLine(fmt.Sprintf("UPLOAD %s %d", name, size)); err != nil {
		return err
	}
	if _, err := io.CopyN(c.conn, r, size); err != nil {
		return fmt.Errorf("send payload: %w", err)
	}
	reply, err := c.readReply()
	if err != nil {
		return err
	}
	return okOrErr(reply)
}

// Download fetches the named file's content, writing it to w.
func (c *Client) Download(name string, w io.Writer) (int64, error) {
	if err := c.sendLine("DOWNLOAD " + name); err != nil {
		return 0, err
	}
	header, err := c.readReply()
	if err != nil {
		return 0, err
	}
	if strings.HasPrefix(header, "ERR ") {
		return 0, fmt.Errorf("server error: %s", strings.TrimPrefix(header, "ERR "))
	}
	var size int64
	if _, err := fmt.Sscanf(header, "OK %d", &size); err != nil {
		return 0, fmt.Errorf("malformed download header %q", header)
	}
	n, err := io.CopyN(w, c.r, size)
	if err != nil {
		return n, fmt.Errorf("receive payload: %w", err)
	}
	return n, nil
}

// Delete removes the named file.
func (c *Client) Delete(name string) error {
	if err := c.sendLine("DELETE " + name); err != nil {
		return err
	}
	reply, err := c.readReply()
	if err != nil {
		return err
	}
	return okOrErr(reply)
}

// List returns the caller's file names.
func (c *Client) List() ([]string, error) {
	if err := c.sendLine("LIST"); err != nil {
		return nil, err
	}
	header, err := c.readReply()
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(header, "ERR ") {
		return nil, fmt.Errorf("server error: %s", strings.TrimPrefix(header, "ERR "))
	}
	var count int
	if _, err := fmt.Sscanf(header, "OK %d", &count); err != nil {
		return nil, fmt.Errorf("malformed list header %q", header)
	}
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		name, err := c.readReply()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
