package query

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// Client is the CLI side of the query channel.
type Client struct {
	socketPath string
	timeout    time.Duration
}

func NewClient(socketPath string, timeout time.Duration) *Client {
	return &Client{socketPath: socketPath, timeout: timeout}
}

// Current fetches the current-activity report.
func (c *Client) Current() (string, error) {
	payload, err := EncodeCurrent()
	if err != nil {
		return "", err
	}
	return c.roundTrip(payload)
}

// Summary fetches an activity summary. Empty bounds are omitted from
// the request and take the server's defaults; date strings travel
// verbatim so the server owns all parsing.
func (c *Client) Summary(start, end string) (string, error) {
	var args SummaryArgs
	if start != "" {
		args.StartTime = &start
	}
	if end != "" {
		args.EndTime = &end
	}

	payload, err := EncodeSummary(args)
	if err != nil {
		return "", err
	}
	return c.roundTrip(payload)
}

func (c *Client) roundTrip(payload []byte) (string, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return "", fmt.Errorf("daemon not reachable at %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", fmt.Errorf("failed to set deadline: %w", err)
	}

	if _, err := conn.Write(payload); err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	// Half-close tells the server the request is complete.
	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			return "", fmt.Errorf("failed to close write side: %w", err)
		}
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	reply := string(data)
	if msg, found := strings.CutPrefix(reply, "Error: "); found {
		return "", errors.New(strings.TrimSpace(msg))
	}
	return reply, nil
}
