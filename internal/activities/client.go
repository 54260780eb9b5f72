package activities

import (
	"context"
	"fmt"

	"plasmatrack/internal/models"

	"github.com/google/uuid"
)

// transport is the wire-level view of the activity directory. The
// production implementation talks to kactivitymanagerd over the
// session bus; tests substitute an in-memory fake.
type transport interface {
	CurrentActivity(ctx context.Context) (string, error)
	ActivityName(ctx context.Context, id string) (string, error)
	ActivityDescription(ctx context.Context, id string) (string, error)
	Changes() <-chan string
	Close() error
}

type opKind int

const (
	opCurrent opKind = iota
	opName
	opDescription
)

type request struct {
	ctx   context.Context
	op    opKind
	id    string
	reply chan result
}

type result struct {
	value string
	err   error
}

// Client resolves activity ids against the KDE activity directory and
// republishes current-activity changes. A single goroutine owns the
// transport, so lookups and change notifications never interleave on
// the bus.
type Client struct {
	tr       transport
	requests chan request
	events   chan string
	done     chan struct{}
	err      error
}

// NewClient connects to the activity directory on the session bus.
func NewClient() (*Client, error) {
	tr, err := newBusTransport()
	if err != nil {
		return nil, err
	}
	return newClient(tr), nil
}

func newClient(tr transport) *Client {
	return &Client{
		tr:       tr,
		requests: make(chan request),
		events:   make(chan string, 16),
		done:     make(chan struct{}),
	}
}

// Start probes the directory once so a session without
// kactivitymanagerd fails at daemon startup, then launches the owning
// goroutine.
func (c *Client) Start(ctx context.Context) error {
	if _, err := c.tr.CurrentActivity(ctx); err != nil {
		return fmt.Errorf("activity directory unreachable: %w", err)
	}

	go c.run(ctx)
	return nil
}

func (c *Client) run(ctx context.Context) {
	defer close(c.events)
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-c.requests:
			c.serve(req)
		case id, open := <-c.tr.Changes():
			if !open {
				c.err = fmt.Errorf("session bus connection lost")
				return
			}
			if id == "" {
				// The directory broadcasts an empty id while the
				// service restarts; there is nothing to record.
				continue
			}
			if !c.forward(ctx, id) {
				return
			}
		}
	}
}

// forward delivers a change notification while still serving lookups.
// The consumer may be mid-lookup when a change arrives, so blocking
// solely on the events send could wedge both sides.
func (c *Client) forward(ctx context.Context, id string) bool {
	for {
		select {
		case c.events <- id:
			return true
		case req := <-c.requests:
			c.serve(req)
		case <-ctx.Done():
			return false
		}
	}
}

func (c *Client) serve(req request) {
	var value string
	var err error

	switch req.op {
	case opCurrent:
		value, err = c.tr.CurrentActivity(req.ctx)
	case opName:
		value, err = c.tr.ActivityName(req.ctx, req.id)
	case opDescription:
		value, err = c.tr.ActivityDescription(req.ctx, req.id)
	}

	req.reply <- result{value: value, err: err}
}

func (c *Client) call(ctx context.Context, op opKind, id string) (string, error) {
	// Replies are buffered so a caller that gives up does not strand
	// the owning goroutine.
	req := request{ctx: ctx, op: op, id: id, reply: make(chan result, 1)}

	select {
	case c.requests <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.done:
		return "", fmt.Errorf("activity directory client stopped")
	}

	select {
	case res := <-req.reply:
		return res.value, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.done:
		return "", fmt.Errorf("activity directory client stopped")
	}
}

// CurrentActivity returns the id of the activity the desktop is
// currently in.
func (c *Client) CurrentActivity(ctx context.Context) (string, error) {
	return c.call(ctx, opCurrent, "")
}

// Info resolves an activity id to its display name and description.
// Ids that are not directory UUIDs are treated as plain labels, and a
// failed lookup falls back to the raw id so reports never go blank.
func (c *Client) Info(ctx context.Context, id string) models.ActivityInfo {
	if uuid.Validate(id) != nil {
		return models.ActivityInfo{Name: id}
	}

	name, err := c.call(ctx, opName, id)
	if err != nil || name == "" {
		return models.ActivityInfo{Name: id}
	}

	desc, err := c.call(ctx, opDescription, id)
	if err != nil {
		desc = ""
	}

	return models.ActivityInfo{Name: name, Description: desc}
}

// Events returns the stream of current-activity ids. It is closed when
// the client stops.
func (c *Client) Events() <-chan string {
	return c.events
}

// Err returns the terminal error once Events is closed, or nil after a
// clean shutdown.
func (c *Client) Err() error {
	return c.err
}

// Close tears down the transport.
func (c *Client) Close() error {
	return c.tr.Close()
}
