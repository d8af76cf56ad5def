// Package metrics provides lightweight, lock-free counters for tracking
// what a gomoss run did on the wire.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one or more MOSS sessions.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	connectionsActive atomic.Int64
	connectionsTotal  atomic.Int64
	bytesIn           atomic.Int64
	bytesOut          atomic.Int64
	baseUploaded      atomic.Int64
	filesUploaded     atomic.Int64
	readFailures      atomic.Int64
	rejections        atomic.Int64
	errorsTotal       atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	sessionID    string
	lastResult   string
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ActiveConnections returns the current number of open connections.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the server.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the server.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Upload metrics ───────────────────────────────────────────────────

// FileUploaded records one completed file upload.  Base files (id 0)
// are counted separately from submissions.
func (c *Collector) FileUploaded(id int) {
	if c == nil {
		return
	}
	if id == 0 {
		c.baseUploaded.Add(1)
		return
	}
	c.filesUploaded.Add(1)
}

// BaseFilesUploaded returns the number of base files sent.
func (c *Collector) BaseFilesUploaded() int64 {
	if c == nil {
		return 0
	}
	return c.baseUploaded.Load()
}

// FilesUploaded returns the number of submission files sent.
func (c *Collector) FilesUploaded() int64 {
	if c == nil {
		return 0
	}
	return c.filesUploaded.Load()
}

// ReadFailure records a local file that could not be read.
func (c *Collector) ReadFailure() {
	if c == nil {
		return
	}
	c.readFailures.Add(1)
}

// ReadFailures returns the number of unreadable files seen.
func (c *Collector) ReadFailures() int64 {
	if c == nil {
		return 0
	}
	return c.readFailures.Load()
}

// ── Outcome metrics ──────────────────────────────────────────────────

// SessionStarted stores the id of the session currently running.
func (c *Collector) SessionStarted(id string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
}

// Rejected records a "no" confirmation from the server.
func (c *Collector) Rejected() {
	if c == nil {
		return
	}
	c.rejections.Add(1)
}

// Rejections returns the number of rejected requests.
func (c *Collector) Rejections() int64 {
	if c == nil {
		return 0
	}
	return c.rejections.Load()
}

// RecordResult stores the most recent result line.
func (c *Collector) RecordResult(result string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lastResult = result
	c.mu.Unlock()
}

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string `json:"uptime"`
	SessionID         string `json:"session_id,omitempty"`
	ConnectionsActive int64  `json:"connections_active"`
	ConnectionsTotal  int64  `json:"connections_total"`
	BytesIn           int64  `json:"bytes_in"`
	BytesOut          int64  `json:"bytes_out"`
	BaseFiles         int64  `json:"base_files"`
	Files             int64  `json:"files"`
	ReadFailures      int64  `json:"read_failures"`
	Rejections        int64  `json:"rejections"`
	ErrorsTotal       int64  `json:"errors_total"`
	LastResult        string `json:"last_result,omitempty"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorMessage  string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:            time.Since(c.startTime).Truncate(time.Millisecond).String(),
		SessionID:         c.sessionID,
		ConnectionsActive: c.connectionsActive.Load(),
		ConnectionsTotal:  c.connectionsTotal.Load(),
		BytesIn:           c.bytesIn.Load(),
		BytesOut:          c.bytesOut.Load(),
		BaseFiles:         c.baseUploaded.Load(),
		Files:             c.filesUploaded.Load(),
		ReadFailures:      c.readFailures.Load(),
		Rejections:        c.rejections.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
		LastResult:        c.lastResult,
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
