// Package inhibitor manages logind inhibitor locks over D-Bus.
package inhibitor

import (
	"fmt"
	"os"
	"sync"

	"github.com/coreos/go-systemd/v22/login1"
)

// Conn is the part of a logind connection the lock needs.
// *login1.Conn implements it.
type Conn interface {
	Inhibit(what, who, why, mode string) (*os.File, error)
	Close()
}

// Dialer opens a logind connection.
type Dialer func() (Conn, error)

// DialLogind connects to logind on the system bus.
func DialLogind() (Conn, error) {
	conn, err := login1.New()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Lock represents a logind inhibitor lock. The lock is held for as long as
// the file descriptor returned by logind stays open.
type Lock struct {
	Who  string
	Why  string
	What string // shutdown, sleep, idle, etc.; colon separated
	Mode string // block or delay

	Dial Dialer

	mu      sync.Mutex
	conn    Conn
	fd      *os.File
	holding bool
}

// New creates a new inhibitor lock configuration
func New(who, why string) *Lock {
	return &Lock{
		Who:  who,
		Why:  why,
		What: "shutdown",
		Mode: "block",
		Dial: DialLogind,
	}
}

// Acquire acquires the inhibitor lock if not already held
func (l *Lock) Acquire(reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holding {
		return nil
	}

	why := l.Why
	if reason != "" {
		why = reason
	}

	if l.conn == nil {
		dial := l.Dial
		if dial == nil {
			dial = DialLogind
		}
		conn, err := dial()
		if err != nil {
			return fmt.Errorf("failed to connect to logind: %w", err)
		}
		l.conn = conn
	}

	fd, err := l.conn.Inhibit(l.What, l.Who, why, l.Mode)
	if err != nil {
		return fmt.Errorf("failed to acquire inhibitor: %w", err)
	}

	l.fd = fd
	l.holding = true
	return nil
}

// Release releases the inhibitor lock if held
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.holding || l.fd == nil {
		return nil
	}

	err := l.fd.Close()
	l.fd = nil
	l.holding = false
	if err != nil {
		return fmt.Errorf("failed to release inhibitor: %w", err)
	}
	return nil
}

// IsHolding returns whether the lock is currently held
func (l *Lock) IsHolding() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holding
}

// Update updates the lock reason (releases and re-acquires with new reason)
func (l *Lock) Update(reason string) error {
	if err := l.Release(); err != nil {
		return err
	}
	return l.Acquire(reason)
}

// Close releases the lock and drops the logind connection.
func (l *Lock) Close() error {
	err := l.Release()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
	}
	return err
}
