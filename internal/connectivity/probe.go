// Package connectivity reports whether the device currently has network
// access. The reconciliation path consults the probe before any remote
// attempt so that offline reads never touch the network.
package connectivity

import (
	"net"
	"sync"
	"time"
)

// Probe answers the single question the core ever asks about the
// network.
type Probe interface {
	Online() bool
}

// DialProbe checks connectivity by dialing a well-known address. The
// result is cached briefly so hot paths don't dial on every call.
type DialProbe struct {
	Address string
	Timeout time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	lastResult bool
}

// NewDialProbe creates a probe against the given host:port.
func NewDialProbe(address string) *DialProbe {
	return &DialProbe{
		Address: address,
		Timeout: 2 * time.Second,
	}
}

// Online reports whether the probe address is currently reachable.
func (p *DialProbe) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if time.Since(p.lastCheck) < 5*time.Second {
		return p.lastResult
	}

	conn, err := net.DialTimeout("tcp", p.Address, p.Timeout)
	p.lastCheck = time.Now()
	p.lastResult = err == nil
	if conn != nil {
		conn.Close()
	}
	return p.lastResult
}

// StaticProbe always reports a fixed state. Used by tests and by the
// forced-offline configuration.
type StaticProbe struct {
	IsOnline bool
}

// Online returns the fixed state.
func (p StaticProbe) Online() bool {
	return p.IsOnline
}
