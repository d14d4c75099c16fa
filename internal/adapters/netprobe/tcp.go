// Package netprobe answers the agent's "is the network up yet" question
// with a TCP dial against the store endpoint. It stands in for the
// firmware's join-status register: a binary connected/not-connected
// answer, polled in a spin-wait at startup.
package netprobe

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/harborlabs/dockscale/internal/ports"
)

// Prober probes one TCP endpoint.
type Prober struct {
	addr   string
	dialer net.Dialer
}

// New creates a prober for the host behind storeURL. The port defaults
// from the scheme (443 for https, 80 for http).
func New(storeURL string) (*Prober, error) {
	u, err := url.Parse(storeURL)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("store url %q has no host", storeURL)
	}

	port := u.Port()
	if port == "" {
		if u.Scheme == "http" {
			port = "80"
		} else {
			port = "443"
		}
	}

	return &Prober{addr: net.JoinHostPort(u.Hostname(), port)}, nil
}

// Connected reports whether a TCP connection to the endpoint succeeds.
// Timeout behavior is the dialer's own; ctx only cancels.
func (p *Prober) Connected(ctx context.Context) bool {
	conn, err := p.dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

var _ ports.Connectivity = (*Prober)(nil)
