// Package transport is the UDP collaborator spec.md §6 describes as
// external to the core: resolve an address, send a request, wait for
// one response, with a per-attempt timeout and a retry count. It
// generalizes the teacher's FetchRoughtime (roughtime.go in the
// retrieval pack), which hard-codes a single blocking send/receive
// with no timeout or retry, into the Send entry point this spec's
// §6 requires. Logging is ambient only: the core packages never
// import this one.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout and DefaultRetries are spec.md §5's collaborator
// defaults: "a per-attempt timeout (default 1 s) and a retry count
// (default 2 additional attempts after the first)".
const (
	DefaultTimeout = time.Second
	DefaultRetries = 2
)

// Options configures Send.
type Options struct {
	Timeout time.Duration
	Retries int
	// VerifySource, if true, discards any datagram whose source
	// address doesn't match the resolved server address and counts it
	// as a timeout on that attempt, per spec.md §6.
	VerifySource bool
	Log          *logrus.Logger
}

// ErrNoResponse is returned when every attempt times out or is
// discarded for a source mismatch.
var ErrNoResponse = errors.New("transport: no response from server")

// Send resolves addr over UDP, writes request, and returns the first
// accepted response datagram along with its source address. It retries
// up to opts.Retries additional times on timeout, honoring ctx
// cancellation across attempts.
func Send(ctx context.Context, addr string, request []byte, opts Options) ([]byte, net.Addr, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	retries := opts.Retries
	if retries == 0 {
		retries = DefaultRetries
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: resolving %q: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, nil, fmt.Errorf("transport: opening socket: %w", err)
	}
	defer conn.Close()

	buf := make([]byte, 64*1024)
	for attempt := 0; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if _, err := conn.WriteTo(request, raddr); err != nil {
			return nil, nil, fmt.Errorf("transport: sending to %v: %w", raddr, err)
		}
		conn.SetReadDeadline(time.Now().Add(timeout))
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			log.WithFields(logrus.Fields{"attempt": attempt, "server": addr}).Debug("transport: attempt timed out")
			continue
		}
		if opts.VerifySource {
			if udpPeer, ok := peer.(*net.UDPAddr); !ok || !udpPeer.IP.Equal(raddr.IP) {
				log.WithFields(logrus.Fields{"attempt": attempt, "peer": peer}).Warn("transport: discarding response from unexpected source")
				continue
			}
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		return out, peer, nil
	}
	return nil, nil, ErrNoResponse
}
