// Package netutil provides the request/response TCP transport and the
// fire-and-forget UDP transport used by every Paxos role, plus the
// accept-loop scaffolding shared by Acceptor, Learner and Server.
package netutil

import (
	"encoding/json"
	"net"
	"strconv"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

// readChunk matches the original implementation's recvall: the wire format
// carries no length prefix, so a reader drains the connection until the
// peer closes or a read returns fewer than readChunk bytes.
const readChunk = 1024

// RecvEnvelope reads one JSON envelope from conn, looping per spec.md §4.1
// until the peer closes the connection or a short read signals end of
// message.
func RecvEnvelope(conn net.Conn) (*wire.Envelope, error) {
	buf, err := recvAll(conn)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, errors.New("netutil: empty message")
	}
	env := &wire.Envelope{}
	if err := json.Unmarshal(buf, env); err != nil {
		return nil, errors.Wrap(err, "netutil: malformed envelope")
	}
	return env, nil
}

func recvAll(conn net.Conn) ([]byte, error) {
	var buf []byte
	chunk := make([]byte, readChunk)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if errNetTimeoutOrClosed(err) {
				break
			}
			return nil, err
		}
		if n < readChunk {
			break
		}
	}
	return buf, nil
}

func errNetTimeoutOrClosed(err error) bool {
	if err.Error() == "EOF" {
		return true
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return true
	}
	return false
}

// SendEnvelope writes env to conn as a single JSON blob with no framing.
func SendEnvelope(conn net.Conn, env *wire.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Request dials target, sends env, reads one reply, and closes the
// connection: the one-request-one-response-then-close pattern of
// spec.md §4.1. A zero reply and nil error on timeout/connect-failure would
// hide those as successes, so both are surfaced as errors; callers that
// want spec.md's "treat as non-reply" policy check the error, not the
// envelope.
func Request(target wire.Address, env *wire.Envelope, timeout time.Duration) (*wire.Envelope, error) {
	addr := net.JoinHostPort(target.Host, portString(target.Port))
	deadline := time.Now().Add(timeout)
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "netutil: dial %v", target)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	if err := SendEnvelope(conn, env); err != nil {
		return nil, errors.Wrapf(err, "netutil: send to %v", target)
	}
	if closer, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = closer.CloseWrite()
	}
	reply, err := RecvEnvelope(conn)
	if err != nil {
		return nil, errors.Wrapf(err, "netutil: recv from %v", target)
	}
	return reply, nil
}

func portString(port uint16) string {
	return strconv.Itoa(int(port))
}

// ListenLoop accepts connections on a TCP listener bound to addr until
// stop is closed. Each accepted connection is handed to handle in its own
// goroutine. The listener's accept deadline is reset every acceptIdle so
// the loop can observe stop without blocking indefinitely, per spec.md §5.
func ListenLoop(logger log.Logger, addr wire.Address, backlog int, acceptIdle time.Duration, stop <-chan struct{}, handle func(net.Conn)) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(addr.Host, portString(addr.Port)))
	if err != nil {
		return errors.Wrapf(err, "netutil: listen on %v", addr)
	}
	_ = backlog // Go's net.Listen has no explicit backlog knob; kept for parity with spec.md's config field.
	go func() {
		<-stop
		ln.Close()
	}()
	for {
		if tl, ok := ln.(*net.TCPListener); ok {
			tl.SetDeadline(time.Now().Add(acceptIdle))
		}
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			logger.Log("msg", "accept error, continuing", "error", err)
			continue
		}
		go handle(conn)
	}
}
