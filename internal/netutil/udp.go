package netutil

import (
	"encoding/json"
	"net"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

// udpDatagramMax bounds a single read; envelopes here are small fixed
// shapes (an address and a protocol), never client payloads.
const udpDatagramMax = 4096

// SendUDP fires env at target as a single best-effort datagram. Loss is
// expected and tolerated by every caller per spec.md §4.1; a send error is
// logged, not propagated.
func SendUDP(logger log.Logger, target wire.Address, env *wire.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		logger.Log("msg", "marshal udp envelope failed", "error", err)
		return
	}
	addr := net.JoinHostPort(target.Host, portString(target.Port))
	conn, err := net.Dial("udp", addr)
	if err != nil {
		logger.Log("msg", "udp dial failed", "target", target, "error", err)
		return
	}
	defer conn.Close()
	if _, err := conn.Write(data); err != nil {
		logger.Log("msg", "udp write failed", "target", target, "error", err)
	}
}

// UDPListenLoop reads datagrams on addr until stop is closed, decoding each
// into an Envelope and handing it to handle. Reads time out every
// recvIdle so the loop can observe stop without blocking forever.
func UDPListenLoop(logger log.Logger, addr wire.Address, recvIdle time.Duration, stop <-chan struct{}, handle func(*wire.Envelope)) error {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP(addr.Host), Port: int(addr.Port)})
	if err != nil {
		return err
	}
	go func() {
		<-stop
		conn.Close()
	}()
	buf := make([]byte, udpDatagramMax)
	for {
		conn.SetReadDeadline(time.Now().Add(recvIdle))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			logger.Log("msg", "udp read error, continuing", "error", err)
			continue
		}
		env := &wire.Envelope{}
		if err := json.Unmarshal(buf[:n], env); err != nil {
			logger.Log("msg", "malformed udp envelope, dropping", "error", err)
			continue
		}
		handle(env)
	}
}
