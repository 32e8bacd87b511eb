// File: internal/wsprober/wsprober.go
package wsprober

import (
	"crypto/tls"
	"net"
	"strings"
	"time"

	"golang.org/x/net/websocket"
)

// DefaultPaths are the candidate endpoints attempted when no override is given.
var DefaultPaths = []string{"/", "/ws", "/websocket", "/socket.io/?EIO=4&transport=websocket"}

// Probe records one WebSocket handshake attempt against one path.
type Probe struct {
	URL         string  `json:"url"`
	OK          bool    `json:"ok"`
	Subprotocol string  `json:"negotiated_subprotocol"`
	Error       string  `json:"error"`
	Ms          float64 `json:"ms"`
}

// Prober attempts WebSocket handshakes over wss://. It only runs when the
// caller explicitly enables WebSocket probing.
type Prober struct {
	timeout time.Duration
	dial    func(cfg *websocket.Config) (*websocket.Conn, error)
}

func New(timeout time.Duration) *Prober {
	p := &Prober{timeout: timeout}
	p.dial = p.dialWithDeadline
	return p
}

// dialWithDeadline dials the endpoint itself so one deadline covers the TCP
// connect, the TLS handshake and the HTTP upgrade exchange. The library's own
// DialConfig only bounds the connect and TLS phases.
func (p *Prober) dialWithDeadline(cfg *websocket.Config) (*websocket.Conn, error) {
	host := cfg.Location.Host
	if cfg.Location.Port() == "" {
		host = net.JoinHostPort(host, "443")
	}
	raw, err := net.DialTimeout("tcp", host, p.timeout)
	if err != nil {
		return nil, err
	}
	raw.SetDeadline(time.Now().Add(p.timeout))

	conn := tls.Client(raw, cfg.TlsConfig)
	ws, err := websocket.NewClient(cfg, conn)
	if err != nil {
		raw.Close()
		return nil, err
	}
	return ws, nil
}

// ProbeAll attempts a handshake per candidate path, independently; a failure
// on one path never prevents attempting the next. Certificate validation is
// disabled, matching the TLS prober.
func (p *Prober) ProbeAll(domain string, paths []string) []Probe {
	out := make([]Probe, 0, len(paths))
	for _, path := range paths {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		out = append(out, p.probeOne("wss://"+domain+path, domain))
	}
	return out
}

func (p *Prober) probeOne(url, domain string) (probe Probe) {
	probe = Probe{URL: url}
	start := time.Now()
	defer func() {
		probe.Ms = float64(time.Since(start).Microseconds()) / 1000.0
	}()

	cfg, err := websocket.NewConfig(url, "https://"+domain)
	if err != nil {
		probe.Error = err.Error()
		return probe
	}
	cfg.TlsConfig = &tls.Config{
		ServerName:         cfg.Location.Hostname(),
		InsecureSkipVerify: true,
	}

	conn, err := p.dial(cfg)
	if err != nil {
		probe.Error = err.Error()
		return probe
	}
	probe.OK = true
	if protos := conn.Config().Protocol; len(protos) > 0 {
		probe.Subprotocol = protos[0]
	}
	conn.Close()
	return probe
}
