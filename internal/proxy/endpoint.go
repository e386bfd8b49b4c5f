package proxy

import (
	"fmt"
	"net/url"
	"time"
)

// Protocol is the scheme an endpoint speaks.
type Protocol string

const (
	ProtocolHTTP   Protocol = "http"
	ProtocolHTTPS  Protocol = "https"
	ProtocolSOCKS4 Protocol = "socks4"
	ProtocolSOCKS5 Protocol = "socks5"
)

// ParseProtocol validates a protocol name from config or a proxy list file.
func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(s) {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolSOCKS4, ProtocolSOCKS5:
		return Protocol(s), nil
	}
	return "", fmt.Errorf("invalid proxy protocol: %q", s)
}

// Endpoint is one network egress candidate. Its statistics are owned by the
// Pool and must only be mutated through RecordOutcome under the pool lock.
type Endpoint struct {
	Host     string
	Port     int
	Protocol Protocol
	Username string
	Password string
	Country  string

	SuccessCount int
	FailureCount int
	ResponseTime time.Duration // 0 means no latency recorded yet
	LastUsed     time.Time
	Working      bool
}

// NewEndpoint creates a working endpoint with no recorded history.
func NewEndpoint(host string, port int, protocol Protocol) *Endpoint {
	return &Endpoint{Host: host, Port: port, Protocol: protocol, Working: true}
}

// SuccessRate is success_count / (success_count + failure_count), defined as
// 1.0 when the endpoint has no recorded attempts.
func (e *Endpoint) SuccessRate() float64 {
	total := e.SuccessCount + e.FailureCount
	if total == 0 {
		return 1.0
	}
	return float64(e.SuccessCount) / float64(total)
}

// Addr returns the host:port form used as the endpoint's identity.
func (e *Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// URL builds the proxy URL usable by an http.Transport.
func (e *Endpoint) URL() *url.URL {
	u := &url.URL{
		Scheme: string(e.Protocol),
		Host:   e.Addr(),
	}
	if e.Username != "" {
		u.User = url.UserPassword(e.Username, e.Password)
	}
	return u
}

// Snapshot is a read-only copy of endpoint state handed to callers outside
// the pool.
type Snapshot struct {
	Addr         string        `json:"addr"`
	Protocol     Protocol      `json:"protocol"`
	Country      string        `json:"country,omitempty"`
	SuccessRate  float64       `json:"success_rate"`
	ResponseTime time.Duration `json:"response_time"`
	Working      bool          `json:"working"`
}

func (e *Endpoint) snapshot() Snapshot {
	return Snapshot{
		Addr:         e.Addr(),
		Protocol:     e.Protocol,
		Country:      e.Country,
		SuccessRate:  e.SuccessRate(),
		ResponseTime: e.ResponseTime,
		Working:      e.Working,
	}
}
