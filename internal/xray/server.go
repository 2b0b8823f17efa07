package xray

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultPort = 2000

	// DaemonAddressEnv tells X-Ray SDKs where to send segments.
	DaemonAddressEnv = "AWS_XRAY_DAEMON_ADDRESS"
	// TraceIDEnv carries the trace header of the current invocation.
	TraceIDEnv = "_X_AMZN_TRACE_ID"

	defaultSettleInterval = 20 * time.Millisecond
	defaultMaxSettlePolls = 50
	maxPacketSize         = 64 * 1024
)

// ErrAlreadyRunning is returned by Start on a running server.
var ErrAlreadyRunning = errors.New("server already running")

// Segment is one decoded trace document.
type Segment = map[string]any

// Server stands in for the X-Ray daemon: it listens on a local UDP port and
// collects the segments sent to it.
type Server struct {
	port           int
	logger         logrus.FieldLogger
	settleInterval time.Duration
	maxSettlePolls int
	retry          *RetryConfig

	mu       sync.RWMutex
	conn     *net.UDPConn
	done     chan struct{}
	segments []Segment
	prevEnv  map[string]*string
}

// Option configures a Server.
type Option func(*Server)

// WithPort sets the listening port; 0 picks a free one.
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithLogger sets the logger used for malformed packets and settle warnings.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithSettle sets the settle poll interval and the maximum number of polls.
func WithSettle(interval time.Duration, maxPolls int) Option {
	return func(s *Server) {
		s.settleInterval = interval
		s.maxSettlePolls = maxPolls
	}
}

// WithRetry sets how binding an in-use port is retried.
func WithRetry(config *RetryConfig) Option {
	return func(s *Server) { s.retry = config }
}

// NewServer creates a stopped server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		port:           DefaultPort,
		logger:         logrus.StandardLogger(),
		settleInterval: defaultSettleInterval,
		maxSettlePolls: defaultMaxSettlePolls,
		retry:          DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	defaultServer *Server
	defaultOnce   sync.Once
)

// Default returns the process-wide server on DefaultPort.
func Default() *Server {
	defaultOnce.Do(func() {
		defaultServer = NewServer()
	})
	return defaultServer
}

// Start binds the UDP socket, points the X-Ray environment variables at it
// and begins collecting. Segments from a previous run are discarded.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return ErrAlreadyRunning
	}

	var conn *net.UDPConn
	err := withRetry(ctx, s.retry, func(ctx context.Context) error {
		var lc net.ListenConfig
		pc, err := lc.ListenPacket(ctx, "udp4", fmt.Sprintf("127.0.0.1:%d", s.port))
		if err != nil {
			return err
		}
		conn = pc.(*net.UDPConn)
		return nil
	})
	if err != nil {
		return fmt.Errorf("start xray server: %w", err)
	}

	s.conn = conn
	s.done = make(chan struct{})
	s.segments = nil
	s.prevEnv = make(map[string]*string)
	s.setEnv(DaemonAddressEnv, conn.LocalAddr().String())
	s.setEnv(TraceIDEnv, NewTraceID())

	go s.serve(conn, s.done)

	return nil
}

// Stop closes the socket, waits for the read loop to exit and restores the
// environment. Stopping a stopped server is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	conn, done := s.conn, s.done
	if conn == nil {
		s.mu.Unlock()
		return nil
	}
	s.conn = nil
	s.restoreEnv()
	s.mu.Unlock()

	err := conn.Close()
	<-done

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("stop xray server: %w", err)
	}
	return nil
}

// Running reports whether the server is listening.
func (s *Server) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn != nil
}

// Addr returns the listening address, or "" when stopped.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil {
		return ""
	}
	return s.conn.LocalAddr().String()
}

// Segments returns a copy of the collected segments.
func (s *Server) Segments() []Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// Len returns the number of collected segments.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}

// Reset drops the collected segments.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = nil
}

// Settle waits until no new segment arrived during one poll interval. It
// gives up after the configured number of polls and returns nil, so a chatty
// emitter can delay a run but never hang it.
func (s *Server) Settle(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Every(s.settleInterval), 1)
	limiter.Allow()

	count := s.Len()
	for i := 0; i < s.maxSettlePolls; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		current := s.Len()
		if current == count {
			return nil
		}
		count = current
	}

	s.logger.WithFields(logrus.Fields{
		"segments": count,
		"polls":    s.maxSettlePolls,
	}).Warn("Trace segments still arriving, continuing without settling")
	return nil
}

func (s *Server) serve(conn *net.UDPConn, done chan struct{}) {
	defer close(done)

	buf := make([]byte, maxPacketSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.logger.WithError(err).Error("Xray server read failed")
			}
			return
		}
		s.processMessage(buf[:n])
	}
}

// processMessage decodes a daemon packet: a JSON header line followed by the
// segment document.
func (s *Server) processMessage(packet []byte) {
	_, body, ok := strings.Cut(string(packet), "\n")
	if !ok {
		s.logger.WithField("packet", string(packet)).Error("Error while processing message: missing header")
		return
	}

	var segment Segment
	if err := json.Unmarshal([]byte(body), &segment); err != nil {
		s.logger.WithError(err).Error("Error while processing message")
		return
	}

	s.mu.Lock()
	s.segments = append(s.segments, segment)
	s.mu.Unlock()
}

// setEnv must be called with s.mu held.
func (s *Server) setEnv(key, value string) {
	if prev, ok := os.LookupEnv(key); ok {
		s.prevEnv[key] = &prev
	} else {
		s.prevEnv[key] = nil
	}
	os.Setenv(key, value)
}

// restoreEnv must be called with s.mu held.
func (s *Server) restoreEnv() {
	for key, prev := range s.prevEnv {
		if prev == nil {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, *prev)
		}
	}
	s.prevEnv = nil
}
