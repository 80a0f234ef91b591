// File: internal/telemetry/tcp.go
package telemetry

import (
	"bufio"
	"context"
	"net"
	"time"

	"go.uber.org/zap"
)

const (
	defaultQueueSize   = 512
	defaultDialTimeout = 2 * time.Second
	defaultWriteWait   = 2 * time.Second
	// redialBackoff bounds how often a dead endpoint is retried.
	redialBackoff = time.Second
)

// TCPSink streams lines to a dashboard listening on a TCP address. The
// connection is opened lazily and reopened after failures. Lines sent while
// the endpoint is unreachable, or while the queue is full, are dropped.
type TCPSink struct {
	addr   string
	logger *zap.Logger
	queue  chan string
	dial   func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewTCPSink creates a sink for addr. Run must be called for lines to flow.
func NewTCPSink(logger *zap.Logger, addr string, dialTimeout time.Duration) *TCPSink {
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	dialer := &net.Dialer{Timeout: dialTimeout}
	return &TCPSink{
		addr:   addr,
		logger: logger.Named("telemetry.tcp"),
		queue:  make(chan string, defaultQueueSize),
		dial:   dialer.DialContext,
	}
}

// Send enqueues a line without blocking.
func (s *TCPSink) Send(line string) {
	select {
	case s.queue <- line:
	default:
		s.logger.Debug("Telemetry queue full, dropping line.")
	}
}

// Run drains the queue until ctx is cancelled.
func (s *TCPSink) Run(ctx context.Context) error {
	var (
		conn       net.Conn
		writer     *bufio.Writer
		lastFailed time.Time
	)
	closeConn := func() {
		if conn != nil {
			_ = conn.Close()
			conn, writer = nil, nil
		}
	}
	defer closeConn()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-s.queue:
			if conn == nil {
				if !lastFailed.IsZero() && time.Since(lastFailed) < redialBackoff {
					continue
				}
				c, err := s.dial(ctx, "tcp", s.addr)
				if err != nil {
					if lastFailed.IsZero() {
						s.logger.Warn("Telemetry endpoint unreachable, dropping lines until it returns.",
							zap.String("addr", s.addr), zap.Error(err))
					}
					lastFailed = time.Now()
					continue
				}
				s.logger.Info("Connected to telemetry endpoint.", zap.String("addr", s.addr))
				conn, writer, lastFailed = c, bufio.NewWriter(c), time.Time{}
			}

			_ = conn.SetWriteDeadline(time.Now().Add(defaultWriteWait))
			if _, err := writer.WriteString(line + "\n"); err == nil {
				// Batch whatever else is already waiting before flushing.
				for drained := false; !drained; {
					select {
					case next := <-s.queue:
						_, _ = writer.WriteString(next + "\n")
					default:
						drained = true
					}
				}
				err = writer.Flush()
				if err == nil {
					continue
				}
				s.logger.Warn("Telemetry write failed, reconnecting on next line.", zap.Error(err))
			}
			closeConn()
			lastFailed = time.Now()
		}
	}
}
