package client

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/rcon/protocol"
)

// DialFunc opens the transport for a Conn. It matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

type ConnOptions struct {
	// Timeout bounds dialing and every read and write. Zero means no limit.
	Timeout time.Duration

	// Dial replaces the default TCP dialer. Mostly useful in tests.
	Dial DialFunc

	// LogAuthPackets includes the password in debug packet dumps. Off by
	// default; auth payloads are redacted.
	LogAuthPackets bool

	Log *zap.Logger
}

// Conn owns a single RCON socket. Connect, Transact and Close are serialised
// by one mutex so at most one request/response exchange is ever in flight.
type Conn struct {
	mu sync.Mutex

	conn          net.Conn
	closed        bool
	requestID     int32
	authenticated bool

	timeout atomic.Int64

	dial           DialFunc
	logAuthPackets bool

	log *zap.Logger
}

func NewConn(options ConnOptions) *Conn {
	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	c := &Conn{
		dial:           options.Dial,
		logAuthPackets: options.LogAuthPackets,
		log:            log,
	}
	c.timeout.Store(int64(options.Timeout))

	return c
}

// SetTimeout changes the timeout used by the next dial and exchange.
func (c *Conn) SetTimeout(timeout time.Duration) {
	if timeout < 0 {
		timeout = 0
	}

	c.timeout.Store(int64(timeout))
}

func (c *Conn) Timeout() time.Duration {
	return time.Duration(c.timeout.Load())
}

// RequestID returns the id minted by the last Connect.
func (c *Conn) RequestID() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.requestID
}

// Authenticated reports whether the last Connect passed the auth handshake.
func (c *Conn) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.authenticated
}

// Connect opens a new socket to addr and authenticates with password.
//
// Any previous socket is closed first, sockets are never reused. A rejected
// password returns a KindAuthRejected error and leaves the socket open; the
// caller should Close it. Transport failures close the socket.
func (c *Conn) Connect(ctx context.Context, addr string, password []byte) error {
	if err := validateAddr(addr); err != nil {
		return invalidArgument("connect", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.closed {
		if err := c.conn.Close(); err != nil {
			c.log.Debug("Previous connection did not close cleanly", zap.Error(err))
		}
	}
	c.conn = nil
	c.closed = false

	c.requestID = newRequestID()
	c.authenticated = false

	log := c.log.With(zap.String("addr", addr), zap.Int32("requestID", c.requestID))

	timeout := c.Timeout()
	dialCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := c.dialer()(dialCtx, "tcp", addr)
	if err != nil {
		log.Debug("Failed to connect", zap.Error(err))
		return transportError("connect", err)
	}

	c.conn = conn
	log.Debug("Connected")

	resp, err := c.exchange("connect", protocol.ServerDataAuth, password)
	if err != nil {
		log.Debug("Auth exchange failed", zap.Error(err))
		return err
	}

	if resp.RequestID() == protocol.AuthRejectedID {
		log.Info("Password rejected by server")
		return &Error{Kind: KindAuthRejected, Op: "connect", Err: ErrAuthRejected}
	}

	c.authenticated = true
	log.Info("Authenticated")

	return nil
}

// Transact writes one request frame and reads exactly one reply frame.
func (c *Conn) Transact(typ protocol.PacketType, payload []byte) (*protocol.Packet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.exchange("transact", typ, payload)
}

// Close closes the socket. Closing twice, or closing a Conn that never
// connected, returns an error.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return transportError("close", ErrNotConnected)
	}

	if c.closed {
		return transportError("close", net.ErrClosed)
	}

	c.closed = true
	c.authenticated = false

	if err := c.conn.Close(); err != nil {
		return transportError("close", err)
	}

	c.log.Debug("Disconnected")
	return nil
}

// exchange must be called with c.mu held.
func (c *Conn) exchange(op string, typ protocol.PacketType, payload []byte) (*protocol.Packet, error) {
	if c.conn == nil {
		return nil, transportError(op, ErrNotConnected)
	}

	if c.closed {
		return nil, transportError(op, net.ErrClosed)
	}

	if timeout := c.Timeout(); timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return nil, c.fail(transportError(op, err))
		}
	}

	frame := protocol.Encode(c.requestID, typ, payload)
	c.logFrame("Sending packet", typ, frame)

	if _, err := c.conn.Write(frame); err != nil {
		// Never read a reply to a request that did not fully leave.
		return nil, c.fail(transportError(op, err))
	}

	resp, err := protocol.Decode(c.conn)
	if err != nil {
		return nil, c.fail(readError(op, err))
	}

	c.logFrame("Received packet", resp.Type(), resp.Marshal())

	return resp, nil
}

// fail closes the poisoned socket and returns err, plus the close error if
// that failed too. Must be called with c.mu held.
func (c *Conn) fail(err error) error {
	c.authenticated = false
	c.closed = true

	if cerr := c.conn.Close(); cerr != nil {
		err = multierr.Append(err, cerr)
	}

	return err
}

func (c *Conn) dialer() DialFunc {
	if c.dial != nil {
		return c.dial
	}

	d := &net.Dialer{}
	return d.DialContext
}

// logFrame dumps a frame at debug level. Auth frames only show their header
// unless LogAuthPackets was set.
func (c *Conn) logFrame(msg string, typ protocol.PacketType, frame []byte) {
	if ce := c.log.Check(zap.DebugLevel, msg); ce != nil {
		if typ == protocol.ServerDataAuth && !c.logAuthPackets && len(frame) > protocol.HeaderSize {
			frame = frame[4:protocol.HeaderSize]
		}

		ce.Write(zap.Stringer("type", typ), zap.String("packet", hex.EncodeToString(frame)))
	}
}

// newRequestID returns a random id for a session. -1 is skipped as servers
// use it to signal a rejected password.
func newRequestID() int32 {
	for {
		id := int32(rand.Uint32())
		if id != protocol.AuthRejectedID {
			return id
		}
	}
}

func validateAddr(addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("Invalid address %q: %w", addr, err)
	}

	return validateHostPort(host, portStr)
}

func validateHostPort(host, portStr string) error {
	if host == "" {
		return fmt.Errorf("Host can't be empty")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("Port %s is out of range", portStr)
	}

	return nil
}
