package transport

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"runtime"
	"strconv"
	"sync"

	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/rcon/protocol"
	"github.com/luma/rcon/storage"
)

// TCP is a mock RCON server. It speaks the wire protocol, checks the
// password and hands authenticated commands to a Handler.
type TCP struct {
	cancel     context.CancelFunc
	stopWaiter sync.WaitGroup

	addr string

	reuseport    bool
	numListeners int
	listeners    []*TCPListener

	password string
	handler  Handler

	mu sync.Mutex

	log   *zap.Logger
	trace bool
}

func NewTCP(options Options) *TCP {
	numListeners := options.NumListeners

	if numListeners < 1 {
		numListeners = runtime.NumCPU()
	}

	if !options.Reuseport {
		numListeners = 1
	}

	handler := options.Handler
	if handler == nil {
		store := options.Store
		if store == nil {
			store = storage.NewInmemoryStore()
		}

		handler = NewConsole(store)
	}

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &TCP{
		addr:         net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		reuseport:    options.Reuseport,
		numListeners: numListeners,
		listeners:    make([]*TCPListener, 0, numListeners),
		password:     options.Password,
		handler:      handler,
		trace:        options.Trace,
		log:          log,
	}
}

// Start binds every listener before returning, so clients can connect as
// soon as it succeeds.
func (w *TCP) Start(parentCtx context.Context) error {
	w.log.Info("Starting tcp listeners", zap.Int("count", w.numListeners))

	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithCancel(parentCtx)
	w.cancel = cancel

	addr := w.addr
	for i := 0; i < w.numListeners; i++ {
		listener, err := w.listen(addr)
		if err != nil {
			cancel()
			for _, l := range w.listeners {
				l.Close()
			}
			return err
		}

		// A zero port resolves on the first bind, the others share it
		addr = listener.Addr().String()

		w.startListener(ctx, listener)
	}

	return nil
}

// Addr returns the address the server is listening on.
func (w *TCP) Addr() net.Addr {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.listeners) == 0 {
		return nil
	}

	return w.listeners[0].Addr()
}

func (w *TCP) listen(addr string) (net.Listener, error) {
	if w.reuseport {
		return reuseport.Listen("tcp", addr)
	}

	return net.Listen("tcp", addr)
}

func (w *TCP) startListener(ctx context.Context, l net.Listener) {
	w.stopWaiter.Add(1)
	listener := NewTCPListener(
		ctx,
		l,
		w.password,
		w.handler,
		w.trace,
		w.log.Named("listener").With(zap.Int("listener", len(w.listeners))),
	)

	w.listeners = append(w.listeners, listener)

	go func() {
		defer w.stopWaiter.Done()

		if err := listener.Serve(); err != nil {
			w.log.Error("Failed to serve", zap.Error(err))
		}
	}()
}

// Close immediately closes all listeners and connections.
func (w *TCP) Close() (err error) {
	w.log.Info("Stopping TCP server")

	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	listeners := w.listeners
	w.mu.Unlock()

	for _, listener := range listeners {
		err = multierr.Append(err, listener.Close())
	}

	w.stopWaiter.Wait()
	w.log.Info("Listeners stopped")

	return err
}

type TCPListener struct {
	ctx context.Context

	listener net.Listener
	log      *zap.Logger

	mu          sync.Mutex
	closed      bool
	activeConns map[*TCPConn]struct{}
	loopWaiter  sync.WaitGroup

	password string
	handler  Handler
	trace    bool
}

func NewTCPListener(
	ctx context.Context,
	listener net.Listener,
	password string,
	handler Handler,
	trace bool,
	log *zap.Logger,
) *TCPListener {
	return &TCPListener{
		ctx:         ctx,
		listener:    listener,
		activeConns: make(map[*TCPConn]struct{}),
		password:    password,
		handler:     handler,
		trace:       trace,
		log:         log,
	}
}

func (t *TCPListener) Addr() net.Addr {
	return t.listener.Addr()
}

// Close stops accepting and closes every active connection.
func (t *TCPListener) Close() (err error) {
	if cerr := t.listener.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
		err = multierr.Append(err, cerr)
	}

	t.mu.Lock()
	t.closed = true
	for conn := range t.activeConns {
		err = multierr.Append(err, conn.Close())
		delete(t.activeConns, conn)
	}
	t.mu.Unlock()

	return err
}

func (t *TCPListener) Serve() error {
	defer func() {
		t.log.Info("Waiting for connections to stop")
		t.loopWaiter.Wait()
		t.log.Info("Listener stopped")
	}()

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || t.ctx.Err() != nil {
				// The listener was closed while we were waiting for new
				// connections, that's fine.
				return nil
			}

			return err
		}

		tcpConn := NewTCPConn(t.ctx, conn, t.password, t.handler, t.trace, t.log.Named("conn"))

		if !t.addConn(tcpConn) {
			tcpConn.Close()
			return nil
		}
		t.loopWaiter.Add(1)

		go func() {
			defer t.loopWaiter.Done()
			defer t.removeConn(tcpConn)

			tcpConn.ReadLoop()
		}()
	}
}

// addConn tracks conn, it returns false once the listener has been closed.
func (t *TCPListener) addConn(conn *TCPConn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false
	}

	t.activeConns[conn] = struct{}{}
	return true
}

func (t *TCPListener) removeConn(conn *TCPConn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.activeConns, conn)
}

// TCPConn serves a single RCON client. Requests are answered in order, one
// reply frame per request frame.
type TCPConn struct {
	ctx    context.Context
	cancel context.CancelFunc

	conn net.Conn

	password      string
	handler       Handler
	authenticated bool

	trace bool
	log   *zap.Logger
}

func NewTCPConn(
	parentCtx context.Context,
	conn net.Conn,
	password string,
	handler Handler,
	trace bool,
	log *zap.Logger,
) *TCPConn {
	ctx, cancel := context.WithCancel(parentCtx)

	return &TCPConn{
		ctx:      ctx,
		cancel:   cancel,
		conn:     conn,
		password: password,
		handler:  handler,
		trace:    trace,
		log:      log.With(zap.Stringer("remote", conn.RemoteAddr())),
	}
}

func (t *TCPConn) Close() error {
	t.cancel()

	if err := t.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}

func (t *TCPConn) ReadLoop() {
	log := t.log.Named("readLoop")

	defer func() {
		if err := t.Close(); err != nil {
			log.Warn("Failed to close connection cleanly", zap.Error(err))
		}

		log.Info("Read loop exited")
	}()

	for {
		if t.ctx.Err() != nil {
			log.Info("Context cancelled, exiting...")
			return
		}

		req, err := protocol.Decode(t.conn)
		if err != nil {
			if errors.Is(err, protocol.ErrMalformedPacket) || errors.Is(err, net.ErrClosed) {
				log.Debug("Client went away", zap.Error(err))
			} else {
				log.Warn("Failed to read client request", zap.Error(err))
			}

			return
		}

		t.traceFrame("Received packet", req)

		if err := t.dispatch(req); err != nil {
			log.Warn("Failed to reply",
				zap.Int32("requestID", req.RequestID()),
				zap.Error(err))
			return
		}
	}
}

func (t *TCPConn) dispatch(req *protocol.Packet) error {
	switch req.Type() {
	case protocol.ServerDataAuth:
		if t.password != "" && subtle.ConstantTimeCompare(req.Payload(), []byte(t.password)) != 1 {
			t.authenticated = false
			t.log.Info("Rejected password")
			return t.reply(protocol.AuthRejectedID, protocol.ServerDataAuthResponse, nil)
		}

		t.authenticated = true
		return t.reply(req.RequestID(), protocol.ServerDataAuthResponse, nil)

	case protocol.ServerDataExecCommand:
		if !t.authenticated {
			return t.reply(protocol.AuthRejectedID, protocol.ServerDataAuthResponse, nil)
		}

		out := t.handler.Execute(t.ctx, string(req.Payload()))
		return t.reply(req.RequestID(), protocol.ServerDataResponseValue, []byte(out))

	default:
		out := "Unknown request " + strconv.Itoa(int(req.Type())) + "\n"
		return t.reply(req.RequestID(), protocol.ServerDataResponseValue, []byte(out))
	}
}

func (t *TCPConn) reply(requestID int32, typ protocol.PacketType, payload []byte) error {
	resp := protocol.NewPacket(requestID, typ, payload)
	t.traceFrame("Sending packet", &resp)

	return protocol.WritePacket(t.conn, requestID, typ, payload)
}

func (t *TCPConn) traceFrame(msg string, p *protocol.Packet) {
	if !t.trace {
		return
	}

	payload := string(p.Payload())
	if p.Type() == protocol.ServerDataAuth {
		payload = "xxxxx"
	}

	t.log.Debug(msg,
		zap.Int32("requestID", p.RequestID()),
		zap.Stringer("type", p.Type()),
		zap.String("payload", payload))
}
