package client

import (
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luma/rcon/protocol"
)

const (
	// DefaultPort is the conventional RCON port.
	DefaultPort = 25575

	// MaxCommandLength is the largest encoded command accepted by Command.
	// Larger payloads may be rejected or split by servers.
	MaxCommandLength = 1446
)

type Options struct {
	// Charset is an IANA name used for command text. Empty means UTF-8.
	Charset string

	// Timeout bounds dialing and each exchange. Zero means no limit.
	Timeout time.Duration

	Dial           DialFunc
	LogAuthPackets bool
	Log            *zap.Logger
}

// Session is the facade used by front-ends: it validates input, performs
// the auth handshake and turns command text into replies.
type Session struct {
	conn *Conn

	charsetMu sync.RWMutex
	charset   Charset

	log *zap.Logger
}

func NewSession(options Options) (*Session, error) {
	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	charset, err := LookupCharset(options.Charset)
	if err != nil {
		return nil, err
	}

	return &Session{
		conn: NewConn(ConnOptions{
			Timeout:        options.Timeout,
			Dial:           options.Dial,
			LogAuthPackets: options.LogAuthPackets,
			Log:            log,
		}),
		charset: charset,
		log:     log,
	}, nil
}

// Dial creates a Session, connects and authenticates it.
func Dial(ctx context.Context, host string, port int, password string, options Options) (*Session, error) {
	s, err := NewSession(options)
	if err != nil {
		return nil, err
	}

	if err := s.Connect(ctx, host, port, password); err != nil {
		if KindOf(err) == KindAuthRejected {
			_ = s.Disconnect()
		}

		return nil, err
	}

	return s, nil
}

// Connect opens a connection to host:port and authenticates with password.
// The password is always sent as UTF-8.
func (s *Session) Connect(ctx context.Context, host string, port int, password string) error {
	host = strings.TrimSpace(host)

	if err := validateHostPort(host, strconv.Itoa(port)); err != nil {
		return invalidArgument("connect", err)
	}

	return s.conn.Connect(ctx, net.JoinHostPort(host, strconv.Itoa(port)), []byte(password))
}

// Command sends text to the server and returns its reply verbatim.
//
// Only one frame of the reply is read. Servers that split long output across
// several frames will have the rest delivered to the next command.
func (s *Session) Command(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", invalidArgument("command", ErrEmptyPayload)
	}

	charset := s.Charset()

	payload, err := charset.Encode(text)
	if err != nil {
		return "", invalidArgument("command", err)
	}

	if len(payload) > MaxCommandLength {
		return "", invalidArgument("command", ErrPayloadTooLong)
	}

	resp, err := s.conn.Transact(protocol.ServerDataExecCommand, payload)
	if err != nil {
		return "", err
	}

	reply, err := charset.Decode(resp.Payload())
	if err != nil {
		return "", &Error{Kind: KindMalformed, Op: "command", Err: err}
	}

	return reply, nil
}

// SetCharset changes the charset used by later commands. An empty name
// restores UTF-8.
func (s *Session) SetCharset(name string) error {
	charset, err := LookupCharset(name)
	if err != nil {
		return err
	}

	s.charsetMu.Lock()
	s.charset = charset
	s.charsetMu.Unlock()

	return nil
}

func (s *Session) Charset() Charset {
	s.charsetMu.RLock()
	defer s.charsetMu.RUnlock()

	return s.charset
}

// SetTimeout changes the socket timeout. Zero disables it.
func (s *Session) SetTimeout(timeout time.Duration) {
	s.conn.SetTimeout(timeout)
}

func (s *Session) Timeout() time.Duration {
	return s.conn.Timeout()
}

func (s *Session) RequestID() int32 {
	return s.conn.RequestID()
}

func (s *Session) Authenticated() bool {
	return s.conn.Authenticated()
}

// Disconnect closes the underlying socket.
func (s *Session) Disconnect() error {
	return s.conn.Close()
}

// Close is Disconnect, for use with defer and io.Closer.
func (s *Session) Close() error {
	return s.Disconnect()
}
