package protocol

import "fmt"

// PacketType identifies the purpose of a frame.
type PacketType int32

const (
	ServerDataResponseValue PacketType = 0
	ServerDataExecCommand   PacketType = 2
	ServerDataAuth          PacketType = 3

	// ServerDataAuthResponse shares its value with ServerDataExecCommand.
	ServerDataAuthResponse PacketType = 2
)

func (t PacketType) String() string {
	switch t {
	case ServerDataResponseValue:
		return "SERVERDATA_RESPONSE_VALUE"
	case ServerDataExecCommand:
		return "SERVERDATA_EXECCOMMAND"
	case ServerDataAuth:
		return "SERVERDATA_AUTH"
	default:
		return fmt.Sprintf("PacketType(%d)", int32(t))
	}
}

// AuthRejectedID is the requestID a server replies with when the password
// was wrong.
const AuthRejectedID int32 = -1

const (
	// HeaderSize is the number of bytes read before the payload: length,
	// requestID and type.
	HeaderSize = 4 + 4 + 4

	// WrapperSize is the part of the length that is not payload: requestID,
	// type and the two terminator bytes.
	WrapperSize = 4 + 4 + 2

	// MaxBodyLength bounds the length field accepted from a peer.
	MaxBodyLength = 1 << 16
)

// Packet is a single decoded frame. It is a value and is never modified after
// it has been built.
type Packet struct {
	requestID int32
	typ       PacketType
	payload   []byte
}

func NewPacket(requestID int32, typ PacketType, payload []byte) Packet {
	return Packet{requestID: requestID, typ: typ, payload: payload}
}

func (p Packet) RequestID() int32 {
	return p.requestID
}

func (p Packet) Type() PacketType {
	return p.typ
}

func (p Packet) Payload() []byte {
	return p.payload
}

// BodyLength returns the value of the frame's length field.
func (p Packet) BodyLength() int32 {
	return int32(WrapperSize + len(p.payload))
}
