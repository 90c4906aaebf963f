package protocol

import (
	"encoding/binary"
	"io"
)

var (
	Terminator = []byte{0x00, 0x00}
)

// Encode builds the wire representation of a frame.
func Encode(requestID int32, typ PacketType, payload []byte) []byte {
	bodyLength := WrapperSize + len(payload)

	b := make([]byte, 4+bodyLength)
	binary.LittleEndian.PutUint32(b[0:4], uint32(int32(bodyLength)))
	binary.LittleEndian.PutUint32(b[4:8], uint32(requestID))
	binary.LittleEndian.PutUint32(b[8:12], uint32(typ))
	copy(b[HeaderSize:], payload)
	copy(b[HeaderSize+len(payload):], Terminator)

	return b
}

// WritePacket encodes a frame and hands it to w in a single Write call.
func WritePacket(w io.Writer, requestID int32, typ PacketType, payload []byte) error {
	_, err := w.Write(Encode(requestID, typ, payload))
	return err
}

// Marshal returns the wire representation of p.
func (p Packet) Marshal() []byte {
	return Encode(p.requestID, p.typ, p.payload)
}
