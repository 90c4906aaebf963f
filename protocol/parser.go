package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	ErrMalformedPacket = errors.New("Malformed packet")

	errShortHeader  = fmt.Errorf("cannot read the whole header: %w", ErrMalformedPacket)
	errShortPayload = fmt.Errorf("cannot read the whole payload: %w", ErrMalformedPacket)
	errShortTrailer = fmt.Errorf("cannot read the terminator: %w", ErrMalformedPacket)
)

// Decode reads exactly one frame from r.
//
// The stream ending before a full frame has arrived, or a length field that
// cannot describe a frame, is reported as ErrMalformedPacket. Any other read
// error (timeouts, resets) is returned unchanged. The terminator bytes are
// consumed but their content is not checked.
func Decode(r io.Reader) (*Packet, error) {
	var header [HeaderSize]byte

	if _, err := io.ReadFull(r, header[:]); err != nil {
		if isEOF(err) {
			return nil, errShortHeader
		}

		return nil, err
	}

	bodyLength := int32(binary.LittleEndian.Uint32(header[0:4]))
	requestID := int32(binary.LittleEndian.Uint32(header[4:8]))
	typ := PacketType(binary.LittleEndian.Uint32(header[8:12]))

	if bodyLength < WrapperSize || bodyLength > MaxBodyLength {
		return nil, fmt.Errorf("Invalid length %d: %w", bodyLength, ErrMalformedPacket)
	}

	payload := make([]byte, bodyLength-WrapperSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		if isEOF(err) {
			return nil, errShortPayload
		}

		return nil, err
	}

	var trailer [2]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		if isEOF(err) {
			return nil, errShortTrailer
		}

		return nil, err
	}

	packet := NewPacket(requestID, typ, payload)
	return &packet, nil
}

// Unmarshal decodes a single frame held entirely in data.
func Unmarshal(data []byte) (*Packet, error) {
	return Decode(bytes.NewReader(data))
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
