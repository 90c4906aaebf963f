package protocol

// This package implements encoding and decoding of the frames used by the
// Source RCON protocol.
//
// RCON is a strict request/response protocol over a single TCP stream. The
// client sends a frame, the server answers with a frame. There is no
// multiplexing so only one exchange may be in flight on a connection.
//
// === Frame layout
//
// All integers are 32bit signed little-endian.
//
//   ```
//     [length][requestID][type][payload ...][0x00][0x00]
//   ```
//
// - `length` counts every byte after itself, i.e. 4 + 4 + len(payload) + 2
// - `requestID` is chosen by the client and echoed by the server
// - `type` is one of the packet types below
// - `payload` is the raw command text, password or reply. It is not null
//   terminated, the two trailing zero bytes belong to the frame.
//
// === Packet types
//
// - `SERVERDATA_AUTH` (3)           - client sends the password as the payload
// - `SERVERDATA_EXECCOMMAND` (2)    - client sends a command to execute. Servers
//                                     also use 2 for their auth reply
// - `SERVERDATA_RESPONSE_VALUE` (0) - server output of a command
//
// === Auth
//
//  ```
//    > <id>SERVERDATA_AUTH <password>
//    < <id>SERVERDATA_AUTH_RESPONSE
//  ```
//
// A rejected password is signalled by a reply carrying requestID -1 instead of
// the id that was sent.
//
// === Fragmentation
//
// Servers may split long output across several frames. Decode reads exactly
// one frame and does not attempt to reassemble them.
//
