// Package protocol builds the 20-byte command packets understood by Govee
// BLE light strips and bulbs (H613E, H6159 and relatives).
//
// Every packet has the same shape:
//
//	byte 0      0x33 header
//	byte 1      opcode
//	bytes 2-18  payload, zero padded (byte 2 is the sub-opcode for 0x05)
//	byte 19     XOR of bytes 0-18
package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// PacketSize is the fixed length of every command packet.
	PacketSize = 20
	// PayloadSize is the number of payload bytes between opcode and checksum.
	PayloadSize = PacketSize - 3

	// Header is the first byte of every command packet.
	Header byte = 0x33
)

// Opcodes.
const (
	OpPower      byte = 0x01
	OpBrightness byte = 0x04
	OpColor      byte = 0x05
)

// Sub-opcodes for OpColor.
const (
	ModeStaticColor byte = 0x02
	ModeScene       byte = 0x04
)

var (
	ErrPacketLength   = errors.New("protocol: packet must be 20 bytes")
	ErrPacketHeader   = errors.New("protocol: bad packet header")
	ErrPacketChecksum = errors.New("protocol: checksum mismatch")
)

// Packet is a serialized command ready to be written to the control
// characteristic. It is a value type; copies are independent.
type Packet [PacketSize]byte

// Opcode returns the command opcode.
func (p Packet) Opcode() byte { return p[1] }

// Payload returns a copy of the payload bytes.
func (p Packet) Payload() []byte {
	out := make([]byte, PayloadSize)
	copy(out, p[2:PacketSize-1])
	return out
}

// Checksum returns the trailing checksum byte.
func (p Packet) Checksum() byte { return p[PacketSize-1] }

// Bytes returns a fresh slice suitable for a GATT write.
func (p Packet) Bytes() []byte {
	out := make([]byte, PacketSize)
	copy(out, p[:])
	return out
}

// valid reports whether the header and checksum are consistent.
func (p Packet) valid() bool {
	return p[0] == Header && p[PacketSize-1] == Checksum(p[:PacketSize-1])
}

// String renders the packet as lowercase hex.
func (p Packet) String() string {
	return hex.EncodeToString(p[:])
}

// Command is the semantic form of a packet: an opcode plus payload.
type Command struct {
	Opcode  byte
	Payload [PayloadSize]byte
}

// NewCommand builds a command from an opcode and payload bytes. Payload
// bytes beyond PayloadSize are dropped.
func NewCommand(opcode byte, payload ...byte) Command {
	c := Command{Opcode: opcode}
	copy(c.Payload[:], payload)
	return c
}

// Packet serializes the command and appends the checksum.
func (c Command) Packet() Packet {
	var p Packet
	p[0] = Header
	p[1] = c.Opcode
	copy(p[2:], c.Payload[:])
	p[PacketSize-1] = Checksum(p[:PacketSize-1])
	return p
}

// Checksum XOR-folds b.
func Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum ^= v
	}
	return sum
}

// Power builds the power on/off command.
func Power(on bool) Packet {
	var state byte
	if on {
		state = 0x01
	}
	return NewCommand(OpPower, state).Packet()
}

// Brightness builds the brightness command. level is clamped to 0-255.
func Brightness(level int) Packet {
	return NewCommand(OpBrightness, clampByte(level)).Packet()
}

// Color builds the static color command. Each channel keeps only its low
// eight bits, so 256 wraps to 0.
func Color(r, g, b int) Packet {
	return NewCommand(OpColor, ModeStaticColor, byte(r&0xff), byte(g&0xff), byte(b&0xff)).Packet()
}

// SceneCommand builds the command that starts a built-in scene.
func SceneCommand(id byte) Packet {
	return NewCommand(OpColor, ModeScene, id).Packet()
}

// Parse validates raw bytes as a packet.
func Parse(b []byte) (Packet, error) {
	var p Packet
	if len(b) != PacketSize {
		return p, fmt.Errorf("%w: got %d", ErrPacketLength, len(b))
	}
	copy(p[:], b)
	if p.valid() {
		return p, nil
	}
	if p[0] != Header {
		return p, fmt.Errorf("%w: 0x%02x", ErrPacketHeader, p[0])
	}
	return p, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrPacketChecksum, p[PacketSize-1], Checksum(p[:PacketSize-1]))
}

// ParseHex is Parse for a hex string. Spaces and colons are ignored.
func ParseHex(s string) (Packet, error) {
	clean := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', ':', '-':
			continue
		}
		clean = append(clean, s[i])
	}
	b, err := hex.DecodeString(string(clean))
	if err != nil {
		return Packet{}, fmt.Errorf("protocol: decode hex: %w", err)
	}
	return Parse(b)
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
