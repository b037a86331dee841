// Package blueprint implements the inert template from which passthroughs are
// stamped out. A template is stored behind an ERC-5202 style preamble so that
// it can never be mistaken for a callable contract:
//
//	0xFE 0x71 <version:6 bits | length size:2 bits> [data length] [data] <logic>
//
// The leading 0xFE makes the stored code halt immediately if executed.
package blueprint

import (
	"bytes"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/gaugeflow/passthrough/registry/errors"
)

const (
	// Version is the only preamble version understood.
	Version byte = 0

	// length size 0b11 is reserved by the preamble format
	maxLengthSize = 2
)

var magic = []byte{0xFE, 0x71}

// Template is a deployed blueprint: the marker header, an optional data
// section and the logic payload used for every instance created from it.
type Template struct {
	code  []byte
	data  []byte
	logic []byte
	hash  common.Hash
}

// New wraps logic behind a version 0 preamble without a data section.
func New(logic []byte) (*Template, error) {
	return NewWithData(logic, nil)
}

// NewWithData wraps logic behind a version 0 preamble carrying data.
func NewWithData(logic []byte, data []byte) (*Template, error) {
	if len(logic) == 0 {
		return nil, errors.NewCreationFailuref("blueprint logic is empty")
	}

	lengthSize := 0
	switch {
	case len(data) == 0:
	case len(data) <= 0xFF:
		lengthSize = 1
	case len(data) <= 0xFFFF:
		lengthSize = 2
	default:
		return nil, errors.NewCreationFailuref("blueprint data section too large: %d bytes", len(data))
	}

	var buf bytes.Buffer
	buf.Write(magic)
	buf.WriteByte(Version<<2 | byte(lengthSize))
	if lengthSize > 0 {
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(data)))
		buf.Write(length[4-lengthSize:])
		buf.Write(data)
	}
	buf.Write(logic)

	return Parse(buf.Bytes())
}

// Parse recognises a stored blueprint and splits it into its sections.
func Parse(code []byte) (*Template, error) {
	if len(code) < len(magic)+1 || !bytes.Equal(code[:len(magic)], magic) {
		return nil, errors.NewCreationFailuref("not a blueprint")
	}

	header := code[len(magic)]
	version := header >> 2
	if version != Version {
		return nil, errors.NewCreationFailuref("unsupported blueprint version %d", version)
	}

	lengthSize := int(header & 0x03)
	if lengthSize > maxLengthSize {
		return nil, errors.NewCreationFailuref("reserved blueprint length encoding")
	}

	offset := len(magic) + 1
	var data []byte
	if lengthSize > 0 {
		if len(code) < offset+lengthSize {
			return nil, errors.NewCreationFailuref("truncated blueprint preamble")
		}
		var length [4]byte
		copy(length[4-lengthSize:], code[offset:offset+lengthSize])
		dataLen := int(binary.BigEndian.Uint32(length[:]))
		offset += lengthSize
		if len(code) < offset+dataLen {
			return nil, errors.NewCreationFailuref("truncated blueprint data section")
		}
		data = code[offset : offset+dataLen]
		offset += dataLen
	}

	if offset == len(code) {
		return nil, errors.NewCreationFailuref("blueprint logic is empty")
	}

	stored := make([]byte, len(code))
	copy(stored, code)

	return &Template{
		code:  stored,
		data:  stored[offset-len(data) : offset],
		logic: stored[offset:],
		hash:  crypto.Keccak256Hash(stored),
	}, nil
}

// IsBlueprint reports whether code carries a blueprint preamble.
func IsBlueprint(code []byte) bool {
	_, err := Parse(code)
	return err == nil
}

// Code returns the stored bytes, preamble included.
func (t *Template) Code() []byte {
	return append([]byte(nil), t.code...)
}

// Logic returns the payload behind the preamble.
func (t *Template) Logic() []byte {
	return append([]byte(nil), t.logic...)
}

// Data returns the optional preamble data section.
func (t *Template) Data() []byte {
	return append([]byte(nil), t.data...)
}

// Hash is the keccak256 of the stored code.
func (t *Template) Hash() common.Hash {
	return t.hash
}
