//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package wire implements the byte-level encoding the extension engine
// speaks: the 16-bit-length-prefixed TLV walk over an inbound extension
// block, length-placeholder bookkeeping for outbound blocks, and a
// struct-tag codec for extension payload structures.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/cryptobyte"

	"github.com/markkurossi/exthello/internal/extid"
)

var bo = binary.BigEndian

// ErrTruncated reports an extension block whose TLV framing does not
// add up: a record header or body extending past the supplied block.
var ErrTruncated = fmt.Errorf("wire: truncated extension block")

// ReadBlock iterates the TLV records of an extension block, invoking fn
// for each. The block's own outer length has already been stripped by
// the framer. A framing error is reported as ErrTruncated; an error
// from fn stops the walk and is returned as-is.
func ReadBlock(block []byte, fn func(wire extid.WireID, body []byte) error) error {
	s := cryptobyte.String(block)

	for !s.Empty() {
		var et uint16
		var body cryptobyte.String

		if !s.ReadUint16(&et) || !s.ReadUint16LengthPrefixed(&body) {
			return ErrTruncated
		}
		if err := fn(extid.WireID(et), body); err != nil {
			return err
		}
	}
	return nil
}

// AppendUint16 appends v in big-endian order.
func AppendUint16(out *bytes.Buffer, v uint16) {
	var buf [2]byte

	bo.PutUint16(buf[:], v)
	out.Write(buf[:])
}

// ReserveUint16 appends a 2-byte length placeholder and returns its
// offset for a later PatchUint16.
func ReserveUint16(out *bytes.Buffer) int {
	ofs := out.Len()
	out.WriteByte(0)
	out.WriteByte(0)
	return ofs
}

// PatchUint16 back-patches a placeholder written by ReserveUint16.
func PatchUint16(out *bytes.Buffer, ofs, v int) error {
	if v < 0 || v > 0xffff {
		return fmt.Errorf("wire: length %d out of range", v)
	}
	bo.PutUint16(out.Bytes()[ofs:], uint16(v))
	return nil
}

// AppendUint32 appends v in big-endian order.
func AppendUint32(out *bytes.Buffer, v uint32) {
	var buf [4]byte

	bo.PutUint32(buf[:], v)
	out.Write(buf[:])
}

// ReserveUint32 appends a 4-byte placeholder and returns its offset for
// a later PatchUint32.
func ReserveUint32(out *bytes.Buffer) int {
	ofs := out.Len()
	out.Write([]byte{0, 0, 0, 0})
	return ofs
}

// PatchUint32 back-patches a placeholder written by ReserveUint32.
func PatchUint32(out *bytes.Buffer, ofs int, v uint32) {
	bo.PutUint32(out.Bytes()[ofs:], v)
}

// Uint16List decodes an extension payload holding a length-prefixed
// list of uint16 values. The argument lsize specifies the list length
// field's size in bytes (1 or 2).
func Uint16List(data []byte, lsize int) ([]uint16, error) {
	if len(data) < lsize {
		return nil, fmt.Errorf("wire: truncated list")
	}
	var ll int
	var body []byte

	switch lsize {
	case 1:
		ll = int(data[0])
		body = data[1:]
	case 2:
		ll = int(bo.Uint16(data))
		body = data[2:]
	default:
		panic("invalid lsize")
	}
	if ll != len(body) || ll%2 != 0 {
		return nil, fmt.Errorf("wire: invalid list length")
	}
	var result []uint16
	for i := 0; i < ll; i += 2 {
		result = append(result, bo.Uint16(body[i:]))
	}
	return result, nil
}
