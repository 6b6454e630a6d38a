//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package dispatch

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/markkurossi/exthello/internal/catalog"
	"github.com/markkurossi/exthello/internal/descriptor"
	"github.com/markkurossi/exthello/internal/extid"
)

// stringPacker builds a descriptor whose private data is a string
// packed as raw bytes.
func stringPacker(wire extid.WireID, name string) *descriptor.Descriptor {
	return &descriptor.Descriptor{
		WireID:       wire,
		Name:         name,
		ValidityMask: extid.Set(extid.ClientHello),
		Pack: func(priv interface{}, buf *bytes.Buffer) error {
			buf.WriteString(priv.(string))
			return nil
		},
		Unpack: func(body []byte) (interface{}, int, error) {
			return string(body), len(body), nil
		},
	}
}

func TestResumptionRoundTrip(t *testing.T) {
	reg := catalog.NewRegistry()
	a := stringPacker(0xa0a0, "ext_a")
	b := stringPacker(0xb0b0, "ext_b")
	for _, d := range []*descriptor.Descriptor{a, b} {
		if err := reg.RegisterBuiltin(d); err != nil {
			t.Fatal(err)
		}
	}

	s := NewSession(reg, extid.Client)
	if err := s.SetExtData(a.WireID, "state-a"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetExtData(b.WireID, "state-b"); err != nil {
		t.Fatal(err)
	}
	s.adv.Set(a.InternalID)
	s.adv.Set(b.InternalID)

	packed := new(bytes.Buffer)
	if err := s.Pack(packed); err != nil {
		t.Fatal(err)
	}
	if count := binary.BigEndian.Uint32(packed.Bytes()); count != 2 {
		t.Errorf("count=%d, expected 2", count)
	}

	fresh := NewSession(reg, extid.Client)
	if err := fresh.Unpack(packed.Bytes()); err != nil {
		t.Fatal(err)
	}

	resumed := make(map[string]interface{})
	for _, d := range []*descriptor.Descriptor{a, b} {
		priv, err := fresh.GetResumedData(d.WireID)
		if err != nil {
			t.Fatal(err)
		}
		resumed[d.Name] = priv
	}
	expected := map[string]interface{}{
		"ext_a": "state-a",
		"ext_b": "state-b",
	}
	if d := cmp.Diff(expected, resumed); d != "" {
		t.Errorf("resumed state mismatch (-expected +got):\n%s", d)
	}
}

func TestPackSelectsAdvertisedWithPackAndData(t *testing.T) {
	reg := catalog.NewRegistry()

	packed := stringPacker(0xa0a0, "packed_ext")
	noPack := &descriptor.Descriptor{
		WireID:       0xb0b0,
		Name:         "transient_ext",
		ValidityMask: extid.Set(extid.ClientHello),
	}
	noData := stringPacker(0xc0c0, "dataless_ext")
	unadvertised := stringPacker(0xd0d0, "unadvertised_ext")

	for _, d := range []*descriptor.Descriptor{
		packed, noPack, noData, unadvertised,
	} {
		if err := reg.RegisterBuiltin(d); err != nil {
			t.Fatal(err)
		}
	}

	s := NewSession(reg, extid.Client)
	if err := s.SetExtData(packed.WireID, "keep"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetExtData(noPack.WireID, "drop"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetExtData(unadvertised.WireID, "drop"); err != nil {
		t.Fatal(err)
	}
	s.adv.Set(packed.InternalID)
	s.adv.Set(noPack.InternalID)
	s.adv.Set(noData.InternalID)

	out := new(bytes.Buffer)
	if err := s.Pack(out); err != nil {
		t.Fatal(err)
	}
	if count := binary.BigEndian.Uint32(out.Bytes()); count != 1 {
		t.Errorf("count=%d, expected only packed_ext", count)
	}
	if id := binary.BigEndian.Uint32(out.Bytes()[4:]); id != uint32(packed.InternalID) {
		t.Errorf("packed id=%d, expected %d", id, packed.InternalID)
	}
}

func TestPackZeroBytesStillCounted(t *testing.T) {
	reg := catalog.NewRegistry()
	d := &descriptor.Descriptor{
		WireID:       0xa0a0,
		Name:         "empty_pack",
		ValidityMask: extid.Set(extid.ClientHello),
		Pack: func(priv interface{}, buf *bytes.Buffer) error {
			return nil
		},
		Unpack: func(body []byte) (interface{}, int, error) {
			return struct{}{}, len(body), nil
		},
	}
	if err := reg.RegisterBuiltin(d); err != nil {
		t.Fatal(err)
	}

	s := NewSession(reg, extid.Client)
	if err := s.SetExtData(d.WireID, "present"); err != nil {
		t.Fatal(err)
	}
	s.adv.Set(d.InternalID)

	out := new(bytes.Buffer)
	if err := s.Pack(out); err != nil {
		t.Fatal(err)
	}
	if count := binary.BigEndian.Uint32(out.Bytes()); count != 1 {
		t.Errorf("count=%d, expected 1", count)
	}

	fresh := NewSession(reg, extid.Client)
	if err := fresh.Unpack(out.Bytes()); err != nil {
		t.Fatal(err)
	}
	if _, err := fresh.GetResumedData(d.WireID); err != nil {
		t.Errorf("zero-byte record not installed: %v", err)
	}
}

func TestUnpackErrors(t *testing.T) {
	reg := catalog.NewRegistry()
	short := &descriptor.Descriptor{
		WireID:       0xa0a0,
		Name:         "short_unpack",
		ValidityMask: extid.Set(extid.ClientHello),
		Pack: func(priv interface{}, buf *bytes.Buffer) error {
			buf.WriteString(priv.(string))
			return nil
		},
		// Consumes one byte less than declared.
		Unpack: func(body []byte) (interface{}, int, error) {
			if len(body) == 0 {
				return nil, 0, fmt.Errorf("empty")
			}
			return string(body[:len(body)-1]), len(body) - 1, nil
		},
	}
	if err := reg.RegisterBuiltin(short); err != nil {
		t.Fatal(err)
	}
	s := NewSession(reg, extid.Client)

	record := func(id uint32, body []byte) []byte {
		out := new(bytes.Buffer)
		binary.Write(out, binary.BigEndian, uint32(1))
		binary.Write(out, binary.BigEndian, id)
		binary.Write(out, binary.BigEndian, uint32(len(body)))
		out.Write(body)
		return out.Bytes()
	}

	// Unknown internal id.
	err := s.Unpack(record(99, []byte("xx")))
	if !Is(err, KindParsingError) {
		t.Errorf("unknown id: err=%v", err)
	}

	// Short consumption.
	err = s.Unpack(record(uint32(short.InternalID), []byte("xx")))
	if !Is(err, KindParsingError) {
		t.Errorf("short consumption: err=%v", err)
	}

	// Truncated blob.
	err = s.Unpack([]byte{0x00, 0x00, 0x00, 0x01, 0x00})
	if !Is(err, KindParsingError) {
		t.Errorf("truncated blob: err=%v", err)
	}

	// Trailing bytes after a zero-record blob.
	blob := []byte{0x00, 0x00, 0x00, 0x00, 0xff}
	err = s.Unpack(blob)
	if !Is(err, KindParsingError) {
		t.Errorf("trailing bytes: err=%v", err)
	}
}
