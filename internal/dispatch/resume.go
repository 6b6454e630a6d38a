//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package dispatch

import (
	"bytes"

	"golang.org/x/crypto/cryptobyte"

	"github.com/markkurossi/exthello/internal/extid"
	"github.com/markkurossi/exthello/internal/telemetry"
	"github.com/markkurossi/exthello/internal/wire"
)

// Pack serializes the session's live extension state into a resumption
// blob: a 32-bit record count followed by one (internal id, size,
// body) record per advertised extension whose descriptor defines Pack
// and which holds live data. A Pack writing zero bytes still counts.
//
// The blob format is engine-private and stable across one build only.
func (s *Session) Pack(out *bytes.Buffer) error {
	countOfs := wire.ReserveUint32(out)
	var count uint32

	for id := extid.InternalID(0); id < extid.MaxInternalID; id++ {
		if !s.adv.IsSet(id) {
			continue
		}
		d, ok := s.LookupByInternalID(id, extid.Any)
		if !ok || d.Pack == nil {
			continue
		}
		priv, ok := s.table.GetLive(id)
		if !ok {
			continue
		}

		wire.AppendUint32(out, uint32(id))
		sizeOfs := wire.ReserveUint32(out)
		bodyStart := out.Len()

		if err := d.Pack(priv, out); err != nil {
			return err
		}
		wire.PatchUint32(out, sizeOfs, uint32(out.Len()-bodyStart))
		count++
		telemetry.Tracef("pack: %s, %d bytes", d.Name, out.Len()-bodyStart)
	}

	wire.PatchUint32(out, countOfs, count)
	return nil
}

// Unpack deserializes a resumption blob produced by Pack, installing
// each record's value as the corresponding extension's resumed private
// data. A record naming an unknown internal id, a descriptor without
// Unpack, or an Unpack that does not consume its record's exact
// declared length fails the whole operation.
func (s *Session) Unpack(in []byte) error {
	str := cryptobyte.String(in)

	var count uint32
	if !str.ReadUint32(&count) {
		return errf(KindParsingError, 0, "truncated resumption blob")
	}
	for i := uint32(0); i < count; i++ {
		var id, size uint32
		var body []byte

		if !str.ReadUint32(&id) || !str.ReadUint32(&size) ||
			size > uint32(len(str)) || !str.ReadBytes(&body, int(size)) {
			return errf(KindParsingError, 0,
				"truncated resumption record %d", i)
		}
		if id >= uint32(extid.MaxInternalID) {
			return errf(KindParsingError, 0,
				"resumption record %d: id %d out of range", i, id)
		}
		d, ok := s.LookupByInternalID(extid.InternalID(id), extid.Any)
		if !ok || d.Unpack == nil {
			return errf(KindParsingError, 0,
				"resumption record %d: no unpack for id %d", i, id)
		}
		priv, consumed, err := d.Unpack(body)
		if err != nil {
			return &Error{
				Kind:   KindParsingError,
				WireID: d.WireID,
				Msg:    "unpack failed",
				Err:    err,
			}
		}
		if consumed != len(body) {
			return errf(KindParsingError, d.WireID,
				"%s consumed %d of %d bytes", d.Name, consumed, len(body))
		}
		err = s.table.SetResumed(extid.InternalID(id), priv, d.Deinit)
		if err != nil {
			return &Error{
				Kind:   KindInternalError,
				WireID: d.WireID,
				Msg:    "state table full",
				Err:    err,
			}
		}
		telemetry.Tracef("unpack: %s, %d bytes", d.Name, len(body))
	}
	if !str.Empty() {
		return errf(KindParsingError, 0,
			"%d trailing bytes after %d resumption records", len(str), count)
	}
	return nil
}
