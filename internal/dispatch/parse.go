//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package dispatch

import (
	"errors"

	"github.com/markkurossi/exthello/internal/extid"
	"github.com/markkurossi/exthello/internal/telemetry"
	"github.com/markkurossi/exthello/internal/wire"
)

// Parse dispatches an inbound extension block, carried by the
// handshake message msg, to the registered descriptors' Recv
// operations, filtered by the parse class pc. The block has already
// been stripped of its outer 2-byte length by the framer.
//
// Unknown wire ids and descriptors without a Recv operation are
// skipped silently. A client rejects extensions it did not advertise;
// a server records each received extension in the advertisement bitset
// and rejects duplicates. Framing errors and validity mask violations
// abort the handshake.
func (s *Session) Parse(msg extid.Message, pc extid.ParseClass,
	block []byte) error {

	err := wire.ReadBlock(block, func(w extid.WireID, body []byte) error {
		id := s.LookupWireToInternal(w)
		if id == 0 {
			telemetry.Tracef("parse: unknown extension %v, skipping", w)
			return nil
		}
		if s.role == extid.Client && !s.adv.IsSet(id) {
			telemetry.Debugf("parse: unsolicited extension %v", w)
			return errf(KindUnsolicitedExtension, w,
				"peer sent %v which we did not advertise", w)
		}
		d, ok := s.LookupByInternalID(id, pc)
		if !ok || d.Recv == nil {
			telemetry.Tracef("parse: no %v handler for %v, skipping", pc, w)
			return nil
		}
		if !d.ValidityMask.Has(msg) {
			telemetry.Debugf("parse: %s not legal in %v", d.Name, msg)
			return errf(KindIllegalExtensionForMessage, w,
				"%s not legal in %v", d.Name, msg)
		}
		if s.role == extid.Server {
			if s.adv.IsSet(id) {
				telemetry.Debugf("parse: duplicate extension %v", w)
				return errf(KindDuplicateExtension, w,
					"%s appeared twice in one block", d.Name)
			}
			s.adv.Set(id)
		}
		return d.Recv(s, body)
	})
	if errors.Is(err, wire.ErrTruncated) {
		return &Error{
			Kind: KindMalformedExtensionBlock,
			Msg:  "bad TLV framing",
			Err:  err,
		}
	}
	return err
}
