//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package dispatch

import (
	"bytes"
	"errors"

	"github.com/markkurossi/exthello/internal/descriptor"
	"github.com/markkurossi/exthello/internal/extid"
	"github.com/markkurossi/exthello/internal/telemetry"
	"github.com/markkurossi/exthello/internal/wire"
)

// Emit walks the overlay and built-in descriptors in registration
// order, overlay tier first, and appends each willing descriptor's
// extension TLV to out. The last two bytes of out must be the
// reserved outer block length placeholder; Emit back-patches it on
// return.
//
// A server emits only extensions the client advertised. A client
// skips ids already marked advertised, which is how an overlay
// shadowing a built-in at the same wire id suppresses the built-in's
// emission, and marks every emitted id advertised. A Send that
// appends nothing is a skip unless it returns the
// descriptor.ErrEmitZeroLength sentinel, which emits a zero-length
// extension and still counts as advertised.
func (s *Session) Emit(msg extid.Message, pc extid.ParseClass,
	out *bytes.Buffer) error {

	if out.Len() < 2 {
		return errf(KindInternalError, 0,
			"output buffer missing block length placeholder")
	}
	blockLenOfs := out.Len() - 2
	blockStart := out.Len()

	for _, tier := range [][]*descriptor.Descriptor{
		s.overlay, s.reg.Builtins(),
	} {
		for _, d := range tier {
			if d.Send == nil {
				continue
			}
			if pc != extid.Any && d.ParseClass != pc {
				continue
			}
			if !d.ValidityMask.Has(msg) {
				continue
			}
			// Resolve through the catalog so a built-in shadowed by
			// an overlay at the same wire id shares the overlay's
			// advertisement bit and cannot be emitted twice.
			id := s.LookupWireToInternal(d.WireID)
			if s.role == extid.Server && !s.adv.IsSet(id) {
				continue
			}
			if s.role == extid.Client && s.adv.IsSet(id) {
				telemetry.Tracef("emit: %s already advertised, skipping",
					d.Name)
				continue
			}

			headerOfs := out.Len()
			wire.AppendUint16(out, uint16(d.WireID))
			lenOfs := wire.ReserveUint16(out)
			bodyStart := out.Len()

			_, err := d.Send(s, out)
			sentinel := errors.Is(err, descriptor.ErrEmitZeroLength)
			if err != nil && !sentinel {
				return err
			}
			appended := out.Len() - bodyStart
			if sentinel {
				out.Truncate(bodyStart)
				appended = 0
			} else if appended == 0 {
				// Nothing to send this handshake.
				out.Truncate(headerOfs)
				continue
			}
			err = wire.PatchUint16(out, lenOfs, appended)
			if err != nil {
				return &Error{
					Kind:   KindInternalError,
					WireID: d.WireID,
					Msg:    "extension payload too long",
					Err:    err,
				}
			}
			if s.role == extid.Client {
				s.adv.Set(id)
			}
			telemetry.Tracef("emit: %s, %d bytes", d.Name, appended)
		}
	}

	err := wire.PatchUint16(out, blockLenOfs, out.Len()-blockStart)
	if err != nil {
		return &Error{
			Kind: KindInternalError,
			Msg:  "extension block too long",
			Err:  err,
		}
	}
	return nil
}
