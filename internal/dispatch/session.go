//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package dispatch implements the extension engine's control core: the
// per-session view over the two-tier descriptor catalog, the inbound
// and outbound extension block walks, and resumption pack/unpack of
// per-extension session state.
//
// A Session is single-threaded: the handshake state machine drives it
// from one goroutine at a time and every operation is a straight-line
// computation. The process-wide built-in registry is sealed when the
// first session is created.
package dispatch

import (
	"github.com/markkurossi/exthello/internal/catalog"
	"github.com/markkurossi/exthello/internal/descriptor"
	"github.com/markkurossi/exthello/internal/extid"
	"github.com/markkurossi/exthello/internal/sessionstate"
)

// Session carries the extension engine's per-session state: the
// overlay descriptor tier, the live/resumed state table, and the
// advertisement bitset.
type Session struct {
	role    extid.Role
	reg     *catalog.Registry
	overlay []*descriptor.Descriptor
	nextID  extid.InternalID
	table   *sessionstate.Table
	adv     *sessionstate.Bitset
}

// NewSession creates a session running in the given handshake role
// against the given built-in registry. Creating a session seals the
// registry against further built-in registration.
func NewSession(reg *catalog.Registry, role extid.Role) *Session {
	reg.Seal()
	return &Session{
		role:   role,
		reg:    reg,
		nextID: reg.NextID(),
		table:  sessionstate.NewTable(extid.MaxInternalID),
		adv:    sessionstate.NewBitset(extid.MaxInternalID),
	}
}

// Role reports whether this session is running as a TLS client or
// server.
func (s *Session) Role() extid.Role {
	return s.role
}

// RegisterOverlay admits d into the session's overlay tier, shadowing
// a built-in at the same wire id when override is set and the built-in
// permits it. A fresh internal id above every id seen in either tier
// is assigned. When d carries no validity mask, the default overlay
// mask is applied.
func (s *Session) RegisterOverlay(d *descriptor.Descriptor, override bool) error {
	if b := s.reg.LookupWire(d.WireID); b != nil {
		if !override || !b.MayOverride {
			return &Error{
				Kind:   KindAlreadyRegistered,
				WireID: d.WireID,
				Msg:    "wire id taken by built-in",
				Err:    catalog.ErrAlreadyRegistered,
			}
		}
	}
	for _, o := range s.overlay {
		if o.WireID == d.WireID {
			return &Error{
				Kind:   KindAlreadyRegistered,
				WireID: d.WireID,
				Msg:    "wire id taken by overlay",
				Err:    catalog.ErrAlreadyRegistered,
			}
		}
	}
	if s.nextID >= extid.MaxInternalID {
		return &Error{
			Kind:   KindOutOfSpace,
			WireID: d.WireID,
			Msg:    "internal id space exhausted",
			Err:    catalog.ErrOutOfSpace,
		}
	}
	if d.ValidityMask == 0 {
		d.ValidityMask = extid.DefaultOverlayValidity
	}
	d.InternalID = s.nextID
	s.nextID++
	s.overlay = append(s.overlay, d)
	return nil
}

// LookupWireToInternal resolves a wire id against overlay then
// built-ins.
// Zero means unknown.
func (s *Session) LookupWireToInternal(wire extid.WireID) extid.InternalID {
	for _, o := range s.overlay {
		if o.WireID == wire {
			return o.InternalID
		}
	}
	if d := s.reg.LookupWire(wire); d != nil {
		return d.InternalID
	}
	return 0
}

// LookupByInternalID resolves an internal id against overlay then
// built-ins, filtered by the requested parse class.
func (s *Session) LookupByInternalID(id extid.InternalID, pc extid.ParseClass) (
	*descriptor.Descriptor, bool) {

	var d *descriptor.Descriptor
	for _, o := range s.overlay {
		if o.InternalID == id {
			d = o
			break
		}
	}
	if d == nil {
		d = s.reg.LookupInternal(id)
	}
	if d == nil {
		return nil, false
	}
	if pc != extid.Any && d.ParseClass != pc {
		return nil, false
	}
	return d, true
}

// deinitFor resolves the deinit operation for an internal id.
func (s *Session) deinitFor(id extid.InternalID) func(interface{}) {
	d, ok := s.LookupByInternalID(id, extid.Any)
	if !ok {
		return nil
	}
	return d.Deinit
}

// ExtData returns the live private data of the extension registered at
// wire, if any.
func (s *Session) ExtData(wire extid.WireID) (interface{}, bool) {
	id := s.LookupWireToInternal(wire)
	if id == 0 {
		return nil, false
	}
	return s.table.GetLive(id)
}

// SetExtData installs priv as the live private data of the extension
// registered at wire, deiniting any value it replaces.
func (s *Session) SetExtData(wire extid.WireID, priv interface{}) error {
	id := s.LookupWireToInternal(wire)
	if id == 0 {
		return errf(KindRequestedDataNotAvailable, wire,
			"no extension registered at %v", wire)
	}
	err := s.table.SetLive(id, priv, s.deinitFor(id))
	if err != nil {
		return &Error{
			Kind:   KindInternalError,
			WireID: wire,
			Msg:    "state table full",
			Err:    err,
		}
	}
	return nil
}

// ResumedExtData returns the resumed private data of the extension
// registered at wire, if an earlier Unpack produced one.
func (s *Session) ResumedExtData(wire extid.WireID) (interface{}, bool) {
	id := s.LookupWireToInternal(wire)
	if id == 0 {
		return nil, false
	}
	return s.table.GetResumed(id)
}

// GetSessionData returns the live private data of the extension
// registered at wire, failing when none is set.
func (s *Session) GetSessionData(wire extid.WireID) (interface{}, error) {
	priv, ok := s.ExtData(wire)
	if !ok {
		return nil, errf(KindRequestedDataNotAvailable, wire,
			"no session data for %v", wire)
	}
	return priv, nil
}

// GetResumedData returns the resumed private data of the extension
// registered at wire, failing when none is set.
func (s *Session) GetResumedData(wire extid.WireID) (interface{}, error) {
	priv, ok := s.ResumedExtData(wire)
	if !ok {
		return nil, errf(KindRequestedDataNotAvailable, wire,
			"no resumed data for %v", wire)
	}
	return priv, nil
}

// UnsetExtData clears the live private data of the extension
// registered at wire, deiniting the value it held.
func (s *Session) UnsetExtData(wire extid.WireID) {
	id := s.LookupWireToInternal(wire)
	if id == 0 {
		return
	}
	s.table.UnsetLive(id, s.deinitFor(id))
}

// Free releases every live and resumed private value held by the
// session and drops the overlay tier. The session must not be used
// afterwards.
func (s *Session) Free() {
	s.table.FreeAll(s.deinitFor)
	s.overlay = nil
}

var _ descriptor.Session = &Session{}
