//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package descriptor defines the Extension Descriptor: the static
// capability block describing one TLS hello extension — its wire and
// internal identifiers, display name, where it may legally appear, and the
// (mostly optional) behavior operations the dispatch engine drives during
// parse, emit, and resumption.
//
// A descriptor's operations take a Session, a small capability interface
// rather than a concrete type, so that individual extension modules (see
// internal/builtin) never need to import the dispatch engine itself.
package descriptor

import (
	"bytes"
	"errors"

	"github.com/markkurossi/exthello/internal/extid"
)

// ErrEmitZeroLength is the Send sentinel distinct from both "skip" (Send is
// nil, or validity/parse-class gating applies) and an ordinary error: it
// tells the engine the extension is present but carries an empty payload,
// and must still be counted as advertised. See Descriptor.Send.
var ErrEmitZeroLength = errors.New("descriptor: extension present with zero-length payload")

// Session is the capability surface the dispatch engine exposes to an
// extension's Recv/Send callbacks: get/set the extension's own live and
// resumed private data, keyed by the extension's own wire id, and the
// handshake role driving the session. It mirrors the public
// set_session_ext_data/get_session_ext_data surface from the spec's
// external interface.
type Session interface {
	// Role reports whether this session is running as a TLS client or
	// server.
	Role() extid.Role

	// ExtData returns this extension's live private data, if any has been
	// set (by a previous Recv, or externally via the session's public
	// SetExtData).
	ExtData(wire extid.WireID) (priv interface{}, ok bool)

	// SetExtData installs priv as this extension's live private data,
	// deiniting any value it replaces.
	SetExtData(wire extid.WireID, priv interface{}) error

	// ResumedExtData returns this extension's resumed private data, if an
	// earlier Unpack produced one.
	ResumedExtData(wire extid.WireID) (priv interface{}, ok bool)
}

// Descriptor is the immutable capability block for one extension kind.
// Once registered into a catalog, none of its fields may change.
type Descriptor struct {
	// WireID is the IANA-assigned wire-format extension type.
	WireID extid.WireID

	// InternalID is the dense id this descriptor was assigned when
	// registered. Callers do not set this; the catalog assigns it.
	InternalID extid.InternalID

	// Name is a printable label for diagnostics.
	Name string

	// ValidityMask is the set of handshake messages this extension may
	// legally appear in.
	ValidityMask extid.MessageSet

	// ParseClass lets a caller process only a subset of extensions in one
	// pass. Any matches every pass.
	ParseClass extid.ParseClass

	// MayOverride, when false, forbids a session-level registration from
	// shadowing this descriptor even when the override flag is supplied.
	// Meaningful only for built-in descriptors.
	MayOverride bool

	// Owned marks a descriptor (and its Name) as heap-owned, needing to be
	// released at session/process teardown. Built-ins compiled into this
	// module are never Owned, and nothing in this module sets the flag.
	Owned bool

	// Recv handles an inbound TLV body. Any non-nil error is fatal and
	// aborts the handshake.
	Recv func(s Session, body []byte) error

	// Send appends this extension's outbound payload to buf and returns
	// the number of bytes appended. Returning ErrEmitZeroLength signals a
	// present-but-empty extension, distinct from skipping (return value
	// used instead of 0, nil to keep "skip" and "emit nothing" distinguishable
	// at the call site). Any other non-nil error is fatal.
	Send func(s Session, buf *bytes.Buffer) (int, error)

	// Deinit releases a private-data value previously produced by Recv,
	// Unpack, or installed via SetExtData. It is never called with a nil
	// value that was never set; it must tolerate ordinary-case values.
	Deinit func(priv interface{})

	// Pack serializes priv for resumption.
	Pack func(priv interface{}, buf *bytes.Buffer) error

	// Unpack deserializes a resumption record's body into a fresh private
	// value, reporting the number of body bytes consumed. The engine
	// rejects the record unless the full body was consumed.
	Unpack func(body []byte) (priv interface{}, consumed int, err error)
}
