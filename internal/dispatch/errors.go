//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package dispatch

import (
	"errors"
	"fmt"

	"github.com/markkurossi/exthello/internal/extid"
)

// Kind classifies an engine error.
type Kind int

// Engine error kinds. The first four are fatal handshake errors
// surfaced from Parse/Emit; the rest are ordinary returned errors the
// caller branches on.
const (
	KindMalformedExtensionBlock Kind = iota
	KindUnsolicitedExtension
	KindDuplicateExtension
	KindIllegalExtensionForMessage
	KindAlreadyRegistered
	KindOutOfSpace
	KindParsingError
	KindRequestedDataNotAvailable
	KindInternalError
)

var kindNames = map[Kind]string{
	KindMalformedExtensionBlock:    "malformed_extension_block",
	KindUnsolicitedExtension:       "unsolicited_extension",
	KindDuplicateExtension:         "duplicate_extension",
	KindIllegalExtensionForMessage: "illegal_extension_for_message",
	KindAlreadyRegistered:          "already_registered",
	KindOutOfSpace:                 "out_of_space",
	KindParsingError:               "parsing_error",
	KindRequestedDataNotAvailable:  "requested_data_not_available",
	KindInternalError:              "internal_error",
}

func (k Kind) String() string {
	name, ok := kindNames[k]
	if ok {
		return name
	}
	return fmt.Sprintf("{Kind %d}", int(k))
}

// Error is the engine's error type: a kind, the wire id involved (zero
// when not applicable), and an optional wrapped cause.
type Error struct {
	Kind   Kind
	WireID extid.WireID
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if len(e.Msg) > 0 {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err is an engine error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == k
}

func errf(k Kind, wire extid.WireID, format string, a ...interface{}) *Error {
	return &Error{
		Kind:   k,
		WireID: wire,
		Msg:    fmt.Sprintf(format, a...),
	}
}
