//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package extid defines the small value types the registry and dispatch
// engine use to identify extensions and the handshake context they run in:
// the wire-format extension type, the engine's own dense internal id, the
// handshake messages an extension may legally appear in, and the parse-class
// filter a caller uses to select a subset of extensions in one pass.
package extid

import "fmt"

// WireID is the IANA-assigned 16-bit TLS extension type transmitted on the
// wire. It is the type field of each record in an extension block.
type WireID uint16

// Well-known extension wire ids. Not an exhaustive IANA mirror; only the
// ones this module's built-in extensions, tests and name table reference.
const (
	WireServerName          WireID = 0
	WireMaxFragmentLength   WireID = 1
	WireStatusRequest       WireID = 5
	WireSupportedGroups     WireID = 10
	WireSignatureAlgorithms WireID = 13
	WireALPN                WireID = 16
	WirePadding             WireID = 21
	WireSessionTicket       WireID = 35
	WirePreSharedKey        WireID = 41
	WireEarlyData           WireID = 42
	WireSupportedVersions   WireID = 43
	WireCookie              WireID = 44
	WirePSKKeyExchangeModes WireID = 45
	WireKeyShare            WireID = 51
	WireRenegotiationInfo   WireID = 65281
)

func (w WireID) String() string {
	return fmt.Sprintf("0x%04x", uint16(w))
}

// InternalID is a dense, small, session-scoped integer the engine assigns
// to each registered extension. It indexes the advertisement bitset and
// keys the state table slots. Zero is reserved to mean "unknown, skip".
type InternalID uint

// MaxInternalID bounds the internal id space (bitset width, state table
// capacity). Spec requires at least 64; built-ins occupy a small prefix and
// runtime registrations grow upward from there.
const MaxInternalID InternalID = 256

// Message identifies the handshake message carrying an extension block.
type Message uint8

// Handshake messages that may legally carry extensions.
const (
	ClientHello Message = iota
	TLS12ServerHello
	TLS13ServerHello
	EncryptedExtensions
	Certificate
	CertificateRequest
	NewSessionTicket
	HelloRetryRequest

	numMessages
)

var messageNames = [numMessages]string{
	ClientHello:         "client_hello",
	TLS12ServerHello:    "tls12_server_hello",
	TLS13ServerHello:    "tls13_server_hello",
	EncryptedExtensions: "encrypted_extensions",
	Certificate:         "certificate",
	CertificateRequest:  "certificate_request",
	NewSessionTicket:    "new_session_ticket",
	HelloRetryRequest:   "hello_retry_request",
}

func (m Message) String() string {
	if int(m) < len(messageNames) {
		return messageNames[m]
	}
	return fmt.Sprintf("{Message %d}", int(m))
}

// MessageSet is a bitset over Message, used as a descriptor's validity mask.
type MessageSet uint16

// Set returns a MessageSet containing exactly the given messages.
func Set(msgs ...Message) MessageSet {
	var s MessageSet
	for _, m := range msgs {
		s |= 1 << uint(m)
	}
	return s
}

// Has reports whether m is a member of the set.
func (s MessageSet) Has(m Message) bool {
	return s&(1<<uint(m)) != 0
}

// DefaultOverlayValidity is applied to a session-level registration that
// supplies no explicit validity mask.
var DefaultOverlayValidity = Set(ClientHello, TLS12ServerHello, EncryptedExtensions)

// ParseClass filters which extensions a caller wants processed in one
// parse/emit pass.
type ParseClass uint8

// Parse classes.
const (
	Any ParseClass = iota
	Application
	TLSEarly
	TLSLate
)

func (pc ParseClass) String() string {
	switch pc {
	case Any:
		return "any"
	case Application:
		return "application"
	case TLSEarly:
		return "tls_early"
	case TLSLate:
		return "tls_late"
	default:
		return fmt.Sprintf("{ParseClass %d}", int(pc))
	}
}

// Role identifies which handshake role a session is running.
type Role uint8

// Roles.
const (
	Client Role = iota
	Server
)

func (r Role) String() string {
	if r == Client {
		return "client"
	}
	return "server"
}
