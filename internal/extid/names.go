//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package extid

// wireNames maps the IANA-registered extension types this module knows
// about to their registry names. Not an exhaustive IANA mirror; the
// catalog consults registered descriptors first and falls back here for
// diagnostics on ids without a descriptor.
var wireNames = map[WireID]string{
	WireServerName:          "server_name",
	WireMaxFragmentLength:   "max_fragment_length",
	WireStatusRequest:       "status_request",
	WireSupportedGroups:     "supported_groups",
	11:                      "ec_point_formats",
	WireSignatureAlgorithms: "signature_algorithms",
	14:                      "use_srtp",
	15:                      "heartbeat",
	WireALPN:                "application_layer_protocol_negotiation",
	18:                      "signed_certificate_timestamp",
	19:                      "client_certificate_type",
	20:                      "server_certificate_type",
	WirePadding:             "padding",
	23:                      "extended_master_secret",
	27:                      "compress_certificate",
	WireSessionTicket:       "session_ticket",
	WirePreSharedKey:        "pre_shared_key",
	WireEarlyData:           "early_data",
	WireSupportedVersions:   "supported_versions",
	WireCookie:              "cookie",
	WirePSKKeyExchangeModes: "psk_key_exchange_modes",
	47:                      "certificate_authorities",
	48:                      "oid_filters",
	49:                      "post_handshake_auth",
	50:                      "signature_algorithms_cert",
	WireKeyShare:            "key_share",
	WireRenegotiationInfo:   "renegotiation_info",
}

// Name returns the IANA registry name of wire, if known.
func Name(wire WireID) (string, bool) {
	name, ok := wireNames[wire]
	return name, ok
}

// ParseMessage resolves a handshake message name, as used in
// configuration files, to its Message tag.
func ParseMessage(name string) (Message, bool) {
	for m, n := range messageNames {
		if n == name {
			return Message(m), true
		}
	}
	return 0, false
}
