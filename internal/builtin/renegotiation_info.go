//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package builtin

import (
	"bytes"
	"fmt"

	"github.com/markkurossi/exthello/internal/descriptor"
	"github.com/markkurossi/exthello/internal/extid"
)

// RenegotiationInfoData marks that the peer negotiated secure
// renegotiation with an empty renegotiated_connection value.
type RenegotiationInfoData struct {
	Secure bool
}

// NewRenegotiationInfo creates the renegotiation_info (65281)
// extension descriptor. Its send emits a present-but-empty extension
// through the zero-length sentinel: the initial handshake has no
// renegotiated connection to report, but the extension's presence is
// what the peer keys on.
func NewRenegotiationInfo() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		WireID:       extid.WireRenegotiationInfo,
		Name:         "renegotiation_info",
		ValidityMask: extid.Set(extid.ClientHello, extid.TLS12ServerHello),
		ParseClass:   extid.TLSEarly,

		Recv: renegotiationInfoRecv,
		Send: renegotiationInfoSend,
	}
}

func renegotiationInfoRecv(s descriptor.Session, body []byte) error {
	// Either the empty form this module emits, or a single zero-length
	// renegotiated_connection value.
	if len(body) > 0 && !(len(body) == 1 && body[0] == 0) {
		return fmt.Errorf("renegotiation_info: non-empty renegotiated_connection")
	}
	return s.SetExtData(extid.WireRenegotiationInfo, &RenegotiationInfoData{
		Secure: true,
	})
}

func renegotiationInfoSend(s descriptor.Session, buf *bytes.Buffer) (
	int, error) {

	return 0, descriptor.ErrEmitZeroLength
}
