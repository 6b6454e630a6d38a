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
	"github.com/markkurossi/exthello/internal/wire"
)

// alpnProtocolList is the application_layer_protocol_negotiation
// extension payload.
type alpnProtocolList struct {
	Protocols []alpnProtocol `tls:"u16"`
}

type alpnProtocol struct {
	Name []byte `tls:"u8"`
}

// ALPNData is the ALPN extension's private data: the protocols a
// client offers and the protocol a server selects. The selected
// protocol is renegotiated on every handshake and never packed into
// the resumption blob.
type ALPNData struct {
	Protocols []string
	Selected  string
}

// NewALPN creates the application_layer_protocol_negotiation (16)
// extension descriptor.
func NewALPN() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		WireID:       extid.WireALPN,
		Name:         "application_layer_protocol_negotiation",
		ValidityMask: extid.Set(extid.ClientHello, extid.EncryptedExtensions),
		ParseClass:   extid.Application,
		MayOverride:  true,

		Recv: alpnRecv,
		Send: alpnSend,
	}
}

func alpnRecv(s descriptor.Session, body []byte) error {
	var list alpnProtocolList

	n, err := wire.UnmarshalFrom(body, &list)
	if err != nil {
		return fmt.Errorf("alpn: %w", err)
	}
	if n != len(body) {
		return fmt.Errorf("alpn: %d trailing bytes", len(body)-n)
	}
	if len(list.Protocols) == 0 {
		return fmt.Errorf("alpn: empty protocol list")
	}

	if s.Role() == extid.Server {
		data := &ALPNData{}
		for _, p := range list.Protocols {
			data.Protocols = append(data.Protocols, string(p.Name))
		}
		return s.SetExtData(extid.WireALPN, data)
	}

	// EncryptedExtensions response carries exactly the selected
	// protocol.
	if len(list.Protocols) != 1 {
		return fmt.Errorf("alpn: %d protocols selected", len(list.Protocols))
	}
	data := &ALPNData{
		Selected: string(list.Protocols[0].Name),
	}
	if priv, ok := s.ExtData(extid.WireALPN); ok {
		data.Protocols = priv.(*ALPNData).Protocols
	}
	return s.SetExtData(extid.WireALPN, data)
}

func alpnSend(s descriptor.Session, buf *bytes.Buffer) (int, error) {
	priv, ok := s.ExtData(extid.WireALPN)
	if !ok {
		return 0, nil
	}
	data := priv.(*ALPNData)

	var list alpnProtocolList
	if s.Role() == extid.Client {
		for _, name := range data.Protocols {
			list.Protocols = append(list.Protocols, alpnProtocol{
				Name: []byte(name),
			})
		}
	} else if len(data.Selected) > 0 {
		list.Protocols = []alpnProtocol{{Name: []byte(data.Selected)}}
	}
	if len(list.Protocols) == 0 {
		return 0, nil
	}
	return wire.MarshalTo(buf, &list)
}
