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

// VersionTLS13 is the default protocol version offered and selected
// when the caller supplies none.
const VersionTLS13 = 0x0304

// SupportedVersionsData is the supported_versions extension's private
// data: the versions a client offers and the version a server selects.
type SupportedVersionsData struct {
	Offered  []uint16
	Selected uint16
}

// NewSupportedVersions creates the supported_versions (43) extension
// descriptor.
func NewSupportedVersions() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		WireID: extid.WireSupportedVersions,
		Name:   "supported_versions",
		ValidityMask: extid.Set(extid.ClientHello, extid.TLS12ServerHello,
			extid.TLS13ServerHello, extid.HelloRetryRequest),
		ParseClass: extid.TLSEarly,

		Recv:   supportedVersionsRecv,
		Send:   supportedVersionsSend,
		Pack:   supportedVersionsPack,
		Unpack: supportedVersionsUnpack,
	}
}

func supportedVersionsRecv(s descriptor.Session, body []byte) error {
	if s.Role() == extid.Server {
		// ClientHello: u8-prefixed version list.
		arr, err := wire.Uint16List(body, 1)
		if err != nil {
			return fmt.Errorf("supported_versions: %w", err)
		}
		if len(arr) == 0 {
			return fmt.Errorf("supported_versions: empty version list")
		}
		return s.SetExtData(extid.WireSupportedVersions,
			&SupportedVersionsData{
				Offered: arr,
			})
	}

	// ServerHello or HelloRetryRequest: single selected version.
	if len(body) != 2 {
		return fmt.Errorf("supported_versions: invalid selected version")
	}
	return s.SetExtData(extid.WireSupportedVersions, &SupportedVersionsData{
		Selected: uint16(body[0])<<8 | uint16(body[1]),
	})
}

func supportedVersionsSend(s descriptor.Session, buf *bytes.Buffer) (
	int, error) {

	var data *SupportedVersionsData
	if priv, ok := s.ExtData(extid.WireSupportedVersions); ok {
		data = priv.(*SupportedVersionsData)
	}

	start := buf.Len()
	if s.Role() == extid.Client {
		offered := []uint16{VersionTLS13}
		if data != nil && len(data.Offered) > 0 {
			offered = data.Offered
		}
		// The version list length is a single byte.
		if 2*len(offered) > 0xff {
			return 0, fmt.Errorf(
				"supported_versions: %d versions exceed list capacity",
				len(offered))
		}
		buf.WriteByte(byte(2 * len(offered)))
		for _, v := range offered {
			wire.AppendUint16(buf, v)
		}
	} else {
		selected := uint16(VersionTLS13)
		if data != nil && data.Selected != 0 {
			selected = data.Selected
		}
		wire.AppendUint16(buf, selected)
	}
	return buf.Len() - start, nil
}

func supportedVersionsPack(priv interface{}, buf *bytes.Buffer) error {
	wire.AppendUint16(buf, priv.(*SupportedVersionsData).Selected)
	return nil
}

func supportedVersionsUnpack(body []byte) (interface{}, int, error) {
	if len(body) != 2 {
		return nil, 0, fmt.Errorf("supported_versions: invalid packed state")
	}
	return &SupportedVersionsData{
		Selected: uint16(body[0])<<8 | uint16(body[1]),
	}, 2, nil
}
