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

// serverNameEntry is one ServerName value of the RFC 6066
// ServerNameList.
type serverNameEntry struct {
	NameType uint8
	Hostname []byte `tls:"u16"`
}

// serverNameList is the server_name extension payload.
type serverNameList struct {
	Names []serverNameEntry `tls:"u16"`
}

// ServerNameData is the server_name extension's private data: the
// hostname the client asked for. The client installs it with
// Session.SetExtData before emitting its hello; the server's recv
// extracts it from the wire.
type ServerNameData struct {
	Hostname string
}

// NewServerName creates the server_name (0) extension descriptor.
func NewServerName() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		WireID:       extid.WireServerName,
		Name:         "server_name",
		ValidityMask: extid.Set(extid.ClientHello),
		ParseClass:   extid.Application,
		MayOverride:  true,

		Recv:   serverNameRecv,
		Send:   serverNameSend,
		Pack:   serverNamePack,
		Unpack: serverNameUnpack,
	}
}

func serverNameRecv(s descriptor.Session, body []byte) error {
	var list serverNameList

	n, err := wire.UnmarshalFrom(body, &list)
	if err != nil {
		return fmt.Errorf("server_name: %w", err)
	}
	if n != len(body) {
		return fmt.Errorf("server_name: %d trailing bytes", len(body)-n)
	}
	for _, name := range list.Names {
		// host_name is the only registered name type.
		if name.NameType != 0 {
			continue
		}
		return s.SetExtData(extid.WireServerName, &ServerNameData{
			Hostname: string(name.Hostname),
		})
	}
	return fmt.Errorf("server_name: no host_name entry")
}

func serverNameSend(s descriptor.Session, buf *bytes.Buffer) (int, error) {
	if s.Role() != extid.Client {
		return 0, nil
	}
	priv, ok := s.ExtData(extid.WireServerName)
	if !ok {
		return 0, nil
	}
	data := priv.(*ServerNameData)
	if len(data.Hostname) == 0 {
		return 0, nil
	}
	return wire.MarshalTo(buf, &serverNameList{
		Names: []serverNameEntry{{
			NameType: 0,
			Hostname: []byte(data.Hostname),
		}},
	})
}

func serverNamePack(priv interface{}, buf *bytes.Buffer) error {
	buf.WriteString(priv.(*ServerNameData).Hostname)
	return nil
}

func serverNameUnpack(body []byte) (interface{}, int, error) {
	return &ServerNameData{
		Hostname: string(body),
	}, len(body), nil
}
