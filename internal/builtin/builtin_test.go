//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package builtin

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/markkurossi/exthello/internal/catalog"
	"github.com/markkurossi/exthello/internal/dispatch"
	"github.com/markkurossi/exthello/internal/extid"
)

func newEmitBuf() *bytes.Buffer {
	out := new(bytes.Buffer)
	out.Write([]byte{0, 0})
	return out
}

// TestHandshakeRoundTrip drives a client hello and the server's
// replies through the engine with all built-in extensions registered.
func TestHandshakeRoundTrip(t *testing.T) {
	reg := catalog.NewRegistry()
	if err := RegisterAll(reg); err != nil {
		t.Fatal(err)
	}

	client := dispatch.NewSession(reg, extid.Client)
	server := dispatch.NewSession(reg, extid.Server)

	err := client.SetExtData(extid.WireServerName, &ServerNameData{
		Hostname: "example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	err = client.SetExtData(extid.WireALPN, &ALPNData{
		Protocols: []string{"h2", "http/1.1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = client.SetExtData(extid.WirePadding, &PaddingData{
		Length: 16,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Client hello.
	hello := newEmitBuf()
	if err := client.Emit(extid.ClientHello, extid.Any, hello); err != nil {
		t.Fatal(err)
	}

	err = server.Parse(extid.ClientHello, extid.Any, hello.Bytes()[2:])
	if err != nil {
		t.Fatal(err)
	}

	priv, err := server.GetSessionData(extid.WireServerName)
	if err != nil {
		t.Fatal(err)
	}
	if name := priv.(*ServerNameData).Hostname; name != "example.com" {
		t.Errorf("hostname=%q", name)
	}

	priv, err = server.GetSessionData(extid.WireSupportedVersions)
	if err != nil {
		t.Fatal(err)
	}
	offered := priv.(*SupportedVersionsData).Offered
	if len(offered) != 1 || offered[0] != VersionTLS13 {
		t.Errorf("offered=%04x", offered)
	}

	priv, err = server.GetSessionData(extid.WireALPN)
	if err != nil {
		t.Fatal(err)
	}
	protos := priv.(*ALPNData).Protocols
	if len(protos) != 2 || protos[0] != "h2" || protos[1] != "http/1.1" {
		t.Errorf("protocols=%v", protos)
	}

	if _, err = server.GetSessionData(extid.WireRenegotiationInfo); err != nil {
		t.Errorf("renegotiation_info not observed: %v", err)
	}

	// Server hello: supported_versions only.
	err = server.SetExtData(extid.WireSupportedVersions,
		&SupportedVersionsData{
			Selected: VersionTLS13,
		})
	if err != nil {
		t.Fatal(err)
	}
	sh := newEmitBuf()
	if err := server.Emit(extid.TLS13ServerHello, extid.Any, sh); err != nil {
		t.Fatal(err)
	}
	err = client.Parse(extid.TLS13ServerHello, extid.Any, sh.Bytes()[2:])
	if err != nil {
		t.Fatal(err)
	}

	priv, err = client.GetSessionData(extid.WireSupportedVersions)
	if err != nil {
		t.Fatal(err)
	}
	if v := priv.(*SupportedVersionsData).Selected; v != VersionTLS13 {
		t.Errorf("selected=%04x", v)
	}

	// Encrypted extensions: ALPN selection.
	err = server.SetExtData(extid.WireALPN, &ALPNData{Selected: "h2"})
	if err != nil {
		t.Fatal(err)
	}
	ee := newEmitBuf()
	err = server.Emit(extid.EncryptedExtensions, extid.Any, ee)
	if err != nil {
		t.Fatal(err)
	}
	err = client.Parse(extid.EncryptedExtensions, extid.Any, ee.Bytes()[2:])
	if err != nil {
		t.Fatal(err)
	}

	priv, err = client.GetSessionData(extid.WireALPN)
	if err != nil {
		t.Fatal(err)
	}
	if sel := priv.(*ALPNData).Selected; sel != "h2" {
		t.Errorf("selected protocol=%q", sel)
	}
}

func TestClientHelloWireLayout(t *testing.T) {
	reg := catalog.NewRegistry()
	if err := RegisterAll(reg); err != nil {
		t.Fatal(err)
	}
	client := dispatch.NewSession(reg, extid.Client)

	err := client.SetExtData(extid.WireServerName, &ServerNameData{
		Hostname: "example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	err = client.SetExtData(extid.WirePadding, &PaddingData{Length: 4})
	if err != nil {
		t.Fatal(err)
	}

	out := newEmitBuf()
	if err := client.Emit(extid.ClientHello, extid.Any, out); err != nil {
		t.Fatal(err)
	}

	data := out.Bytes()
	if outer := int(binary.BigEndian.Uint16(data)); outer != len(data)-2 {
		t.Fatalf("outer length %d, block has %d bytes", outer, len(data)-2)
	}

	var order []extid.WireID
	for i := 2; i < len(data); {
		w := extid.WireID(binary.BigEndian.Uint16(data[i:]))
		l := int(binary.BigEndian.Uint16(data[i+2:]))
		order = append(order, w)
		i += 4 + l
	}

	// Registration order, padding last.
	expected := []extid.WireID{
		extid.WireServerName,
		extid.WireSupportedVersions,
		extid.WireRenegotiationInfo,
		extid.WirePadding,
	}
	if len(order) != len(expected) {
		t.Fatalf("order=%v", order)
	}
	for i, w := range expected {
		if order[i] != w {
			t.Errorf("order[%d]=%v, expected %v", i, order[i], w)
		}
	}

	// server_name payload: 2-byte list length, entry type 0, 2-byte
	// name length, the name.
	sn := data[6 : 6+int(binary.BigEndian.Uint16(data[4:]))]
	host := "example.com"
	if int(binary.BigEndian.Uint16(sn)) != 3+len(host) {
		t.Errorf("server_name list length=%x", sn[:2])
	}
	if sn[2] != 0 {
		t.Errorf("name type=%d", sn[2])
	}
	if got := string(sn[5:]); got != host {
		t.Errorf("hostname=%q", got)
	}
}

func TestServerNamePackUnpack(t *testing.T) {
	reg := catalog.NewRegistry()
	if err := RegisterAll(reg); err != nil {
		t.Fatal(err)
	}

	client := dispatch.NewSession(reg, extid.Client)
	err := client.SetExtData(extid.WireServerName, &ServerNameData{
		Hostname: "resumed.example.com",
	})
	if err != nil {
		t.Fatal(err)
	}

	hello := newEmitBuf()
	if err := client.Emit(extid.ClientHello, extid.Any, hello); err != nil {
		t.Fatal(err)
	}

	var blob bytes.Buffer
	if err := client.Pack(&blob); err != nil {
		t.Fatal(err)
	}

	fresh := dispatch.NewSession(reg, extid.Client)
	if err := fresh.Unpack(blob.Bytes()); err != nil {
		t.Fatal(err)
	}
	priv, err := fresh.GetResumedData(extid.WireServerName)
	if err != nil {
		t.Fatal(err)
	}
	if name := priv.(*ServerNameData).Hostname; name != "resumed.example.com" {
		t.Errorf("resumed hostname=%q", name)
	}
}

func TestRenegotiationInfoRejectsPayload(t *testing.T) {
	reg := catalog.NewRegistry()
	if err := RegisterAll(reg); err != nil {
		t.Fatal(err)
	}
	server := dispatch.NewSession(reg, extid.Server)

	block := []byte{
		0xff, 0x01, 0x00, 0x03, 0x02, 0xde, 0xad,
	}
	err := server.Parse(extid.ClientHello, extid.Any, block)
	if err == nil {
		t.Errorf("non-empty renegotiated_connection accepted")
	}
}
