//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package builtin

import (
	"bytes"

	"github.com/markkurossi/exthello/internal/descriptor"
	"github.com/markkurossi/exthello/internal/extid"
)

// PaddingData is the padding extension's private data: the number of
// zero bytes to append to the client hello. The caller installs it
// with Session.SetExtData; without it, or with a non-positive length,
// the extension is not emitted.
type PaddingData struct {
	Length int
}

// NewPadding creates the padding (21) extension descriptor. It is
// write-only and must stay the last registered built-in so its
// emission follows every other extension in the block.
func NewPadding() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		WireID:       extid.WirePadding,
		Name:         "padding",
		ValidityMask: extid.Set(extid.ClientHello),
		ParseClass:   extid.Application,
		MayOverride:  false,

		Send: paddingSend,
	}
}

func paddingSend(s descriptor.Session, buf *bytes.Buffer) (int, error) {
	if s.Role() != extid.Client {
		return 0, nil
	}
	priv, ok := s.ExtData(extid.WirePadding)
	if !ok {
		return 0, nil
	}
	n := priv.(*PaddingData).Length
	if n <= 0 {
		return 0, nil
	}
	buf.Write(make([]byte, n))
	return n, nil
}
