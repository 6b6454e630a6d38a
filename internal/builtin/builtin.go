//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package builtin ships the extension modules compiled into this
// module: server_name, supported_versions, application-layer protocol
// negotiation, renegotiation_info, and padding. Each is an ordinary
// descriptor the engine drives through its capability operations; none
// is required by the engine core, and a caller may run with an empty
// catalog or any subset of these.
package builtin

import (
	"github.com/markkurossi/exthello/internal/catalog"
	"github.com/markkurossi/exthello/internal/descriptor"
)

// Descriptors returns fresh instances of all built-in extension
// descriptors in registration order. The padding extension is last so
// its emission follows every other extension in the block.
func Descriptors() []*descriptor.Descriptor {
	return []*descriptor.Descriptor{
		NewServerName(),
		NewSupportedVersions(),
		NewALPN(),
		NewRenegotiationInfo(),
		NewPadding(),
	}
}

// RegisterAll registers all built-in extensions into reg.
func RegisterAll(reg *catalog.Registry) error {
	for _, d := range Descriptors() {
		if err := reg.RegisterBuiltin(d); err != nil {
			return err
		}
	}
	return nil
}
