//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package catalog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/markkurossi/exthello/internal/descriptor"
	"github.com/markkurossi/exthello/internal/extid"
)

func TestRegisterBuiltinIDsStrictlyIncreasing(t *testing.T) {
	reg := NewRegistry()

	var last extid.InternalID
	for i := 0; i < 10; i++ {
		d := &descriptor.Descriptor{
			WireID: extid.WireID(100 + i),
			Name:   fmt.Sprintf("test_ext_%d", i),
		}
		if err := reg.RegisterBuiltin(d); err != nil {
			t.Fatal(err)
		}
		if d.InternalID <= last {
			t.Errorf("internal id %d not above %d", d.InternalID, last)
		}
		last = d.InternalID
	}
}

func TestRegisterBuiltinDuplicateWire(t *testing.T) {
	reg := NewRegistry()

	err := reg.RegisterBuiltin(&descriptor.Descriptor{
		WireID: 10,
		Name:   "first",
	})
	if err != nil {
		t.Fatal(err)
	}
	err = reg.RegisterBuiltin(&descriptor.Descriptor{
		WireID: 10,
		Name:   "second",
	})
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("err=%v, expected ErrAlreadyRegistered", err)
	}
}

func TestRegisterBuiltinOutOfSpace(t *testing.T) {
	reg := NewRegistry()

	for i := 0; i < MaxBuiltins; i++ {
		err := reg.RegisterBuiltin(&descriptor.Descriptor{
			WireID: extid.WireID(1000 + i),
			Name:   fmt.Sprintf("filler_%d", i),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	err := reg.RegisterBuiltin(&descriptor.Descriptor{
		WireID: 2000,
		Name:   "overflow",
	})
	if !errors.Is(err, ErrOutOfSpace) {
		t.Errorf("err=%v, expected ErrOutOfSpace", err)
	}
}

func TestRegisterBuiltinSealed(t *testing.T) {
	reg := NewRegistry()
	reg.Seal()

	defer func() {
		if recover() == nil {
			t.Errorf("RegisterBuiltin on sealed registry did not panic")
		}
	}()
	reg.RegisterBuiltin(&descriptor.Descriptor{WireID: 1, Name: "late"})
}

func TestLookup(t *testing.T) {
	reg := NewRegistry()

	d := &descriptor.Descriptor{
		WireID: extid.WireSupportedVersions,
		Name:   "supported_versions",
	}
	if err := reg.RegisterBuiltin(d); err != nil {
		t.Fatal(err)
	}

	if got := reg.LookupWire(extid.WireSupportedVersions); got != d {
		t.Errorf("LookupWire=%v", got)
	}
	if got := reg.LookupWire(99); got != nil {
		t.Errorf("LookupWire(99)=%v, expected nil", got)
	}
	if got := reg.LookupInternal(d.InternalID); got != d {
		t.Errorf("LookupInternal=%v", got)
	}
}

func TestName(t *testing.T) {
	reg := NewRegistry()

	err := reg.RegisterBuiltin(&descriptor.Descriptor{
		WireID: 51,
		Name:   "key_share",
	})
	if err != nil {
		t.Fatal(err)
	}

	name, ok := reg.Name(51)
	if !ok || name != "key_share" {
		t.Errorf("Name(51)=%q, %v", name, ok)
	}

	// Fallback to the IANA table for ids without a descriptor.
	name, ok = reg.Name(extid.WireALPN)
	if !ok || name != "application_layer_protocol_negotiation" {
		t.Errorf("Name(16)=%q, %v", name, ok)
	}

	_, ok = reg.Name(0x7777)
	if ok {
		t.Errorf("Name(0x7777) resolved unexpectedly")
	}
}

func TestEmptyRegistry(t *testing.T) {
	reg := NewRegistry()

	if got := reg.LookupWire(0); got != nil {
		t.Errorf("LookupWire on empty registry=%v", got)
	}
	if reg.NextID() != 1 {
		t.Errorf("NextID=%d, expected 1", reg.NextID())
	}
}
