//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package sessionstate implements the per-session extension state table
// and advertisement bitset described in the registry's data model: a
// bounded vector of slots, each carrying an internal id plus independently
// lived "live" and "resumed" private-data pointers, and a bitset recording
// which extensions have been sent or received this session.
//
// Grounded on GnuTLS's session->internals.ext_data[]/used_exts fields
// (lib/ext.h, extensions.c): a slot may carry live and resumed data for
// the same id simultaneously, since an extension module often needs to
// compare resumed state against freshly negotiated state before either is
// replaced.
package sessionstate

import (
	"fmt"

	"github.com/markkurossi/exthello/internal/extid"
)

type slot struct {
	id          extid.InternalID
	liveSet     bool
	livePriv    interface{}
	resumedSet  bool
	resumedPriv interface{}
}

// Table is a fixed-capacity per-session table of extension state slots.
type Table struct {
	slots []slot
}

// NewTable creates a table with the given slot capacity.
func NewTable(capacity extid.InternalID) *Table {
	return &Table{slots: make([]slot, 0, capacity)}
}

// ErrTableFull is returned by SetLive/SetResumed when no slot is available
// for a new id and the table has reached its capacity. The spec classifies
// this as INTERNAL_ERROR: it indicates a bug (capacity was sized below the
// registered extension count), not a caller mistake.
var ErrTableFull = fmt.Errorf("sessionstate: state table is full")

func (t *Table) find(id extid.InternalID) int {
	for i := range t.slots {
		if t.slots[i].id == id {
			return i
		}
	}
	return -1
}

// findOrAlloc returns the index of the slot for id, allocating a fresh
// slot (up to cap(t.slots)) if none exists yet.
func (t *Table) findOrAlloc(id extid.InternalID) (int, error) {
	if i := t.find(id); i >= 0 {
		return i, nil
	}
	for i := range t.slots {
		if !t.slots[i].liveSet && !t.slots[i].resumedSet {
			t.slots[i].id = id
			return i, nil
		}
	}
	if len(t.slots) >= cap(t.slots) {
		return -1, ErrTableFull
	}
	t.slots = append(t.slots, slot{id: id})
	return len(t.slots) - 1, nil
}

// SetLive installs priv as id's live private data, invoking deinit on any
// value it replaces.
func (t *Table) SetLive(id extid.InternalID, priv interface{}, deinit func(interface{})) error {
	i, err := t.findOrAlloc(id)
	if err != nil {
		return err
	}
	if t.slots[i].liveSet && deinit != nil {
		deinit(t.slots[i].livePriv)
	}
	t.slots[i].livePriv = priv
	t.slots[i].liveSet = true
	return nil
}

// GetLive returns id's live private data, if set.
func (t *Table) GetLive(id extid.InternalID) (interface{}, bool) {
	i := t.find(id)
	if i < 0 || !t.slots[i].liveSet {
		return nil, false
	}
	return t.slots[i].livePriv, true
}

// SetResumed installs priv as id's resumed private data, invoking deinit on
// any value it replaces.
func (t *Table) SetResumed(id extid.InternalID, priv interface{}, deinit func(interface{})) error {
	i, err := t.findOrAlloc(id)
	if err != nil {
		return err
	}
	if t.slots[i].resumedSet && deinit != nil {
		deinit(t.slots[i].resumedPriv)
	}
	t.slots[i].resumedPriv = priv
	t.slots[i].resumedSet = true
	return nil
}

// GetResumed returns id's resumed private data, if set.
func (t *Table) GetResumed(id extid.InternalID) (interface{}, bool) {
	i := t.find(id)
	if i < 0 || !t.slots[i].resumedSet {
		return nil, false
	}
	return t.slots[i].resumedPriv, true
}

// UnsetLive clears id's live data, invoking deinit on the value it held.
func (t *Table) UnsetLive(id extid.InternalID, deinit func(interface{})) {
	i := t.find(id)
	if i < 0 || !t.slots[i].liveSet {
		return
	}
	if deinit != nil {
		deinit(t.slots[i].livePriv)
	}
	t.slots[i].livePriv = nil
	t.slots[i].liveSet = false
}

// UnsetResumed clears id's resumed data, invoking deinit on the value it
// held.
func (t *Table) UnsetResumed(id extid.InternalID, deinit func(interface{})) {
	i := t.find(id)
	if i < 0 || !t.slots[i].resumedSet {
		return
	}
	if deinit != nil {
		deinit(t.slots[i].resumedPriv)
	}
	t.slots[i].resumedPriv = nil
	t.slots[i].resumedSet = false
}

// FreeAll deinitializes the live and resumed data of every populated slot.
// deinitFor resolves the deinit function for a given internal id (the
// table itself has no notion of descriptors).
func (t *Table) FreeAll(deinitFor func(extid.InternalID) func(interface{})) {
	for i := range t.slots {
		s := &t.slots[i]
		deinit := deinitFor(s.id)
		if s.liveSet {
			if deinit != nil {
				deinit(s.livePriv)
			}
			s.liveSet = false
			s.livePriv = nil
		}
		if s.resumedSet {
			if deinit != nil {
				deinit(s.resumedPriv)
			}
			s.resumedSet = false
			s.resumedPriv = nil
		}
	}
}
