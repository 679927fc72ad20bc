/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"github.com/named-data/mnfd/core"
	"github.com/named-data/mnfd/ndn"
)

// FibNextHop is one next-hop record of a FIB entry.
type FibNextHop struct {
	FaceID uint64
	Cost   uint64
}

// FibEntry is a FIB entry: a name prefix and its next hops. An entry never has zero
// next hops; it is removed when its last next hop is removed.
type FibEntry struct {
	name     *ndn.Name
	nexthops []*FibNextHop
}

// Name returns the name prefix of the FIB entry.
func (e *FibEntry) Name() *ndn.Name {
	return e.name
}

// NextHops returns the next-hop records of the FIB entry.
func (e *FibEntry) NextHops() []*FibNextHop {
	return e.nexthops
}

// Fib is the Forwarding Information Base. Lookups are multicast-style: every next hop
// of every entry whose name is a prefix of the Interest name is used; there is no
// longest-prefix preference.
type Fib struct {
	entries []*FibEntry
}

// NewFib creates an empty FIB.
func NewFib() *Fib {
	return new(Fib)
}

func (f *Fib) String() string {
	return "FIB"
}

// AddRoute adds a next hop for the specified prefix. If an entry for exactly this name
// already has a next hop for the face, its cost is updated in place; otherwise the next
// hop is appended (creating the entry if needed). The caller is responsible for
// validating the face ID.
func (f *Fib) AddRoute(name *ndn.Name, faceID uint64, cost uint64) {
	for _, entry := range f.entries {
		if entry.name.Equals(name) {
			for _, nexthop := range entry.nexthops {
				if nexthop.FaceID == faceID {
					// A next hop with the face is already added, so just update its cost
					nexthop.Cost = cost
					return
				}
			}
			entry.nexthops = append(entry.nexthops, &FibNextHop{FaceID: faceID, Cost: cost})
			core.LogInfo(f, "Added face ", faceID, " to existing entry for: ", name)
			return
		}
	}

	entry := &FibEntry{name: name.DeepCopy()}
	entry.nexthops = append(entry.nexthops, &FibNextHop{FaceID: faceID, Cost: cost})
	f.entries = append(f.entries, entry)
	core.LogInfo(f, "Added face ", faceID, " to new entry for: ", name)
}

// RemoveFace drops every next hop referencing the specified face, deleting entries that
// become empty.
func (f *Fib) RemoveFace(faceID uint64) {
	remaining := f.entries[:0]
	for _, entry := range f.entries {
		nexthops := entry.nexthops[:0]
		for _, nexthop := range entry.nexthops {
			if nexthop.FaceID != faceID {
				nexthops = append(nexthops, nexthop)
			}
		}
		entry.nexthops = nexthops
		if len(entry.nexthops) > 0 {
			remaining = append(remaining, entry)
		} else {
			core.LogInfo(f, "Removed entry ", entry.name)
		}
	}
	f.entries = remaining
}

// Lookup returns the ID of every face that is a next hop of any entry whose name is a
// prefix of the specified name. Duplicate face IDs are suppressed.
func (f *Fib) Lookup(name *ndn.Name) []uint64 {
	faceIDs := make([]uint64, 0)
	seen := make(map[uint64]bool)
	for _, entry := range f.entries {
		if entry.name.PrefixOf(name) {
			for _, nexthop := range entry.nexthops {
				if !seen[nexthop.FaceID] {
					seen[nexthop.FaceID] = true
					faceIDs = append(faceIDs, nexthop.FaceID)
				}
			}
		}
	}
	return faceIDs
}

// Entries returns all FIB entries.
func (f *Fib) Entries() []*FibEntry {
	return f.entries
}
