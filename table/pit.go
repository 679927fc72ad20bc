/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"time"

	"github.com/cespare/xxhash"
	"github.com/named-data/mnfd/core"
	"github.com/named-data/mnfd/ndn"
)

// PitEntry is a pending Interest. After timeoutEndTime the entry can no longer return
// a Data packet to the consumer (inFace is cleared), but it lingers until entryEndTime
// to suppress replays of the same nonce.
type PitEntry struct {
	interest       *ndn.Interest
	inFace         *uint64
	timeoutEndTime time.Time
	entryEndTime   time.Time
}

// Interest returns the Interest of the PIT entry.
func (e *PitEntry) Interest() *ndn.Interest {
	return e.interest
}

// InFace returns the ID of the face the Interest arrived on, or nil if the entry has
// been consumed.
func (e *PitEntry) InFace() *uint64 {
	return e.inFace
}

// ClearInFace marks the entry consumed while retaining it for duplicate-nonce
// suppression.
func (e *PitEntry) ClearInFace() {
	e.inFace = nil
}

// TimeoutEndTime returns the time after which the Interest can no longer be satisfied.
func (e *PitEntry) TimeoutEndTime() time.Time {
	return e.timeoutEndTime
}

// SetTimeoutEndTime sets the time after which the Interest can no longer be satisfied.
func (e *PitEntry) SetTimeoutEndTime(timeoutEndTime time.Time) {
	e.timeoutEndTime = timeoutEndTime
}

// EntryEndTime returns the time after which the entry is removed.
func (e *PitEntry) EntryEndTime() time.Time {
	return e.entryEndTime
}

// SetEntryEndTime sets the time after which the entry is removed.
func (e *PitEntry) SetEntryEndTime(entryEndTime time.Time) {
	e.entryEndTime = entryEndTime
}

// Pit is the Pending Interest Table. Entries are kept in insertion order; a hash index
// over nonces supports duplicate detection without scanning.
type Pit struct {
	entries []*PitEntry
	nonces  map[uint64]int
}

// NewPit creates an empty PIT.
func NewPit() *Pit {
	p := new(Pit)
	p.nonces = make(map[uint64]int)
	return p
}

func (p *Pit) String() string {
	return "PIT"
}

func nonceHash(nonce []byte) uint64 {
	return xxhash.Sum64(nonce)
}

// Size returns the number of entries in the PIT.
func (p *Pit) Size() int {
	return len(p.entries)
}

// Entries returns all PIT entries in insertion order.
func (p *Pit) Entries() []*PitEntry {
	return p.entries
}

// HasDuplicateNonce returns whether any live entry's Interest carries the specified
// nonce.
func (p *Pit) HasDuplicateNonce(nonce []byte) bool {
	return p.nonces[nonceHash(nonce)] > 0
}

// FindSameNameOnFace returns the entry whose Interest has the specified name and whose
// inFace is the specified face, or nil.
func (p *Pit) FindSameNameOnFace(name *ndn.Name, faceID uint64) *PitEntry {
	for _, entry := range p.entries {
		if entry.inFace != nil && *entry.inFace == faceID && entry.interest.Name().Equals(name) {
			return entry
		}
	}
	return nil
}

// HasSameName returns whether any entry's Interest has the specified name.
func (p *Pit) HasSameName(name *ndn.Name) bool {
	for _, entry := range p.entries {
		if entry.interest.Name().Equals(name) {
			return true
		}
	}
	return false
}

// Insert adds a PIT entry for the Interest.
func (p *Pit) Insert(interest *ndn.Interest, inFace uint64, timeoutEndTime time.Time, entryEndTime time.Time) *PitEntry {
	entry := new(PitEntry)
	entry.interest = interest
	entry.inFace = &inFace
	entry.timeoutEndTime = timeoutEndTime
	entry.entryEndTime = entryEndTime
	p.entries = append(p.entries, entry)
	p.nonces[nonceHash(interest.Nonce())]++
	return entry
}

// MatchData returns, in insertion order, every entry whose inFace is still set and
// whose Interest matches the Data packet.
func (p *Pit) MatchData(data *ndn.Data) []*PitEntry {
	matching := make([]*PitEntry, 0)
	for _, entry := range p.entries {
		if entry.inFace != nil && entry.interest.MatchesData(data) {
			matching = append(matching, entry)
		}
	}
	return matching
}

// Sweep removes every entry past both of its deadlines and consumes every entry past
// only its timeout. Iterates in reverse so removal does not disturb iteration.
func (p *Pit) Sweep(now time.Time) {
	for i := len(p.entries) - 1; i >= 0; i-- {
		entry := p.entries[i]
		// For removal, also check timeoutEndTime in case it is greater than entryEndTime
		if !now.Before(entry.entryEndTime) && !now.Before(entry.timeoutEndTime) {
			p.removeAt(i)
		} else if !now.Before(entry.timeoutEndTime) {
			// Timed out; clearing inFace prevents using the entry to return a Data
			// packet, but the entry is kept to check for a duplicate nonce
			entry.ClearInFace()
		}
	}
}

// RemoveFace removes every entry whose inFace is the specified face.
func (p *Pit) RemoveFace(faceID uint64) {
	for i := len(p.entries) - 1; i >= 0; i-- {
		entry := p.entries[i]
		if entry.inFace != nil && *entry.inFace == faceID {
			p.removeAt(i)
		}
	}
}

func (p *Pit) removeAt(index int) {
	entry := p.entries[index]
	hash := nonceHash(entry.interest.Nonce())
	if p.nonces[hash] <= 1 {
		delete(p.nonces, hash)
	} else {
		p.nonces[hash]--
	}
	copy(p.entries[index:], p.entries[index+1:])
	p.entries = p.entries[:len(p.entries)-1]
	core.LogTrace(p, "Removed entry for ", entry.interest.Name())
}
