package table

import (
	"testing"
	"time"

	"github.com/named-data/mnfd/ndn"
	"github.com/stretchr/testify/assert"
)

func makeInterest(t *testing.T, nameStr string, nonce []byte) *ndn.Interest {
	name, err := ndn.NameFromString(nameStr)
	assert.NoError(t, err)
	interest := ndn.NewInterest(name)
	assert.NoError(t, interest.SetNonce(nonce))
	return interest
}

func TestPitDuplicateNonce(t *testing.T) {
	pit := NewPit()
	now := time.Now()

	interest := makeInterest(t, "/a/x", []byte{0xAA, 0x00, 0x00, 0x00})
	assert.False(t, pit.HasDuplicateNonce(interest.Nonce()))

	pit.Insert(interest, 1, now.Add(4*time.Second), now.Add(10*time.Second))
	assert.True(t, pit.HasDuplicateNonce(interest.Nonce()))
	assert.False(t, pit.HasDuplicateNonce([]byte{0xBB, 0x00, 0x00, 0x00}))
}

func TestPitFindSameNameOnFace(t *testing.T) {
	pit := NewPit()
	now := time.Now()
	name, _ := ndn.NameFromString("/a/x")

	interest := makeInterest(t, "/a/x", []byte{0x01, 0x02, 0x03, 0x04})
	entry := pit.Insert(interest, 1, now.Add(4*time.Second), now.Add(10*time.Second))

	assert.Equal(t, entry, pit.FindSameNameOnFace(name, 1))
	assert.Nil(t, pit.FindSameNameOnFace(name, 2))
	assert.True(t, pit.HasSameName(name))

	entry.ClearInFace()
	// A consumed entry no longer counts for the same-face check but its name remains
	assert.Nil(t, pit.FindSameNameOnFace(name, 1))
	assert.True(t, pit.HasSameName(name))
}

func TestPitMatchData(t *testing.T) {
	pit := NewPit()
	now := time.Now()

	first := makeInterest(t, "/a/x", []byte{0x01, 0x00, 0x00, 0x00})
	second := makeInterest(t, "/a/x", []byte{0x02, 0x00, 0x00, 0x00})
	other := makeInterest(t, "/b", []byte{0x03, 0x00, 0x00, 0x00})
	firstEntry := pit.Insert(first, 1, now.Add(4*time.Second), now.Add(10*time.Second))
	secondEntry := pit.Insert(second, 2, now.Add(4*time.Second), now.Add(10*time.Second))
	pit.Insert(other, 3, now.Add(4*time.Second), now.Add(10*time.Second))

	dataName, _ := ndn.NameFromString("/a/x/1")
	data := ndn.NewData(dataName, []byte{})

	matching := pit.MatchData(data)
	// Insertion order
	assert.Equal(t, []*PitEntry{firstEntry, secondEntry}, matching)

	firstEntry.ClearInFace()
	matching = pit.MatchData(data)
	assert.Equal(t, []*PitEntry{secondEntry}, matching)
}

func TestPitSweepDualClock(t *testing.T) {
	pit := NewPit()
	now := time.Now()

	interest := makeInterest(t, "/a/x", []byte{0xAA, 0xBB, 0xCC, 0xDD})
	entry := pit.Insert(interest, 1, now.Add(4*time.Second), now.Add(10*time.Second))

	// Before the timeout nothing changes
	pit.Sweep(now.Add(1 * time.Second))
	assert.Equal(t, 1, pit.Size())
	assert.NotNil(t, entry.InFace())

	// Past the timeout the entry is consumed but kept for nonce suppression
	pit.Sweep(now.Add(5 * time.Second))
	assert.Equal(t, 1, pit.Size())
	assert.Nil(t, entry.InFace())
	assert.True(t, pit.HasDuplicateNonce(interest.Nonce()))

	// Past both deadlines the entry is removed
	pit.Sweep(now.Add(11 * time.Second))
	assert.Equal(t, 0, pit.Size())
	assert.False(t, pit.HasDuplicateNonce(interest.Nonce()))
}

func TestPitSweepWaitsForLateTimeout(t *testing.T) {
	pit := NewPit()
	now := time.Now()

	// timeoutEndTime after entryEndTime: the entry must survive until both have passed
	interest := makeInterest(t, "/a/x", []byte{0x11, 0x22, 0x33, 0x44})
	pit.Insert(interest, 1, now.Add(10*time.Second), now.Add(4*time.Second))

	pit.Sweep(now.Add(5 * time.Second))
	assert.Equal(t, 1, pit.Size())

	pit.Sweep(now.Add(11 * time.Second))
	assert.Equal(t, 0, pit.Size())
}

func TestPitRemoveFace(t *testing.T) {
	pit := NewPit()
	now := time.Now()

	onFace := makeInterest(t, "/a", []byte{0x01, 0x00, 0x00, 0x00})
	onOther := makeInterest(t, "/b", []byte{0x02, 0x00, 0x00, 0x00})
	pit.Insert(onFace, 1, now.Add(4*time.Second), now.Add(10*time.Second))
	otherEntry := pit.Insert(onOther, 2, now.Add(4*time.Second), now.Add(10*time.Second))

	pit.RemoveFace(1)

	assert.Equal(t, 1, pit.Size())
	assert.Equal(t, otherEntry, pit.Entries()[0])
	assert.False(t, pit.HasDuplicateNonce(onFace.Nonce()))
}
