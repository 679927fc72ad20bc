package table

import (
	"testing"

	"github.com/named-data/mnfd/ndn"
	"github.com/stretchr/testify/assert"
)

func TestFibAddRouteUpdatesCost(t *testing.T) {
	fib := NewFib()
	name, _ := ndn.NameFromString("/a")

	fib.AddRoute(name, 1, 10)
	fib.AddRoute(name, 1, 20)

	entries := fib.Entries()
	assert.Len(t, entries, 1)
	assert.Len(t, entries[0].NextHops(), 1)
	assert.Equal(t, uint64(1), entries[0].NextHops()[0].FaceID)
	assert.Equal(t, uint64(20), entries[0].NextHops()[0].Cost)
}

func TestFibAddRouteAppendsNextHop(t *testing.T) {
	fib := NewFib()
	name, _ := ndn.NameFromString("/a")

	fib.AddRoute(name, 1, 0)
	fib.AddRoute(name, 2, 5)

	entries := fib.Entries()
	assert.Len(t, entries, 1)
	assert.Len(t, entries[0].NextHops(), 2)
}

func TestFibLookupPrefixMatch(t *testing.T) {
	fib := NewFib()
	a, _ := ndn.NameFromString("/a")
	ab, _ := ndn.NameFromString("/a/b")
	other, _ := ndn.NameFromString("/c")

	fib.AddRoute(a, 1, 0)
	fib.AddRoute(ab, 2, 0)
	fib.AddRoute(other, 3, 0)

	// Both /a and /a/b are prefixes; every matching next hop is used
	name, _ := ndn.NameFromString("/a/b/c")
	faceIDs := fib.Lookup(name)
	assert.ElementsMatch(t, []uint64{1, 2}, faceIDs)

	// An Interest under a child of a registered prefix resolves to that prefix
	child, _ := ndn.NameFromString("/a/x")
	assert.ElementsMatch(t, []uint64{1}, fib.Lookup(child))

	unknown, _ := ndn.NameFromString("/z")
	assert.Empty(t, fib.Lookup(unknown))
}

func TestFibLookupSuppressesDuplicates(t *testing.T) {
	fib := NewFib()
	a, _ := ndn.NameFromString("/a")
	ab, _ := ndn.NameFromString("/a/b")

	fib.AddRoute(a, 1, 0)
	fib.AddRoute(ab, 1, 0)

	name, _ := ndn.NameFromString("/a/b/c")
	assert.Equal(t, []uint64{1}, fib.Lookup(name))
}

func TestFibRemoveFace(t *testing.T) {
	fib := NewFib()
	a, _ := ndn.NameFromString("/a")
	b, _ := ndn.NameFromString("/b")

	fib.AddRoute(a, 1, 0)
	fib.AddRoute(b, 1, 0)
	fib.AddRoute(b, 2, 0)

	fib.RemoveFace(1)

	// Entry /a became empty and was removed; /b kept its other next hop
	entries := fib.Entries()
	assert.Len(t, entries, 1)
	assert.True(t, entries[0].Name().Equals(b))
	assert.Len(t, entries[0].NextHops(), 1)
	assert.Equal(t, uint64(2), entries[0].NextHops()[0].FaceID)
}
