package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceAndSnapshot(t *testing.T) {
	m := NewManager([]string{"mintB", "mintA"})

	assert.Empty(t, m.Snapshot("mintA"), "watch set starts empty until first refresh")
	assert.Equal(t, []string{"mintA", "mintB"}, m.Mints())

	m.Replace("mintA", []string{"acct1", "acct2"})
	assert.Equal(t, []string{"acct1", "acct2"}, m.Snapshot("mintA"))

	// Wholesale replacement discards the previous set.
	m.Replace("mintA", []string{"acct3"})
	assert.Equal(t, []string{"acct3"}, m.Snapshot("mintA"))
}

func TestSnapshotIsACopy(t *testing.T) {
	m := NewManager([]string{"mint"})
	m.Replace("mint", []string{"acct1", "acct2"})

	snap := m.Snapshot("mint")
	snap[0] = "mutated"
	assert.Equal(t, []string{"acct1", "acct2"}, m.Snapshot("mint"))

	// The input slice is copied too.
	in := []string{"a", "b"}
	m.Replace("mint", in)
	in[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, m.Snapshot("mint"))
}

func TestStats(t *testing.T) {
	m := NewManager([]string{"mintA", "mintB", "mintC"})
	m.Replace("mintA", []string{"a1", "a2"})
	m.Replace("mintB", []string{"b1"})

	mints, accounts, empty := m.Stats()
	assert.Equal(t, 3, mints)
	assert.Equal(t, 3, accounts)
	assert.Equal(t, []string{"mintC"}, empty)
}
