package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversationKey_StableForSameRawID(t *testing.T) {
	req := require.New(t)

	a := EphemeralKey("conv_1700000000_ab12")
	b := EphemeralKey("conv_1700000000_ab12")
	req.Equal(a, b)

	seen := map[ConversationKey]int{a: 1}
	req.Equal(1, seen[b])
}

func TestConversationKey_PersistedAndEphemeralDistinct(t *testing.T) {
	req := require.New(t)

	p := PersistedKey(17)
	e := EphemeralKey("17")
	req.NotEqual(p, e)
	req.Equal("17", p.String())
	req.Equal("17", e.String())

	id, ok := p.Persisted()
	req.True(ok)
	req.Equal(int64(17), id)

	_, ok = e.Persisted()
	req.False(ok)
}

func TestConversationKey_Zero(t *testing.T) {
	req := require.New(t)
	req.True(ConversationKey{}.IsZero())
	req.False(EphemeralKey("x").IsZero())
	req.False(PersistedKey(0).IsZero())
}

func TestParseNumericID(t *testing.T) {
	req := require.New(t)

	id, ok := ParseNumericID("42")
	req.True(ok)
	req.Equal(int64(42), id)

	_, ok = ParseNumericID("conv_1700000000_ab12")
	req.False(ok)

	_, ok = ParseNumericID("")
	req.False(ok)

	_, ok = ParseNumericID("42.5")
	req.False(ok)

	neg, ok := ParseNumericID("-1")
	req.True(ok)
	req.Equal(int64(-1), neg)
}
