package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	cases := []Token{
		{Kind: ListRegions, Page: 0},
		{Kind: ListRegions, Page: 7},
		{Kind: ListStations, Region: "Tehran", Page: 0},
		{Kind: ListStations, Region: "خراسان رضوی", Page: 3},
	}
	for _, tok := range cases {
		t.Run(tok.Encode(), func(t *testing.T) {
			decoded, ok := DecodeToken(tok.Encode())
			require.True(t, ok)
			assert.Equal(t, tok, decoded)
		})
	}
}

func TestDecodeToken_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":               "",
		"garbage":             "hello world",
		"wrong version":       "v2|rg|0",
		"missing page":        "v1|rg",
		"negative page":       "v1|rg|-1",
		"non-numeric page":    "v1|rg|abc",
		"stations no region":  "v1|st||0",
		"stations no page":    "v1|st|Tehran",
		"unknown kind":        "v1|xx|0",
		"regions extra parts": "v1|rg|0|extra",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := DecodeToken(payload)
			assert.False(t, ok, "payload %q must not decode", payload)
		})
	}
}

func TestDecodeAction(t *testing.T) {
	t.Run("list regions", func(t *testing.T) {
		a := DecodeAction(Token{Kind: ListRegions, Page: 2}.Encode())
		require.Equal(t, ActionList, a.Kind)
		assert.Equal(t, Token{Kind: ListRegions, Page: 2}, a.Token)
	})

	t.Run("list stations", func(t *testing.T) {
		a := DecodeAction(Token{Kind: ListStations, Region: "Alborz", Page: 1}.Encode())
		require.Equal(t, ActionList, a.Kind)
		assert.Equal(t, "Alborz", a.Token.Region)
	})

	t.Run("pick", func(t *testing.T) {
		a := DecodeAction(EncodePick("Tehran", "40754"))
		require.Equal(t, ActionPick, a.Kind)
		assert.Equal(t, "Tehran", a.Region)
		assert.Equal(t, "40754", a.Station)
	})

	t.Run("back", func(t *testing.T) {
		a := DecodeAction(EncodeBack())
		assert.Equal(t, ActionBack, a.Kind)
	})

	t.Run("malformed decodes to invalid, never a default page", func(t *testing.T) {
		for _, payload := range []string{"", "v1", "v1|pk|Tehran", "v1|pk||40754", "v1|bk|extra", "region|Tehran"} {
			a := DecodeAction(payload)
			assert.Equal(t, ActionInvalid, a.Kind, "payload %q", payload)
		}
	})
}
