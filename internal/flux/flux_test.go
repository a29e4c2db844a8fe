package flux

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
)

func TestPresentInKeyOrder(t *testing.T) {
	r, err := Decode([]byte(`{"tone":"warm","code":{"code":"x"},"projectPlan":{"title":"p"},"deck":null}`))
	require.NoError(t, err)

	assert.Equal(t, []Kind{KindProjectPlan, KindCode, KindTone}, r.Present())
	assert.False(t, r.Has(KindDeck))
	assert.Nil(t, r.Get(KindDeck))
	assert.JSONEq(t, `{"code":"x"}`, string(r.Get(KindCode)))
}

func TestEmptyResult(t *testing.T) {
	r, err := Decode([]byte(`{}`))
	require.NoError(t, err)
	assert.True(t, r.Empty())

	r, err = Decode([]byte(`{"palette":null,"text":null}`))
	require.NoError(t, err)
	assert.True(t, r.Empty())
}

func TestDecodeRejectsNonObject(t *testing.T) {
	for _, raw := range []string{``, `null`, `[1,2]`, `"text"`, `{broken`} {
		_, err := Decode([]byte(raw))
		assert.ErrorIs(t, err, perrors.ErrInvalidInput, raw)
	}
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	r, err := Decode([]byte(`{"hologram":{"x":1},"ideas":["a"]}`))
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindIdeas}, r.Present())
}

func TestEveryKindDecodes(t *testing.T) {
	all := make(map[Kind]int, len(Kinds))
	for _, k := range Kinds {
		all[k] = 1
	}
	raw, err := json.Marshal(all)
	require.NoError(t, err)

	r, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, Kinds, r.Present())
	assert.False(t, r.Empty())
	assert.Nil(t, r.Get(Kind("unknown")))
}

func TestKindValid(t *testing.T) {
	assert.True(t, KindMindMap.Valid())
	assert.False(t, Kind("mindmap").Valid())
}

func TestResultRoundTrip(t *testing.T) {
	in := Result{Palette: json.RawMessage(`["#fff"]`), Text: json.RawMessage(`"hello"`)}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
