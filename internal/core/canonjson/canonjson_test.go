package canonjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_SortsKeysAndStripsWhitespace(t *testing.T) {
	out, err := Marshal([]byte(`{ "b": 1, "a": { "d": [1, 2], "c": null } }`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"c":null,"d":[1,2]},"b":1}`, string(out))
}

func TestMarshal_KeyOrderInsensitive(t *testing.T) {
	a, err := Marshal([]byte(`{"date":"2024-10-20","eventType":"PU","scanLocation":{"city":"MEMPHIS","countryName":"US"}}`))
	require.NoError(t, err)
	b, err := Marshal([]byte(`{"scanLocation":{"countryName":"US","city":"MEMPHIS"},"eventType":"PU","date":"2024-10-20"}`))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMarshal_NumbersVerbatim(t *testing.T) {
	out, err := Marshal([]byte(`{"n":12345678901234567890,"f":1.50}`))
	require.NoError(t, err)
	assert.Equal(t, `{"f":1.50,"n":12345678901234567890}`, string(out))
}

func TestMarshal_NoHTMLEscape(t *testing.T) {
	out, err := Marshal([]byte(`{"remark":"<a & b>"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"remark":"<a & b>"}`, string(out))
}

func TestMarshal_NFCNormalization(t *testing.T) {
	decomposed, err := Marshal([]byte("{\"city\":\"Que\u0301bec\"}"))
	require.NoError(t, err)
	composed, err := Marshal([]byte("{\"city\":\"Qu\u00e9bec\"}"))
	require.NoError(t, err)

	assert.Equal(t, composed, decomposed)
}

func TestMarshal_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as the surrogate pair D83D DE00, which sorts before U+E000
	// in UTF-16 even though it is the larger code point.
	out, err := Marshal([]byte("{\"\uE000\":1,\"\U0001F600\":2}"))
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uE000\":1}", string(out))
}

func TestMarshal_Errors(t *testing.T) {
	_, err := Marshal([]byte(`{"a":`))
	assert.Error(t, err)

	_, err = Marshal([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "trailing data")
}
