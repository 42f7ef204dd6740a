package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	fields := Fields{
		"UserId":     "213061",
		"UserPw":     "secret",
		"Abos":       []any{},
		"AppVersion": "2.5.9",
		"Language":   "de",
		"Date":       "2019-11-06T16:03:11.322Z",
		"Umlaut":     "Pläne",
	}

	env, err := Encode(fields)
	require.NoError(t, err)
	assert.Equal(t, DataType, env.Req.DataType)
	assert.NotEmpty(t, env.Req.Data)

	got, err := DecodeFields(env.Req.Data)
	require.NoError(t, err)
	assert.Equal(t, fields, got)
}

func TestEnvelopeJSONShape(t *testing.T) {
	env, err := Encode(Fields{"a": "b"})
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var outer map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &outer))
	require.Contains(t, outer, "req")
	assert.Equal(t, float64(1), outer["req"]["DataType"])
	assert.IsType(t, "", outer["req"]["Data"])
}

func TestPackIsCompact(t *testing.T) {
	data, err := Pack(Fields{"a": "b", "c": []any{}})
	require.NoError(t, err)

	compressed, err := base64.StdEncoding.DecodeString(data)
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(zr)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"b","c":[]}`, buf.String())
}

func TestDecodeMalformed(t *testing.T) {
	notGzip := base64.StdEncoding.EncodeToString([]byte("plain text"))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("{not json"))
	zw.Close()
	badJSON := base64.StdEncoding.EncodeToString(buf.Bytes())

	for name, data := range map[string]string{
		"bad base64": "%%%not base64%%%",
		"not gzip":   notGzip,
		"bad json":   badJSON,
	} {
		t.Run(name, func(t *testing.T) {
			fields, err := DecodeFields(data)
			assert.ErrorIs(t, err, ErrMalformedEnvelope)
			assert.Nil(t, fields)
		})
	}

	t.Run("truncated stream", func(t *testing.T) {
		data, err := Pack(Fields{"Text": strings.Repeat("x", 512)})
		require.NoError(t, err)
		raw, _ := base64.StdEncoding.DecodeString(data)
		truncated := base64.StdEncoding.EncodeToString(raw[:len(raw)/2])

		_, err = DecodeFields(truncated)
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	})

	t.Run("not an object", func(t *testing.T) {
		data, err := Pack(nil)
		require.NoError(t, err)
		_, err = DecodeFields(data)
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	})
}

func TestDecodeResponse(t *testing.T) {
	data, err := Pack(Fields{"ResultStatusInfo": ""})
	require.NoError(t, err)
	body, _ := json.Marshal(Response{D: data})

	var got struct{ ResultStatusInfo string }
	require.NoError(t, DecodeResponse(bytes.NewReader(body), &got))

	err = DecodeResponse(strings.NewReader("<html>error</html>"), &got)
	assert.ErrorIs(t, err, ErrMalformedEnvelope)

	err = DecodeResponse(strings.NewReader(`{"d": ""}`), &got)
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}
