// Package codec implements the request/response envelope spoken by the DSB
// endpoints: JSON, gzip-compressed, base64-encoded and wrapped in a small
// outer object.
package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DataType is the discriminator the server expects next to the payload
const DataType = 1

// ErrMalformedEnvelope is returned when any decoding stage fails
var ErrMalformedEnvelope = errors.New("malformed envelope")

// Fields is the inner field mapping of a request or response
type Fields map[string]any

// Request is the inner object of an outgoing envelope
type Request struct {
	Data     string `json:"Data"`
	DataType int    `json:"DataType"`
}

// Envelope is the body POSTed to a data endpoint: {"req": {"Data": ..., "DataType": 1}}
type Envelope struct {
	Req Request `json:"req"`
}

// Response is the body returned by a data endpoint: {"d": ...}
type Response struct {
	D string `json:"d"`
}

// Encode serializes fields compactly, gzips and base64-encodes them and wraps
// the result in an Envelope.
func Encode(fields Fields) (Envelope, error) {
	data, err := Pack(fields)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Req: Request{Data: data, DataType: DataType}}, nil
}

// Pack does the inner encoding of Encode without the envelope
func Pack(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("gzip fields: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("gzip fields: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Pack into v
func Decode(data string, v any) error {
	compressed, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("%w: base64: %v", ErrMalformedEnvelope, err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("%w: gzip: %v", ErrMalformedEnvelope, err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("%w: gzip: %v", ErrMalformedEnvelope, err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: json: %v", ErrMalformedEnvelope, err)
	}
	return nil
}

// DecodeFields decodes a payload into a field mapping
func DecodeFields(data string) (Fields, error) {
	var fields Fields
	if err := Decode(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformedEnvelope)
	}
	return fields, nil
}

// DecodeResponse reads a {"d": ...} body and decodes its payload into v
func DecodeResponse(r io.Reader, v any) error {
	var resp Response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return fmt.Errorf("%w: outer json: %v", ErrMalformedEnvelope, err)
	}
	if resp.D == "" {
		return fmt.Errorf("%w: empty payload", ErrMalformedEnvelope)
	}
	return Decode(resp.D, v)
}
