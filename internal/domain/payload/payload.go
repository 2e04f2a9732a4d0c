package payload

import (
	"errors"
	"fmt"

	"github.com/ganot/report-results/internal/codec"
	"github.com/ganot/report-results/internal/domain/report"
)

// Encoding tags the byte format of a stored payload.
type Encoding string

const (
	EncodingObject Encoding = "object"
	EncodingText   Encoding = "text"
)

// ErrCorruptPayload indicates the stored bytes do not parse under their
// encoding tag, or the tag itself is unknown.
var ErrCorruptPayload = errors.New("corrupt payload")

// Payload is one generated artifact: either a structured report or text
// (delimited rows or a pre-rendered plain table). Encoding says which
// field is populated.
type Payload struct {
	Encoding Encoding
	Report   *report.Report
	Text     string
}

// FromReport wraps a structured report.
func FromReport(r *report.Report) Payload {
	return Payload{Encoding: EncodingObject, Report: r}
}

// FromText wraps delimited or preformatted text.
func FromText(text string) Payload {
	return Payload{Encoding: EncodingText, Text: text}
}

// Codec converts one payload shape to and from bytes.
type Codec interface {
	Encode(p Payload) ([]byte, error)
	Decode(data []byte) (Payload, error)
}

var codecs = map[Encoding]Codec{
	EncodingObject: objectCodec{},
	EncodingText:   textCodec{},
}

// Store serializes the payload and returns the bytes with the tag needed
// to read them back.
func Store(p Payload) ([]byte, Encoding, error) {
	c, ok := codecs[p.Encoding]
	if !ok {
		return nil, "", fmt.Errorf("unknown payload encoding %q", p.Encoding)
	}
	data, err := c.Encode(p)
	if err != nil {
		return nil, "", err
	}
	return data, p.Encoding, nil
}

// Load decodes bytes written by Store under the given tag.
func Load(data []byte, enc Encoding) (Payload, error) {
	c, ok := codecs[enc]
	if !ok {
		return Payload{}, fmt.Errorf("%w: unknown encoding %q", ErrCorruptPayload, enc)
	}
	return c.Decode(data)
}

// objectCodec stores reports as CBOR. Fields tagged json:"-" (the
// grouping cache) are not written and come back empty.
type objectCodec struct{}

func (objectCodec) Encode(p Payload) ([]byte, error) {
	if p.Report == nil {
		return nil, errors.New("object payload without report")
	}
	data, err := codec.Marshal(p.Report)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return data, nil
}

func (objectCodec) Decode(data []byte) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, fmt.Errorf("%w: empty object payload", ErrCorruptPayload)
	}
	var r report.Report
	if err := codec.Unmarshal(data, &r); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return FromReport(&r), nil
}

// textCodec stores text bytes as given. Go strings may hold any bytes, so
// legacy Latin-1 exports survive a round trip unchanged.
type textCodec struct{}

func (textCodec) Encode(p Payload) ([]byte, error) {
	return []byte(p.Text), nil
}

func (textCodec) Decode(data []byte) (Payload, error) {
	return FromText(string(data)), nil
}
