// Package codec holds the shared CBOR configuration used for stored
// report objects and snapshots.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding and definite-length items only, so every
// array, map and string is length-prefixed and the same report always
// produces the same bytes. Struct fields are named by their `json` tags;
// a field tagged `json:"-"` is never written.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// any-typed targets (report extras) decode into map[string]any
		// instead of map[interface{}]interface{}.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Integers inside any-typed values come back as int64, matching
		// what callers put into report extras.
		IntDec: cbor.IntDecConvertSigned,
		// Keys with no matching struct field mean the blob was written
		// for some other type. Trailing bytes are rejected by Unmarshal
		// regardless of options.
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v. Unknown struct fields are rejected
// so that bytes written under a different schema do not silently decode
// into an empty value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Valid reports whether data is exactly one well-formed CBOR item.
func Valid(data []byte) error {
	return decMode.Wellformed(data)
}
