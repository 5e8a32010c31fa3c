// Package codec provides pluggable (de)serialization for persisted state
// snapshots: JSON, msgpack, CBOR, protobuf, and a size-limit wrapper.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// IntoDecoder is an optional capability: decoding into an existing value,
// so fields absent from the payload keep their current (default) values.
// The store uses it for merge-over-defaults hydration when available.
type IntoDecoder[V any] interface {
	DecodeInto([]byte, *V) error
}
