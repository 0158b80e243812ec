// Package cborgen derives canonical CBOR codecs for algebraic Go types
// without per-type hand-written code. A type's structure — a sum of
// variants, each a product of fields — is reflected once at registration
// into an immutable shape descriptor; encode and decode then follow the
// shape, producing a tagged-tuple wire form that is deterministic,
// injective, and bit-compatible with any independent implementation of the
// same framing.
//
// Components:
//   - wire: CBOR item-level Encoder/Decoder (integers, floats, strings,
//     array/map/tag heads). Everything above composes these primitives.
//   - Shape: Void/Unit/Leaf/Product/Sum structural descriptor; variant
//     numbering is positional registration order, recomputed identically on
//     both ends, never persisted.
//   - Derived[V]: the generic Codec[V] produced by Derive; structs derive
//     automatically, interface sums register via RegisterUnion, custom
//     leaves via RegisterCodec.
//   - Container skeleton: EncodeSequence/DecodeSequence and the map/set
//     variants, with bounded-allocation decoding that never trusts a
//     declared size beyond the bytes actually present.
//   - Timestamps: tag 0 RFC3339 text on encode; tags 0 and 1 (epoch
//     seconds, integer or float) on decode.
//
// Wire form of a variant i with k fields:
//
//	[array-len k+1, uint i, field_0, ..., field_{k-1}]
//
// Decode validates the framing at every step and aborts on the first
// mismatch; errors are typed (ShapeMismatchError, UnknownTagError, ...)
// and never produce a partial value.
package cborgen
