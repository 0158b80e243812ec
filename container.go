package cborgen

import (
	"bytes"
	"sort"

	"github.com/unkn0wn-root/cborgen/wire"
)

// EncodeElem encodes one container element.
type EncodeElem[T any] func(*wire.Encoder, T) error

// DecodeElem decodes one container element.
type DecodeElem[T any] func(*wire.Decoder) (T, error)

// chunkFloor is the minimum chunk size for the bounded-allocation decode.
// Small enough that a lying length header costs little, large enough that
// honest large containers fed incrementally are not split into confetti.
const chunkFloor = 128

// EncodeSequence emits a declared-size array head followed by the elements
// in order. No per-element framing beyond what elem itself writes.
func EncodeSequence[T any](e *wire.Encoder, xs []T, elem EncodeElem[T]) error {
	e.WriteArrayLen(len(xs))
	for _, x := range xs {
		if err := elem(e, x); err != nil {
			return err
		}
	}
	return nil
}

// DecodeSequence decodes a homogeneous array without trusting its declared
// size. The declared length is checked against the bytes actually available
// (every element occupies at least one byte): within that bound the slice is
// built in one pass; beyond it, elements are collected in bounded chunks and
// concatenated, so a hostile size header can never force an allocation
// proportional to itself. A decode still fails with wire.ErrTruncated if the
// input genuinely runs out mid-element — a large declared size alone is not
// an error. Indefinite-length arrays decode incrementally until break.
func DecodeSequence[T any](d *wire.Decoder, elem DecodeElem[T]) ([]T, error) {
	n, indef, err := d.ReadArrayLen()
	if err != nil {
		return nil, err
	}
	if indef {
		return decodeUntilBreak(d, elem)
	}
	return decodeChunked(d, n, elem)
}

func decodeChunked[T any](d *wire.Decoder, n int, elem DecodeElem[T]) ([]T, error) {
	limit := d.Remaining()
	if n <= limit {
		return decodeN(d, n, elem)
	}
	chunk := limit
	if chunk < chunkFloor {
		chunk = chunkFloor
	}
	full, rem := n/chunk, n%chunk
	// Remainder first, then full chunks: grouping only, stream order is kept.
	var parts [][]T
	total := 0
	p, err := decodeN(d, rem, elem)
	if err != nil {
		return nil, err
	}
	parts = append(parts, p)
	total += len(p)
	for i := 0; i < full; i++ {
		p, err := decodeN(d, chunk, elem)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
		total += len(p)
	}
	out := make([]T, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

func decodeN[T any](d *wire.Decoder, n int, elem DecodeElem[T]) ([]T, error) {
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		x, err := elem(d)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

func decodeUntilBreak[T any](d *wire.Decoder, elem DecodeElem[T]) ([]T, error) {
	var out []T
	for {
		t, err := d.Peek()
		if err != nil {
			return nil, err
		}
		if t == wire.TypeBreak {
			return out, d.ReadBreak()
		}
		x, err := elem(d)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
}

// EncodeMapSkel emits a map head and its entries sorted by encoded key
// bytes, keeping the encoding canonical independent of iteration order.
func EncodeMapSkel[K comparable, V any](e *wire.Encoder, m map[K]V, key EncodeElem[K], val EncodeElem[V]) error {
	type entry struct {
		kb []byte
		k  K
	}
	entries := make([]entry, 0, len(m))
	ke := wire.NewEncoder()
	for k := range m {
		ke.Reset()
		if err := key(ke, k); err != nil {
			return err
		}
		entries = append(entries, entry{kb: append([]byte(nil), ke.Bytes()...), k: k})
	}
	sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i].kb, entries[j].kb) < 0 })
	e.WriteMapLen(len(entries))
	for _, en := range entries {
		e.WriteRaw(en.kb)
		if err := val(e, m[en.k]); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMapSkel decodes a map with the same bounded-allocation strategy as
// DecodeSequence, substituting a key+value entry decoder and building the
// map from the collected entries. Duplicate keys keep the last value.
func DecodeMapSkel[K comparable, V any](d *wire.Decoder, key DecodeElem[K], val DecodeElem[V]) (map[K]V, error) {
	type entry struct {
		k K
		v V
	}
	dec := func(d *wire.Decoder) (entry, error) {
		k, err := key(d)
		if err != nil {
			return entry{}, err
		}
		v, err := val(d)
		if err != nil {
			return entry{}, err
		}
		return entry{k, v}, nil
	}
	n, indef, err := d.ReadMapLen()
	if err != nil {
		return nil, err
	}
	var entries []entry
	if indef {
		entries, err = decodeUntilBreak(d, dec)
	} else {
		entries, err = decodeChunked(d, n, dec)
	}
	if err != nil {
		return nil, err
	}
	out := make(map[K]V, len(entries))
	for _, en := range entries {
		out[en.k] = en.v
	}
	return out, nil
}

// EncodeSet emits a set as an array of its keys, sorted by encoded bytes.
func EncodeSet[K comparable](e *wire.Encoder, s map[K]struct{}, key EncodeElem[K]) error {
	kbs := make([][]byte, 0, len(s))
	ke := wire.NewEncoder()
	for k := range s {
		ke.Reset()
		if err := key(ke, k); err != nil {
			return err
		}
		kbs = append(kbs, append([]byte(nil), ke.Bytes()...))
	}
	sort.Slice(kbs, func(i, j int) bool { return bytes.Compare(kbs[i], kbs[j]) < 0 })
	e.WriteArrayLen(len(kbs))
	for _, kb := range kbs {
		e.WriteRaw(kb)
	}
	return nil
}

// DecodeSet decodes an array of keys into a set, reusing the sequence
// skeleton. Duplicate keys collapse.
func DecodeSet[K comparable](d *wire.Decoder, key DecodeElem[K]) (map[K]struct{}, error) {
	keys, err := DecodeSequence(d, key)
	if err != nil {
		return nil, err
	}
	out := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out, nil
}
