// Package diagram finds and rewrites the item references embedded in
// diagram nodes.
//
// A node is a JSON object whose "data" object may point at a library item
// under one of several spellings. The spellings are an ordered rule list
// shared by Scan and Rewrite.
package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/keboola/go-utils/pkg/orderedmap"
)

// maxExactFloat is the largest integer a float64 holds exactly.
const maxExactFloat = 1 << 53

// refRule is a key path inside a node's data object that holds an item id.
type refRule []string

var refRules = []refRule{
	{"item_id"},
	{"itemId"},
	{"item", "id"},
}

// ref is one matched reference: the object holding it, its key and the id.
type ref struct {
	parent *orderedmap.OrderedMap
	key    string
	id     int64
}

// decodeNode parses a node into an ordered map. Nodes that are valid JSON but
// not objects yield nil.
func decodeNode(raw json.RawMessage) (*orderedmap.OrderedMap, error) {
	if !json.Valid(raw) {
		return nil, fmt.Errorf("node is not valid JSON")
	}
	node, err := decodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}
	return node, nil
}

// decodeObject reads one level of a JSON object. Member values stay
// json.RawMessage so that anything not rewritten is written back byte for
// byte. Input that is not an object yields nil.
func decodeObject(raw json.RawMessage) (*orderedmap.OrderedMap, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	obj := orderedmap.New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		obj.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

// nodeRefs returns the references of a decoded node in rule order.
func nodeRefs(node *orderedmap.OrderedMap) ([]ref, error) {
	if node == nil {
		return nil, nil
	}
	data, err := objectAt(node, "data")
	if err != nil || data == nil {
		return nil, err
	}

	var refs []ref
	for _, rule := range refRules {
		parent := data
		for _, key := range rule[:len(rule)-1] {
			if parent, err = objectAt(parent, key); err != nil {
				return nil, err
			}
			if parent == nil {
				break
			}
		}
		if parent == nil {
			continue
		}
		key := rule[len(rule)-1]
		value, found := parent.Get(key)
		if !found {
			continue
		}
		if id, isInt := asInt(value); isInt {
			refs = append(refs, ref{parent: parent, key: key, id: id})
		}
	}
	return refs, nil
}

// objectAt returns the object stored under key, decoding it in place on
// first access. It returns nil when the value is missing or not an object.
func objectAt(m *orderedmap.OrderedMap, key string) (*orderedmap.OrderedMap, error) {
	value, found := m.Get(key)
	if !found {
		return nil, nil
	}
	switch v := value.(type) {
	case *orderedmap.OrderedMap:
		return v, nil
	case json.RawMessage:
		obj, err := decodeObject(v)
		if err != nil || obj == nil {
			return nil, err
		}
		m.Set(key, obj)
		return obj, nil
	default:
		return nil, nil
	}
}

// asInt accepts JSON numbers with an integral value. Strings, booleans and
// fractional numbers are not references.
func asInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case json.RawMessage:
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()
		tok, err := dec.Token()
		if err != nil {
			return 0, false
		}
		num, ok := tok.(json.Number)
		if !ok {
			return 0, false
		}
		if id, err := num.Int64(); err == nil {
			return id, true
		}
		f, err := num.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactFloat {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

// encodeObject writes m as compact JSON in key order. Raw member values are
// copied verbatim and strings are not HTML-escaped.
func encodeObject(w *bytes.Buffer, m *orderedmap.OrderedMap) error {
	w.WriteByte('{')
	for i, key := range m.Keys() {
		if i > 0 {
			w.WriteByte(',')
		}
		if err := encodeValue(w, key); err != nil {
			return err
		}
		w.WriteByte(':')
		value, _ := m.Get(key)
		if err := encodeValue(w, value); err != nil {
			return err
		}
	}
	w.WriteByte('}')
	return nil
}

func encodeValue(w *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case *orderedmap.OrderedMap:
		return encodeObject(w, v)
	case json.RawMessage:
		w.Write(v)
		return nil
	case int64:
		w.WriteString(strconv.FormatInt(v, 10))
		return nil
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return err
		}
		w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
		return nil
	}
}
