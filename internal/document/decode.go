package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed indicates the input is not valid JSON.
var ErrMalformed = errors.New("document: malformed JSON")

// Decode reads a single JSON value from r, preserving object member order.
// Numbers are kept as json.Number to avoid precision loss.
func Decode(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return Missing(), fmt.Errorf("%w: empty input", ErrMalformed)
	}
	if err != nil {
		return Missing(), fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return decodeFrom(dec, tok)
}

// DecodeBytes decodes a JSON document from a byte slice.
func DecodeBytes(data []byte) (Value, error) {
	return Decode(bytes.NewReader(data))
}

func decodeFrom(dec *json.Decoder, tok json.Token) (Value, error) {
	switch current := tok.(type) {
	case json.Delim:
		switch current {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return Missing(), fmt.Errorf("%w: unexpected %q", ErrMalformed, current.String())
		}
	case string:
		return String(current), nil
	case json.Number:
		return Number(current), nil
	case bool:
		return Bool(current), nil
	case nil:
		return Null(), nil
	default:
		return Missing(), fmt.Errorf("%w: unexpected token %v", ErrMalformed, tok)
	}
}

func decodeObject(dec *json.Decoder) (Value, error) {
	var members []Member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Missing(), fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return Missing(), fmt.Errorf("%w: object key %v", ErrMalformed, keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return Missing(), fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		val, err := decodeFrom(dec, valTok)
		if err != nil {
			return Missing(), err
		}
		members = append(members, Member{Key: key, Value: val})
	}

	// Consume the closing '}'.
	if _, err := dec.Token(); err != nil {
		return Missing(), fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return Object(members...), nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	var elems []Value
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Missing(), fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		val, err := decodeFrom(dec, tok)
		if err != nil {
			return Missing(), err
		}
		elems = append(elems, val)
	}

	// Consume the closing ']'.
	if _, err := dec.Token(); err != nil {
		return Missing(), fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return ArrayOf(elems), nil
}

// MarshalJSON renders the value as JSON. Missing marshals as null, the same
// way it surfaces in extraction results. Object member order is preserved.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindMissing, KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.boolean {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if v.num == "" {
			buf.WriteString("0")
			return nil
		}
		buf.WriteString(v.num.String())
	case KindString:
		encoded, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}
