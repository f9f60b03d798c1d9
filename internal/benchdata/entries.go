package benchdata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entries keeps suites in the order they were first added, which is also the order
// the chart page renders them in. A plain map would sort them on encode.
type Entries []Suite

// MarshalJSON encodes the suites as a JSON object keyed by suite name.
func (e Entries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(s.Name)
		if err != nil {
			return nil, err
		}
		runs := s.Runs
		if runs == nil {
			runs = []Run{}
		}
		val, err := marshalNoEscape(runs)
		if err != nil {
			return nil, fmt.Errorf("suite %q: %w", s.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of suites, preserving key order. A repeated
// key replaces the earlier value in place.
func (e *Entries) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*e = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("entries: expected object, got %v", tok)
	}

	var out Entries
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("entries: expected suite name, got %v", tok)
		}
		var runs []Run
		if err := dec.Decode(&runs); err != nil {
			return fmt.Errorf("suite %q: %w", name, err)
		}
		if i, seen := index[name]; seen {
			out[i].Runs = runs
			continue
		}
		index[name] = len(out)
		out = append(out, Suite{Name: name, Runs: runs})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*e = out
	return nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
