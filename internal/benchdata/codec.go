package benchdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// GlobalName is the page variable the document is assigned to.
const GlobalName = "window.BENCHMARK_DATA"

var (
	// ErrMalformed is returned when the input is neither a data.js payload nor JSON.
	ErrMalformed = errors.New("malformed benchmark data")
)

// Decode reads a document from either the JavaScript payload
// (`window.BENCHMARK_DATA = {...}`) or bare JSON. Empty input yields an empty document.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read benchmark data: %w", err)
	}
	return Parse(data)
}

// Parse is Decode over a byte slice.
func Parse(data []byte) (*Document, error) {
	body, err := payload(data)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return &Document{}, nil
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &doc, nil
}

// payload strips the JavaScript assignment, if present, and returns the JSON body.
func payload(data []byte) ([]byte, error) {
	body := bytes.TrimSpace(data)
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	if len(body) == 0 {
		return nil, nil
	}
	if body[0] == '{' {
		return body, nil
	}

	eq := bytes.IndexByte(body, '=')
	if eq < 0 {
		return nil, fmt.Errorf("%w: no assignment found", ErrMalformed)
	}
	lhs := bytes.TrimSpace(body[:eq])
	lhs = bytes.TrimPrefix(lhs, []byte("var "))
	lhs = bytes.TrimPrefix(lhs, []byte("const "))
	if !bytes.Equal(bytes.TrimSpace(lhs), []byte(GlobalName)) {
		return nil, fmt.Errorf("%w: unexpected assignment to %q", ErrMalformed, lhs)
	}
	body = bytes.TrimSpace(body[eq+1:])
	body = bytes.TrimSuffix(body, []byte(";"))
	return bytes.TrimSpace(body), nil
}

// Encode writes the document as the JavaScript payload the chart page loads.
func Encode(w io.Writer, doc *Document) error {
	body, err := marshalIndent(doc)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s = %s\n", GlobalName, body); err != nil {
		return fmt.Errorf("write benchmark data: %w", err)
	}
	return nil
}

// EncodeJSON writes the document as bare, indented JSON.
func EncodeJSON(w io.Writer, doc *Document) error {
	body, err := marshalIndent(doc)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(body, '\n')); err != nil {
		return fmt.Errorf("write benchmark data: %w", err)
	}
	return nil
}

func marshalIndent(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("marshal benchmark data: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
