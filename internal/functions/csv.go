package functions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
)

// BuildCSV renders records as comma-separated text. The header is the field
// list of the first record in the order its JSON carries them; every row
// uses that list. Cells are the JSON encoding of the value, so strings are
// double-quoted with JSON escapes rather than CSV escapes. Missing and null
// values become "". No records gives the lone header "id".
//
// Cells are re-encoded without HTML escaping, so "&", "<" and ">" come out
// as themselves the way a browser's JSON.stringify writes them.
func BuildCSV(records []json.RawMessage) (string, error) {
	if len(records) == 0 {
		return fieldID, nil
	}

	var headers []string
	err := jsonparser.ObjectEach(records[0], func(key, _ []byte, _ jsonparser.ValueType, _ int) error {
		headers = append(headers, string(key))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read csv header: %w", err)
	}

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(headers, ","))

	for i, rec := range records {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(rec, &fields); err != nil {
			return "", fmt.Errorf("decode csv row %d: %w", i, err)
		}
		cells := make([]string, len(headers))
		for j, h := range headers {
			v, ok := fields[h]
			if !ok || string(v) == "null" {
				cells[j] = `""`
				continue
			}
			cell, err := encodeCell(v)
			if err != nil {
				return "", fmt.Errorf("encode csv cell %s: %w", h, err)
			}
			cells[j] = cell
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n"), nil
}

const fieldID = "id"

// encodeCell compacts one JSON value and undoes the \u0026, \u003c and
// \u003e escapes encoding/json writes for "&", "<" and ">". Key order of
// nested objects and the text of numbers are left as stored.
func encodeCell(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	b := buf.Bytes()

	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+5 < len(b) {
			if c, ok := htmlEscapes[strings.ToLower(string(b[i+2:i+6]))]; ok {
				out = append(out, c)
				i += 5
				continue
			}
		}
		// any other escape is copied whole so an escaped backslash is
		// never read as the start of a \u sequence
		out = append(out, b[i], b[i+1])
		i++
	}
	return string(out), nil
}

var htmlEscapes = map[string]byte{"0026": '&', "003c": '<', "003e": '>'}
