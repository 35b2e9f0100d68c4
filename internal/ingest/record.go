package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Record is one upstream item as decoded from the API. Numbers are kept as
// json.Number so monetary values reach the database without float rounding.
type Record map[string]any

// ID returns the record's "id" field as text, or "" when absent.
func (r Record) ID() string {
	return scalarString(r["id"])
}

// Lookup resolves a dotted path ("cliente.nome"). Any missing segment, or a
// segment that is not an object, yields nil.
func (r Record) Lookup(path string) any {
	var cur any = map[string]any(r)
	for _, key := range strings.Split(path, ".") {
		obj, ok := asObject(cur)
		if !ok {
			return nil
		}
		cur, ok = obj[key]
		if !ok {
			return nil
		}
	}
	return cur
}

// Object returns the nested object at path, or nil.
func (r Record) Object(path string) Record {
	obj, ok := asObject(r.Lookup(path))
	if !ok {
		return nil
	}
	return Record(obj)
}

// List returns the array at path as records. Elements that are not objects
// are skipped.
func (r Record) List(path string) []Record {
	switch raw := r.Lookup(path).(type) {
	case []Record:
		return raw
	case []map[string]any:
		out := make([]Record, len(raw))
		for i, el := range raw {
			out[i] = el
		}
		return out
	case []any:
		out := make([]Record, 0, len(raw))
		for _, el := range raw {
			if obj, ok := asObject(el); ok {
				out = append(out, Record(obj))
			}
		}
		return out
	}
	return nil
}

// String returns the value at path rendered as text, or "".
func (r Record) String(path string) string {
	return scalarString(r.Lookup(path))
}

func asObject(v any) (map[string]any, bool) {
	switch o := v.(type) {
	case map[string]any:
		return o, true
	case Record:
		return o, true
	}
	return nil, false
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}
