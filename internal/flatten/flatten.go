// Package flatten turns nested upstream records into flat fact rows.
//
// An upstream record carries entity-level columns plus one list field of
// per-action-type sub-records. Explode promotes every sub-record key to a
// top-level column named "<field>.<key>" and replicates the entity columns
// onto each exploded row.
package flatten

import (
	"encoding/json"
	"strconv"
)

// Record is one decoded JSON object.
type Record map[string]any

// DataField is the list field carried by every goals-added record.
const DataField = "data"

// Explode returns one row per (record, element of record[field]). Records
// whose field is missing, empty or not a list of objects produce no rows.
func Explode(records []Record, field string) []Record {
	var out []Record
	for _, rec := range records {
		items, ok := rec[field].([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			sub, ok := asObject(item)
			if !ok {
				continue
			}
			row := make(Record, len(rec)-1+len(sub))
			for k, v := range rec {
				if k == field {
					continue
				}
				row[k] = v
			}
			for k, v := range sub {
				row[field+"."+k] = v
			}
			out = append(out, row)
		}
	}
	return out
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Record:
		return t, true
	}
	return nil, false
}

// String returns the column as a string. Numbers are formatted without
// exponent; a missing or null column yields "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// Float returns the column as a float64 and whether it held a number.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// Int returns the column truncated to an int and whether it held a number.
func (r Record) Int(key string) (int, bool) {
	f, ok := r.Float(key)
	return int(f), ok
}

// Set assigns a column on every record, overwriting existing values.
func Set(records []Record, key string, value any) {
	for _, r := range records {
		r[key] = value
	}
}

// SetDefault assigns a column on records where it is missing or empty.
func SetDefault(records []Record, key string, value any) {
	for _, r := range records {
		if v, ok := r[key]; !ok || v == nil || v == "" {
			r[key] = value
		}
	}
}
