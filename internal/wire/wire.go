// Package wire implements the versioned key=value record format shared by every
// serialized form in the simulation (genomes, brains, consciousness states,
// adaptive strategies and escape fragments).
//
// A record is a pipe-delimited list of key=value tokens:
//
//	v=1|freq=1.618000|amp=1.000000|gen=3
//
// Values are query-escaped so nested records survive embedding. Decoding is
// forgiving: tokens without a separator, with an empty key, or with a broken
// escape are skipped. Unknown keys are kept but callers simply never ask for
// them, which makes newer encodings readable by older code.
package wire

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// VersionKey is the reserved key carrying the record version.
	VersionKey = "v"

	fieldSep = "|"
)

// Record is an ordered key=value record under construction.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord starts a record stamped with the given version.
func NewRecord(version int) *Record {
	r := &Record{values: make(map[string]string)}
	r.Int(VersionKey, version)
	return r
}

// String sets a string value.
func (r *Record) String(key, value string) *Record {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
	return r
}

// Float sets a float value with six decimals.
func (r *Record) Float(key string, value float64) *Record {
	return r.String(key, strconv.FormatFloat(value, 'f', 6, 64))
}

// Int sets an integer value.
func (r *Record) Int(key string, value int) *Record {
	return r.String(key, strconv.Itoa(value))
}

// Int64 sets a 64-bit integer value.
func (r *Record) Int64(key string, value int64) *Record {
	return r.String(key, strconv.FormatInt(value, 10))
}

// Bool sets a boolean value.
func (r *Record) Bool(key string, value bool) *Record {
	return r.String(key, strconv.FormatBool(value))
}

// Encode renders the record.
func (r *Record) Encode() string {
	var sb strings.Builder
	for i, k := range r.keys {
		if i > 0 {
			sb.WriteString(fieldSep)
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(r.values[k]))
	}
	return sb.String()
}

// Fields is a decoded record.
type Fields map[string]string

// Decode parses an encoded record, skipping malformed tokens. The legacy
// colon separator ("LEVEL:1.0") is accepted when no '=' is present.
func Decode(s string) Fields {
	f := make(Fields)
	for _, tok := range strings.Split(s, fieldSep) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		idx := strings.IndexByte(tok, '=')
		if idx < 0 {
			idx = strings.IndexByte(tok, ':')
		}
		if idx <= 0 {
			continue
		}
		val, err := url.QueryUnescape(tok[idx+1:])
		if err != nil {
			continue
		}
		f[strings.ToLower(tok[:idx])] = val
	}
	return f
}

// Version returns the record version, or 0 when absent.
func (f Fields) Version() int {
	return f.Int(VersionKey, 0)
}

// Has reports whether key was present.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// String returns the value for key or def.
func (f Fields) String(key, def string) string {
	if v, ok := f[key]; ok {
		return v
	}
	return def
}

// Float returns the value for key parsed as float64, or def when missing or
// malformed.
func (f Fields) Float(key string, def float64) float64 {
	v, ok := f[key]
	if !ok {
		return def
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return x
}

// Int returns the value for key parsed as int, or def.
func (f Fields) Int(key string, def int) int {
	v, ok := f[key]
	if !ok {
		return def
	}
	x, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return x
}

// Int64 returns the value for key parsed as int64, or def.
func (f Fields) Int64(key string, def int64) int64 {
	v, ok := f[key]
	if !ok {
		return def
	}
	x, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return x
}

// Bool returns the value for key parsed as bool, or def.
func (f Fields) Bool(key string, def bool) bool {
	v, ok := f[key]
	if !ok {
		return def
	}
	x, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return x
}
