// Package document models the parsed pocket.toml tree.
//
// A Value is a small tagged variant (map, sequence, string, integer, float,
// boolean, datetime, null). Decoders turn TOML or YAML bytes into a Value;
// the project resolver merges stage overlays on it and then converts it into
// strict typed configuration. The tree is never kept past resolution.
package document

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindMap
	KindSeq
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
)

var kindNames = map[Kind]string{
	KindNull:   "null",
	KindMap:    "table",
	KindSeq:    "array",
	KindString: "string",
	KindInt:    "integer",
	KindFloat:  "float",
	KindBool:   "boolean",
	KindTime:   "datetime",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is one node of a parsed document. The zero Value is null.
type Value struct {
	kind Kind
	m    map[string]Value
	seq  []Value
	str  string
	i    int64
	f    float64
	b    bool
	t    time.Time
}

// Constructors

func Null() Value { return Value{} }
func String(s string) Value { return Value{kind: KindString, str: s} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }
func Seq(items ...Value) Value { return Value{kind: KindSeq, seq: items} }
func Map(entries map[string]Value) Value {
	if entries == nil {
		entries = map[string]Value{}
	}
	return Value{kind: KindMap, m: entries}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsMap reports whether v is a table.
func (v Value) IsMap() bool { return v.kind == KindMap }

// Get returns the child at key when v is a table.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	child, ok := v.m[key]
	return child, ok
}

// Lookup walks a dotted path of table keys.
func (v Value) Lookup(path ...string) (Value, bool) {
	cur := v
	for _, key := range path {
		next, ok := cur.Get(key)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Keys returns the sorted keys of a table, or nil for any other kind.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries of a table or sequence.
func (v Value) Len() int {
	switch v.kind {
	case KindMap:
		return len(v.m)
	case KindSeq:
		return len(v.seq)
	}
	return 0
}

// Items returns the elements of a sequence.
func (v Value) Items() []Value {
	if v.kind != KindSeq {
		return nil
	}
	return append([]Value(nil), v.seq...)
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

// Without returns a copy of table v with the given top-level keys removed.
func (v Value) Without(keys ...string) Value {
	if v.kind != KindMap {
		return v
	}
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	out := make(map[string]Value, len(v.m))
	for k, child := range v.m {
		if !drop[k] {
			out[k] = child
		}
	}
	return Map(out)
}

// String renders v the way a TOML literal would be written, except that a
// top-level string is returned verbatim. This is the coercion applied to
// non-string managed secret options.
func (v Value) String() string {
	if v.kind == KindString {
		return v.str
	}
	return v.literal()
}

func (v Value) literal() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return quote(v.str)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return formatTime(v.t)
	case KindSeq:
		parts := make([]string, len(v.seq))
		for i, item := range v.seq {
			parts[i] = item.literal()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		if len(v.m) == 0 {
			return "{}"
		}
		keys := v.Keys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + " = " + v.m[k].literal()
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	}
	return ""
}

// formatFloat always keeps a fractional part so 2.0 does not read back as an integer.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// quote renders s as a TOML basic string.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Location names the TOML decoder gives local datetimes, dates and times.
const (
	localDatetimeZone = "datetime-local"
	localDateZone     = "date-local"
	localTimeZone     = "time-local"
)

// formatTime keeps TOML local dates and times in their short forms; offset
// datetimes are RFC 3339.
func formatTime(t time.Time) string {
	switch t.Location().String() {
	case localDateZone:
		return t.Format("2006-01-02")
	case localTimeZone:
		return t.Format("15:04:05.999999999")
	case localDatetimeZone:
		return t.Format("2006-01-02T15:04:05.999999999")
	}
	return t.Format(time.RFC3339Nano)
}

// Interface converts v back into plain Go values (map[string]interface{},
// []interface{}, string, int64, float64, bool, nil). Datetimes and non-finite
// floats become their literal strings so the result is JSON-encodable.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindMap:
		out := make(map[string]interface{}, len(v.m))
		for k, child := range v.m {
			out[k] = child.Interface()
		}
		return out
	case KindSeq:
		out := make([]interface{}, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	case KindString:
		return v.str
	case KindInt:
		return v.i
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return formatFloat(v.f)
		}
		return v.f
	case KindBool:
		return v.b
	case KindTime:
		return formatTime(v.t)
	}
	return nil
}

// FromNative converts decoder output into a Value.
func FromNative(in interface{}) (Value, error) {
	switch x := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case int32:
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Value{}, fmt.Errorf("integer %d overflows int64", x)
		}
		return Int(int64(x)), nil
	case float64:
		return Float(x), nil
	case float32:
		return Float(float64(x)), nil
	case time.Time:
		return Time(x), nil
	case map[string]interface{}:
		out := make(map[string]Value, len(x))
		for k, child := range x {
			cv, err := FromNative(child)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = cv
		}
		return Map(out), nil
	case map[interface{}]interface{}:
		out := make(map[string]Value, len(x))
		for k, child := range x {
			key := fmt.Sprint(k)
			cv, err := FromNative(child)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = cv
		}
		return Map(out), nil
	case []interface{}:
		items := make([]Value, len(x))
		for i, child := range x {
			cv, err := FromNative(child)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = cv
		}
		return Seq(items...), nil
	case []map[string]interface{}:
		items := make([]Value, len(x))
		for i, child := range x {
			cv, err := FromNative(child)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = cv
		}
		return Seq(items...), nil
	}
	return Value{}, fmt.Errorf("unsupported document value of type %T", in)
}
