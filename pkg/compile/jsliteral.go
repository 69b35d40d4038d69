package compile

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/confgen/pkg/core"
)

const indentUnit = "  "

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func indent(depth int) string {
	return strings.Repeat(indentUnit, depth)
}

// quoteJS renders s as a single-quoted JavaScript string literal.
func quoteJS(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// objectKey renders a property name, quoting it only when it is not an identifier.
func objectKey(k string) string {
	if identRe.MatchString(k) {
		return k
	}
	return quoteJS(k)
}

func isScalar(v any) bool {
	switch v.(type) {
	case []any, []string, map[string]any, map[any]any:
		return false
	}
	return true
}

// writeJSValue renders v as a JavaScript literal. Nested values are indented
// relative to depth. Object keys are sorted.
func writeJSValue(b *strings.Builder, v any, depth int) error {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteString(quoteJS(x))
	case core.Severity:
		b.WriteString(quoteJS(x.String()))
	case bool:
		b.WriteString(strconv.FormatBool(x))
	case int:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case int32:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		b.WriteString(strconv.FormatInt(x, 10))
	case uint:
		b.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint64:
		b.WriteString(strconv.FormatUint(x, 10))
	case float32:
		return writeFloat(b, float64(x))
	case float64:
		return writeFloat(b, x)
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return writeJSArray(b, items, depth)
	case []any:
		return writeJSArray(b, x, depth)
	case map[string]any:
		return writeJSObject(b, x, depth)
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = val
		}
		return writeJSObject(b, m, depth)
	default:
		return errors.Newf("unsupported option value of type %T", v)
	}
	return nil
}

func writeFloat(b *strings.Builder, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.Newf("option value %v is not a finite number", f)
	}
	b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// writeJSArray renders scalar-only arrays inline and everything else one
// element per line.
func writeJSArray(b *strings.Builder, items []any, depth int) error {
	if len(items) == 0 {
		b.WriteString("[]")
		return nil
	}

	inline := true
	for _, it := range items {
		if !isScalar(it) {
			inline = false
			break
		}
	}

	if inline {
		b.WriteByte('[')
		for i, it := range items {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := writeJSValue(b, it, depth); err != nil {
				return errors.Wrapf(err, "index %d", i)
			}
		}
		b.WriteByte(']')
		return nil
	}

	b.WriteString("[\n")
	for i, it := range items {
		b.WriteString(indent(depth + 1))
		if err := writeJSValue(b, it, depth+1); err != nil {
			return errors.Wrapf(err, "index %d", i)
		}
		if i < len(items)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(indent(depth))
	b.WriteByte(']')
	return nil
}

func writeJSObject(b *strings.Builder, m map[string]any, depth int) error {
	if len(m) == 0 {
		b.WriteString("{}")
		return nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString("{\n")
	for i, k := range keys {
		b.WriteString(indent(depth + 1))
		b.WriteString(objectKey(k))
		b.WriteString(": ")
		if err := writeJSValue(b, m[k], depth+1); err != nil {
			return errors.Wrapf(err, "key %q", k)
		}
		if i < len(keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(indent(depth))
	b.WriteByte('}')
	return nil
}
