// FILE: format.go
package ulog

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// appendTemplate renders a template with {} and {N} placeholders into dst.
// Implicit placeholders advance a sequence counter; explicit indices are
// independent of it. "{{" and "}}" escape literal braces. Placeholders
// without a matching argument are emitted literally.
func appendTemplate(dst []byte, template string, args []any) []byte {
	seq := 0
	i := 0
	for i < len(template) {
		c := template[i]
		if c == '}' && i+1 < len(template) && template[i+1] == '}' {
			dst = append(dst, '}')
			i += 2
			continue
		}
		if c != '{' {
			dst = append(dst, c)
			i++
			continue
		}
		if i+1 < len(template) && template[i+1] == '{' {
			dst = append(dst, '{')
			i += 2
			continue
		}
		if i+1 < len(template) && template[i+1] == '}' {
			if seq < len(args) {
				dst = appendValue(dst, args[seq], 0)
				seq++
			} else {
				dst = append(dst, '{', '}')
			}
			i += 2
			continue
		}
		// Explicit index: {N}
		j := i + 1
		for j < len(template) && template[j] >= '0' && template[j] <= '9' {
			j++
		}
		if j > i+1 && j < len(template) && template[j] == '}' {
			idx, err := strconv.Atoi(template[i+1 : j])
			if err == nil && idx < len(args) {
				dst = appendValue(dst, args[idx], 0)
			} else {
				dst = append(dst, template[i:j+1]...)
			}
			i = j + 1
			continue
		}
		dst = append(dst, '{')
		i++
	}
	return dst
}

// appendValue renders a single argument. Scalars take the fast path; nested
// kinds recurse through reflection up to maxRenderDepth, emitting "..." at
// the cap.
func appendValue(dst []byte, v any, depth int) []byte {
	if depth > maxRenderDepth {
		return append(dst, "..."...)
	}
	switch val := v.(type) {
	case nil:
		return append(dst, "null"...)
	case string:
		return append(dst, val...)
	case []byte:
		return append(dst, val...)
	case bool:
		return strconv.AppendBool(dst, val)
	case int:
		return strconv.AppendInt(dst, int64(val), 10)
	case int8:
		return strconv.AppendInt(dst, int64(val), 10)
	case int16:
		return strconv.AppendInt(dst, int64(val), 10)
	case int32:
		return strconv.AppendInt(dst, int64(val), 10)
	case int64:
		return strconv.AppendInt(dst, val, 10)
	case uint:
		return strconv.AppendUint(dst, uint64(val), 10)
	case uint8:
		return strconv.AppendUint(dst, uint64(val), 10)
	case uint16:
		return strconv.AppendUint(dst, uint64(val), 10)
	case uint32:
		return strconv.AppendUint(dst, uint64(val), 10)
	case uint64:
		return strconv.AppendUint(dst, val, 10)
	case float32:
		return strconv.AppendFloat(dst, float64(val), 'g', -1, 32)
	case float64:
		return strconv.AppendFloat(dst, val, 'g', -1, 64)
	case time.Time:
		return val.AppendFormat(dst, timestampLayout)
	case error:
		return append(dst, val.Error()...)
	case fmt.Stringer:
		return append(dst, val.String()...)
	}
	return appendReflected(dst, reflect.ValueOf(v), depth)
}

// appendReflected handles optional, variant, sequence and aggregate kinds.
func appendReflected(dst []byte, rv reflect.Value, depth int) []byte {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return append(dst, "null"...)
		}
		return appendValue(dst, rv.Elem().Interface(), depth+1)
	case reflect.Bool:
		return strconv.AppendBool(dst, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.AppendInt(dst, rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.AppendUint(dst, rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.AppendFloat(dst, rv.Float(), 'g', -1, 64)
	case reflect.String:
		return append(dst, rv.String()...)
	case reflect.Slice, reflect.Array:
		dst = append(dst, '[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				dst = append(dst, ", "...)
			}
			dst = appendValue(dst, rv.Index(i).Interface(), depth+1)
		}
		return append(dst, ']')
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		dst = append(dst, '{')
		for i, k := range keys {
			if i > 0 {
				dst = append(dst, ", "...)
			}
			dst = appendValue(dst, k.Interface(), depth+1)
			dst = append(dst, '=')
			dst = appendValue(dst, rv.MapIndex(k).Interface(), depth+1)
		}
		return append(dst, '}')
	case reflect.Struct:
		t := rv.Type()
		dst = append(dst, '{')
		written := 0
		for i := 0; i < rv.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			if written > 0 {
				dst = append(dst, ", "...)
			}
			dst = append(dst, f.Name...)
			dst = append(dst, '=')
			dst = appendValue(dst, rv.Field(i).Interface(), depth+1)
			written++
		}
		return append(dst, '}')
	default:
		// Opaque kinds (chan, func, unsafe pointer) render address-style.
		dst = append(dst, "0x"...)
		return strconv.AppendUint(dst, uint64(rv.Pointer()), 16)
	}
}

// utf8SafeSize returns the largest byte count not exceeding max that does
// not split a UTF-8 code point, by walking back over continuation bytes.
func utf8SafeSize(data []byte, max int) int {
	if len(data) <= max {
		return len(data)
	}
	i := max
	for i > 0 && data[i]&0xC0 == 0x80 {
		i--
	}
	return i
}

// appendTimestamp renders wall-clock milliseconds as the bracketed prefix
// timestamp in local time.
func appendTimestamp(dst []byte, tsMs int64) []byte {
	return time.UnixMilli(tsMs).AppendFormat(dst, timestampLayout)
}

// appendJSONEscaped appends message bytes with the line format's escaping:
// quote and backslash are backslash-prefixed, newline, carriage return and
// tab become their two-byte forms, everything else passes through verbatim.
// Input is already UTF-8; no re-encoding happens here.
func appendJSONEscaped(dst, msg []byte) []byte {
	for i := 0; i < len(msg); {
		c := msg[i]
		switch c {
		case '"', '\\':
			dst = append(dst, '\\', c)
			i++
		case '\n':
			dst = append(dst, '\\', 'n')
			i++
		case '\r':
			dst = append(dst, '\\', 'r')
			i++
		case '\t':
			dst = append(dst, '\\', 't')
			i++
		default:
			start := i
			for i < len(msg) {
				c = msg[i]
				if c == '"' || c == '\\' || c == '\n' || c == '\r' || c == '\t' {
					break
				}
				i++
			}
			dst = append(dst, msg[start:i]...)
		}
	}
	return dst
}
