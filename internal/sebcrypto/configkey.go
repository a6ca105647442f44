package sebcrypto

import (
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SerializeSebJSON renders settings as SEB-JSON: originatorVersion
// dropped from the top level, every mapping's keys sorted
// case-insensitively, no whitespace, shortest round-trip float
// formatting, timestamps as ISO-8601 strings. Two maps that differ
// only in key order or in the presence of an absent originatorVersion
// produce byte-identical output.
func SerializeSebJSON(settings map[string]interface{}) string {
	top := make(map[string]interface{}, len(settings))
	for k, v := range settings {
		if strings.EqualFold(k, "originatorVersion") {
			continue
		}
		top[k] = v
	}

	var b strings.Builder
	writeSebJSONValue(&b, top)
	return b.String()
}

// DeriveConfigKey computes rawConfigKey = SHA-256(UTF-8(SEB-JSON)).
func DeriveConfigKey(settings map[string]interface{}) [32]byte {
	return sha256.Sum256([]byte(SerializeSebJSON(settings)))
}

func writeSebJSONValue(b *strings.Builder, v interface{}) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		writeSebJSONString(b, val)
	case time.Time:
		writeSebJSONString(b, val.UTC().Format(time.RFC3339))
	case int:
		b.WriteString(strconv.Itoa(val))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case float64:
		writeSebJSONFloat(b, val)
	case []byte:
		writeSebJSONString(b, base64.StdEncoding.EncodeToString(val))
	case []interface{}:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeSebJSONValue(b, item)
		}
		b.WriteByte(']')
	case map[string]interface{}:
		writeSebJSONDict(b, val)
	default:
		b.WriteString("null")
	}
}

func writeSebJSONDict(b *strings.Builder, m map[string]interface{}) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		writeSebJSONString(b, k)
		b.WriteByte(':')
		writeSebJSONValue(b, m[k])
	}
	b.WriteByte('}')
}

func writeSebJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString("\\u")
				const hex = "0123456789abcdef"
				b.WriteByte('0')
				b.WriteByte('0')
				b.WriteByte(hex[(r>>4)&0xf])
				b.WriteByte(hex[r&0xf])
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

// writeSebJSONFloat uses the shortest round-trip decimal
// representation, per the redesign note preferring §4.4.4's shortest
// round-trip rule over the source's fixed 15-digit format.
func writeSebJSONFloat(b *strings.Builder, f float64) {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	b.WriteString(s)
}
