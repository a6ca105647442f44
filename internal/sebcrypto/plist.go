package sebcrypto

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// ParsePlist decodes an XML plist document into a settings map keyed by
// string, with values of string, int64, float64, bool, []byte,
// time.Time, []interface{}, or map[string]interface{} — the shapes SEB-JSON
// canonicalization understands.
func ParsePlist(data []byte) (map[string]interface{}, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("sebcrypto: plist decode: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "dict" {
			return decodeDict(dec)
		}
	}
}

func decodeDict(dec *xml.Decoder) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	var pendingKey string
	haveKey := false

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("sebcrypto: plist decode: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "key" {
				text, err := decodeCharData(dec)
				if err != nil {
					return nil, err
				}
				pendingKey = text
				haveKey = true
				continue
			}
			if !haveKey {
				continue
			}
			value, err := decodeValue(dec, t)
			if err != nil {
				return nil, err
			}
			result[pendingKey] = value
			haveKey = false

		case xml.EndElement:
			if t.Name.Local == "dict" {
				return result, nil
			}
		}
	}
}

func decodeArray(dec *xml.Decoder) ([]interface{}, error) {
	var result []interface{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("sebcrypto: plist decode: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			value, err := decodeValue(dec, t)
			if err != nil {
				return nil, err
			}
			result = append(result, value)
		case xml.EndElement:
			if t.Name.Local == "array" {
				return result, nil
			}
		}
	}
}

func decodeValue(dec *xml.Decoder, start xml.StartElement) (interface{}, error) {
	switch start.Name.Local {
	case "string":
		return decodeCharData(dec)
	case "integer":
		text, err := decodeCharData(dec)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sebcrypto: bad plist integer %q: %w", text, err)
		}
		return n, nil
	case "real":
		text, err := decodeCharData(dec)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("sebcrypto: bad plist real %q: %w", text, err)
		}
		return f, nil
	case "true":
		if err := skipToEnd(dec, start.Name.Local); err != nil {
			return nil, err
		}
		return true, nil
	case "false":
		if err := skipToEnd(dec, start.Name.Local); err != nil {
			return nil, err
		}
		return false, nil
	case "data":
		text, err := decodeCharData(dec)
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(text)
	case "date":
		text, err := decodeCharData(dec)
		if err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, text)
		if err != nil {
			return nil, fmt.Errorf("sebcrypto: bad plist date %q: %w", text, err)
		}
		return t, nil
	case "dict":
		return decodeDict(dec)
	case "array":
		return decodeArray(dec)
	default:
		return nil, fmt.Errorf("sebcrypto: unsupported plist element <%s>", start.Name.Local)
	}
}

// decodeCharData reads text content up to the matching end element,
// handling self-closing (empty) elements as an empty string.
func decodeCharData(dec *xml.Decoder) (string, error) {
	var text string
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("sebcrypto: plist decode: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text += string(t)
		case xml.EndElement:
			return text, nil
		}
	}
}

func skipToEnd(dec *xml.Decoder, name string) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("sebcrypto: plist decode: %w", err)
		}
		if end, ok := tok.(xml.EndElement); ok && end.Name.Local == name {
			return nil
		}
	}
}

// SerializePlist is the inverse of ParsePlist, used by the plist
// round-trip tests and by any tooling that re-packages a .seb file.
func SerializePlist(settings map[string]interface{}) []byte {
	var buf []byte
	buf = append(buf, []byte(`<?xml version="1.0" encoding="UTF-8"?>`+"\n")...)
	buf = append(buf, []byte(`<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">`+"\n")...)
	buf = append(buf, []byte(`<plist version="1.0">`)...)
	buf = append(buf, serializeDict(settings)...)
	buf = append(buf, []byte(`</plist>`)...)
	return buf
}

func serializeDict(m map[string]interface{}) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf []byte
	buf = append(buf, []byte("<dict>")...)
	for _, k := range keys {
		buf = append(buf, []byte("<key>"+xmlEscape(k)+"</key>")...)
		buf = append(buf, serializeValue(m[k])...)
	}
	buf = append(buf, []byte("</dict>")...)
	return buf
}

func serializeValue(v interface{}) []byte {
	switch val := v.(type) {
	case string:
		return []byte("<string>" + xmlEscape(val) + "</string>")
	case bool:
		if val {
			return []byte("<true/>")
		}
		return []byte("<false/>")
	case int64:
		return []byte("<integer>" + strconv.FormatInt(val, 10) + "</integer>")
	case int:
		return []byte("<integer>" + strconv.Itoa(val) + "</integer>")
	case float64:
		return []byte("<real>" + strconv.FormatFloat(val, 'g', -1, 64) + "</real>")
	case []byte:
		return []byte("<data>" + base64.StdEncoding.EncodeToString(val) + "</data>")
	case time.Time:
		return []byte("<date>" + val.UTC().Format(time.RFC3339) + "</date>")
	case []interface{}:
		var buf []byte
		buf = append(buf, []byte("<array>")...)
		for _, item := range val {
			buf = append(buf, serializeValue(item)...)
		}
		buf = append(buf, []byte("</array>")...)
		return buf
	case map[string]interface{}:
		return serializeDict(val)
	default:
		return []byte("<string></string>")
	}
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
