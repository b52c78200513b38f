package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"unicode"
)

// splitField splits "key=value" into (key, value, true).
// Returns ("", "", false) if there is no '=' or key is empty.
func splitField(s string) (string, string, bool) {
	i := strings.IndexByte(s, '=')
	if i <= 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// rawOrString returns a json.RawMessage if v looks like a JSON literal
// (object, array, quoted string, boolean, null, or number). Otherwise it
// returns v as a plain Go string so json.Marshal will quote it.
func rawOrString(v string) any {
	if len(v) == 0 {
		return v
	}
	switch v[0] {
	case '{', '[', '"':
		if json.Valid([]byte(v)) {
			return json.RawMessage(v)
		}
	default:
		if v == "true" || v == "false" || v == "null" {
			return json.RawMessage(v)
		}
		if v[0] == '-' || unicode.IsDigit(rune(v[0])) {
			if json.Valid([]byte(v)) {
				return json.RawMessage(v)
			}
		}
	}
	return v
}

// parseFields turns key=value pairs into a JSON object. A nil result means
// no pairs were given. Keys naming string fields of shape keep their value
// as text, so gpa=3.8 or phone=5550100 stay strings; other values go
// through rawOrString. shape may be nil.
func parseFields(pairs []string, shape any) (json.RawMessage, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	text := stringFields(shape)
	m := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := splitField(p)
		if !ok {
			return nil, fmt.Errorf("invalid field %q: expected key=value", p)
		}
		if text[k] {
			m[k] = stringValue(v)
		} else {
			m[k] = rawOrString(v)
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding fields: %w", err)
	}
	return b, nil
}

// stringValue passes quoted JSON strings and null through and quotes
// everything else.
func stringValue(v string) any {
	if v == "null" || (strings.HasPrefix(v, `"`) && json.Valid([]byte(v))) {
		return json.RawMessage(v)
	}
	return v
}

// stringFields returns the JSON keys of the string fields of the struct
// shape holds or points to.
func stringFields(shape any) map[string]bool {
	t := reflect.TypeOf(shape)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	keys := make(map[string]bool)
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Type.Kind() != reflect.String {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		keys[name] = true
	}
	return keys
}

// gatherFields builds the JSON object for add and update from an optional
// JSON file ("-" reads stdin) overlaid with key=value pairs typed against
// shape.
func gatherFields(file string, stdin io.Reader, pairs []string, shape any) (json.RawMessage, error) {
	obj := map[string]json.RawMessage{}
	if file != "" {
		var data []byte
		var err error
		if file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return nil, fmt.Errorf("reading fields: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("reading fields: %s must hold a JSON object: %w", file, err)
		}
	}
	fields, err := parseFields(pairs, shape)
	if err != nil {
		return nil, err
	}
	if fields != nil {
		var overlay map[string]json.RawMessage
		if err := json.Unmarshal(fields, &overlay); err != nil {
			return nil, err
		}
		for k, v := range overlay {
			obj[k] = v
		}
	}
	if len(obj) == 0 {
		return nil, fmt.Errorf("no fields given: pass key=value pairs or --file")
	}
	return json.Marshal(obj)
}

// mergeInto decodes the JSON object patch over *dst. Unknown keys are
// rejected.
func mergeInto(dst any, patch json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(patch))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
