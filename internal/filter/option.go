package filter

import (
	"encoding/json"
	"fmt"
)

// OptionKind identifies which variant an Option holds.
type OptionKind int

const (
	KindFlag OptionKind = iota
	KindBool
	KindString
	KindStringList
)

// Option is a typed value passed to a filter through the manifest. It is one
// of: a bare flag, a bool, a string, or a list of strings.
//
// The JSON form is externally tagged: "Flag", {"Bool": true}, {"String": "x"},
// or {"StringList": ["a", "b"]}.
type Option struct {
	kind OptionKind
	b    bool
	s    string
	list []string
}

// Flag returns the flag option.
func Flag() Option { return Option{kind: KindFlag} }

// Bool returns a bool option.
func Bool(v bool) Option { return Option{kind: KindBool, b: v} }

// String returns a string option.
func String(v string) Option { return Option{kind: KindString, s: v} }

// StringList returns a string-list option.
func StringList(v ...string) Option { return Option{kind: KindStringList, list: v} }

// Kind returns the option's variant tag.
func (o Option) Kind() OptionKind { return o.kind }

// IsFlag reports whether the option is the bare flag variant.
func (o Option) IsFlag() bool { return o.kind == KindFlag }

// BoolValue returns the bool payload. ok is false for other variants.
func (o Option) BoolValue() (v bool, ok bool) { return o.b, o.kind == KindBool }

// StringValue returns the string payload. ok is false for other variants.
func (o Option) StringValue() (v string, ok bool) { return o.s, o.kind == KindString }

// StringListValue returns the string-list payload. ok is false for other
// variants.
func (o Option) StringListValue() (v []string, ok bool) { return o.list, o.kind == KindStringList }

// Equal reports structural equality between two options.
func (o Option) Equal(other Option) bool {
	if o.kind != other.kind {
		return false
	}
	switch o.kind {
	case KindBool:
		return o.b == other.b
	case KindString:
		return o.s == other.s
	case KindStringList:
		if len(o.list) != len(other.list) {
			return false
		}
		for i := range o.list {
			if o.list[i] != other.list[i] {
				return false
			}
		}
	}
	return true
}

// OptionsEqual reports structural equality between two option maps.
func OptionsEqual(a, b map[string]Option) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !av.Equal(bv) {
			return false
		}
	}
	return true
}

// FlagSet reports whether the named option is set as a flag. The second
// result is false if the option is present but has a different type.
func FlagSet(options map[string]Option, name string) (set bool, ok bool) {
	o, present := options[name]
	if !present {
		return false, true
	}
	if o.kind != KindFlag {
		return false, false
	}
	return true, true
}

func (o Option) MarshalJSON() ([]byte, error) {
	switch o.kind {
	case KindFlag:
		return json.Marshal("Flag")
	case KindBool:
		return json.Marshal(map[string]bool{"Bool": o.b})
	case KindString:
		return json.Marshal(map[string]string{"String": o.s})
	case KindStringList:
		list := o.list
		if list == nil {
			list = []string{}
		}
		return json.Marshal(map[string][]string{"StringList": list})
	}
	return nil, fmt.Errorf("unknown option kind %d", o.kind)
}

func (o *Option) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if tag != "Flag" {
			return fmt.Errorf("unknown option variant %q", tag)
		}
		*o = Flag()
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("malformed filter option: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("filter option must have exactly one variant, got %d", len(raw))
	}
	for tag, payload := range raw {
		switch tag {
		case "Bool":
			var v bool
			if err := json.Unmarshal(payload, &v); err != nil {
				return err
			}
			*o = Bool(v)
		case "String":
			var v string
			if err := json.Unmarshal(payload, &v); err != nil {
				return err
			}
			*o = String(v)
		case "StringList":
			var v []string
			if err := json.Unmarshal(payload, &v); err != nil {
				return err
			}
			*o = StringList(v...)
		default:
			return fmt.Errorf("unknown option variant %q", tag)
		}
	}
	return nil
}
