package format

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{in: "yaml", want: YAMLFormat},
		{in: "y", want: YAMLFormat},
		{in: "json", want: JSONFormat},
		{in: "j", want: JSONFormat},
		{in: "xml", err: true},
		{in: "", err: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.err {
			if !errors.Is(err, ErrBadFormat) {
				t.Errorf("ParseFormat(%q) err = %v, want ErrBadFormat", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTextRoundTrip(t *testing.T) {
	for _, f := range []Format{YAMLFormat, JSONFormat} {
		d, err := f.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", f, err)
		}
		var back Format
		if err := back.UnmarshalText(d); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", d, err)
		}
		if back != f {
			t.Errorf("round trip %v -> %q -> %v", f, d, back)
		}
	}
}
