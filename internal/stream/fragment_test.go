package stream

import (
	"reflect"
	"testing"
)

func TestFragments(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single", "data: Hello\n\n", []string{"Hello"}},
		{"two in one chunk", "data: Foo\n\ndata: Bar\n\n", []string{"Foo", "Bar"}},
		{"no trailing delimiter", "data: Foo", []string{"Foo"}},
		{"non data block", "event: ping\n\n", nil},
		{"mixed", "event: ping\n\ndata: A\n\n: comment\n\ndata: B\n\n", []string{"A", "B"}},
		{"prefix without space", "data:Hello\n\n", nil},
		{"empty payload", "data: \n\n", []string{""}},
		{"payload keeps single newlines", "data: line1\nline2\n\n", []string{"line1\nline2"}},
		{"payload keeps spaces", "data:  padded \n\n", []string{" padded "}},
		{"continuation without prefix", "lo\n\n", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fragments(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Fragments(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
