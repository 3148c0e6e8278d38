package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "The Matrix", "the-matrix"},
		{"ampersand and punctuation", "The Matrix & Beyond!", "the-matrix-and-beyond"},
		{"multiple separators collapse", "a  --  b", "a-b"},
		{"leading and trailing junk", "  !!Hello!!  ", "hello"},
		{"digits kept", "Blade Runner 2049", "blade-runner-2049"},
		{"already a slug", "already-a-slug", "already-a-slug"},
		{"empty", "", ""},
		{"only punctuation", "?!*", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}
