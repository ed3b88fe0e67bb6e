package preprocess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \n\t ", ""},
		{"collapses runs", "fever\n\nand\t\tcough", "fever and cough"},
		{"trims ends", "  chest pain  ", "chest pain"},
		{"already clean", "chest pain", "chest pain"},
		{"mixed newlines tabs", "a\r\n b\t\nc", "a b c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanText(tc.in))
		})
	}
}

func TestTruncateContext(t *testing.T) {
	long := strings.Repeat("x", 100)

	assert.Equal(t, long, TruncateContext(long, 0), "non-positive limit disables truncation")
	assert.Equal(t, long, TruncateContext(long, 100), "exact fit untouched")

	got := TruncateContext(long, 40)
	assert.True(t, strings.HasSuffix(got, TruncationMarker))
	assert.Equal(t, strings.Repeat("x", 40)+TruncationMarker, got)
}
