package watermark

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := NewID()
		require.Regexp(t, re, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestApply_RoundTrip(t *testing.T) {
	out := Apply("var a=1;")
	assert.True(t, IsAlreadyProtected([]byte(out)))
	assert.True(t, IsAlreadyProtected(WithBOM(out)))
	assert.Regexp(t, `^// Protected by Shield \[[0-9a-f]{8}\]\nvar a=1;$`, out)
}

func TestIsAlreadyProtected(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{name: "plain source", content: "console.log(1)", want: false},
		{name: "empty", content: "", want: false},
		{name: "watermark", content: "// Protected by Shield [0a1b2c3d]\nx()", want: true},
		{name: "watermark only", content: "// Protected by Shield [deadbeef]", want: true},
		{name: "uppercase hex", content: "// Protected by Shield [DEADBEEF]\n", want: false},
		{name: "short id", content: "// Protected by Shield [abc]\n", want: false},
		{name: "not at start", content: "x()\n// Protected by Shield [0a1b2c3d]\n", want: false},
		{name: "leading space", content: " // Protected by Shield [0a1b2c3d]\n", want: false},
		{name: "bom then watermark", content: "\xEF\xBB\xBF// Protected by Shield [0a1b2c3d]\n", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAlreadyProtected([]byte(tt.content)))
		})
	}
}

func TestWithBOM(t *testing.T) {
	b := WithBOM("abc")
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF, 'a', 'b', 'c'}, b)
}
