package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	s := New()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain text unchanged", in: "Great mug, fast shipping", want: "Great mug, fast shipping"},
		{name: "script removed", in: `Nice<script>alert(1)</script>`, want: "Nice"},
		{name: "tags stripped", in: `<b>Bold</b> <a href="https://x.test">claim</a>`, want: "Bold claim"},
		{name: "entities decoded", in: "Tom &amp; Jerry", want: "Tom & Jerry"},
		{name: "ampersand kept", in: "  salt & pepper  ", want: "salt & pepper"},
		{name: "event handler dropped", in: `<img src=x onerror=alert(1)>hi`, want: "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Text(tt.in))
		})
	}
}

func TestRichText(t *testing.T) {
	s := New()

	assert.Equal(t, "<p><strong>Hand made</strong> in Lisbon</p>", s.RichText("<p><strong>Hand made</strong> in Lisbon</p>"))
	assert.Equal(t, "<p>ok</p>", s.RichText(`<p onclick="steal()">ok</p><script>x()</script>`))
	assert.NotContains(t, s.RichText(`<a href="javascript:alert(1)">x</a>`), "javascript")
	assert.Contains(t, s.RichText(`<a href="https://shop.test/care">care guide</a>`), `rel="noreferrer`)
	assert.Empty(t, s.RichText(""))
}
