package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "removes tags",
			text: "<b>bold</b> and <span class=\"x\">styled</span>",
			want: "bold and styled",
		},
		{
			name: "decodes common entities",
			text: "a&nbsp;&amp;&nbsp;b &lt;c&gt;",
			want: "a & b <c>",
		},
		{
			name: "trims surrounding whitespace",
			text: "  <p>text</p>  ",
			want: "text",
		},
		{
			name: "plain text is untouched",
			text: "plain",
			want: "plain",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.text))
		})
	}
}

func TestStripSounds(t *testing.T) {
	assert.Equal(t, "hola ", StripSounds("hola [sound:hola.mp3]"))
	assert.Equal(t, "no audio", StripSounds("no audio"))
}
