package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClozeOrdinals(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []int
	}{
		{
			name: "single deletion",
			text: "{{c1::Paris}} is the capital of France",
			want: []int{0},
		},
		{
			name: "repeated and out of order groups",
			text: "{{c2::b}} {{c1::a}} {{c2::c}}",
			want: []int{0, 1},
		},
		{
			name: "gap in numbering is preserved",
			text: "{{c1::a}} {{c3::b}}",
			want: []int{0, 2},
		},
		{
			name: "hint does not change the ordinal",
			text: "{{c1::Paris::city}}",
			want: []int{0},
		},
		{
			name: "group zero is ignored",
			text: "{{c0::nothing}}",
			want: []int{},
		},
		{
			name: "no deletions",
			text: "plain text",
			want: []int{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClozeOrdinals(tt.text))
		})
	}
}

func TestHasClozeDeletion(t *testing.T) {
	assert.True(t, HasClozeDeletion("{{c1::a}} {{c3::b}}", 0))
	assert.False(t, HasClozeDeletion("{{c1::a}} {{c3::b}}", 1))
	assert.True(t, HasClozeDeletion("{{c1::a}} {{c3::b}}", 2))
}

func TestRewriteCloze(t *testing.T) {
	text := "{{c1::Paris::city}} is the capital of {{c2::France}}"

	tests := []struct {
		name     string
		ordinal  int
		question bool
		want     string
	}{
		{
			name:     "question side hides the active group with its hint",
			ordinal:  0,
			question: true,
			want:     "[city] is the capital of France",
		},
		{
			name:     "question side without a hint shows ellipsis",
			ordinal:  1,
			question: true,
			want:     "Paris is the capital of [...]",
		},
		{
			name:     "answer side reveals every group",
			ordinal:  0,
			question: false,
			want:     "Paris is the capital of France",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewriteCloze(text, tt.ordinal, tt.question))
		})
	}
}

func TestClozeFieldNames(t *testing.T) {
	assert.Equal(t, []string{"Text"}, ClozeFieldNames("{{cloze:Text}}<br>{{Extra}}"))
	assert.Empty(t, ClozeFieldNames("{{Front}}"))
}
