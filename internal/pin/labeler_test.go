package pin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageFormat(t *testing.T) {
	assert.Equal(t, "png", imageFormat("image/png"))
	assert.Equal(t, "jpeg", imageFormat("image/jpeg"))
	assert.Equal(t, "webp", imageFormat("image/webp"))
	assert.Equal(t, "png", imageFormat(""))
}

func TestParseLabels(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		limit int
		want  []string
	}{
		{
			name:  "plain array",
			raw:   `["cat", "animal", "whiskers"]`,
			limit: 10,
			want:  []string{"cat", "animal", "whiskers"},
		},
		{
			name:  "code fenced",
			raw:   "```json\n[\"sunset\", \"beach\"]\n```",
			limit: 10,
			want:  []string{"sunset", "beach"},
		},
		{
			name:  "wrapped in prose",
			raw:   `Here are the labels: ["dog", "park"] as requested.`,
			limit: 10,
			want:  []string{"dog", "park"},
		},
		{
			name:  "deduplicates preserving order",
			raw:   `["a", "b", "a", "c", "b"]`,
			limit: 10,
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "caps at limit",
			raw:   `["1", "2", "3", "4"]`,
			limit: 2,
			want:  []string{"1", "2"},
		},
		{
			name:  "drops blanks",
			raw:   `["a", "", "  ", "b"]`,
			limit: 10,
			want:  []string{"a", "b"},
		},
		{
			name:  "no array",
			raw:   "I cannot describe this image.",
			limit: 10,
			want:  nil,
		},
		{
			name:  "malformed json",
			raw:   `["a", "b"`,
			limit: 10,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLabels(tt.raw, tt.limit))
		})
	}
}
