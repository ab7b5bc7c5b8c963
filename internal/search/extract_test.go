package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips tags",
			in:   "<html><body><p>hello world</p></body></html>",
			want: "hello world",
		},
		{
			name: "drops script and style blocks",
			in:   "<style>p { color: red }</style><p>visible</p><script>alert('x')</script>",
			want: "visible",
		},
		{
			name: "block tags become line breaks",
			in:   "<p>first paragraph</p><p>second paragraph</p>",
			want: "first paragraph\nsecond paragraph",
		},
		{
			name: "unescapes entities",
			in:   "<p>profit &amp; loss &lt;2024&gt;</p>",
			want: "profit & loss <2024>",
		},
		{
			name: "collapses whitespace runs",
			in:   "<p>a    lot\t\tof     space</p>",
			want: "a lot of space",
		},
		{
			name: "empty document",
			in:   "<html><body></body></html>",
			want: "",
		},
		{
			name: "table rows keep line structure",
			in:   "<table><tr><td>Q1</td><td>100</td></tr><tr><td>Q2</td><td>200</td></tr></table>",
			want: "Q1 100\nQ2 200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, htmlToText(tt.in))
		})
	}
}
