package urls_test

import (
	"testing"

	"clipdl/pkg/urls"
)

func TestIsVideoURL(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "watch page", text: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: true},
		{name: "short link", text: "https://youtu.be/dQw4w9WgXcQ", want: true},
		{name: "shorts", text: "https://youtube.com/shorts/abc-DEF_123", want: true},
		{name: "music host", text: "https://music.youtube.com/watch?v=abc123", want: true},
		{name: "no scheme", text: "youtube.com/watch?v=abc123", want: true},
		{name: "surrounding whitespace", text: "  https://youtu.be/abc123  ", want: true},
		{name: "empty", text: "", want: false},
		{name: "plain text", text: "hello world", want: false},
		{name: "other site", text: "https://example.com/watch?v=abc123", want: false},
		{name: "channel page", text: "https://www.youtube.com/@somechannel", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := urls.IsVideoURL(tt.text); got != tt.want {
				t.Errorf("IsVideoURL(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "watch page", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "short link", url: "https://youtu.be/abc_123-X", want: "abc_123-X"},
		{name: "shorts", url: "https://youtube.com/shorts/zzz999", want: "zzz999"},
		{name: "no id", url: "https://example.com/", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := urls.ExtractVideoID(tt.url); got != tt.want {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
