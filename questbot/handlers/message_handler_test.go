package handlers

import (
	"testing"

	"github.com/disgoorg/disgo/discord"
)

func ptr[T any](v T) *T { return &v }

func TestPhotoURL(t *testing.T) {
	tests := []struct {
		name        string
		attachments []discord.Attachment
		want        string
	}{
		{"none", nil, ""},
		{"content type", []discord.Attachment{{URL: "https://cdn/a", Filename: "a", ContentType: ptr("image/jpeg")}}, "https://cdn/a"},
		{"extension", []discord.Attachment{{URL: "https://cdn/b.PNG", Filename: "b.PNG"}}, "https://cdn/b.PNG"},
		{"skips documents", []discord.Attachment{
			{URL: "https://cdn/c.pdf", Filename: "c.pdf", ContentType: ptr("application/pdf")},
			{URL: "https://cdn/d.jpg", Filename: "d.jpg"},
		}, "https://cdn/d.jpg"},
		{"skips oversized", []discord.Attachment{{URL: "https://cdn/e.jpg", Filename: "e.jpg", Size: 30 << 20}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PhotoURL(tt.attachments); got != tt.want {
				t.Errorf("PhotoURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
