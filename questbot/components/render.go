package components

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/quest-bot/questbot/services"
)

// Attachment is an opened artifact ready to be uploaded with a message.
type Attachment struct {
	files  []*discord.File
	closer io.Closer
}

func (a *Attachment) Files() []*discord.File {
	if a == nil {
		return nil
	}
	return a.files
}

func (a *Attachment) Close() {
	if a != nil && a.closer != nil {
		_ = a.closer.Close()
	}
}

// Open loads the view's image from store. A missing image is dropped from the embed
// so the message can still be sent.
func (v *View) Open(ctx context.Context, store services.ArtifactStore) *Attachment {
	if v.ImageKey == "" || store == nil {
		return nil
	}
	rc, err := store.Open(ctx, v.ImageKey)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, services.ErrNotFound) {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "Failed to open image for message",
			slog.String("type", "sys"),
			slog.String("key", v.ImageKey),
			slog.Any("error", err))
		v.Embed.Image = nil
		v.ImageKey = ""
		return nil
	}
	return &Attachment{
		files:  []*discord.File{{Name: v.ImageKey, Reader: rc}},
		closer: rc,
	}
}

// Create builds a new message for v. The caller closes the attachment after sending.
func (v View) Create(ctx context.Context, store services.ArtifactStore) (discord.MessageCreate, *Attachment) {
	att := v.Open(ctx, store)
	return discord.MessageCreate{
		Embeds:     []discord.Embed{v.Embed},
		Components: v.Components,
		Files:      att.Files(),
	}, att
}

// Update builds an edit that replaces a message, including its attachments, with v.
func (v View) Update(ctx context.Context, store services.ArtifactStore) (discord.MessageUpdate, *Attachment) {
	att := v.Open(ctx, store)
	embeds := []discord.Embed{v.Embed}
	components := v.Components
	if components == nil {
		components = []discord.ContainerComponent{}
	}
	return discord.MessageUpdate{
		Embeds:      &embeds,
		Components:  &components,
		Attachments: &[]discord.AttachmentUpdate{},
		Files:       att.Files(),
	}, att
}
