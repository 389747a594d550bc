package service

import (
	"context"
	"io"
)

// Notifier delivers a text to a buyer. Delivery is best effort; ok is false when
// the message did not go out and messageID is then meaningless.
type Notifier interface {
	Notify(ctx context.Context, chatID, text string) (messageID int, ok bool)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// FileFetcher opens a provider-side file reference for reading.
type FileFetcher interface {
	Fetch(ctx context.Context, fileRef string) (io.ReadCloser, error)
}

// ProofStore persists payment proof images. Save must not leave a partial file
// behind when it fails.
type ProofStore interface {
	Save(ctx context.Context, orderNumber string, r io.Reader) (ref string, err error)
	Remove(ref string) error
}
