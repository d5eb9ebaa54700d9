package amazon

import (
	"context"
	"time"
)

// Session is a single browser tab.
type Session interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	Reload(ctx context.Context) error
	// ClickIntoView waits up to timeout for the first element matching the css
	// selector, scrolls it into view and clicks it.
	ClickIntoView(ctx context.Context, selector string, timeout time.Duration) error
	// LinkByText waits up to timeout for an anchor whose text matches and returns
	// its href attribute.
	LinkByText(ctx context.Context, text string, timeout time.Duration) (string, error)
	Close() error
}

// Launcher opens a new Session on a browser.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}
