package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// growScript scrolls the page to the bottom, the universal trigger for
// infinite-scroll loaders.
const growScript = "window.scrollTo(0, document.body.scrollHeight)"

const networkIdleTimeout = 5 * time.Second

// pageView adapts the content source to the settle loop for one selector:
// grow scrolls, measure re-snapshots and counts matching nodes. The last
// snapshot is kept so the caller extracts from exactly the tree that was
// measured.
type pageView struct {
	source   ContentSource
	selector string
	lastDoc  *goquery.Document
}

func (v *pageView) Grow(ctx context.Context) error {
	if err := v.source.ExecuteScript(ctx, growScript); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	// Best effort: loaders that fetch on scroll settle faster when we wait
	// for the network to quiet down, but a noisy page is not an error.
	_ = v.source.WaitForNetworkIdle(ctx, networkIdleTimeout)
	return nil
}

func (v *pageView) Measure(ctx context.Context) (int, error) {
	doc, err := v.source.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("snapshot: %w", err)
	}
	v.lastDoc = doc
	return doc.Find(v.selector).Length(), nil
}

// Document returns the last measured snapshot, fetching one if the view
// never measured.
func (v *pageView) Document(ctx context.Context) (*goquery.Document, error) {
	if v.lastDoc != nil {
		return v.lastDoc, nil
	}
	doc, err := v.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	v.lastDoc = doc
	return doc, nil
}

// reviewView adds the expand-truncated pass: clicking every "read more"
// control so later extraction sees full text instead of clipped snippets.
type reviewView struct {
	pageView
	expandSelector string
}

func (v *reviewView) ExpandTruncated(ctx context.Context) error {
	if v.expandSelector == "" {
		return nil
	}
	script := fmt.Sprintf(
		"document.querySelectorAll(%q).forEach(function(el){el.click()})",
		v.expandSelector,
	)
	if err := v.source.ExecuteScript(ctx, script); err != nil {
		return fmt.Errorf("expand truncated: %w", err)
	}
	return nil
}
