// Package scanner hands candidates from the recruiter page to the engine.
// Page scraping itself happens upstream; a feed only delivers its results.
package scanner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go-goodhr-automation/internal/models"
)

// Item is one candidate card as seen on the list page.
type Item struct {
	Record models.CandidateRecord
	// Target is where the card sits on screen; nil when it cannot be clicked.
	Target *models.Point
	// Key identifies the candidate on the platform, empty when unknown.
	Key string
}

// Feed yields candidates in page order. Next returns io.EOF once the page is done.
type Feed interface {
	Next(ctx context.Context) (Item, error)
}

// SliceFeed replays a fixed list.
type SliceFeed struct {
	items []Item
	pos   int
}

func NewSliceFeed(items ...Item) *SliceFeed {
	return &SliceFeed{items: items}
}

func (f *SliceFeed) Next(ctx context.Context) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	if f.pos >= len(f.items) {
		return Item{}, io.EOF
	}
	item := f.items[f.pos]
	f.pos++
	return item, nil
}

type jsonlLine struct {
	models.CandidateRecord
	Target *models.Point `json:"target,omitempty"`
	Key    string        `json:"key,omitempty"`
}

// JSONLFeed reads one candidate object per line, the format the content
// script dumps. Blank lines are skipped.
type JSONLFeed struct {
	sc   *bufio.Scanner
	line int
}

func NewJSONLFeed(r io.Reader) *JSONLFeed {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &JSONLFeed{sc: sc}
}

func (f *JSONLFeed) Next(ctx context.Context) (Item, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Item{}, err
		}
		if !f.sc.Scan() {
			if err := f.sc.Err(); err != nil {
				return Item{}, fmt.Errorf("read candidates: %w", err)
			}
			return Item{}, io.EOF
		}
		f.line++
		text := strings.TrimSpace(f.sc.Text())
		if text == "" {
			continue
		}

		var l jsonlLine
		if err := json.Unmarshal([]byte(text), &l); err != nil {
			return Item{}, fmt.Errorf("candidate on line %d: %w", f.line, err)
		}
		return Item{Record: l.CandidateRecord, Target: l.Target, Key: l.Key}, nil
	}
}
