package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SourceKind identifies the class of origin a raw item came from.
type SourceKind string

const (
	SourceForum  SourceKind = "forum"
	SourceSearch SourceKind = "search"
)

// Engagement holds forum interaction counts. Search items carry zeros.
type Engagement struct {
	Upvotes  int `json:"upvotes"`
	Comments int `json:"comments"`
}

// Total returns the combined engagement signal, weighting comments double
// because a comment is a stronger interest signal than a vote.
func (e Engagement) Total() int {
	return e.Upvotes + e.Comments*2
}

// RawItem is one post or article as emitted by a fetcher. Body is plain
// text; fetchers strip HTML before constructing items.
type RawItem struct {
	SourceKind  SourceKind `json:"source_kind"`
	Subchannel  string     `json:"source_subchannel"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	URL         string     `json:"url"`
	PostedAt    time.Time  `json:"posted_at"`
	Engagement  Engagement `json:"engagement"`
	ContentHash string     `json:"content_hash"`
}

// Discardable reports whether the item fails the fetch-boundary filter:
// no engagement at all and an empty body carries no scoreable signal.
func (r RawItem) Discardable() bool {
	return r.Engagement.Upvotes == 0 && r.Engagement.Comments == 0 && strings.TrimSpace(r.Body) == ""
}

// Text returns the searchable text of the item (title plus body).
func (r RawItem) Text() string {
	if r.Body == "" {
		return r.Title
	}
	return r.Title + "\n" + r.Body
}

// HashContent computes the stable content hash over normalised title+body.
// Normalisation applies NFKC folding, lowercases, and collapses whitespace
// so cosmetic reformatting of a repost does not defeat dedup.
func HashContent(title, body string) string {
	normalised := normText(title) + "\n" + normText(body)
	sum := sha256.Sum256([]byte(normalised))
	return hex.EncodeToString(sum[:])
}

func normText(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
