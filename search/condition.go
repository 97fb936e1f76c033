package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/threadseek/core"
	"github.com/poiesic/threadseek/query"
)

const dateLayout = "2006-01-02"

// Order selects the result ranking applied after filtering.
type Order int

const (
	OrderNewest Order = iota
	OrderOldest
	OrderMostReplies
	OrderFewestReplies
	OrderMostReactions
	OrderFewestReactions
	OrderTitleAZ
	OrderTitleZA
	OrderRecentlyActive
	OrderLeastRecentlyActive
)

var orderNames = map[Order]string{
	OrderNewest:              "newest",
	OrderOldest:              "oldest",
	OrderMostReplies:         "most-replies",
	OrderFewestReplies:       "fewest-replies",
	OrderMostReactions:       "most-reactions",
	OrderFewestReactions:     "fewest-reactions",
	OrderTitleAZ:             "title-az",
	OrderTitleZA:             "title-za",
	OrderRecentlyActive:      "recently-active",
	OrderLeastRecentlyActive: "least-recently-active",
}

func (o Order) String() string {
	if name, ok := orderNames[o]; ok {
		return name
	}
	return "newest"
}

// ParseOrder maps an order name to its Order. Unknown names fall back to
// newest-first.
func ParseOrder(s string) Order {
	s = strings.ToLower(strings.TrimSpace(s))
	for o, name := range orderNames {
		if s == name {
			return o
		}
	}
	return OrderNewest
}

// Request carries the raw, user-supplied filter criteria of one search.
type Request struct {
	// UserID identifies the searcher, for history bookkeeping.
	UserID core.ID

	// Forum names the forum being searched, for history bookkeeping.
	Forum string

	// Query is the boolean query string. Empty matches everything.
	Query string

	// ExcludeWords is a comma-separated list of hard-veto keywords.
	ExcludeWords string

	Tags        []string
	ExcludeTags []string

	// AuthorID and ExcludeAuthorID filter by thread author; zero disables.
	AuthorID        core.ID
	ExcludeAuthorID core.ID

	// After and Before bound creation dates, formatted YYYY-MM-DD.
	// Before is inclusive through the end of that day.
	After  string
	Before string

	MinReactions int
	MinReplies   int

	// Order names the ranking, see ParseOrder.
	Order string
}

// Condition is the normalized, validated form of a Request. It is built
// once per search invocation and read-only afterwards.
type Condition struct {
	Query           *query.Node
	QueryText       string
	ExcludeKeywords []string

	IncludeTags []string
	ExcludeTags []string

	AuthorID        core.ID
	ExcludeAuthorID core.ID

	// StartDate is the inclusive lower creation-time bound, EndDate the
	// exclusive upper bound (start of the day after Before). Zero means
	// unbounded.
	StartDate time.Time
	EndDate   time.Time

	MinReactions int
	MinReplies   int

	Order Order
}

// BuildCondition validates and normalizes req. Date parsing failures are
// reported here, before any fetch work begins.
func BuildCondition(req Request, parser *query.Parser) (*Condition, error) {
	cond := &Condition{
		QueryText:       strings.TrimSpace(req.Query),
		IncludeTags:     normalizeTags(req.Tags),
		ExcludeTags:     normalizeTags(req.ExcludeTags),
		AuthorID:        req.AuthorID,
		ExcludeAuthorID: req.ExcludeAuthorID,
		MinReactions:    req.MinReactions,
		MinReplies:      req.MinReplies,
		Order:           ParseOrder(req.Order),
	}

	if req.After != "" {
		start, err := time.Parse(dateLayout, req.After)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, req.After)
		}
		cond.StartDate = start
	}
	if req.Before != "" {
		day, err := time.Parse(dateLayout, req.Before)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, req.Before)
		}
		// inclusive through end of day
		cond.EndDate = day.AddDate(0, 0, 1)
		if !cond.StartDate.IsZero() && cond.StartDate.After(day) {
			return nil, fmt.Errorf("%w: %s > %s", ErrInvalidDateRange, req.After, req.Before)
		}
	}

	for _, word := range strings.Split(req.ExcludeWords, ",") {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			cond.ExcludeKeywords = append(cond.ExcludeKeywords, word)
		}
	}

	if cond.QueryText != "" && parser != nil {
		cond.Query = parser.Parse(cond.QueryText)
	}

	return cond, nil
}

func normalizeTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// matchesStructural applies the cheap filters that need no network fetch.
func (c *Condition) matchesStructural(t *core.Thread) bool {
	return c.matchesDate(t.CreatedAt) && c.matchesAuthor(t.AuthorID) && c.matchesTags(t.Tags)
}

func (c *Condition) matchesDate(created time.Time) bool {
	if !c.StartDate.IsZero() && created.Before(c.StartDate) {
		return false
	}
	if !c.EndDate.IsZero() && !created.Before(c.EndDate) {
		return false
	}
	return true
}

func (c *Condition) matchesAuthor(author core.ID) bool {
	if c.AuthorID != 0 && author != c.AuthorID {
		return false
	}
	if c.ExcludeAuthorID != 0 && author == c.ExcludeAuthorID {
		return false
	}
	return true
}

// matchesTags requires at least one include tag (when any are given) and
// none of the exclude tags, case-insensitive.
func (c *Condition) matchesTags(tags []string) bool {
	lowered := make([]string, len(tags))
	for i, tag := range tags {
		lowered[i] = strings.ToLower(tag)
	}

	for _, excluded := range c.ExcludeTags {
		for _, tag := range lowered {
			if tag == excluded {
				return false
			}
		}
	}

	if len(c.IncludeTags) == 0 {
		return true
	}
	for _, wanted := range c.IncludeTags {
		for _, tag := range lowered {
			if tag == wanted {
				return true
			}
		}
	}
	return false
}
