package search

import (
	"sort"
	"strings"

	"github.com/poiesic/threadseek/core"
)

// SortResults orders results in place according to order. The sort is
// stable: equal-key results keep their relative discovery order, which
// keeps pagination boundaries deterministic.
func SortResults(results []*core.ThreadRecord, order Order) {
	less := lessFunc(order)
	sort.SliceStable(results, func(i, j int) bool {
		return less(results[i], results[j])
	})
}

func lessFunc(order Order) func(a, b *core.ThreadRecord) bool {
	switch order {
	case OrderOldest:
		return func(a, b *core.ThreadRecord) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	case OrderMostReplies:
		return func(a, b *core.ThreadRecord) bool {
			return a.Stats.ReplyCount > b.Stats.ReplyCount
		}
	case OrderFewestReplies:
		return func(a, b *core.ThreadRecord) bool {
			return a.Stats.ReplyCount < b.Stats.ReplyCount
		}
	case OrderMostReactions:
		return func(a, b *core.ThreadRecord) bool {
			return a.Stats.ReactionCount > b.Stats.ReactionCount
		}
	case OrderFewestReactions:
		return func(a, b *core.ThreadRecord) bool {
			return a.Stats.ReactionCount < b.Stats.ReactionCount
		}
	case OrderTitleAZ:
		return func(a, b *core.ThreadRecord) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case OrderTitleZA:
		return func(a, b *core.ThreadRecord) bool {
			return strings.ToLower(a.Title) > strings.ToLower(b.Title)
		}
	case OrderRecentlyActive:
		return func(a, b *core.ThreadRecord) bool {
			return a.LastActive().After(b.LastActive())
		}
	case OrderLeastRecentlyActive:
		return func(a, b *core.ThreadRecord) bool {
			return a.LastActive().Before(b.LastActive())
		}
	default:
		// newest first
		return func(a, b *core.ThreadRecord) bool {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
}
