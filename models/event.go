package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType enumerates every interaction the platform emits. The set is
// closed: the aggregator's counter mapping switches exhaustively over it, so
// adding a type is a compile-visible change here and in DeltaFor.
type EventType string

const (
	EventProductView    EventType = "PRODUCT_VIEW"
	EventPostView       EventType = "POST_VIEW"
	EventShopView       EventType = "SHOP_VIEW"
	EventCategoryView   EventType = "CATEGORY_VIEW"
	EventAddToCart      EventType = "ADD_TO_CART"
	EventRemoveFromCart EventType = "REMOVE_FROM_CART"
	EventPurchase       EventType = "PURCHASE"
	EventSearch         EventType = "SEARCH"
	EventClick          EventType = "CLICK"
	EventShare          EventType = "SHARE"
	EventLike           EventType = "LIKE"
	EventComment        EventType = "COMMENT"
	EventFollow         EventType = "FOLLOW"
	EventUnfollow       EventType = "UNFOLLOW"
	EventProfileView    EventType = "PROFILE_VIEW"
	EventRouteBuild     EventType = "ROUTE_BUILD"
	EventChatStarted    EventType = "CHAT_STARTED"
)

// TargetType identifies what kind of entity an event points at.
type TargetType string

const (
	TargetShop     TargetType = "SHOP"
	TargetProduct  TargetType = "PRODUCT"
	TargetPost     TargetType = "POST"
	TargetCategory TargetType = "CATEGORY"
)

var (
	ErrUnknownEventType  = errors.New("unknown event type")
	ErrUnknownTargetType = errors.New("unknown target type")
	ErrMissingTarget     = errors.New("missing target")
	ErrMissingOccurredAt = errors.New("missing occurred_at")
)

// RawEvent is the immutable inbound fact. EventID deduplicates redeliveries;
// ActorID is nil for anonymous traffic; Metadata is opaque except for the
// "amount" key read on PURCHASE.
type RawEvent struct {
	EventID    uuid.UUID      `json:"event_id"`
	EventType  EventType      `json:"event_type"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty"`
	TargetID   uuid.UUID      `json:"target_id"`
	TargetType TargetType     `json:"target_type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Day returns the aggregation day, truncated in UTC.
func (e *RawEvent) Day() time.Time {
	t := e.OccurredAt.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// OrderAmount extracts the purchase amount from metadata. Producers send it
// either as a JSON number or a string; anything else counts as absent.
func (e *RawEvent) OrderAmount() (decimal.Decimal, bool) {
	raw, ok := e.Metadata["amount"]
	if !ok {
		return decimal.Zero, false
	}
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

func (t EventType) Valid() bool {
	switch t {
	case EventProductView, EventPostView, EventShopView, EventCategoryView,
		EventAddToCart, EventRemoveFromCart, EventPurchase, EventSearch,
		EventClick, EventShare, EventLike, EventComment, EventFollow,
		EventUnfollow, EventProfileView, EventRouteBuild, EventChatStarted:
		return true
	}
	return false
}

func (t TargetType) Valid() bool {
	switch t {
	case TargetShop, TargetProduct, TargetPost, TargetCategory:
		return true
	}
	return false
}

// Validate rejects events that can never be aggregated. SEARCH is the only
// type allowed to arrive without a target.
func (e *RawEvent) Validate() error {
	if !e.EventType.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, e.EventType)
	}
	if e.OccurredAt.IsZero() {
		return ErrMissingOccurredAt
	}
	if e.EventType == EventSearch {
		return nil
	}
	if !e.TargetType.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTargetType, e.TargetType)
	}
	if e.TargetID == uuid.Nil {
		return fmt.Errorf("%w: event type %s requires target_id", ErrMissingTarget, e.EventType)
	}
	return nil
}

// CounterDelta is the set of increments one event contributes. Exactly one
// group is non-zero: shop/variant daily counters, or post engagement totals.
type CounterDelta struct {
	Views        int64
	Clicks       int64
	AddToCart    int64
	Orders       int64
	RouteBuilds  int64
	ChatsStarted int64
	Follows      int64
	Unfollows    int64
	Revenue      decimal.Decimal

	Likes    int64
	Comments int64
	Shares   int64
}

// IsZero reports whether the delta carries no increments at all.
func (d CounterDelta) IsZero() bool {
	return d.Views == 0 && d.Clicks == 0 && d.AddToCart == 0 && d.Orders == 0 &&
		d.RouteBuilds == 0 && d.ChatsStarted == 0 && d.Follows == 0 &&
		d.Unfollows == 0 && d.Revenue.IsZero() &&
		d.Likes == 0 && d.Comments == 0 && d.Shares == 0
}

// TouchesEngagement reports whether the delta moves any counter that feeds
// the trending formula, i.e. whether a post score recompute is warranted.
func (d CounterDelta) TouchesEngagement() bool {
	return d.Likes != 0 || d.Comments != 0 || d.Shares != 0 || d.Views != 0
}

// DeltaFor maps a validated event onto counter increments. The bool result
// is false for events that are archived but counted nowhere: SEARCH has no
// target, CATEGORY rows have no counter table, REMOVE_FROM_CART has no
// counter because daily counters are monotone within a day, and a
// (event type, target type) mismatch has no mapping at all. In every
// uncounted case the delta is zero: archive-only events must never reach a
// counter row.
func DeltaFor(e *RawEvent) (CounterDelta, bool) {
	switch e.EventType {
	case EventSearch, EventCategoryView, EventRemoveFromCart:
		return CounterDelta{}, false

	case EventProductView:
		if e.TargetType == TargetProduct {
			return CounterDelta{Views: 1}, true
		}
	case EventShopView, EventProfileView:
		if e.TargetType == TargetShop {
			return CounterDelta{Views: 1}, true
		}
	case EventPostView:
		if e.TargetType == TargetPost {
			return CounterDelta{Views: 1}, true
		}

	case EventClick:
		if e.TargetType == TargetShop || e.TargetType == TargetProduct {
			return CounterDelta{Clicks: 1}, true
		}
	case EventAddToCart:
		if e.TargetType == TargetProduct {
			return CounterDelta{AddToCart: 1}, true
		}

	case EventPurchase:
		if e.TargetType == TargetShop || e.TargetType == TargetProduct {
			d := CounterDelta{Orders: 1}
			if amount, ok := e.OrderAmount(); ok && !amount.IsNegative() {
				d.Revenue = amount
			}
			return d, true
		}

	case EventRouteBuild:
		if e.TargetType == TargetShop {
			return CounterDelta{RouteBuilds: 1}, true
		}
	case EventChatStarted:
		if e.TargetType == TargetShop {
			return CounterDelta{ChatsStarted: 1}, true
		}
	case EventFollow:
		if e.TargetType == TargetShop {
			return CounterDelta{Follows: 1}, true
		}
	case EventUnfollow:
		if e.TargetType == TargetShop {
			return CounterDelta{Unfollows: 1}, true
		}

	case EventLike:
		if e.TargetType == TargetPost {
			return CounterDelta{Likes: 1}, true
		}
	case EventComment:
		if e.TargetType == TargetPost {
			return CounterDelta{Comments: 1}, true
		}
	case EventShare:
		if e.TargetType == TargetPost {
			return CounterDelta{Shares: 1}, true
		}
	}
	return CounterDelta{}, false
}
