package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
)

// Recognized segment filter predicate keys. Anything else is preserved for
// round-trip storage but ignored by matching.
const (
	FilterKeyStatus           = "status"
	FilterKeyInterests        = "interests"
	FilterKeySubscribedAfter  = "subscribed_after"
	FilterKeySubscribedBefore = "subscribed_before"
)

// SegmentFilter is the declarative predicate set a campaign uses to select
// its recipients. All recognized predicates narrow the base set by logical
// AND; there is no OR/NOT. An empty filter matches every subscriber whose
// status is subscribed.
type SegmentFilter struct {
	Status           *SubscriberStatus
	Interests        []string
	SubscribedAfter  *time.Time
	SubscribedBefore *time.Time

	// extra holds unrecognized keys so filters survive storage round-trips
	// unchanged even when written by a newer admin UI.
	extra map[string]json.RawMessage
}

// IsZero reports whether no recognized predicate is set.
func (f SegmentFilter) IsZero() bool {
	return f.Status == nil && len(f.Interests) == 0 &&
		f.SubscribedAfter == nil && f.SubscribedBefore == nil
}

// Matches evaluates the filter against a single subscriber. Base
// eligibility (status subscribed) applies before any predicate: pending and
// unsubscribed subscribers never match.
func (f SegmentFilter) Matches(sub Subscriber) bool {
	if sub.Status != SubscriberSubscribed {
		return false
	}
	if f.Status != nil && sub.Status != *f.Status {
		return false
	}
	if len(f.Interests) > 0 && !lo.Some(sub.Interests, f.Interests) {
		return false
	}
	if f.SubscribedAfter != nil && sub.SubscribedAt.Before(*f.SubscribedAfter) {
		return false
	}
	if f.SubscribedBefore != nil && sub.SubscribedAt.After(*f.SubscribedBefore) {
		return false
	}
	return true
}

func (f SegmentFilter) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	for k, v := range f.extra {
		out[k] = v
	}
	put := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out[key] = raw
		return nil
	}
	if f.Status != nil {
		if err := put(FilterKeyStatus, *f.Status); err != nil {
			return nil, err
		}
	}
	if len(f.Interests) > 0 {
		if err := put(FilterKeyInterests, f.Interests); err != nil {
			return nil, err
		}
	}
	if f.SubscribedAfter != nil {
		if err := put(FilterKeySubscribedAfter, f.SubscribedAfter); err != nil {
			return nil, err
		}
	}
	if f.SubscribedBefore != nil {
		if err := put(FilterKeySubscribedBefore, f.SubscribedBefore); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

func (f *SegmentFilter) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*f = SegmentFilter{}
	for key, val := range raw {
		switch key {
		case FilterKeyStatus:
			var s SubscriberStatus
			if err := json.Unmarshal(val, &s); err != nil {
				return fmt.Errorf("segment filter %q: %w", key, err)
			}
			f.Status = &s
		case FilterKeyInterests:
			if err := json.Unmarshal(val, &f.Interests); err != nil {
				return fmt.Errorf("segment filter %q: %w", key, err)
			}
		case FilterKeySubscribedAfter:
			t := &time.Time{}
			if err := json.Unmarshal(val, t); err != nil {
				return fmt.Errorf("segment filter %q: %w", key, err)
			}
			f.SubscribedAfter = t
		case FilterKeySubscribedBefore:
			t := &time.Time{}
			if err := json.Unmarshal(val, t); err != nil {
				return fmt.Errorf("segment filter %q: %w", key, err)
			}
			f.SubscribedBefore = t
		default:
			if f.extra == nil {
				f.extra = map[string]json.RawMessage{}
			}
			f.extra[key] = val
		}
	}
	return nil
}

// Value stores the filter as JSONB.
func (f SegmentFilter) Value() (driver.Value, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan loads the filter from a JSONB column; NULL means an empty filter.
func (f *SegmentFilter) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = SegmentFilter{}
		return nil
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	}
	return fmt.Errorf("cannot scan %T into SegmentFilter", src)
}
