package dto

import "time"

// Kind discriminates envelope payloads.
type Kind string

// Envelope kinds produced by the source adapters.
const (
	KindForumActivity Kind = "forum_activity"
	KindBacklogItem   Kind = "backlog_item"
	KindDeadline      Kind = "deadline"
	KindDirectMessage Kind = "direct_message"
)

// Payload is implemented by every kind-specific envelope body.
type Payload interface {
	Kind() Kind
}

// Envelope is the shape every source adapter emits before merging. SortKey
// orders envelopes across sources and TieBreak settles equal keys.
type Envelope struct {
	Kind     Kind      `json:"kind"`
	SortKey  time.Time `json:"sort_key"`
	TieBreak int64     `json:"tie_break"`
	Payload  Payload   `json:"payload"`
}

// Wrap builds an envelope around payload.
func Wrap(payload Payload, sortKey time.Time, tieBreak int64) Envelope {
	return Envelope{
		Kind:     payload.Kind(),
		SortKey:  sortKey,
		TieBreak: tieBreak,
		Payload:  payload,
	}
}

// Unwrap returns the payloads of type T in envelope order, skipping others.
func Unwrap[T Payload](envelopes []Envelope) []T {
	items := make([]T, 0, len(envelopes))
	for _, envelope := range envelopes {
		if payload, ok := envelope.Payload.(T); ok {
			items = append(items, payload)
		}
	}
	return items
}
