// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// Request bodies and query parameters for the fan-out engine's HTTP
// surface (§6), validated with go-playground/validator tags before
// being translated into eventprocessor calls.

// PublishRequest is the decoded body of POST /v1/publish.
// ConsumerID is only meaningful for activity feeds; flat handlers
// ignore it.
type PublishRequest struct {
	Verb       string `json:"verb" validate:"required"`
	ProducerID string `json:"producer_id" validate:"required"`
	ConsumerID string `json:"consumer_id"`
	ItemID     string `json:"item_id" validate:"required"`
	Timestamp  int64  `json:"timestamp" validate:"required"`
}

// RetractRequest is the decoded body of POST /v1/retract.
type RetractRequest struct {
	Verb       string `json:"verb" validate:"required"`
	ProducerID string `json:"producer_id" validate:"required"`
	ConsumerID string `json:"consumer_id"`
	ItemID     string `json:"item_id" validate:"required"`
}

// SubscribeRequest is the decoded body of POST /v1/subscribe.
type SubscribeRequest struct {
	EventName  string `json:"event_name" validate:"required"`
	ProducerID string `json:"producer_id" validate:"required"`
	ConsumerID string `json:"consumer_id" validate:"required"`
}

// UnsubscribeRequest is the decoded body of POST /v1/unsubscribe,
// identical in shape to SubscribeRequest.
type UnsubscribeRequest struct {
	EventName  string `json:"event_name" validate:"required"`
	ProducerID string `json:"producer_id" validate:"required"`
	ConsumerID string `json:"consumer_id" validate:"required"`
}

// ConsumeQuery is the decoded query string of GET /v1/consume.
// After and Before are left as pointers by the handler (not here) so
// "absent" and "empty string" stay distinguishable.
type ConsumeQuery struct {
	EventName  string `validate:"required"`
	ConsumerID string `validate:"required"`
	Limit      int    `validate:"omitempty,min=1,max=1000"`
}
