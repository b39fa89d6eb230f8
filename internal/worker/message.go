package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

var ErrInvalidMessage = errors.New("invalid rescoring message")

// Message asks the worker to rescore every candidate against a requirement.
type Message struct {
	RequirementID string    `json:"requirement_id"`
	PublishedAt   time.Time `json:"published_at"`
}

// DecodeMessage parses a queue message body. Producers are not strict about
// types: published_at may be RFC 3339 text or unix seconds.
func DecodeMessage(body []byte) (*Message, uuid.UUID, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	var msg Message
	cfg := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           &msg,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       timeHook,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	id, err := uuid.Parse(msg.RequirementID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: requirement_id: %w", ErrInvalidMessage, err)
	}

	return &msg, id, nil
}

func timeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}

	switch v := data.(type) {
	case nil:
		return time.Time{}, nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		return time.Parse(time.RFC3339, v)
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	default:
		return data, nil
	}
}
