package event

import (
	"encoding/json"
	"errors"
)

// DecodePayload returns an event payload as T. Payloads published in process
// are already T or *T; anything else, such as a map read back from the event
// log, is converted through JSON.
func DecodePayload[T any](input any) (T, error) {
	var result T
	switch v := input.(type) {
	case nil:
		return result, errors.New(ErrMsgNilPayload)
	case T:
		return v, nil
	case *T:
		if v == nil {
			return result, errors.New(ErrMsgNilPayload)
		}
		return *v, nil
	}

	data, err := json.Marshal(input)
	if err != nil {
		return result, err
	}
	return result, json.Unmarshal(data, &result)
}

// AccountIDOf extracts the account an engine event belongs to, or "" if the
// payload carries none.
func AccountIDOf(evt Event) string {
	switch p := evt.Payload.(type) {
	case XPAwardedPayloadV1:
		return p.AccountID
	case LevelUpPayloadV1:
		return p.AccountID
	case ChallengePayloadV1:
		return p.AccountID
	case XPReversedPayloadV1:
		return p.AccountID
	case map[string]any:
		id, _ := p["account_id"].(string)
		return id
	}
	return ""
}
