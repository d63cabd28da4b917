package models

import (
	"fmt"

	"chatapp-client/internal/snowflake"
)

// MergeMessage applies a partial update payload to a copy of current and
// returns the copy. Fields missing from the update are left unchanged;
// fields present, including empty arrays and nulls, overwrite. The message,
// channel and guild identities can only be filled in, never changed. current
// is never modified.
func MergeMessage(current *Message, data []byte) (*Message, error) {
	p, err := parsePayload(data)
	if err != nil {
		return nil, err
	}

	if p.has("id") {
		var id snowflake.ID
		if err := p.field("id", &id); err != nil {
			return nil, err
		}
		if current.id != 0 && id != current.id {
			return nil, &DecodeError{Field: "id", Err: fmt.Errorf("%w: update for %d applied to %d", ErrIdentityChange, id, current.id)}
		}
	}

	next := current.Clone()
	if err := next.apply(p); err != nil {
		return nil, err
	}
	return next, nil
}
