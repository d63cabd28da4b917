package models

import (
	"context"

	"chatapp-client/internal/snowflake"
)

// Lookup finds cached entities. A miss is a normal outcome, not an error.
type Lookup interface {
	User(ctx context.Context, id snowflake.ID) (*User, bool)
	Channel(ctx context.Context, id snowflake.ID) (*Channel, bool)
	Guild(ctx context.Context, id snowflake.ID) (*Guild, bool)
}

// Ref is a weak reference to an entity owned by the cache. It only holds the
// identity; the entity itself is looked up again on every access.
type Ref struct {
	Kind     Kind
	ID       snowflake.ID
	attached bool
}

func newRef(kind Kind, id snowflake.ID) Ref {
	return Ref{Kind: kind, ID: id}
}

// Present reports whether there is enough information to attempt
// resolution, not whether resolution would currently succeed.
func (r Ref) Present() bool {
	return r.ID != 0 || r.attached
}

// Attached reports whether the reference was set from a record rather than
// decoded from a payload.
func (r Ref) Attached() bool {
	return r.attached
}
