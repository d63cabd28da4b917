package hub

import (
	"context"
	"slices"
	"sync"
)

// Handler receives the entity an event produced after the cache has been
// updated: *models.Message, *models.Channel, *models.Guild, *models.User or
// *Reaction depending on the event. Messages are private copies; the other
// records are the cached values themselves and must be treated as read-only.
type Handler func(ctx context.Context, entity any)

type subscription struct {
	id int64
	fn Handler
}

// LocalPubSub fans events out to in-process subscribers.
type LocalPubSub struct {
	mutex   sync.RWMutex
	hashMap map[string][]subscription
	lastID  int64
}

func (ps *LocalPubSub) Setup() {
	ps.hashMap = make(map[string][]subscription)
}

func (ps *LocalPubSub) Unsubscribe(eventName string, id int64) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	subs := ps.hashMap[eventName]

	i := slices.IndexFunc(subs, func(sub subscription) bool { return sub.id == id })
	if i >= 0 {
		ps.hashMap[eventName] = slices.Delete(subs, i, i+1)
	}

	if len(ps.hashMap[eventName]) == 0 {
		delete(ps.hashMap, eventName)
	}
}

// Subscribe registers fn for eventName and returns the subscription id.
func (ps *LocalPubSub) Subscribe(eventName string, fn Handler) int64 {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	ps.lastID++
	ps.hashMap[eventName] = append(ps.hashMap[eventName], subscription{id: ps.lastID, fn: fn})
	return ps.lastID
}

// Publish calls every subscriber of eventName. Handlers run outside the
// lock so they may unsubscribe themselves.
func (ps *LocalPubSub) Publish(ctx context.Context, eventName string, entity any) int {
	ps.mutex.RLock()
	subs := append([]subscription(nil), ps.hashMap[eventName]...)
	ps.mutex.RUnlock()

	for i := range subs {
		subs[i].fn(ctx, entity)
	}
	return len(subs)
}
