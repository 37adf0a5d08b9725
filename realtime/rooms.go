package realtime

import "sync"

type set map[string]struct{}

// Rooms tracks which connections have joined which channel's broadcast
// group. A room has no lifecycle of its own: it exists exactly while at
// least one connection is joined to it.
type Rooms struct {
	mu        sync.RWMutex
	byChannel map[string]set // channelID -> connection IDs
	byConn    map[string]set // connID -> channel IDs
}

func NewRooms() *Rooms {
	return &Rooms{
		byChannel: make(map[string]set),
		byConn:    make(map[string]set),
	}
}

// Join adds the connection to the channel's room.
func (r *Rooms) Join(connID, channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byChannel[channelID]; !ok {
		r.byChannel[channelID] = make(set)
	}
	r.byChannel[channelID][connID] = struct{}{}

	if _, ok := r.byConn[connID]; !ok {
		r.byConn[connID] = make(set)
	}
	r.byConn[connID][channelID] = struct{}{}
}

// Leave removes the connection from the channel's room. Empty rooms are
// deleted so the maps do not grow with dead channel IDs.
func (r *Rooms) Leave(connID, channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(connID, channelID)
}

func (r *Rooms) leaveLocked(connID, channelID string) {
	if members, ok := r.byChannel[channelID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.byChannel, channelID)
		}
	}
	if channels, ok := r.byConn[connID]; ok {
		delete(channels, channelID)
		if len(channels) == 0 {
			delete(r.byConn, connID)
		}
	}
}

// DropConnection removes the connection from every room it had joined.
// Called synchronously on disconnect, before presence is updated, so no
// further room fan-out can target the dead connection.
func (r *Rooms) DropConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for channelID := range r.byConn[connID] {
		r.leaveLocked(connID, channelID)
	}
	delete(r.byConn, connID)
}

// Members returns the connection IDs currently joined to the channel.
func (r *Rooms) Members(channelID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.byChannel[channelID]
	if len(members) == 0 {
		return nil
	}
	out := make([]string, 0, len(members))
	for connID := range members {
		out = append(out, connID)
	}
	return out
}

// Count returns the number of channels with at least one joined connection.
func (r *Rooms) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byChannel)
}

// Contains reports whether the connection is joined to the channel.
func (r *Rooms) Contains(connID, channelID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byChannel[channelID][connID]
	return ok
}
