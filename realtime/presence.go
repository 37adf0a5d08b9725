package realtime

import (
	"log/slog"
	"sort"
	"sync"

	"team-chat/domain"
)

// ProfileLookup resolves a user's public profile. It is called once per
// user, on their first connection; the result is cached for as long as the
// user stays connected.
type ProfileLookup func(userID string) (domain.Profile, error)

type presenceEntry struct {
	profile domain.Profile
	conns   map[string]struct{}
	seq     uint64
}

// Presence is the process-local registry of connected users. An entry
// exists exactly while its user has at least one open connection; a user
// with several tabs or devices still appears once.
type Presence struct {
	mu      sync.RWMutex
	entries map[string]*presenceEntry
	nextSeq uint64
	lookup  ProfileLookup
	log     *slog.Logger
}

func NewPresence(lookup ProfileLookup, log *slog.Logger) *Presence {
	return &Presence{
		entries: make(map[string]*presenceEntry),
		lookup:  lookup,
		log:     log,
	}
}

// Register adds a connection to the user's entry, creating the entry on the
// user's first connection. The profile lookup runs outside the lock so a
// slow lookup cannot stall registrations of other users. A failed lookup
// still registers the user, with a placeholder profile carrying only the ID.
// Existence is re-checked under the write lock: a Deregister racing between
// the lookup decision and the insert must not leave a profile-less entry.
func (p *Presence) Register(userID, connID string) {
	var (
		profile  domain.Profile
		resolved bool
	)
	for {
		p.mu.Lock()
		if entry, ok := p.entries[userID]; ok {
			entry.conns[connID] = struct{}{}
			p.mu.Unlock()
			return
		}
		if resolved {
			p.entries[userID] = &presenceEntry{
				profile: profile,
				conns:   map[string]struct{}{connID: {}},
				seq:     p.nextSeq,
			}
			p.nextSeq++
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		r, err := p.lookup(userID)
		if err != nil {
			p.log.Warn("Profile lookup failed, registering with placeholder",
				"user_id", userID, "err", err)
			r = domain.Profile{ID: userID, Status: domain.StatusOnline}
		}
		profile = r
		resolved = true
	}
}

// Deregister removes a connection from the user's entry and deletes the
// entry when the last connection closes.
func (p *Presence) Deregister(userID, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[userID]
	if !ok {
		return
	}
	delete(entry.conns, connID)
	if len(entry.conns) == 0 {
		delete(p.entries, userID)
	}
}

// Profile returns the cached profile of a connected user.
func (p *Presence) Profile(userID string) (domain.Profile, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.entries[userID]
	if !ok {
		return domain.Profile{}, false
	}
	return entry.profile, true
}

// Count returns the number of distinct users currently connected.
func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Snapshot returns the profiles of all connected users in registration
// order. The order is stable for the lifetime of the process, which keeps
// presence broadcasts deterministic.
func (p *Presence) Snapshot() []domain.Profile {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]*presenceEntry, 0, len(p.entries))
	for _, entry := range p.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	profiles := make([]domain.Profile, len(entries))
	for i, entry := range entries {
		profiles[i] = entry.profile
	}
	return profiles
}
