package session

import (
	"fmt"
	"sort"
	"sync"
)

// State is a session's naming state.
type State int

const (
	// StateUnnamed is the state between accept and the first non-empty line.
	// An unnamed session occupies no room and is invisible to other players.
	StateUnnamed State = iota
	// StateNamed is the state after a name is chosen. The transition happens
	// exactly once; a named session is never re-prompted.
	StateNamed
)

// Session tracks a connected client's state. Identity is unique for the
// lifetime of the process and never reused. Fields other than ID and Outbox
// are mutated only by the engine while processing this session's own input.
type Session struct {
	// ID is the unique session identifier, assigned monotonically on accept.
	ID uint64
	// State is the naming state.
	State State
	// Name is the chosen player name; empty while unnamed.
	Name string
	// RoomID is the current room; empty while unnamed.
	RoomID string
	// TargetID is the session ID of the current combat target; 0 = none.
	// Targeting is recorded but never resolved (no damage model exists).
	TargetID uint64
	// Outbox is the outbound message buffer drained by the connection writer.
	Outbox *Outbox
}

// Named reports whether the session has chosen a name.
func (s *Session) Named() bool {
	return s.State == StateNamed
}

// Registry tracks all live sessions and room occupancy. It is the single
// source of truth for who is online and where.
// All methods are safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	nextID       uint64
	outboxBuffer int
	sessions     map[uint64]*Session
	roomSets     map[string]map[uint64]bool // roomID → set of session IDs
}

// NewRegistry creates an empty Registry whose sessions get outbound buffers
// of the given size.
func NewRegistry(outboxBuffer int) *Registry {
	return &Registry{
		outboxBuffer: outboxBuffer,
		sessions:     make(map[uint64]*Session),
		roomSets:     make(map[string]map[uint64]bool),
	}
}

// Add creates a new unnamed session with the next identity and registers it.
//
// Postcondition: Returns a session with a unique, never-reused ID and an
// open Outbox. The session occupies no room.
func (r *Registry) Add() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	sess := &Session{
		ID:     r.nextID,
		State:  StateUnnamed,
		Outbox: NewOutbox(r.nextID, r.outboxBuffer),
	}
	r.sessions[sess.ID] = sess
	return sess
}

// Remove deletes a session, cleans up room occupancy, and closes its outbox.
//
// Postcondition: The session receives no further deliveries. Returns an
// error if the ID is not registered.
func (r *Registry) Remove(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, exists := r.sessions[id]
	if !exists {
		return fmt.Errorf("session %d not found", id)
	}

	if rs, ok := r.roomSets[sess.RoomID]; ok {
		delete(rs, id)
		if len(rs) == 0 {
			delete(r.roomSets, sess.RoomID)
		}
	}

	_ = sess.Outbox.Close()
	delete(r.sessions, id)
	return nil
}

// SetName transitions a session from unnamed to named and places it in the
// given room. The transition happens at most once per session.
//
// Precondition: name and roomID must be non-empty.
// Postcondition: The session is named and occupies roomID, or an error if
// the session is unknown or already named.
func (r *Registry) SetName(id uint64, name, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, exists := r.sessions[id]
	if !exists {
		return fmt.Errorf("session %d not found", id)
	}
	if sess.State == StateNamed {
		return fmt.Errorf("session %d is already named %q", id, sess.Name)
	}

	sess.State = StateNamed
	sess.Name = name
	sess.RoomID = roomID
	if r.roomSets[roomID] == nil {
		r.roomSets[roomID] = make(map[uint64]bool)
	}
	r.roomSets[roomID][id] = true
	return nil
}

// Move moves a session from its current room to a new room.
//
// Precondition: the session must be named.
// Postcondition: Returns the old room ID, or an error if the session is
// unknown or unnamed.
func (r *Registry) Move(id uint64, newRoomID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, exists := r.sessions[id]
	if !exists {
		return "", fmt.Errorf("session %d not found", id)
	}
	if sess.State != StateNamed {
		return "", fmt.Errorf("session %d is not named", id)
	}

	oldRoomID := sess.RoomID

	if rs, ok := r.roomSets[oldRoomID]; ok {
		delete(rs, id)
		if len(rs) == 0 {
			delete(r.roomSets, oldRoomID)
		}
	}

	sess.RoomID = newRoomID
	if r.roomSets[newRoomID] == nil {
		r.roomSets[newRoomID] = make(map[uint64]bool)
	}
	r.roomSets[newRoomID][id] = true

	return oldRoomID, nil
}

// Get returns the session for the given ID.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (r *Registry) Get(id uint64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// NamedInRoom returns all named sessions in the given room, ordered by
// ascending session ID.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (r *Registry) NamedInRoom(roomID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Session, 0, len(r.roomSets[roomID]))
	for id := range r.roomSets[roomID] {
		if sess, ok := r.sessions[id]; ok && sess.State == StateNamed {
			result = append(result, sess)
		}
	}
	sortByID(result)
	return result
}

// All returns every live session, named or not, ordered by ascending
// session ID.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		result = append(result, sess)
	}
	sortByID(result)
	return result
}

// FindByNamePrefix returns the named session with the lowest ID whose name
// starts with the given prefix. Map iteration order is not stable, so the
// lowest ID is the deterministic tie-break.
//
// Precondition: prefix matching is case-sensitive.
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (r *Registry) FindByNamePrefix(prefix string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Session
	for _, sess := range r.sessions {
		if sess.State != StateNamed {
			continue
		}
		if len(sess.Name) < len(prefix) || sess.Name[:len(prefix)] != prefix {
			continue
		}
		if best == nil || sess.ID < best.ID {
			best = sess
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// Count returns the total number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func sortByID(sessions []*Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ID < sessions[j].ID
	})
}
