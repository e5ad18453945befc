package world

import "fmt"

// Graph is the loaded world: a mapping from room ID to Room plus the start
// room every new player is placed in. A Graph is immutable after construction
// and therefore safe for unsynchronized concurrent reads.
type Graph struct {
	rooms map[string]*Room
	start string
}

// NewGraph builds a Graph from the given rooms and validates its invariants.
//
// Precondition: rooms must be non-empty; startRoom must name one of them.
// Postcondition: Returns a validated Graph, or an error describing the first
// violation (duplicate room ID, empty or duplicate exit direction, exit to an
// unknown room, missing start room).
func NewGraph(rooms []*Room, startRoom string) (*Graph, error) {
	g := &Graph{
		rooms: make(map[string]*Room, len(rooms)),
		start: startRoom,
	}

	for _, room := range rooms {
		if room.ID == "" {
			return nil, fmt.Errorf("room ID must not be empty")
		}
		if room.Description == "" {
			return nil, fmt.Errorf("room %q: description must not be empty", room.ID)
		}
		if _, exists := g.rooms[room.ID]; exists {
			return nil, fmt.Errorf("duplicate room ID: %q", room.ID)
		}
		g.rooms[room.ID] = room
	}

	if len(g.rooms) == 0 {
		return nil, fmt.Errorf("world must contain at least one room")
	}
	if _, ok := g.rooms[startRoom]; !ok {
		return nil, fmt.Errorf("start room %q not found in world", startRoom)
	}

	// Exit integrity is a load-time error, never a runtime one.
	for _, room := range rooms {
		seen := make(map[string]bool, len(room.Exits))
		for _, exit := range room.Exits {
			if exit.Direction == "" {
				return nil, fmt.Errorf("room %q: exit direction must not be empty", room.ID)
			}
			if seen[exit.Direction] {
				return nil, fmt.Errorf("room %q: duplicate exit direction %q", room.ID, exit.Direction)
			}
			seen[exit.Direction] = true
			if _, ok := g.rooms[exit.Target]; !ok {
				return nil, fmt.Errorf("room %q: exit %q targets unknown room %q", room.ID, exit.Direction, exit.Target)
			}
		}
	}

	return g, nil
}

// Room returns the room with the given ID.
//
// Postcondition: Returns (room, true) if found, or (nil, false) otherwise.
func (g *Graph) Room(id string) (*Room, bool) {
	r, ok := g.rooms[id]
	return r, ok
}

// ExitDestination resolves movement from a room in a direction.
//
// Postcondition: Returns (destination room ID, true), or ("", false) if the
// room or the exit does not exist.
func (g *Graph) ExitDestination(roomID, direction string) (string, bool) {
	room, ok := g.rooms[roomID]
	if !ok {
		return "", false
	}
	exit, ok := room.ExitTo(direction)
	if !ok {
		return "", false
	}
	return exit.Target, true
}

// BackDirection returns the direction name of the first exit of roomID that
// leads back to fromID.
//
// Postcondition: Returns (direction, true), or ("", false) when no such exit
// exists.
func (g *Graph) BackDirection(roomID, fromID string) (string, bool) {
	room, ok := g.rooms[roomID]
	if !ok {
		return "", false
	}
	exit, ok := room.ExitBackTo(fromID)
	if !ok {
		return "", false
	}
	return exit.Direction, true
}

// StartRoom returns the room new players are placed in.
//
// Postcondition: Returns a non-nil room; NewGraph guarantees it exists.
func (g *Graph) StartRoom() *Room {
	return g.rooms[g.start]
}

// RoomCount returns the total number of rooms.
func (g *Graph) RoomCount() int {
	return len(g.rooms)
}
