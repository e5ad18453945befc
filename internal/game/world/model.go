// Package world provides the immutable world model: rooms, exits, and the
// room graph used for navigation.
package world

// Exit represents a one-way passage from one room to another. A return
// passage, if any, is a separate exit on the destination room.
type Exit struct {
	// Direction is the name a player uses to take this exit (e.g. "outside").
	Direction string
	// Target is the ID of the destination room.
	Target string
}

// Room represents a location in the game world. Rooms are immutable after load.
type Room struct {
	// ID uniquely identifies this room within the world.
	ID string
	// Title is the short display name of the room.
	Title string
	// Description is the room description shown to players.
	Description string
	// Exits lists all passages leading out of this room, in declared order.
	Exits []Exit
}

// ExitTo returns the exit in the given direction, if one exists.
//
// Postcondition: Returns (exit, true) if found, or (Exit{}, false) otherwise.
func (r *Room) ExitTo(direction string) (Exit, bool) {
	for _, e := range r.Exits {
		if e.Direction == direction {
			return e, true
		}
	}
	return Exit{}, false
}

// ExitBackTo returns the first exit (in declared order) leading to the given
// room. Movement arrival messages use it to name the direction a player
// appeared from; asymmetric exits may have none.
//
// Postcondition: Returns (exit, true) if found, or (Exit{}, false) otherwise.
func (r *Room) ExitBackTo(target string) (Exit, bool) {
	for _, e := range r.Exits {
		if e.Target == target {
			return e, true
		}
	}
	return Exit{}, false
}

// ExitDirections returns the direction names of all exits in declared order.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (r *Room) ExitDirections() []string {
	dirs := make([]string, 0, len(r.Exits))
	for _, e := range r.Exits {
		dirs = append(dirs, e.Direction)
	}
	return dirs
}
