// Package engine implements the world engine: it owns command dispatch,
// naming, movement, and all player-visible message construction.
package engine

import (
	"fmt"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tinyworld/internal/game/command"
	"github.com/cory-johannsen/tinyworld/internal/game/session"
	"github.com/cory-johannsen/tinyworld/internal/game/world"
	"github.com/cory-johannsen/tinyworld/internal/scripting"
)

const namePrompt = "What is your name? "

const helpText = "Commands:\n" +
	"    say <message>  - Says something out loud, e.g. 'say Hello'\n" +
	"    look           - Examines the surroundings, e.g. 'look'\n" +
	"    go <exit>      - Moves through the exit specified, e.g. 'go outside'"

// Engine processes player commands against the world graph and session
// registry. A single mutex serializes each command's full read-mutate-
// broadcast sequence, so every command observes a consistent world and
// every broadcast completes before the next command starts.
type Engine struct {
	mu       sync.Mutex
	graph    *world.Graph
	registry *session.Registry
	router   *Router
	scripts  *scripting.Manager
	logger   *zap.Logger
}

// NewEngine creates an Engine. scripts may be nil when no script directory
// is configured; all hooks are then skipped.
//
// Precondition: graph, registry, router and logger must be non-nil.
func NewEngine(graph *world.Graph, registry *session.Registry, router *Router, scripts *scripting.Manager, logger *zap.Logger) *Engine {
	return &Engine{
		graph:    graph,
		registry: registry,
		router:   router,
		scripts:  scripts,
		logger:   logger,
	}
}

// Accept registers a new unnamed session and schedules the name prompt.
//
// Postcondition: Returns the new session; its outbox holds the prompt.
func (e *Engine) Accept() *session.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.registry.Add()
	e.router.SendRaw(sess, namePrompt)
	e.logger.Info("session accepted", zap.Uint64("session_id", sess.ID))
	return sess
}

// HandleLine processes one whitespace-trimmed input line from a session.
// Unnamed sessions treat any non-empty line as their chosen name; named
// sessions dispatch on the command grammar.
func (e *Engine) HandleLine(sess *session.Session, line string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !sess.Named() {
		e.handleName(sess, line)
		return
	}

	cmd := command.Parse(line)
	switch cmd.Kind {
	case command.KindHelp:
		e.router.SendTo(sess, helpText)
	case command.KindSay:
		e.handleSay(sess, cmd.Arg)
	case command.KindLook:
		e.handleLook(sess)
	case command.KindGo:
		e.handleGo(sess, cmd.Arg)
	case command.KindAttack:
		e.handleAttack(sess, cmd.Arg)
	default:
		e.router.SendTo(sess, fmt.Sprintf("Unknown command: %s", cmd.Raw))
	}
}

// Disconnect removes a session and, if it was named, notifies the room it
// last occupied. Safe to call more than once for the same session.
func (e *Engine) Disconnect(sess *session.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.registry.Get(sess.ID); !ok {
		return
	}

	named := sess.Named()
	roomID := sess.RoomID
	name := sess.Name

	if err := e.registry.Remove(sess.ID); err != nil {
		e.logger.Warn("removing session", zap.Uint64("session_id", sess.ID), zap.Error(err))
		return
	}

	if named {
		e.router.SendToRoom(roomID, sess.ID, fmt.Sprintf("%s left the game.", name))
	}
	e.logger.Info("session disconnected",
		zap.Uint64("session_id", sess.ID),
		zap.String("name", name),
	)
}

// handleName consumes the first non-empty line as the chosen name. An empty
// line while unnamed is a no-op; the prompt stands.
func (e *Engine) handleName(sess *session.Session, name string) {
	if name == "" {
		return
	}

	startRoom := e.graph.StartRoom()
	if err := e.registry.SetName(sess.ID, name, startRoom.ID); err != nil {
		e.logger.Warn("naming session", zap.Uint64("session_id", sess.ID), zap.Error(err))
		return
	}

	e.router.SendTo(sess, fmt.Sprintf("Welcome to the game, %s.  Type 'help' for a list of commands. Have fun!", name))
	e.router.SendToAll(sess.ID, fmt.Sprintf("%s entered the game.", name))
	e.callHook("on_enter", lua.LString(name), lua.LString(startRoom.ID))
}

func (e *Engine) handleSay(sess *session.Session, text string) {
	e.router.SendToRoom(sess.RoomID, sess.ID, fmt.Sprintf("%s says: %s", sess.Name, text))
}

func (e *Engine) handleLook(sess *session.Session) {
	room, ok := e.graph.Room(sess.RoomID)
	if !ok {
		e.logger.Error("session in unknown room",
			zap.Uint64("session_id", sess.ID),
			zap.String("room_id", sess.RoomID),
		)
		return
	}

	var names []string
	for _, other := range e.registry.NamedInRoom(sess.RoomID) {
		if other.ID == sess.ID {
			continue
		}
		names = append(names, other.Name)
	}

	e.router.SendTo(sess, room.Description)
	e.router.SendTo(sess, fmt.Sprintf("Players here: %s", strings.Join(names, ", ")))
	e.router.SendTo(sess, fmt.Sprintf("Exits are: %s", strings.Join(room.ExitDirections(), ", ")))
	e.callHook("on_look", lua.LString(sess.Name), lua.LString(room.ID))
}

func (e *Engine) handleGo(sess *session.Session, direction string) {
	destID, ok := e.graph.ExitDestination(sess.RoomID, direction)
	if !ok {
		e.router.SendTo(sess, "You can't go that way.")
		return
	}

	oldRoomID, err := e.registry.Move(sess.ID, destID)
	if err != nil {
		e.logger.Warn("moving session", zap.Uint64("session_id", sess.ID), zap.Error(err))
		return
	}

	e.router.SendToRoom(oldRoomID, sess.ID, fmt.Sprintf("%s left to the %s", sess.Name, direction))
	if backDir, ok := e.graph.BackDirection(destID, oldRoomID); ok {
		e.router.SendToRoom(destID, sess.ID, fmt.Sprintf("%s arrived from the %s", sess.Name, backDir))
	}

	if dest, ok := e.graph.Room(destID); ok {
		e.router.SendTo(sess, dest.Description)
	}

	e.callHook("on_exit", lua.LString(sess.Name), lua.LString(oldRoomID), lua.LString(direction))
	e.callHook("on_enter", lua.LString(sess.Name), lua.LString(destID))
}

// handleAttack records a combat target. There is no damage or resolution
// loop; the target is only remembered, and never cleared.
func (e *Engine) handleAttack(sess *session.Session, prefix string) {
	if sess.TargetID != 0 {
		targetName := "a thing"
		if target, ok := e.registry.Get(sess.TargetID); ok && target.Name != "" {
			targetName = target.Name
		}
		e.router.SendTo(sess, fmt.Sprintf("You are already attacking %s", targetName))
		return
	}

	victim, ok := e.registry.FindByNamePrefix(prefix)
	if !ok {
		e.router.SendTo(sess, fmt.Sprintf("You do not see %s anywhere.", prefix))
		return
	}

	sess.TargetID = victim.ID
	e.router.SendTo(sess, fmt.Sprintf("You attack %s.", victim.Name))
}

// callHook invokes a Lua hook if scripting is configured. Hook failures are
// already swallowed and logged inside the scripting manager.
func (e *Engine) callHook(hook string, args ...lua.LValue) {
	if e.scripts == nil {
		return
	}
	_, _ = e.scripts.CallHook(hook, args...)
}
