package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/tinyworld/internal/game/session"
	"github.com/cory-johannsen/tinyworld/internal/game/world"
)

// testWorld is three rooms: tavern <-> street via outside/inside, and a
// one-way drop street -> cellar with no exit back.
func testWorld(t *testing.T) *world.Graph {
	t.Helper()
	graph, err := world.NewGraph([]*world.Room{
		{
			ID:          "tavern",
			Title:       "The Tavern",
			Description: "A cozy tavern with a roaring fire.",
			Exits:       []world.Exit{{Direction: "outside", Target: "street"}},
		},
		{
			ID:          "street",
			Title:       "The Street",
			Description: "A muddy street lined with stalls.",
			Exits: []world.Exit{
				{Direction: "inside", Target: "tavern"},
				{Direction: "down", Target: "cellar"},
			},
		},
		{
			ID:          "cellar",
			Title:       "The Cellar",
			Description: "A damp cellar. There is no way back up.",
		},
	}, "tavern")
	require.NoError(t, err)
	return graph
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := zaptest.NewLogger(t)
	registry := session.NewRegistry(64)
	router := NewRouter(registry, logger)
	return NewEngine(testWorld(t), registry, router, nil, logger)
}

// drain returns every message currently buffered for sess.
func drain(sess *session.Session) []string {
	var msgs []string
	for {
		select {
		case msg, ok := <-sess.Outbox.Messages():
			if !ok {
				return msgs
			}
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

// join connects a session and names it, discarding the resulting output
// everywhere so tests start from a quiet state.
func join(e *Engine, name string) *session.Session {
	sess := e.Accept()
	e.HandleLine(sess, name)
	for _, other := range e.registry.All() {
		drain(other)
	}
	return sess
}

func TestAccept_SendsNamePrompt(t *testing.T) {
	e := newTestEngine(t)
	sess := e.Accept()
	assert.Equal(t, []string{"What is your name? "}, drain(sess))
}

func TestNaming_WelcomeAndGlobalBroadcast(t *testing.T) {
	e := newTestEngine(t)
	alice := e.Accept()
	bob := e.Accept()
	drain(alice)
	drain(bob)

	e.HandleLine(alice, "Alice")
	assert.Equal(t,
		[]string{"Welcome to the game, Alice.  Type 'help' for a list of commands. Have fun!\r\n"},
		drain(alice))
	// Bob is still at the name prompt but sees the global notice anyway.
	assert.Equal(t, []string{"Alice entered the game.\r\n"}, drain(bob))

	e.HandleLine(bob, "Bob")
	drain(bob)
	assert.Equal(t, []string{"Bob entered the game.\r\n"}, drain(alice))
}

func TestNaming_PlacesSessionInStartRoom(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	assert.Equal(t, "tavern", alice.RoomID)
	assert.True(t, alice.Named())
}

func TestNaming_EmptyLineIsNoOp(t *testing.T) {
	e := newTestEngine(t)
	sess := e.Accept()
	drain(sess)
	e.HandleLine(sess, "")
	assert.Empty(t, drain(sess))
	assert.False(t, sess.Named())
}

func TestNaming_TransitionsExactlyOnce(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")

	// A second bare word is a command now, not a rename.
	e.HandleLine(alice, "Alice2")
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, []string{"Unknown command: Alice2\r\n"}, drain(alice))
}

func TestHelp_TextToSenderOnly(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	bob := join(e, "Bob")

	e.HandleLine(alice, "help")
	msgs := drain(alice)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Commands:")
	assert.Contains(t, msgs[0], "say <message>")
	assert.Contains(t, msgs[0], "go <exit>")
	assert.Empty(t, drain(bob))
}

func TestSay_RoomScopedOthersOnly(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	bob := join(e, "Bob")
	carol := join(e, "Carol")
	e.HandleLine(carol, "go outside")
	drain(carol)
	drain(alice)
	drain(bob)

	e.HandleLine(alice, "say Hello there")
	assert.Empty(t, drain(alice), "speaker hears nothing back")
	assert.Equal(t, []string{"Alice says: Hello there\r\n"}, drain(bob))
	assert.Empty(t, drain(carol), "different room hears nothing")
}

func TestSay_EmptyUtteranceAllowed(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	bob := join(e, "Bob")

	e.HandleLine(alice, "say ")
	assert.Equal(t, []string{"Alice says: \r\n"}, drain(bob))
}

func TestLook_DescriptionPlayersExits(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	_ = join(e, "Bob")

	e.HandleLine(alice, "look")
	assert.Equal(t, []string{
		"A cozy tavern with a roaring fire.\r\n",
		"Players here: Bob\r\n",
		"Exits are: outside\r\n",
	}, drain(alice))
}

func TestLook_AloneEmptyPlayerList(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")

	e.HandleLine(alice, "look")
	assert.Equal(t, []string{
		"A cozy tavern with a roaring fire.\r\n",
		"Players here: \r\n",
		"Exits are: outside\r\n",
	}, drain(alice))
}

func TestGo_ValidMovesAndNotifies(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	bob := join(e, "Bob")
	carol := join(e, "Carol")
	e.HandleLine(carol, "go outside")
	drain(alice)
	drain(bob)
	drain(carol)

	e.HandleLine(alice, "go outside")
	assert.Equal(t, "street", alice.RoomID)
	assert.Equal(t, []string{"A muddy street lined with stalls.\r\n"}, drain(alice))
	assert.Equal(t, []string{"Alice left to the outside\r\n"}, drain(bob))
	assert.Equal(t, []string{"Alice arrived from the inside\r\n"}, drain(carol))
}

func TestGo_InvalidDirection(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	bob := join(e, "Bob")

	e.HandleLine(alice, "go upstairs")
	assert.Equal(t, "tavern", alice.RoomID)
	assert.Equal(t, []string{"You can't go that way.\r\n"}, drain(alice))
	assert.Empty(t, drain(bob), "no broadcast for a failed move")
}

func TestGo_NoBackExitNoArrivalMessage(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	bob := join(e, "Bob")

	// Put both on the street, then Bob drops into the cellar ahead of Alice.
	e.HandleLine(alice, "go outside")
	e.HandleLine(bob, "go outside")
	e.HandleLine(bob, "go down")
	drain(alice)
	drain(bob)

	e.HandleLine(alice, "go down")
	assert.Equal(t, "cellar", alice.RoomID)
	assert.Equal(t, []string{"A damp cellar. There is no way back up.\r\n"}, drain(alice))
	// The cellar has no exit back to the street, so Bob sees no arrival.
	assert.Empty(t, drain(bob))
}

func TestAttack_TargetNotFound(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")

	e.HandleLine(alice, "attack Zed")
	assert.Equal(t, []string{"You do not see Zed anywhere.\r\n"}, drain(alice))
	assert.Zero(t, alice.TargetID)
}

func TestAttack_SetsTarget(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	bob := join(e, "Bob")

	e.HandleLine(alice, "attack Bob")
	assert.Equal(t, []string{"You attack Bob.\r\n"}, drain(alice))
	assert.Equal(t, bob.ID, alice.TargetID)
	assert.Empty(t, drain(bob), "the victim is not notified")
}

func TestAttack_PrefixMatch(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	bob := join(e, "Bob")

	e.HandleLine(alice, "attack Bo")
	assert.Equal(t, []string{"You attack Bob.\r\n"}, drain(alice))
	assert.Equal(t, bob.ID, alice.TargetID)
}

func TestAttack_AmbiguousPrefixLowestID(t *testing.T) {
	e := newTestEngine(t)
	carol := join(e, "Carol")
	bob := join(e, "Bob")
	_ = join(e, "Bonnie")

	e.HandleLine(carol, "attack Bo")
	assert.Equal(t, []string{"You attack Bob.\r\n"}, drain(carol))
	assert.Equal(t, bob.ID, carol.TargetID)
}

func TestAttack_CrossRoomTargetingAllowed(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	bob := join(e, "Bob")
	e.HandleLine(bob, "go outside")
	drain(alice)

	e.HandleLine(alice, "attack Bob")
	assert.Equal(t, []string{"You attack Bob.\r\n"}, drain(alice))
}

func TestAttack_AlreadyAttackingNeverRetargets(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	bob := join(e, "Bob")
	_ = join(e, "Carol")

	e.HandleLine(alice, "attack Bob")
	drain(alice)

	e.HandleLine(alice, "attack Carol")
	assert.Equal(t, []string{"You are already attacking Bob\r\n"}, drain(alice))
	assert.Equal(t, bob.ID, alice.TargetID)

	e.HandleLine(alice, "attack Zed")
	assert.Equal(t, []string{"You are already attacking Bob\r\n"}, drain(alice))
	assert.Equal(t, bob.ID, alice.TargetID)
}

func TestAttack_DepartedTargetFallsBackToAThing(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	bob := join(e, "Bob")

	e.HandleLine(alice, "attack Bob")
	drain(alice)

	e.Disconnect(bob)
	drain(alice)

	e.HandleLine(alice, "attack Carol")
	assert.Equal(t, []string{"You are already attacking a thing\r\n"}, drain(alice))
}

func TestUnknownCommand_EchoesRawLine(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")

	e.HandleLine(alice, "dance wildly")
	assert.Equal(t, []string{"Unknown command: dance wildly\r\n"}, drain(alice))
}

func TestUnknownCommand_EmptyNamedLine(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")

	e.HandleLine(alice, "")
	assert.Equal(t, []string{"Unknown command: \r\n"}, drain(alice))
}

func TestDisconnect_NotifiesLastRoom(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	bob := join(e, "Bob")
	carol := join(e, "Carol")
	e.HandleLine(carol, "go outside")
	drain(bob)
	drain(carol)

	e.Disconnect(alice)
	assert.Equal(t, []string{"Alice left the game.\r\n"}, drain(bob))
	assert.Empty(t, drain(carol), "other rooms are not notified")
	assert.True(t, alice.Outbox.IsClosed())
	assert.Equal(t, 2, e.registry.Count())
}

func TestDisconnect_UnnamedIsSilent(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	ghost := e.Accept()
	drain(alice)

	e.Disconnect(ghost)
	assert.Empty(t, drain(alice))
}

func TestDisconnect_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	alice := join(e, "Alice")
	bob := join(e, "Bob")
	drain(bob)

	e.Disconnect(alice)
	e.Disconnect(alice)
	assert.Equal(t, []string{"Alice left the game.\r\n"}, drain(bob))
}

// TestScenario_TavernAndStreet walks the canonical two-client session end
// to end.
func TestScenario_TavernAndStreet(t *testing.T) {
	e := newTestEngine(t)

	alice := e.Accept()
	assert.Equal(t, []string{"What is your name? "}, drain(alice))
	e.HandleLine(alice, "Alice")
	assert.Equal(t,
		[]string{"Welcome to the game, Alice.  Type 'help' for a list of commands. Have fun!\r\n"},
		drain(alice))

	bob := e.Accept()
	drain(bob)
	e.HandleLine(bob, "Bob")
	drain(bob)
	assert.Equal(t, []string{"Bob entered the game.\r\n"}, drain(alice))

	e.HandleLine(alice, "go outside")
	assert.Equal(t, "street", alice.RoomID)
	assert.Equal(t, []string{"A muddy street lined with stalls.\r\n"}, drain(alice))
	assert.Equal(t, []string{"Alice left to the outside\r\n"}, drain(bob))

	// Bob is alone in the tavern now; nobody hears him.
	e.HandleLine(bob, "say hi")
	assert.Empty(t, drain(bob))
	assert.Empty(t, drain(alice))
}
