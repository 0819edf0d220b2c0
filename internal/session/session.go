// Package session implements the authoritative battle session: a
// single-threaded actor owning the lifecycle state machine, the player
// roster, the battle timers, and the message router. Every inbound
// event - joins, leaves, client messages, timer fires - is drained from
// one inbox by one goroutine, so session state needs no locking.
package session

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/lastwargame/pvp-backend/internal/catalog"
	"github.com/lastwargame/pvp-backend/internal/game"
	"github.com/lastwargame/pvp-backend/internal/protocol"
)

type Msg interface{ isSessionMsg() }

// Join registers a connection. The session always answers on Reply:
// either an accept (the client is now part of the roster) or a reject
// with a human-readable reason for the closing handshake.
type Join struct {
	ClientID string
	Name     string
	Outbox   chan protocol.Outbound
	Reply    chan JoinResult
}

type Leave struct {
	ClientID  string
	Consented bool
}

// FromClient is one decoded frame from a connected client.
type FromClient struct {
	ClientID string
	Type     string
	Data     json.RawMessage
}

type Shutdown struct{}

// GetView reflects internal state without data races; used by tests and
// the HTTP layer.
type GetView struct{ Reply chan View }

type timerFired struct {
	kind timerKind
	gen  uint64
	// item is the level-schedule index, timerSpawn only.
	item int
}

func (Join) isSessionMsg()       {}
func (Leave) isSessionMsg()      {}
func (FromClient) isSessionMsg() {}
func (Shutdown) isSessionMsg()   {}
func (GetView) isSessionMsg()    {}
func (timerFired) isSessionMsg() {}

type JoinResult struct {
	OK     bool
	Reason string
}

// Config carries the tunable timings. Production uses Defaults; tests
// shrink the intervals so a full battle fits in milliseconds.
type Config struct {
	CountdownSeconds int
	BattleSeconds    int
	// TickInterval is the wall-clock length of one in-game second; it
	// paces the countdown, the battle clock, and the spawn schedule.
	TickInterval       time.Duration
	GateInterval       time.Duration
	DisposeAfterBattle time.Duration
	DisposeWhenEmpty   time.Duration
}

func Defaults() Config {
	return Config{
		CountdownSeconds:   10,
		BattleSeconds:      90,
		TickInterval:       time.Second,
		GateInterval:       2500 * time.Millisecond,
		DisposeAfterBattle: 5 * time.Second,
		DisposeWhenEmpty:   2 * time.Second,
	}
}

type Session struct {
	id  string
	cfg Config
	cat *catalog.Catalog
	log *zap.Logger

	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc

	state   game.State
	mapID   int
	players map[string]*game.Player
	order   []string // join order; order[0] is the attacker
	clients map[string]chan protocol.Outbound

	timers timerSet

	countdownLeft int
	battleLeft    int
	gateUp        bool

	disposeWhy disposeReason

	// onDispose runs once, after the session stopped accepting events.
	onDispose func(id string)
}

func New(parent context.Context, id string, cat *catalog.Catalog, cfg Config, log *zap.Logger, onDispose func(string)) *Session {
	s := newSession(parent, id, cat, cfg, log, onDispose)
	go s.loop()
	return s
}

func newSession(parent context.Context, id string, cat *catalog.Catalog, cfg Config, log *zap.Logger, onDispose func(string)) *Session {
	ctx, cancel := context.WithCancel(parent)

	s := &Session{
		id:        id,
		cfg:       cfg,
		cat:       cat,
		log:       log.With(zap.String("session", id)),
		inbox:     make(chan Msg, 64),
		ctx:       ctx,
		cancel:    cancel,
		state:     game.StateWaiting,
		mapID:     rand.IntN(game.MaxMapID) + 1,
		players:   make(map[string]*game.Player),
		clients:   make(map[string]chan protocol.Outbound),
		timers:    newTimerSet(),
		onDispose: onDispose,
	}

	s.log.Info("session created", zap.Int("mapId", s.mapID))
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the session stops accepting events.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Deliver posts m unless the session is already disposed. Callers that
// expect a reply must check the return value or they will wait forever.
func (s *Session) Deliver(m Msg) bool {
	select {
	case s.inbox <- m:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.dispose()
			return

		case m := <-s.inbox:
			if s.handle(m) {
				return
			}
		}
	}
}

// handle processes one event; it reports true once the session disposed
// and the loop must exit.
func (s *Session) handle(m Msg) bool {
	switch msg := m.(type) {
	case Join:
		s.handleJoin(msg)

	case Leave:
		s.handleLeave(msg)

	case FromClient:
		s.route(msg)

	case timerFired:
		if !s.timers.current(msg.kind, msg.gen) {
			// A cancelled timer's fire already in flight; drop it.
			return false
		}
		return s.handleTimer(msg)

	case GetView:
		msg.Reply <- s.view()

	case Shutdown:
		s.dispose()
		return true
	}
	return false
}

func (s *Session) handleTimer(m timerFired) bool {
	switch m.kind {
	case timerCountdown:
		s.onCountdownTick()
	case timerBattle:
		s.onBattleTick()
	case timerGate:
		s.onGateTick()
	case timerSpawn:
		s.onSpawnFired(m.item)
	case timerDispose:
		s.dispose()
		return true
	}
	return false
}

// post re-enters the actor's inbox from a timer goroutine.
func (s *Session) post(m Msg) {
	select {
	case s.inbox <- m:
	case <-s.ctx.Done():
	}
}

// View is a race-free copy of session state for tests and diagnostics.
type View struct {
	State          game.State
	MapID          int
	Players        []PlayerView
	NumClients     int
	DisposePending bool
}

type PlayerView struct {
	ID             string
	Name           string
	Role           game.Role
	IsReady        bool
	AttackerTroops []game.AttackerTroop
	Heroes         []game.Hero
	DefenderTroops []game.DefenderTroop
}

func (s *Session) view() View {
	v := View{
		State:          s.state,
		MapID:          s.mapID,
		NumClients:     len(s.clients),
		DisposePending: s.disposeWhy != disposeNone,
	}
	for _, id := range s.order {
		p := s.players[id]
		v.Players = append(v.Players, PlayerView{
			ID:             p.ID,
			Name:           p.Name,
			Role:           p.Role,
			IsReady:        p.IsReady,
			AttackerTroops: append([]game.AttackerTroop(nil), p.AttackerTroops...),
			Heroes:         append([]game.Hero(nil), p.Heroes...),
			DefenderTroops: append([]game.DefenderTroop(nil), p.DefenderTroops...),
		})
	}
	return v
}
