package session

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lastwargame/pvp-backend/internal/game"
	"github.com/lastwargame/pvp-backend/internal/protocol"
)

type disposeReason int

const (
	disposeNone disposeReason = iota
	disposeEmpty
	disposeBattleEnded
)

// RejectStaleSession is the close reason sent to a connection refused
// because the session still holds a single player from a finished game.
const RejectStaleSession = "session has a player from a previous game, please try again"

func (s *Session) handleJoin(m Join) {
	// A lone survivor of a started game must not be joined by a fresh
	// third party; the leftover session is about to drain away.
	if len(s.players) == 1 && (s.state == game.StatePlaying || s.state == game.StateFinished) {
		s.log.Info("rejecting join on stale session",
			zap.String("client", m.ClientID), zap.String("state", string(s.state)))
		m.Reply <- JoinResult{OK: false, Reason: RejectStaleSession}
		return
	}
	if len(s.players) >= game.MaxPlayers {
		m.Reply <- JoinResult{OK: false, Reason: "session is full"}
		return
	}

	name := m.Name
	if name == "" {
		name = "Player_" + shortID(m.ClientID)
	}

	role := game.RoleAttacker
	if len(s.players) > 0 {
		role = game.RoleDefender
	}
	p := game.NewPlayer(m.ClientID, name, role)

	s.players[m.ClientID] = p
	s.order = append(s.order, m.ClientID)
	s.clients[m.ClientID] = m.Outbox
	m.Reply <- JoinResult{OK: true}

	s.log.Info("player joined",
		zap.String("client", m.ClientID),
		zap.String("role", string(role)),
		zap.Int("players", len(s.players)))

	if role == game.RoleDefender {
		s.seedDefenderHeroes(p)
	}

	// The empty-session disposal exists to tolerate a transient
	// reconnect, so an arriving player cancels it. A battle-end
	// disposal stays until the roster refills and the game re-prepares.
	if s.disposeWhy == disposeEmpty {
		s.stop(timerDispose)
		s.disposeWhy = disposeNone
	}

	if len(s.players) == game.MaxPlayers {
		if s.state == game.StatePlaying || s.state == game.StateFinished {
			s.log.Info("clearing stale game state for new players")
		}
		s.prepareGame()
	}
}

func (s *Session) handleLeave(m Leave) {
	if _, ok := s.players[m.ClientID]; !ok {
		return
	}
	delete(s.players, m.ClientID)
	// The writer goroutine unblocks on the closed outbox; a slow-dropped
	// client has already lost its map entry.
	if ch, ok := s.clients[m.ClientID]; ok {
		close(ch)
		delete(s.clients, m.ClientID)
	}
	for i, id := range s.order {
		if id == m.ClientID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.log.Info("player left",
		zap.String("client", m.ClientID),
		zap.Bool("consented", m.Consented),
		zap.Int("players", len(s.players)))

	if len(s.players) < game.MaxPlayers && s.state != game.StateWaiting {
		s.resetToWaiting()
	}
	if len(s.players) == 0 {
		s.scheduleDispose(s.cfg.DisposeWhenEmpty, disposeEmpty)
	}
}

func (s *Session) seedDefenderHeroes(p *game.Player) {
	if s.cat == nil || s.cat.Heroes == nil {
		s.log.Warn("defender heroes data not found, skipping hero seeding")
		return
	}
	for _, h := range s.cat.Heroes.Heroes {
		p.Heroes = append(p.Heroes, game.Hero{Name: h.HeroName, HP: h.HP, Damage: h.Damage})
		s.broadcast(protocol.EvtHeroAdded, protocol.HeroAddedPayload{
			PlayerID:  p.ID,
			HeroName:  h.HeroName,
			HP:        h.HP,
			Damage:    h.Damage,
			HeroIndex: len(p.Heroes) - 1,
		})
	}
	s.log.Info("seeded defender heroes", zap.String("client", p.ID), zap.Int("heroes", len(p.Heroes)))
}

func (s *Session) prepareGame() {
	// A full roster owns the session again; a teardown still pending from
	// the previous game must not fire under the new one.
	if s.disposeWhy != disposeNone {
		s.stop(timerDispose)
		s.disposeWhy = disposeNone
	}
	s.state = game.StateReady
	s.broadcast(protocol.EvtGamePrepared, protocol.PreparedPayload{
		Message: "Game prepared! Both players joined.",
		Players: s.playerSummaries(),
	})

	s.countdownLeft = s.cfg.CountdownSeconds
	s.arm(timerCountdown, s.cfg.TickInterval)
	s.log.Info("game prepared, countdown started", zap.Int("seconds", s.countdownLeft))
}

func (s *Session) onCountdownTick() {
	s.broadcast(protocol.EvtGameCountdown, protocol.CountdownPayload{
		Message:   fmt.Sprintf("Game starting in %d seconds...", s.countdownLeft),
		Countdown: s.countdownLeft,
	})
	s.countdownLeft--
	if s.countdownLeft <= 0 {
		s.startGame()
		return
	}
	s.arm(timerCountdown, s.cfg.TickInterval)
}

func (s *Session) startGame() {
	s.state = game.StatePlaying
	s.broadcast(protocol.EvtGameStarted, protocol.StartedPayload{
		Message: "Game started! Attacker vs Defender",
		Players: s.playerSummaries(),
	})
	s.log.Info("game started")

	s.startLevelSpawns()
	s.startBattleClock()
	s.startGateCycle()
}

func (s *Session) startBattleClock() {
	s.battleLeft = s.cfg.BattleSeconds
	s.broadcastBattleTime()
	s.arm(timerBattle, s.cfg.TickInterval)
}

func (s *Session) onBattleTick() {
	s.battleLeft--
	s.broadcastBattleTime()
	if s.battleLeft <= 0 {
		s.endBattle(true)
		return
	}
	s.arm(timerBattle, s.cfg.TickInterval)
}

func (s *Session) broadcastBattleTime() {
	s.broadcast(protocol.EvtBattleCountdown, protocol.BattleTimePayload{
		TimeLeft: s.battleLeft,
		Message:  fmt.Sprintf("Battle time: %d seconds remaining", s.battleLeft),
	})
}

func (s *Session) startGateCycle() {
	s.gateUp = false
	s.arm(timerGate, s.cfg.GateInterval)
}

func (s *Session) onGateTick() {
	s.gateUp = !s.gateUp
	if s.gateUp {
		s.broadcast(protocol.EvtGateStateChanged, protocol.GateStatePayload{IsUp: true, PositionY: 0})
	} else {
		s.broadcast(protocol.EvtGateStateChanged, protocol.GateStatePayload{IsUp: false, PositionY: -3.25})
		s.broadcast(protocol.EvtGateResetIds, struct{}{})
	}
	s.arm(timerGate, s.cfg.GateInterval)
}

func (s *Session) startLevelSpawns() {
	if s.cat == nil || s.cat.Level == nil {
		s.log.Warn("level data not found, skipping spawn schedule")
		return
	}
	for i, item := range s.cat.Level.Items {
		s.armSpawn(i, time.Duration(item.Time*float64(s.cfg.TickInterval)))
	}
	s.log.Info("level spawn schedule started", zap.Int("items", len(s.cat.Level.Items)))
}

func (s *Session) onSpawnFired(item int) {
	if s.cat == nil || s.cat.Level == nil || item >= len(s.cat.Level.Items) {
		return
	}
	it := s.cat.Level.Items[item]
	count := it.Count
	if count == 0 {
		count = 1
	}
	spacing := it.Spacing
	if spacing == 0 {
		spacing = 1
	}
	s.broadcast(protocol.EvtSpawnItem, protocol.SpawnItemPayload{
		Index:    it.Index,
		ItemID:   it.ID,
		Position: protocol.SpawnPosition{X: it.X, Y: it.Y, Z: it.Z},
		HP:       it.HP,
		Count:    count,
		Spacing:  spacing,
		Time:     it.Time,
	})
}

func (s *Session) endBattle(timeout bool) {
	if s.state != game.StatePlaying {
		return
	}
	s.state = game.StateFinished

	reason := "all defender dead"
	playerType := 0
	if timeout {
		reason = "timeout"
		playerType = 1
	}
	s.broadcast(protocol.EvtBattleEnded, protocol.BattleEndedPayload{
		Message:    "Battle time ended!",
		Reason:     reason,
		PlayerType: playerType,
	})
	s.log.Info("battle ended", zap.String("reason", reason))

	s.stopBattleTimers()
	s.scheduleDispose(s.cfg.DisposeAfterBattle, disposeBattleEnded)
}

func (s *Session) resetToWaiting() {
	s.state = game.StateWaiting
	s.stop(timerCountdown)
	s.stopBattleTimers()
	s.log.Info("session reset to waiting, not enough players")
}

// scheduleDispose arms the terminal teardown. At most one disposal is
// ever pending; the first scheduled wins.
func (s *Session) scheduleDispose(d time.Duration, why disposeReason) {
	if s.disposeWhy != disposeNone {
		return
	}
	s.disposeWhy = why
	s.arm(timerDispose, d)
	s.log.Info("disposal scheduled", zap.Duration("after", d))
}

func (s *Session) dispose() {
	if s.state == game.StateDisposed {
		return
	}
	s.state = game.StateDisposed
	s.stopAllTimers()

	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.players = make(map[string]*game.Player)
	s.order = nil

	s.cancel()
	s.log.Info("session disposed")
	if s.onDispose != nil {
		s.onDispose(s.id)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
