package session

import "time"

// Timer registrations are schedule-and-forget: each fire posts a
// timerFired back into the inbox, stamped with the generation that was
// live when it was armed. Cancelling bumps the generation, so a fire
// already in flight is recognized as stale and dropped by the loop.
// This is the only defense needed against a late tick mutating a reset
// or disposed session.

type timerKind int

const (
	timerCountdown timerKind = iota
	timerBattle
	timerGate
	timerSpawn
	timerDispose
)

type timerSet struct {
	gens    map[timerKind]uint64
	handles map[timerKind]*time.Timer
	// spawns are the per-entry one-shots of the level schedule; they
	// share the timerSpawn generation.
	spawns []*time.Timer
}

func newTimerSet() timerSet {
	return timerSet{
		gens:    make(map[timerKind]uint64),
		handles: make(map[timerKind]*time.Timer),
	}
}

func (t *timerSet) current(kind timerKind, gen uint64) bool {
	return t.gens[kind] == gen
}

// arm schedules (or re-schedules) the single timer of the given kind.
func (s *Session) arm(kind timerKind, d time.Duration) {
	gen := s.timers.gens[kind]
	s.timers.handles[kind] = time.AfterFunc(d, func() {
		s.post(timerFired{kind: kind, gen: gen})
	})
}

func (s *Session) armSpawn(item int, d time.Duration) {
	gen := s.timers.gens[timerSpawn]
	s.timers.spawns = append(s.timers.spawns, time.AfterFunc(d, func() {
		s.post(timerFired{kind: timerSpawn, gen: gen, item: item})
	}))
}

// stop cancels the timer of the given kind; stopping an idle kind is a
// no-op. Stop is idempotent.
func (s *Session) stop(kind timerKind) {
	s.timers.gens[kind]++
	if h := s.timers.handles[kind]; h != nil {
		h.Stop()
		delete(s.timers.handles, kind)
	}
	if kind == timerSpawn {
		for _, h := range s.timers.spawns {
			h.Stop()
		}
		s.timers.spawns = nil
	}
}

// stopBattleTimers tears down everything the playing phase started.
func (s *Session) stopBattleTimers() {
	s.stop(timerBattle)
	s.stop(timerGate)
	s.stop(timerSpawn)
}

func (s *Session) stopAllTimers() {
	s.stop(timerCountdown)
	s.stopBattleTimers()
	s.stop(timerDispose)
}
