package game

// State is the session lifecycle. It only moves forward except for the
// explicit reset to waiting when the roster drops below two players.
type State string

const (
	StateWaiting  State = "waiting"
	StateReady    State = "ready"
	StatePlaying  State = "playing"
	StateFinished State = "finished"
	StateDisposed State = "disposed"
)

type Role string

const (
	RoleAttacker Role = "attacker"
	RoleDefender Role = "defender"
)

const (
	MaxPlayers = 2
	MaxMapID   = 8
)

// AttackerTroop stats are copied from the matched catalog entry at spawn
// time and never change afterwards. Death resolution is client-reported,
// not simulated here.
type AttackerTroop struct {
	IsBoss      bool
	AttackerID  int
	HP          int
	Damage      int
	DamageToBox int
}

type Hero struct {
	Name   string
	HP     int
	Damage int
}

type DefenderTroop struct {
	Type   string
	HP     int
	Damage int
}

// Player is one connected participant. Only the session actor mutates it.
type Player struct {
	ID      string
	Name    string
	Role    Role
	IsReady bool

	AttackerTroops []AttackerTroop
	Heroes         []Hero
	DefenderTroops []DefenderTroop
}

func NewPlayer(id, name string, role Role) *Player {
	return &Player{ID: id, Name: name, Role: role}
}
