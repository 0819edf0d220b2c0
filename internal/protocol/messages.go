package protocol

import "encoding/json"

// Client -> server message names.
const (
	MsgAttackerSpawn     = "AttackerSpawn"
	MsgDefenderTransform = "DefenderUpdateTransform"
	MsgDefenderAddSolder = "DefenderAddSoldier"
	MsgAttackerTarget    = "AttackerTroopTarget"
	MsgDefenderDamage    = "DefenderTakeDamage"
	MsgAllDefenderDead   = "AllDefenderDead"
	MsgItemEvent         = "playerDefItemEvent"
)

// Server -> client message names.
const (
	EvtGamePrepared      = "gamePrepared"
	EvtGameCountdown     = "gameCountdown"
	EvtGameStarted       = "gameStarted"
	EvtBattleCountdown   = "battleTimeCountdown"
	EvtBattleEnded       = "battleEnded"
	EvtGateStateChanged  = "GateStateChanged"
	EvtGateResetIds      = "GateResetProcessedIds"
	EvtHeroAdded         = "DefenderHeroAdded"
	EvtAttackerSpawned   = "AttackerTroopSpawned"
	EvtDefenderTransform = "DefenderTransformUpdated"
	EvtSoldiersAdded     = "DefenderSoldiersAdded"
	EvtAttackerTargeted  = "AttackerTroopTargeted"
	EvtDefenderDamaged   = "DefenderDamaged"
	EvtSpawnItem         = "SpawnItem"
	EvtSyncItemEvent     = "syncItemEvent"
	EvtError             = "Error"
	EvtSuccess           = "Success"
)

// Inbound is the raw client frame: a message name plus an undecoded
// payload. The session router picks the payload type by name.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Outbound is a server frame. Data is any of the *Payload structs below.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// CodedEnvelope is the two-level numeric addressing scheme layered over
// named frames. Unknown code pairs are dropped with a log line only.
type CodedEnvelope struct {
	MainCode  int             `json:"main_code"`
	SubCode   int             `json:"sub_code"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// CodedMessage is the outbound counterpart of CodedEnvelope.
type CodedMessage struct {
	MainCode  int   `json:"main_code"`
	SubCode   int   `json:"sub_code"`
	Data      any   `json:"data"`
	Timestamp int64 `json:"timestamp"`
}

// --- inbound payloads ---

type ReadyReport struct {
	IsReady  bool   `json:"isReady"`
	Nickname string `json:"nickname"`
}

type AttackerSpawn struct {
	PositionX  float64 `json:"PositionX"`
	IsBoss     bool    `json:"IsBoss"`
	AttackerID int     `json:"AttackerId"`
	// TroopID zero means "not supplied"; the troop index is used instead.
	TroopID int `json:"TroopId"`
}

type TransformUpdate struct {
	PositionX float64 `json:"PositionX"`
}

type AddSoldier struct {
	Type   string `json:"Type"`
	Num    int    `json:"Num"`
	HP     int    `json:"HP"`
	Damage int    `json:"Damage"`
}

type TroopTarget struct {
	IsHero   bool `json:"isHero"`
	IDTarget int  `json:"idTarget"`
}

type DamageReport struct {
	IsHero          bool   `json:"IsHero"`
	HeroName        string `json:"HeroName"`
	IDTakenDamage   int    `json:"IdTakenDamage"`
	DamageAmount    int    `json:"DamageAmount"`
	AttackerTroopID int    `json:"AttackerTroopId"`
}

// ItemEvent keeps the original wire spelling of numSolider.
type ItemEvent struct {
	Index      int `json:"index"`
	ID         int `json:"id"`
	NumSoldier int `json:"numSolider"`
}

// --- outbound payloads ---

type PlayerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type PreparedPayload struct {
	Message string          `json:"message"`
	Players []PlayerSummary `json:"players"`
}

type CountdownPayload struct {
	Message   string `json:"message"`
	Countdown int    `json:"countdown"`
}

type StartedPayload struct {
	Message string          `json:"message"`
	Players []PlayerSummary `json:"players"`
}

type BattleTimePayload struct {
	TimeLeft int    `json:"timeLeft"`
	Message  string `json:"message"`
}

type BattleEndedPayload struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
	// PlayerType is 1 on timeout, 0 on an all-defenders-dead report.
	PlayerType int `json:"playerType"`
}

type GateStatePayload struct {
	IsUp      bool    `json:"isUp"`
	PositionY float64 `json:"positionY"`
}

type HeroAddedPayload struct {
	PlayerID  string `json:"PlayerId"`
	HeroName  string `json:"HeroName"`
	HP        int    `json:"HP"`
	Damage    int    `json:"Damage"`
	HeroIndex int    `json:"HeroIndex"`
}

type AttackerSpawnedPayload struct {
	PlayerID    string  `json:"PlayerId"`
	PositionX   float64 `json:"PositionX"`
	IsBoss      bool    `json:"IsBoss"`
	HP          int     `json:"HP"`
	Damage      int     `json:"Damage"`
	DamageToBox int     `json:"DamageToBox"`
	TroopIndex  int     `json:"TroopIndex"`
	TroopID     int     `json:"TroopId"`
}

type TransformUpdatedPayload struct {
	PlayerID  string  `json:"PlayerId"`
	PositionX float64 `json:"PositionX"`
}

type SoldiersAddedPayload struct {
	PlayerID      string `json:"PlayerId"`
	Type          string `json:"Type"`
	Num           int    `json:"Num"`
	HP            int    `json:"HP"`
	Damage        int    `json:"Damage"`
	TotalSoldiers int    `json:"TotalSoldiers"`
}

type TroopTargetedPayload struct {
	PlayerID string `json:"playerId"`
	IsHero   bool   `json:"isHero"`
	IDTarget int    `json:"idTarget"`
}

type DefenderDamagedPayload struct {
	PlayerID        string `json:"PlayerId"`
	PlayerRole      string `json:"PlayerRole"`
	IsHero          bool   `json:"IsHero"`
	HeroName        string `json:"HeroName"`
	IDTakenDamage   int    `json:"IdTakenDamage"`
	DamageAmount    int    `json:"DamageAmount"`
	AttackerTroopID int    `json:"AttackerTroopId"`
	RemainingHP     int    `json:"RemainingHP"`
}

type SpawnItemPayload struct {
	Index    int           `json:"index"`
	ItemID   int           `json:"itemId"`
	Position SpawnPosition `json:"position"`
	HP       int           `json:"hp"`
	Count    int           `json:"count"`
	Spacing  float64       `json:"spacing"`
	Time     float64       `json:"time"`
}

type SpawnPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type AllReadyPayload struct {
	Players []PlayerSummary `json:"players"`
	Message string          `json:"message"`
}

type ErrorPayload struct {
	ErrorCode       string `json:"ErrorCode"`
	Message         string `json:"Message"`
	OriginalMessage string `json:"OriginalMessage"`
	PlayerID        string `json:"PlayerId"`
	Timestamp       int64  `json:"Timestamp"`
}

type SuccessPayload struct {
	Message   string `json:"Message"`
	Action    string `json:"Action"`
	PlayerID  string `json:"PlayerId"`
	Timestamp int64  `json:"Timestamp"`
}
