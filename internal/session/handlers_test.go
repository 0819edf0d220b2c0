package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lastwargame/pvp-backend/internal/game"
	"github.com/lastwargame/pvp-backend/internal/protocol"
)

func sendCoded(t *testing.T, s *Session, clientID string, mainCode, subCode int, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal coded payload: %v", err)
	}
	env, err := json.Marshal(protocol.CodedEnvelope{MainCode: mainCode, SubCode: subCode, Data: raw})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	s.Inbox() <- FromClient{ClientID: clientID, Type: protocol.MainNamePVP, Data: env}
}

func TestReadyReport_BroadcastsAllReady(t *testing.T) {
	s := startSession(t, quietConfig())
	out1 := join(t, s, "c1")
	join(t, s, "c2")

	sendCoded(t, s, "c1", protocol.MainCodePVP, protocol.PVPFromClientPlayerReady,
		protocol.ReadyReport{IsReady: true, Nickname: "alice"})

	// One ready player is not enough.
	expectNone(t, out1, protocol.MainNamePVP, 50*time.Millisecond)

	sendCoded(t, s, "c2", protocol.MainCodePVP, protocol.PVPFromClientPlayerReady,
		protocol.ReadyReport{IsReady: true, Nickname: "bob"})

	msg := waitFor(t, out1, protocol.MainNamePVP, time.Second)
	coded := msg.Data.(protocol.CodedMessage)
	if coded.MainCode != protocol.MainCodePVP || coded.SubCode != protocol.PVPToClientAllPlayersReady {
		t.Fatalf("want all-players-ready coded message, got %+v", coded)
	}

	v := getView(t, s)
	if v.Players[0].Name != "alice" || v.Players[1].Name != "bob" {
		t.Fatalf("nicknames not applied: %+v", v.Players)
	}
}

func TestCodedRouting_UnknownCodesAreSilent(t *testing.T) {
	s := startSession(t, quietConfig())
	out1 := join(t, s, "c1")

	sendCoded(t, s, "c1", protocol.MainCodeStory, 99, struct{}{})
	sendCoded(t, s, "c1", protocol.MainCodePVP, 99, struct{}{})

	// No crash, no client-visible error.
	expectNone(t, out1, protocol.EvtError, 50*time.Millisecond)
	if v := getView(t, s); v.State != game.StateWaiting {
		t.Fatalf("session should be untouched, got %s", v.State)
	}
}

func TestUnknownNamedMessage_IsSilent(t *testing.T) {
	s := startSession(t, quietConfig())
	out1 := join(t, s, "c1")

	send(t, s, "c1", "NoSuchMessage", struct{}{})

	expectNone(t, out1, protocol.EvtError, 50*time.Millisecond)
}

func TestAttackerSpawn_AppendsFromCatalog(t *testing.T) {
	s := startSession(t, quietConfig())
	out1 := join(t, s, "att")
	join(t, s, "def")

	send(t, s, "att", protocol.MsgAttackerSpawn, protocol.AttackerSpawn{PositionX: 0, AttackerID: 1})

	msg := waitFor(t, out1, protocol.EvtAttackerSpawned, time.Second)
	spawned := msg.Data.(protocol.AttackerSpawnedPayload)
	if spawned.HP != 100 || spawned.Damage != 10 || spawned.DamageToBox != 1 || spawned.IsBoss {
		t.Fatalf("stats must come from the catalog entry: %+v", spawned)
	}
	if spawned.TroopIndex != 0 || spawned.TroopID != 0 {
		t.Fatalf("first troop index/id: %+v", spawned)
	}

	v := getView(t, s)
	troops := v.Players[0].AttackerTroops
	if len(troops) != 1 || troops[0].HP != 100 || troops[0].AttackerID != 1 {
		t.Fatalf("troop not appended verbatim: %+v", troops)
	}
}

func TestAttackerSpawn_ClientTroopIDWins(t *testing.T) {
	s := startSession(t, quietConfig())
	out1 := join(t, s, "att")
	join(t, s, "def")

	send(t, s, "att", protocol.MsgAttackerSpawn, protocol.AttackerSpawn{PositionX: 5, AttackerID: 9, TroopID: 7})

	msg := waitFor(t, out1, protocol.EvtAttackerSpawned, time.Second)
	spawned := msg.Data.(protocol.AttackerSpawnedPayload)
	if spawned.TroopID != 7 || !spawned.IsBoss {
		t.Fatalf("want client troop id and boss flag, got %+v", spawned)
	}
}

func TestAttackerSpawn_OutOfRangeRejected(t *testing.T) {
	s := startSession(t, quietConfig())
	out1 := join(t, s, "att")
	join(t, s, "def")

	send(t, s, "att", protocol.MsgAttackerSpawn, protocol.AttackerSpawn{PositionX: 150, AttackerID: 1})

	msg := waitFor(t, out1, protocol.EvtError, time.Second)
	errPayload := msg.Data.(protocol.ErrorPayload)
	if errPayload.ErrorCode != ErrCodeInvalidSpawn {
		t.Fatalf("want %s, got %+v", ErrCodeInvalidSpawn, errPayload)
	}

	if v := getView(t, s); len(v.Players[0].AttackerTroops) != 0 {
		t.Fatalf("failed validation must not append troops")
	}
}

func TestAttackerSpawn_UnknownArchetypeRejected(t *testing.T) {
	s := startSession(t, quietConfig())
	out1 := join(t, s, "att")
	join(t, s, "def")

	send(t, s, "att", protocol.MsgAttackerSpawn, protocol.AttackerSpawn{PositionX: 0, AttackerID: 42})

	msg := waitFor(t, out1, protocol.EvtError, time.Second)
	if code := msg.Data.(protocol.ErrorPayload).ErrorCode; code != ErrCodeInvalidAttackerID {
		t.Fatalf("want %s, got %s", ErrCodeInvalidAttackerID, code)
	}

	if v := getView(t, s); len(v.Players[0].AttackerTroops) != 0 {
		t.Fatalf("unknown archetype must not spawn")
	}
}

func TestAttackerSpawn_WrongRoleRejected(t *testing.T) {
	s := startSession(t, quietConfig())
	join(t, s, "att")
	out2 := join(t, s, "def")

	send(t, s, "def", protocol.MsgAttackerSpawn, protocol.AttackerSpawn{PositionX: 0, AttackerID: 1})

	msg := waitFor(t, out2, protocol.EvtError, time.Second)
	if code := msg.Data.(protocol.ErrorPayload).ErrorCode; code != ErrCodeInvalidRole {
		t.Fatalf("want %s, got %s", ErrCodeInvalidRole, code)
	}
}

func TestAddSoldier_AppendsBatchWithAck(t *testing.T) {
	s := startSession(t, quietConfig())
	out1 := join(t, s, "att")
	out2 := join(t, s, "def")

	send(t, s, "def", protocol.MsgDefenderAddSolder,
		protocol.AddSoldier{Type: "soldier", Num: 5, HP: 100, Damage: 20})

	msg := waitFor(t, out1, protocol.EvtSoldiersAdded, time.Second)
	added := msg.Data.(protocol.SoldiersAddedPayload)
	if added.TotalSoldiers != 5 || added.Num != 5 {
		t.Fatalf("want 5 soldiers total, got %+v", added)
	}

	ack := waitFor(t, out2, protocol.EvtSuccess, time.Second)
	if ack.Data.(protocol.SuccessPayload).Action != protocol.MsgDefenderAddSolder {
		t.Fatalf("ack action: %+v", ack.Data)
	}

	v := getView(t, s)
	troops := v.Players[1].DefenderTroops
	if len(troops) != 5 {
		t.Fatalf("want 5 appended troops, got %d", len(troops))
	}
	for _, tr := range troops {
		if tr.HP != 100 || tr.Damage != 20 || tr.Type != "soldier" {
			t.Fatalf("troop fields: %+v", tr)
		}
	}

	// Second batch accumulates.
	send(t, s, "def", protocol.MsgDefenderAddSolder,
		protocol.AddSoldier{Type: "archer", Num: 2, HP: 50, Damage: 30})
	msg = waitFor(t, out1, protocol.EvtSoldiersAdded, time.Second)
	if got := msg.Data.(protocol.SoldiersAddedPayload).TotalSoldiers; got != 7 {
		t.Fatalf("want running total 7, got %d", got)
	}
}

func TestAddSoldier_WrongRoleAppendsNothing(t *testing.T) {
	s := startSession(t, quietConfig())
	out1 := join(t, s, "att")
	join(t, s, "def")

	send(t, s, "att", protocol.MsgDefenderAddSolder,
		protocol.AddSoldier{Type: "soldier", Num: 5, HP: 100, Damage: 20})

	msg := waitFor(t, out1, protocol.EvtError, time.Second)
	if code := msg.Data.(protocol.ErrorPayload).ErrorCode; code != ErrCodeInvalidRole {
		t.Fatalf("want %s, got %s", ErrCodeInvalidRole, code)
	}

	v := getView(t, s)
	if len(v.Players[0].DefenderTroops) != 0 || len(v.Players[1].DefenderTroops) != 0 {
		t.Fatalf("wrong-role request must not mutate state")
	}
}

func TestAddSoldier_OutOfRangeRejected(t *testing.T) {
	s := startSession(t, quietConfig())
	join(t, s, "att")
	out2 := join(t, s, "def")

	send(t, s, "def", protocol.MsgDefenderAddSolder,
		protocol.AddSoldier{Type: "soldier", Num: 11, HP: 100, Damage: 20})

	msg := waitFor(t, out2, protocol.EvtError, time.Second)
	if code := msg.Data.(protocol.ErrorPayload).ErrorCode; code != ErrCodeInvalidAddSoldier {
		t.Fatalf("want %s, got %s", ErrCodeInvalidAddSoldier, code)
	}
}

func TestDefenderTransform_BroadcastOnlyForDefender(t *testing.T) {
	s := startSession(t, quietConfig())
	out1 := join(t, s, "att")
	join(t, s, "def")

	send(t, s, "def", protocol.MsgDefenderTransform, protocol.TransformUpdate{PositionX: 42})

	msg := waitFor(t, out1, protocol.EvtDefenderTransform, time.Second)
	if got := msg.Data.(protocol.TransformUpdatedPayload).PositionX; got != 42 {
		t.Fatalf("position: %v", got)
	}

	// From the attacker it is refused and nothing is broadcast.
	send(t, s, "att", protocol.MsgDefenderTransform, protocol.TransformUpdate{PositionX: 1})
	errMsg := waitFor(t, out1, protocol.EvtError, time.Second)
	if code := errMsg.Data.(protocol.ErrorPayload).ErrorCode; code != ErrCodeInvalidRole {
		t.Fatalf("want %s, got %s", ErrCodeInvalidRole, code)
	}
	expectNone(t, out1, protocol.EvtDefenderTransform, 50*time.Millisecond)
}

func TestTroopTarget_Broadcast(t *testing.T) {
	s := startSession(t, quietConfig())
	join(t, s, "att")
	out2 := join(t, s, "def")

	send(t, s, "att", protocol.MsgAttackerTarget, protocol.TroopTarget{IsHero: true, IDTarget: 3})

	msg := waitFor(t, out2, protocol.EvtAttackerTargeted, time.Second)
	target := msg.Data.(protocol.TroopTargetedPayload)
	if !target.IsHero || target.IDTarget != 3 || target.PlayerID != "att" {
		t.Fatalf("target payload: %+v", target)
	}

	// Targeting is refused from the defender side.
	send(t, s, "def", protocol.MsgAttackerTarget, protocol.TroopTarget{IsHero: false, IDTarget: 1})
	errMsg := waitFor(t, out2, protocol.EvtError, time.Second)
	if code := errMsg.Data.(protocol.ErrorPayload).ErrorCode; code != ErrCodeInvalidRole {
		t.Fatalf("want %s, got %s", ErrCodeInvalidRole, code)
	}
	expectNone(t, out2, protocol.EvtAttackerTargeted, 50*time.Millisecond)
}

func TestDamageReport_AcceptedFromEitherRole(t *testing.T) {
	s := startSession(t, quietConfig())
	out1 := join(t, s, "att")
	out2 := join(t, s, "def")

	send(t, s, "att", protocol.MsgDefenderDamage,
		protocol.DamageReport{IsHero: true, HeroName: "Murphy", IDTakenDamage: 1, DamageAmount: 30})

	msg := waitFor(t, out2, protocol.EvtDefenderDamaged, time.Second)
	dmg := msg.Data.(protocol.DefenderDamagedPayload)
	if dmg.PlayerRole != string(game.RoleAttacker) || dmg.RemainingHP != 70 {
		t.Fatalf("damage payload: %+v", dmg)
	}
	waitFor(t, out1, protocol.EvtSuccess, time.Second)

	send(t, s, "def", protocol.MsgDefenderDamage,
		protocol.DamageReport{IDTakenDamage: 2, DamageAmount: 500})
	msg = waitFor(t, out1, protocol.EvtDefenderDamaged, time.Second)
	if got := msg.Data.(protocol.DefenderDamagedPayload).RemainingHP; got != 0 {
		t.Fatalf("remaining hp clamps at 0, got %d", got)
	}
}

func TestDamageReport_OutOfRangeRejected(t *testing.T) {
	s := startSession(t, quietConfig())
	out1 := join(t, s, "att")
	join(t, s, "def")

	send(t, s, "att", protocol.MsgDefenderDamage,
		protocol.DamageReport{IDTakenDamage: 0, DamageAmount: 30})

	msg := waitFor(t, out1, protocol.EvtError, time.Second)
	if code := msg.Data.(protocol.ErrorPayload).ErrorCode; code != ErrCodeInvalidTakeDamage {
		t.Fatalf("want %s, got %s", ErrCodeInvalidTakeDamage, code)
	}
}

func TestAllDefenderDead_EndsBattleOnce(t *testing.T) {
	cfg := testConfig()
	cfg.BattleSeconds = 1000
	s := startSession(t, cfg)

	out1, _ := startBattle(t, s)

	send(t, s, "att", protocol.MsgAllDefenderDead, struct{}{})
	msg := waitFor(t, out1, protocol.EvtBattleEnded, time.Second)
	ended := msg.Data.(protocol.BattleEndedPayload)
	if ended.Reason != "all defender dead" || ended.PlayerType != 0 {
		t.Fatalf("defeat end payload: %+v", ended)
	}

	// A duplicate report must not end the battle twice.
	send(t, s, "att", protocol.MsgAllDefenderDead, struct{}{})
	expectNone(t, out1, protocol.EvtBattleEnded, 100*time.Millisecond)
}

func TestItemSync_RelayedToAttackerOnly(t *testing.T) {
	s := startSession(t, quietConfig())
	out1 := join(t, s, "att")
	out2 := join(t, s, "def")

	send(t, s, "def", protocol.MsgItemEvent, protocol.ItemEvent{Index: 2, ID: 7, NumSoldier: 3})

	msg := waitFor(t, out1, protocol.EvtSyncItemEvent, time.Second)
	ev := msg.Data.(protocol.ItemEvent)
	if ev.Index != 2 || ev.ID != 7 || ev.NumSoldier != 3 {
		t.Fatalf("item event payload: %+v", ev)
	}

	expectNone(t, out2, protocol.EvtSyncItemEvent, 50*time.Millisecond)
}
