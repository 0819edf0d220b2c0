package session

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/lastwargame/pvp-backend/internal/game"
	"github.com/lastwargame/pvp-backend/internal/protocol"
)

// Error codes surfaced to the offending client.
const (
	ErrCodeInvalidRole       = "INVALID_ROLE"
	ErrCodeInvalidSpawn      = "INVALID_ATTACKER_SPAWN"
	ErrCodeInvalidAttackerID = "INVALID_ATTACKER_ID"
	ErrCodeInvalidAddSoldier = "INVALID_DEFENDER_ADD_SOLDIER"
	ErrCodeInvalidTakeDamage = "INVALID_DEFENDER_TAKE_DAMAGE"
	ErrCodePlayerNotFound    = "PLAYER_NOT_FOUND"
)

// route addresses a handler either by message name or by a coded
// main/sub pair. Both schemes live in one table so the dispatch logic
// exists once.
type route struct {
	Name      string
	Main, Sub int
}

var routes = map[route]func(*Session, string, json.RawMessage){
	{Name: protocol.MsgAttackerSpawn}:     (*Session).onAttackerSpawn,
	{Name: protocol.MsgDefenderTransform}: (*Session).onDefenderTransform,
	{Name: protocol.MsgDefenderAddSolder}: (*Session).onAddSoldier,
	{Name: protocol.MsgAttackerTarget}:    (*Session).onTroopTarget,
	{Name: protocol.MsgDefenderDamage}:    (*Session).onDamageReport,
	{Name: protocol.MsgAllDefenderDead}:   (*Session).onAllDefenderDead,
	{Name: protocol.MsgItemEvent}:         (*Session).onItemEvent,

	{Main: protocol.MainCodePVP, Sub: protocol.PVPFromClientPlayerReady}: (*Session).onPlayerReady,
}

func isCodedFrame(name string) bool {
	switch name {
	case protocol.MainNameLobby, protocol.MainNameStory, protocol.MainNamePVP:
		return true
	}
	return false
}

func (s *Session) route(m FromClient) {
	if isCodedFrame(m.Type) {
		var env protocol.CodedEnvelope
		if err := json.Unmarshal(m.Data, &env); err != nil {
			s.log.Warn("malformed coded envelope", zap.String("client", m.ClientID), zap.Error(err))
			return
		}
		h, ok := routes[route{Main: env.MainCode, Sub: env.SubCode}]
		if !ok {
			// Reserved for future domains; drop without a client error.
			s.log.Warn("unknown code pair",
				zap.Int("main_code", env.MainCode), zap.Int("sub_code", env.SubCode))
			return
		}
		h(s, m.ClientID, env.Data)
		return
	}

	h, ok := routes[route{Name: m.Type}]
	if !ok {
		s.log.Warn("unknown message", zap.String("type", m.Type), zap.String("client", m.ClientID))
		return
	}
	h(s, m.ClientID, m.Data)
}

func (s *Session) onPlayerReady(clientID string, raw json.RawMessage) {
	p := s.players[clientID]
	if p == nil {
		return
	}
	var rr protocol.ReadyReport
	if err := json.Unmarshal(raw, &rr); err != nil {
		s.log.Warn("malformed ready report", zap.String("client", clientID), zap.Error(err))
		return
	}
	p.IsReady = rr.IsReady
	if rr.Nickname != "" {
		p.Name = rr.Nickname
	}
	s.log.Info("player ready status",
		zap.String("client", clientID), zap.Bool("ready", rr.IsReady), zap.String("nickname", rr.Nickname))
	s.checkAllPlayersReady()
}

func (s *Session) checkAllPlayersReady() {
	if len(s.players) != game.MaxPlayers {
		return
	}
	for _, p := range s.players {
		if !p.IsReady {
			return
		}
	}
	s.broadcastCoded(protocol.MainCodePVP, protocol.PVPToClientAllPlayersReady, protocol.AllReadyPayload{
		Players: s.playerSummaries(),
		Message: "All players are ready to start!",
	})
}

func (s *Session) onAttackerSpawn(clientID string, raw json.RawMessage) {
	p := s.players[clientID]
	if p == nil || p.Role != game.RoleAttacker {
		s.sendError(clientID, ErrCodeInvalidRole, "Only attackers can spawn troops", protocol.MsgAttackerSpawn)
		return
	}
	var req protocol.AttackerSpawn
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendError(clientID, ErrCodeInvalidSpawn, err.Error(), protocol.MsgAttackerSpawn)
		return
	}
	if ok, msg := game.ValidateSpawnPosition(req.PositionX); !ok {
		s.sendError(clientID, ErrCodeInvalidSpawn, msg, protocol.MsgAttackerSpawn)
		return
	}

	entry, err := s.cat.Attacker(req.AttackerID)
	if err != nil {
		s.sendError(clientID, ErrCodeInvalidAttackerID, "Invalid attacker ID", protocol.MsgAttackerSpawn)
		return
	}

	p.AttackerTroops = append(p.AttackerTroops, game.AttackerTroop{
		IsBoss:      entry.IsBoss,
		AttackerID:  entry.AttackerID,
		HP:          entry.HP,
		Damage:      entry.Damage,
		DamageToBox: entry.DamageToBox,
	})
	index := len(p.AttackerTroops) - 1
	troopID := req.TroopID
	if troopID == 0 {
		troopID = index
	}
	s.broadcast(protocol.EvtAttackerSpawned, protocol.AttackerSpawnedPayload{
		PlayerID:    clientID,
		PositionX:   req.PositionX,
		IsBoss:      entry.IsBoss,
		HP:          entry.HP,
		Damage:      entry.Damage,
		DamageToBox: entry.DamageToBox,
		TroopIndex:  index,
		TroopID:     troopID,
	})
	s.log.Info("attacker troop spawned",
		zap.String("client", clientID), zap.Int("attackerId", req.AttackerID), zap.Int("total", len(p.AttackerTroops)))
}

func (s *Session) onDefenderTransform(clientID string, raw json.RawMessage) {
	p := s.players[clientID]
	if p == nil || p.Role != game.RoleDefender {
		s.sendError(clientID, ErrCodeInvalidRole, "Only defenders can update their transform", protocol.MsgDefenderTransform)
		return
	}
	var req protocol.TransformUpdate
	if err := json.Unmarshal(raw, &req); err != nil {
		s.log.Warn("malformed transform update", zap.String("client", clientID), zap.Error(err))
		return
	}
	s.broadcast(protocol.EvtDefenderTransform, protocol.TransformUpdatedPayload{
		PlayerID:  clientID,
		PositionX: req.PositionX,
	})
}

func (s *Session) onAddSoldier(clientID string, raw json.RawMessage) {
	p := s.players[clientID]
	if p == nil || p.Role != game.RoleDefender {
		s.sendError(clientID, ErrCodeInvalidRole, "Only defenders can add soldiers", protocol.MsgDefenderAddSolder)
		return
	}
	var req protocol.AddSoldier
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendError(clientID, ErrCodeInvalidAddSoldier, err.Error(), protocol.MsgDefenderAddSolder)
		return
	}
	if ok, msg := game.ValidateAddSoldier(req.Type, req.Num, req.HP, req.Damage); !ok {
		s.sendError(clientID, ErrCodeInvalidAddSoldier, msg, protocol.MsgDefenderAddSolder)
		return
	}

	for i := 0; i < req.Num; i++ {
		p.DefenderTroops = append(p.DefenderTroops, game.DefenderTroop{
			Type:   req.Type,
			HP:     req.HP,
			Damage: req.Damage,
		})
	}
	s.broadcast(protocol.EvtSoldiersAdded, protocol.SoldiersAddedPayload{
		PlayerID:      clientID,
		Type:          req.Type,
		Num:           req.Num,
		HP:            req.HP,
		Damage:        req.Damage,
		TotalSoldiers: len(p.DefenderTroops),
	})
	s.sendSuccess(clientID,
		fmt.Sprintf("Added %d %s soldiers successfully", req.Num, req.Type),
		protocol.MsgDefenderAddSolder)
	s.log.Info("defender soldiers added",
		zap.String("client", clientID), zap.Int("num", req.Num), zap.Int("total", len(p.DefenderTroops)))
}

func (s *Session) onTroopTarget(clientID string, raw json.RawMessage) {
	p := s.players[clientID]
	if p == nil || p.Role != game.RoleAttacker {
		s.sendError(clientID, ErrCodeInvalidRole, "Only attackers can target troops", protocol.MsgAttackerTarget)
		return
	}
	var req protocol.TroopTarget
	if err := json.Unmarshal(raw, &req); err != nil {
		s.log.Warn("malformed troop target", zap.String("client", clientID), zap.Error(err))
		return
	}
	s.broadcast(protocol.EvtAttackerTargeted, protocol.TroopTargetedPayload{
		PlayerID: clientID,
		IsHero:   req.IsHero,
		IDTarget: req.IDTarget,
	})
}

func (s *Session) onDamageReport(clientID string, raw json.RawMessage) {
	p := s.players[clientID]
	if p == nil {
		s.sendError(clientID, ErrCodePlayerNotFound, "Player not found in session", protocol.MsgDefenderDamage)
		return
	}
	var req protocol.DamageReport
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendError(clientID, ErrCodeInvalidTakeDamage, err.Error(), protocol.MsgDefenderDamage)
		return
	}
	if ok, msg := game.ValidateDamageReport(req.IDTakenDamage, req.DamageAmount); !ok {
		s.sendError(clientID, ErrCodeInvalidTakeDamage, msg, protocol.MsgDefenderDamage)
		return
	}

	remaining := 100 - req.DamageAmount
	if remaining < 0 {
		remaining = 0
	}
	s.broadcast(protocol.EvtDefenderDamaged, protocol.DefenderDamagedPayload{
		PlayerID:        clientID,
		PlayerRole:      string(p.Role),
		IsHero:          req.IsHero,
		HeroName:        req.HeroName,
		IDTakenDamage:   req.IDTakenDamage,
		DamageAmount:    req.DamageAmount,
		AttackerTroopID: req.AttackerTroopID,
		RemainingHP:     remaining,
	})
	s.sendSuccess(clientID, "Damage reported successfully", protocol.MsgDefenderDamage)
}

func (s *Session) onAllDefenderDead(clientID string, _ json.RawMessage) {
	s.log.Info("all defenders dead reported", zap.String("client", clientID))
	s.endBattle(false)
}

func (s *Session) onItemEvent(clientID string, raw json.RawMessage) {
	var req protocol.ItemEvent
	if err := json.Unmarshal(raw, &req); err != nil {
		s.log.Warn("malformed item event", zap.String("client", clientID), zap.Error(err))
		return
	}
	s.sendToRole(game.RoleAttacker, protocol.EvtSyncItemEvent, req)
}
