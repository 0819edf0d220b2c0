package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/lastwargame/pvp-backend/internal/game"
	"github.com/lastwargame/pvp-backend/internal/protocol"
)

// broadcast fans an event out to every connected client. A client whose
// outbox is full is dropped; its writer sees the closed channel, closes
// the connection, and the reader posts the Leave.
func (s *Session) broadcast(typ string, data any) {
	for id, ch := range s.clients {
		select {
		case ch <- protocol.Outbound{Type: typ, Data: data}:
		default:
			s.log.Warn("dropping slow client", zap.String("client", id))
			close(ch)
			delete(s.clients, id)
		}
	}
}

func (s *Session) sendTo(clientID, typ string, data any) {
	ch, ok := s.clients[clientID]
	if !ok {
		return
	}
	select {
	case ch <- protocol.Outbound{Type: typ, Data: data}:
	default:
		s.log.Warn("dropping slow client", zap.String("client", clientID))
		close(ch)
		delete(s.clients, clientID)
	}
}

func (s *Session) sendToRole(role game.Role, typ string, data any) {
	for id, p := range s.players {
		if p.Role == role {
			s.sendTo(id, typ, data)
		}
	}
}

func (s *Session) broadcastCoded(mainCode, subCode int, data any) {
	name, ok := mainCodeName(mainCode)
	if !ok {
		s.log.Warn("unroutable main code", zap.Int("main_code", mainCode))
		return
	}
	s.broadcast(name, protocol.CodedMessage{
		MainCode:  mainCode,
		SubCode:   subCode,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

func mainCodeName(mainCode int) (string, bool) {
	switch mainCode {
	case protocol.MainCodeLobby:
		return protocol.MainNameLobby, true
	case protocol.MainCodeStory:
		return protocol.MainNameStory, true
	case protocol.MainCodePVP:
		return protocol.MainNamePVP, true
	}
	return "", false
}

func (s *Session) sendError(clientID, code, message, original string) {
	s.sendTo(clientID, protocol.EvtError, protocol.ErrorPayload{
		ErrorCode:       code,
		Message:         message,
		OriginalMessage: original,
		PlayerID:        clientID,
		Timestamp:       time.Now().UnixMilli(),
	})
	s.log.Warn("error sent to client",
		zap.String("client", clientID), zap.String("code", code), zap.String("message", message))
}

func (s *Session) sendSuccess(clientID, message, action string) {
	s.sendTo(clientID, protocol.EvtSuccess, protocol.SuccessPayload{
		Message:   message,
		Action:    action,
		PlayerID:  clientID,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Session) playerSummaries() []protocol.PlayerSummary {
	out := make([]protocol.PlayerSummary, 0, len(s.order))
	for _, id := range s.order {
		p := s.players[id]
		out = append(out, protocol.PlayerSummary{ID: p.ID, Name: p.Name, Role: string(p.Role)})
	}
	return out
}
