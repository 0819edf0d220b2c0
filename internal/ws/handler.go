package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/lastwargame/pvp-backend/internal/hub"
	"github.com/lastwargame/pvp-backend/internal/protocol"
	"github.com/lastwargame/pvp-backend/internal/session"
)

func Handler(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetSession{Code: code, Reply: reply}
		s := <-reply
		if s == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		out := make(chan protocol.Outbound, 16)

		joinReply := make(chan session.JoinResult, 1)
		if !s.Deliver(session.Join{
			ClientID: clientID,
			Name:     r.URL.Query().Get("name"),
			Outbox:   out,
			Reply:    joinReply,
		}) {
			conn.Close(websocket.StatusNormalClosure, "session disposed")
			return
		}

		var res session.JoinResult
		select {
		case res = <-joinReply:
		case <-s.Done():
			conn.Close(websocket.StatusNormalClosure, "session disposed")
			return
		}
		if !res.OK {
			// The connection never completes setup; the reason rides on
			// the closing handshake, not on an Error frame.
			conn.Close(websocket.StatusNormalClosure, res.Reason)
			return
		}
		// A read error carrying a close status means the client initiated
		// the disconnect; anything else is a dropped connection.
		consented := false
		defer func() {
			s.Deliver(session.Leave{ClientID: clientID, Consented: consented})
		}()

		// Writer goroutine: drains the session's outbox for this client.
		// The channel closing (drop or disposal) ends the connection.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
			conn.Close(websocket.StatusNormalClosure, "session closed")
		}()

		// Reader loop.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				consented = websocket.CloseStatus(err) != -1
				return
			}

			var in protocol.Inbound
			if err := json.Unmarshal(data, &in); err != nil || in.Type == "" {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"Error","data":{"ErrorCode":"BAD_JSON","Message":"malformed frame"}}`))
				continue
			}

			if !s.Deliver(session.FromClient{ClientID: clientID, Type: in.Type, Data: in.Data}) {
				return
			}
		}
	}
}
