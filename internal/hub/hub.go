// Package hub owns the code->session map. Like the sessions it manages,
// the hub is an actor: lookups and registrations are messages with
// reply channels, so the map needs no lock.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/lastwargame/pvp-backend/internal/catalog"
	"github.com/lastwargame/pvp-backend/internal/session"
)

type HubMsg interface{ isHubMsg() }

type GetSession struct {
	Code  string
	Reply chan *session.Session
}

// EnsureSession creates the session for Code if it does not exist yet
// and replies with it either way.
type EnsureSession struct {
	Code  string
	Reply chan *session.Session
}

type RemoveSession struct {
	Code string
}

type ShutdownHub struct{}

func (GetSession) isHubMsg()    {}
func (EnsureSession) isHubMsg() {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	cat      *catalog.Catalog
	cfg      session.Config
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, cat *catalog.Catalog, cfg session.Config, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		cat:      cat,
		cfg:      cfg,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureSession:
				if s := h.sessions[msg.Code]; s != nil {
					msg.Reply <- s
					break
				}
				s := session.New(h.ctx, msg.Code, h.cat, h.cfg, h.log, h.removeOnDispose)
				h.sessions[msg.Code] = s
				msg.Reply <- s

			case GetSession:
				msg.Reply <- h.sessions[msg.Code] // may be nil

			case RemoveSession:
				delete(h.sessions, msg.Code)

			case ShutdownHub:
				for _, s := range h.sessions {
					s.Deliver(session.Shutdown{})
				}
				clear(h.sessions)
				h.cancel()
			}
		}
	}
}

// removeOnDispose is handed to every session so a disposed session
// unregisters itself. It runs on the session goroutine, hence the
// non-blocking post.
func (h *Hub) removeOnDispose(code string) {
	select {
	case h.inbox <- RemoveSession{Code: code}:
	case <-h.ctx.Done():
	}
}
