// Package hub fans view changes out to the browsers watching a tournament.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/preston-bernstein/bracket-live-service/internal/notify"
)

// MessageType tags what a pushed message asks the page to do.
type MessageType string

const (
	MessageRefresh      MessageType = "refresh"
	MessageStatus       MessageType = "status"
	MessageNotification MessageType = "notification"
)

const outboxSize = 8

// Message is pushed to every subscriber of a tournament.
type Message struct {
	Type         MessageType          `json:"type"`
	TournamentID string               `json:"tournamentId"`
	Version      int64                `json:"version,omitempty"`
	Status       string               `json:"status,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// Msg is anything the hub loop accepts on its inbox.
type Msg interface{ isHubMsg() }

// Join registers Outbox for messages of TournamentID.
type Join struct {
	TournamentID string
	ClientID     string
	Outbox       chan Message
}

// Leave removes a subscriber. Its outbox is closed.
type Leave struct {
	TournamentID string
	ClientID     string
}

// Publish broadcasts Message to the subscribers of its tournament.
type Publish struct {
	Message Message
}

// Count replies with the number of subscribers of TournamentID.
type Count struct {
	TournamentID string
	Reply        chan int
}

// Shutdown closes every outbox and stops the loop. Messages queued before it are handled first.
type Shutdown struct{}

func (Join) isHubMsg()     {}
func (Leave) isHubMsg()    {}
func (Publish) isHubMsg()  {}
func (Count) isHubMsg()    {}
func (Shutdown) isHubMsg() {}

// Hub owns the subscriber registry on a single goroutine.
type Hub struct {
	inbox   chan Msg
	clients map[string]map[string]chan Message
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	// mu guards closed; senders hold it shared while queueing.
	mu     sync.RWMutex
	closed bool
}

// New starts a hub bound to parent.
func New(parent context.Context) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan Msg, 64),
		clients: make(map[string]map[string]chan Message),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

// Done is closed when the loop has exited.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Subscribe joins a new subscriber and returns its outbox.
func (h *Hub) Subscribe(tournamentID, clientID string) <-chan Message {
	out := make(chan Message, outboxSize)
	if !h.send(Join{TournamentID: tournamentID, ClientID: clientID, Outbox: out}) {
		close(out)
	}
	return out
}

// Unsubscribe removes a subscriber.
func (h *Hub) Unsubscribe(tournamentID, clientID string) {
	h.send(Leave{TournamentID: tournamentID, ClientID: clientID})
}

// Subscribers returns how many sockets follow tournamentID.
func (h *Hub) Subscribers(tournamentID string) int {
	reply := make(chan int, 1)
	if !h.send(Count{TournamentID: tournamentID, Reply: reply}) {
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-h.ctx.Done():
		return 0
	}
}

// PublishRefresh tells pages of tournamentID to reload view version.
func (h *Hub) PublishRefresh(tournamentID string, version int64) {
	h.send(Publish{Message: Message{Type: MessageRefresh, TournamentID: tournamentID, Version: version}})
}

// PublishStatus pushes the live connection status badge.
func (h *Hub) PublishStatus(tournamentID, status string) {
	h.send(Publish{Message: Message{Type: MessageStatus, TournamentID: tournamentID, Status: status}})
}

// Notify pushes a notification as a toast.
func (h *Hub) Notify(_ context.Context, n notify.Notification) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	h.send(Publish{Message: Message{Type: MessageNotification, TournamentID: n.TournamentID, Notification: &n}})
}

// Close shuts the hub down and waits for the loop to exit. Every outbox handed out,
// including those of joins still queued, is closed when it returns.
func (h *Hub) Close() {
	h.send(Shutdown{})
	h.cancel()
	<-h.done
}

func (h *Hub) send(m Msg) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed || h.ctx.Err() != nil {
		return false
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	defer h.stop()
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Join:
				group := h.clients[msg.TournamentID]
				if group == nil {
					group = make(map[string]chan Message)
					h.clients[msg.TournamentID] = group
				}
				if prev, ok := group[msg.ClientID]; ok {
					close(prev)
				}
				group[msg.ClientID] = msg.Outbox

			case Leave:
				h.drop(msg.TournamentID, msg.ClientID)

			case Publish:
				h.broadcast(msg.Message)

			case Count:
				msg.Reply <- len(h.clients[msg.TournamentID])

			case Shutdown:
				return
			}
		}
	}
}

func (h *Hub) broadcast(m Message) {
	for id, ch := range h.clients[m.TournamentID] {
		select {
		case ch <- m:
		default:
			// Slow subscriber, drop it.
			h.drop(m.TournamentID, id)
		}
	}
}

func (h *Hub) drop(tournamentID, clientID string) {
	group := h.clients[tournamentID]
	ch, ok := group[clientID]
	if !ok {
		return
	}
	close(ch)
	delete(group, clientID)
	if len(group) == 0 {
		delete(h.clients, tournamentID)
	}
}

// stop refuses further sends, settles whatever is still queued and closes every outbox.
func (h *Hub) stop() {
	h.cancel()
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	for {
		select {
		case m := <-h.inbox:
			switch msg := m.(type) {
			case Join:
				close(msg.Outbox)
			case Count:
				msg.Reply <- 0
			}
		default:
			h.shutdown()
			return
		}
	}
}

func (h *Hub) shutdown() {
	for tid, group := range h.clients {
		for id, ch := range group {
			close(ch)
			delete(group, id)
		}
		delete(h.clients, tid)
	}
}
