package chat

import (
	"context"
	"net"
	"net/http"
	"time"

	"ChatRelay/logger"
	usermodel "ChatRelay/module/user/model"
	"ChatRelay/tools/errs"
	"ChatRelay/tools/ids"
	"ChatRelay/tools/safe"
	"ChatRelay/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	defaultRoom      = "general"
	sendQueueSize    = 64
	handshakeTimeout = 10 * time.Second
	pongWait         = 60 * time.Second
	maxFrameSize     = 4096

	fanoutWorkers = 4
	fanoutQueue   = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Deps are the collaborators the coordinator talks to. Live registries
// (sessions, typing) are owned by the Server itself, built at startup and
// passed into handlers, never ambient globals.
type Deps struct {
	Users    UserStore
	Rooms    RoomStore
	Messages MessageStore
	Mirror   PresenceMirror // nil disables the redis mirror
	Jwt      security.Options
}

type Server struct {
	nodeID string
	jwt    security.Options
	users  UserStore
	rooms  RoomStore

	registry *Registry
	typing   *TypingState
	presence *PresenceTracker
	router   *BroadcastRouter
	fanout   *Fanout
	disp     *Dispatcher
}

func NewServer(nodeID string, deps Deps) *Server {
	registry := NewRegistry()
	s := &Server{
		nodeID:   nodeID,
		jwt:      deps.Jwt,
		users:    deps.Users,
		rooms:    deps.Rooms,
		registry: registry,
		typing:   NewTypingState(),
		presence: NewPresenceTracker(deps.Users, deps.Mirror),
		router:   NewBroadcastRouter(registry, deps.Messages),
		fanout:   NewFanout(fanoutWorkers, fanoutQueue),
		disp:     NewDispatcher(),
	}
	s.disp.Register(sendMessageHandler{})
	s.disp.Register(joinRoomHandler{})
	s.disp.Register(typingHandler{})
	return s
}

func (s *Server) Registry() *Registry        { return s.registry }
func (s *Server) Typing() *TypingState       { return s.typing }
func (s *Server) Router() *BroadcastRouter   { return s.router }
func (s *Server) Presence() *PresenceTracker { return s.presence }

func (s *Server) Close() {
	s.fanout.Close()
}

// Authenticate resolves a bearer token to a user. Any failure mode
// (missing token, bad signature, expiry, identity gone) is an
// authentication error and the connection must be refused with no session
// state created.
func (s *Server) Authenticate(ctx context.Context, token string) (*usermodel.User, error) {
	if token == "" {
		return nil, errs.ErrAuthentication.WithDetail("missing token")
	}
	userID, err := security.Verify(s.jwt, token)
	if err != nil {
		return nil, errs.ErrAuthentication.WithDetail(err.Error())
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, errs.ErrAuthentication.WithDetail(err.Error())
	}
	if user == nil {
		return nil, errs.ErrAuthentication.WithDetail("user not found")
	}
	return user, nil
}

// HandleWS upgrades the connection and drives its whole lifecycle:
// handshake, admission, read loop, disconnect cleanup.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed: %v", err)
		return
	}
	ws.SetReadLimit(maxFrameSize)

	// The first frame must be connect{token}, within the deadline.
	_ = ws.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, raw, err := ws.ReadMessage()
	if err != nil {
		_ = ws.Close()
		return
	}
	f, err := ParseFrame(raw)
	if err != nil || f.Event != EventConnect {
		_ = ws.WriteMessage(websocket.TextMessage, BuildError("expected connect frame"))
		_ = ws.Close()
		return
	}
	p, err := DecodePayload[ConnectPayload](f.Payload)
	if err != nil {
		_ = ws.WriteMessage(websocket.TextMessage, BuildError("malformed connect payload"))
		_ = ws.Close()
		return
	}
	user, err := s.Authenticate(c.Request.Context(), p.Token)
	if err != nil {
		_ = ws.WriteMessage(websocket.TextMessage, BuildError(errs.ErrAuthentication.Msg))
		_ = ws.Close()
		return
	}

	connID := ids.GenerateString()
	client := NewClient(connID, user.ID, user.Username, ws, sendQueueSize)
	if _, err := s.registry.Register(client); err != nil {
		// Duplicate connection id means a lifecycle bug somewhere.
		logger.Errorf("[ws] register failed conn=%s err=%v", connID, err)
		_ = ws.Close()
		return
	}
	safe.Go(client.WritePump)
	_ = client.Enqueue(BuildConnected(connID, user.ID, user.Username))

	ctx := context.Background()
	if err := s.presence.MarkOnline(ctx, user.ID); err != nil {
		logger.Errorf("[ws] mark online user=%s err=%v", user.ID, err)
	}
	if err := s.joinRoom(ctx, connID, defaultRoom, JoinedChatNotice(user.Username), false); err != nil {
		logger.Errorf("[ws] initial join user=%s err=%v", user.ID, err)
	}
	logger.Infof("[ws] user %s connected conn=%s", user.Username, connID)

	s.readLoop(ctx, client)
	s.cleanup(ctx, connID)
}

func (s *Server) readLoop(ctx context.Context, client *Client) {
	ws := client.WS
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed conn=%s", client.ConnID)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s", client.ConnID)
			} else {
				logger.Infof("[ws] read err conn=%s err=%v", client.ConnID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		f, perr := ParseFrame(raw)
		if perr != nil {
			_ = client.Enqueue(BuildError("malformed frame"))
			continue
		}
		if f.Event == EventConnect {
			_ = client.Enqueue(BuildError("already connected"))
			continue
		}
		h := s.disp.Get(f.Event)
		if h == nil {
			_ = client.Enqueue(BuildError("unknown event: " + f.Event))
			continue
		}

		if err := h.Handle(ctx, s, f, client.ConnID); err != nil {
			if ce, ok := errs.AsCodeError(err); ok {
				if ce.Code >= 1500 {
					logger.Errorf("[ws] invariant violation conn=%s event=%s err=%v",
						client.ConnID, f.Event, err)
				}
				// Scoped to this connection; never interrupts others.
				_ = client.Enqueue(BuildError(ce.Msg))
			} else {
				logger.Errorf("[ws] handler err conn=%s event=%s err=%v",
					client.ConnID, f.Event, err)
				_ = client.Enqueue(BuildError("internal error"))
			}
		}
	}
}

// joinRoom is the live-join path, shared by the joinRoom event and the
// implicit join on connect. The room is auto-created when absent with the
// joiner as sole member. Persisted membership and the connection's active
// room are updated together; switching rooms silently drops the previous
// live audience.
func (s *Server) joinRoom(ctx context.Context, connID, roomName, notice string, ack bool) error {
	if roomName == "" {
		return errs.ErrValidation.WithDetail("room name is empty")
	}
	sess, ok := s.registry.Get(connID)
	if !ok {
		return errs.ErrUnknownConnection.WithDetail(connID)
	}
	prev := sess.ActiveRoom

	if _, _, err := s.rooms.JoinByName(ctx, sess.UserID, roomName); err != nil {
		return errs.ErrPersistence.WithDetail(err.Error())
	}
	if err := s.registry.SetActiveRoom(connID, roomName); err != nil {
		return err
	}

	// Typing flags do not follow the connection into another room.
	if prev != "" && prev != roomName && s.typing.Set(prev, sess.Username, false) {
		s.fanout.Broadcast(
			excludeConn(s.registry.ConnectionsInRoom(prev), connID),
			BuildUserTyping(sess.Username, false),
		)
	}

	if ack {
		_ = sess.Client.Enqueue(BuildJoinedRoom(roomName))
	}
	others := excludeConn(s.registry.ConnectionsInRoom(roomName), connID)
	s.fanout.Broadcast(others, s.presence.AnnounceJoin(sess.Username, notice))
	return nil
}

// cleanup is the disconnect unit of work. Every step is best-effort and
// logged; the registry entry is removed no matter what happened before it.
func (s *Server) cleanup(ctx context.Context, connID string) {
	sess, ok := s.registry.Get(connID)
	if !ok {
		return
	}
	room := sess.ActiveRoom
	if room == "" {
		room = defaultRoom
	}

	// Terminal typing clear, so no ghost indicator survives the drop.
	if s.typing.Set(room, sess.Username, false) {
		s.fanout.Broadcast(
			excludeConn(s.registry.ConnectionsInRoom(room), connID),
			BuildUserTyping(sess.Username, false),
		)
	}

	// The leave notice targets the connection's actual room, not a fixed
	// default.
	s.fanout.Broadcast(
		excludeConn(s.registry.ConnectionsInRoom(room), connID),
		s.presence.AnnounceLeave(sess.Username, LeftChatNotice(sess.Username)),
	)

	if err := s.presence.MarkOffline(ctx, sess.UserID); err != nil {
		logger.Errorf("[ws] mark offline user=%s err=%v", sess.UserID, err)
	}
	if err := s.rooms.RemoveUserFromAllRooms(ctx, sess.UserID); err != nil {
		logger.Errorf("[ws] membership cleanup user=%s err=%v", sess.UserID, err)
	}

	s.registry.Remove(connID)
	sess.Client.Close()
	logger.Infof("[ws] user %s disconnected conn=%s", sess.Username, connID)
}

func excludeConn(conns []*Client, connID string) []*Client {
	out := conns[:0]
	for _, c := range conns {
		if c.ConnID != connID {
			out = append(out, c)
		}
	}
	return out
}
