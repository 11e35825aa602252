package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jiyeyuran/go-protoo/transport"
	"github.com/rs/zerolog"

	"github.com/confmedia/livestream/internal/analytics"
	"github.com/confmedia/livestream/internal/proto"
)

var upgrader = &websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Subprotocols:    []string{"protoo"},
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Server struct {
	logger       zerolog.Logger
	locker       sync.Mutex
	config       *Config
	sessions     sync.Map
	previousKeys sync.Map
	analytics    analytics.Sender
}

func NewServer(config *Config) *Server {
	logger := NewLogger("Server")

	senders := analytics.MultiSender{
		analytics.LogSender{Logger: NewLogger("Analytics")},
	}
	if config.Analytics.RedisAddr != "" {
		senders = append(senders, analytics.NewRedisSender(
			config.Analytics.RedisAddr,
			config.Analytics.RedisChannel,
			NewLogger("Analytics"),
		))
	}

	return &Server{
		logger:    logger,
		config:    config,
		analytics: senders,
	}
}

func (s *Server) Run() {
	r := s.setupRouter()

	addr := fmt.Sprintf("%s:%d", s.config.Https.ListenIp, s.config.Https.ListenPort)
	r.RunTLS(addr, s.config.Https.TLS.Cert, s.config.Https.TLS.Key)
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.Default())
	r.Use(gin.ErrorLogger())

	/**
	 * For every session request, resolve the conferenceId in the path to an
	 * existing session. Opening a session is exempt: it creates one.
	 */
	r.Use(func(c *gin.Context) {
		if conferenceId := c.Params.ByName("conferenceId"); len(conferenceId) > 0 {
			if c.Request.Method == http.MethodPost && strings.HasSuffix(c.FullPath(), "/livestream") {
				return
			}
			session, ok := s.sessions.Load(conferenceId)
			if ok {
				c.Set("session", session)
			} else {
				c.AbortWithError(404, fmt.Errorf(`no live-stream session for conference "%s"`, conferenceId))
			}
		}
	})

	/**
	 * POST API to open (or return) the live-stream configuration session of
	 * a conference.
	 */
	r.POST("/conferences/:conferenceId/livestream", func(c *gin.Context) {
		request := proto.OpenSessionRequest{}

		if c.BindJSON(&request) != nil {
			return
		}
		session, err := s.getOrCreateSession(c.Params.ByName("conferenceId"), request)
		if err != nil {
			c.AbortWithError(500, err)
			return
		}
		c.JSON(200, session.State())
	})

	/**
	 * API GET resource that returns the session state projection.
	 */
	r.GET("/conferences/:conferenceId/livestream", func(c *gin.Context) {
		c.JSON(200, s.getSession(c).State())
	})

	/**
	 * PUT API to type a stream key into the dialog. Typing a key clears any
	 * broadcast selection.
	 */
	r.PUT("/conferences/:conferenceId/livestream/streamkey", func(c *gin.Context) {
		request := proto.SetStreamKeyRequest{}

		if c.BindJSON(&request) != nil {
			return
		}
		session := s.getSession(c)
		session.SetStreamKey(request.StreamKey)
		c.JSON(200, session.State())
	})

	/**
	 * POST API to submit the dialog. The response tells the client whether
	 * the dialog closed; without an effective stream key it stays open.
	 */
	r.POST("/conferences/:conferenceId/livestream/submit", func(c *gin.Context) {
		c.JSON(200, proto.SubmitResponse{Close: s.getSession(c).SubmitDialog()})
	})

	/**
	 * POST API to dismiss the dialog.
	 */
	r.POST("/conferences/:conferenceId/livestream/cancel", func(c *gin.Context) {
		c.JSON(200, proto.SubmitResponse{Close: s.getSession(c).CancelDialog()})
	})

	r.StaticFS("/app", http.FS(Dir("public")))

	pprof.Register(r)

	// setup websocket
	r.GET("/", s.runSignalingWebSocketServer)

	return r
}

func (s *Server) getSession(c *gin.Context) *StreamSession {
	session, _ := c.Get("session")

	return session.(*StreamSession)
}

func (s *Server) getOrCreateSession(conferenceId string, request proto.OpenSessionRequest) (session *StreamSession, err error) {
	s.locker.Lock()
	defer s.locker.Unlock()

	val, ok := s.sessions.Load(conferenceId)
	if ok {
		session = val.(*StreamSession)
		// A signaling-first session exists without credentials; an open
		// request that carries some signs it in instead of dropping them.
		session.Reopen(request)
		return session, nil
	}

	previousKey := ""
	if val, ok := s.previousKeys.Load(conferenceId); ok {
		previousKey = val.(string)
	}

	session, err = CreateStreamSession(s.config, conferenceId, request, previousKey, s.analytics, func(key string) {
		s.previousKeys.Store(conferenceId, key)
	})
	if err != nil {
		return
	}

	s.sessions.Store(conferenceId, session)

	session.OnClose(func() {
		s.sessions.Delete(conferenceId)
	})

	return
}

func (s *Server) runSignalingWebSocketServer(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		http.NotFound(c.Writer, c.Request)
		return
	}

	conferenceId := c.Query("conferenceId")
	peerId := c.Query("peerId")

	if len(conferenceId) == 0 || len(peerId) == 0 {
		c.AbortWithError(400, errors.New("connection request without conferenceId and/or peerId"))
		return
	}

	s.logger.Info().
		Str("conferenceId", conferenceId).
		Str("peerId", peerId).
		Str("address", c.ClientIP()).
		Str("origin", c.GetHeader("Origin")).
		Msg("signaling connection request")

	session, err := s.getOrCreateSession(conferenceId, proto.OpenSessionRequest{})
	if err != nil {
		s.logger.Err(err).Msg("getOrCreateSession")
		c.AbortWithError(500, err)
		return
	}
	transport := transport.NewWebsocketTransport(conn)

	session.HandleSignalingConnection(peerId, transport)

	if err := transport.Run(); err != nil {
		s.logger.Err(err).Msg("transport.run")
	}
}
