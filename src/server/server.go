// Package server exposes the HTTP surface: health checks, TwiML for
// inbound calls, and the WebSocket endpoint Twilio streams media to.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/square-key-labs/voicebridge/src/calendar"
	"github.com/square-key-labs/voicebridge/src/config"
	"github.com/square-key-labs/voicebridge/src/dispatch"
	"github.com/square-key-labs/voicebridge/src/logger"
	"github.com/square-key-labs/voicebridge/src/relay"
	"github.com/square-key-labs/voicebridge/src/serializers"
	"github.com/square-key-labs/voicebridge/src/services/deepgram"
	"github.com/square-key-labs/voicebridge/src/transports"
)

const shutdownGrace = 10 * time.Second

type Server struct {
	cfg       *config.Config
	scheduler calendar.Scheduler
	router    *mux.Router
	upgrader  websocket.Upgrader
	sessions  sync.WaitGroup
	log       *logger.Logger
}

func New(cfg *config.Config, scheduler calendar.Scheduler) *Server {
	s := &Server{
		cfg:       cfg,
		scheduler: scheduler,
		router:    mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Twilio's media stream client sends no Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: logger.WithPrefix("Server"),
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/twiml", s.handleTwiML).Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc("/twilio", s.handleTwilioStream)
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully and
// waits for in-flight call sessions to finish.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening on %s", s.cfg.Addr())
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("HTTP shutdown error: %v", err)
	}
	s.sessions.Wait()
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// handleTwiML tells Twilio to open a bidirectional media stream back to
// this host.
func (s *Server) handleTwiML(w http.ResponseWriter, r *http.Request) {
	streamURL := fmt.Sprintf("wss://%s/twilio", r.Host)
	twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Connect>
    <Stream url="%s" />
  </Connect>
</Response>
`, streamURL)

	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprint(w, twiml)
}

// handleTwilioStream upgrades the connection and runs one relay session
// for the lifetime of the call.
func (s *Server) handleTwilioStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("WebSocket upgrade failed: %v", err)
		return
	}
	s.log.Info("Telephony connection from %s", r.RemoteAddr)

	agent, err := deepgram.DialAgent(s.agentConfig())
	if err != nil {
		s.log.Error("Voice agent dial failed: %v", err)
		conn.Close()
		return
	}

	state := dispatch.NewSessionState()
	session, err := relay.NewSession(relay.SessionConfig{
		Telephony:     transports.NewWebSocketLink(conn),
		Agent:         agent,
		Serializer:    serializers.NewTwilioSerializer(),
		Dispatcher:    dispatch.NewDispatcher(s.scheduler, state),
		FrameMultiple: s.cfg.FrameMultiple,
	})
	if err != nil {
		s.log.Error("Session setup failed: %v", err)
		agent.Close()
		conn.Close()
		return
	}

	s.sessions.Add(1)
	defer s.sessions.Done()

	s.log.Info("Session %s starting", state.Token())
	if err := session.Run(r.Context()); err != nil {
		s.log.Warn("Session %s ended with error: %v", state.Token(), err)
		return
	}
	s.log.Info("Session %s finished", state.Token())
}

func (s *Server) agentConfig() deepgram.AgentConfig {
	return deepgram.AgentConfig{
		APIKey:        s.cfg.DeepgramAPIKey,
		ListenModel:   s.cfg.DeepgramListenModel,
		ThinkProvider: s.cfg.DeepgramThinkProvider,
		ThinkModel:    s.cfg.DeepgramThinkModel,
		Voice:         s.cfg.DeepgramVoice,

		Instructions: dispatch.Instructions(time.Now()),
		Functions:    dispatch.FunctionDefinitions(),
		Greeting:     dispatch.Greeting,

		// Twilio media streams carry mulaw at 8kHz in both directions.
		InputEncoding:    "mulaw",
		InputSampleRate:  8000,
		OutputEncoding:   "mulaw",
		OutputSampleRate: 8000,
	}
}
