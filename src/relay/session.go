package relay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/square-key-labs/voicebridge/src/audio"
	"github.com/square-key-labs/voicebridge/src/dispatch"
	"github.com/square-key-labs/voicebridge/src/frames"
	"github.com/square-key-labs/voicebridge/src/logger"
	"github.com/square-key-labs/voicebridge/src/serializers"
	"github.com/square-key-labs/voicebridge/src/services/deepgram"
	"github.com/square-key-labs/voicebridge/src/transports"
)

const (
	// Twilio delivers mulaw at 8kHz in 160-byte (20ms) chunks; the agent
	// wants fewer, larger sends, so chunks are coalesced into 0.4s frames.
	telephonyChunkSize   = 160
	defaultFrameMultiple = 20
	defaultQueueDepth    = 64
)

// AgentLink is the voice-agent side of a session. Satisfied by
// deepgram.AgentClient; faked in tests.
type AgentLink interface {
	Receive() (transports.Message, error)
	SendAudio(data []byte) error
	SendFunctionResponse(resp frames.FunctionCallResponse) error
	Close() error
}

// SessionConfig wires one conversation together.
type SessionConfig struct {
	Telephony  transports.Link
	Agent      AgentLink
	Serializer serializers.TelephonySerializer
	Dispatcher *dispatch.Dispatcher

	// FrameMultiple is how many telephony chunks make up one agent-bound
	// frame. Zero means the default of 20 (0.4s of audio).
	FrameMultiple int
	// QueueDepth bounds the agent-bound audio queue. Zero means 64.
	QueueDepth int
}

// Session relays audio between a telephony stream and the voice agent
// for the duration of one call. Three loops run concurrently: telephony
// inbound, agent outbound, and agent inbound. Closing either link tears
// the whole session down.
type Session struct {
	telephony  transports.Link
	agent      AgentLink
	serializer serializers.TelephonySerializer
	dispatcher *dispatch.Dispatcher
	chunker    *audio.Chunker

	state atomic.Int32

	// streamSID is written once by the telephony loop, then published to
	// the agent loop by closing streamReady.
	streamSID   string
	streamReady chan struct{}

	outToAgent chan []byte

	cancel  context.CancelFunc
	closers sync.Once

	errOnce  sync.Once
	closeErr error

	// dispatchWG tracks in-flight function calls so Run does not return
	// while one is still talking to the backend.
	dispatchWG sync.WaitGroup

	log *logger.Logger
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Telephony == nil || cfg.Agent == nil {
		return nil, fmt.Errorf("session requires both telephony and agent links")
	}
	if cfg.Serializer == nil {
		return nil, fmt.Errorf("session requires a telephony serializer")
	}

	multiple := cfg.FrameMultiple
	if multiple <= 0 {
		multiple = defaultFrameMultiple
	}
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = defaultQueueDepth
	}

	return &Session{
		telephony:   cfg.Telephony,
		agent:       cfg.Agent,
		serializer:  cfg.Serializer,
		dispatcher:  cfg.Dispatcher,
		chunker:     audio.NewChunker(telephonyChunkSize * multiple),
		streamReady: make(chan struct{}),
		outToAgent:  make(chan []byte, depth),
		log:         logger.WithPrefix("Relay"),
	}, nil
}

// State reports the session's current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	if prev != st {
		s.log.Debug("State %s -> %s", prev, st)
	}
}

// StreamSID returns the telephony stream identifier, or "" before the
// start event arrives.
func (s *Session) StreamSID() string {
	select {
	case <-s.streamReady:
		return s.streamSID
	default:
		return ""
	}
}

// Run drives the session until either side disconnects or ctx is
// cancelled. It always tears down both links before returning.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer s.shutdown()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.telephonyLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.agentSendLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.agentLoop(ctx)
	}()

	wg.Wait()
	s.dispatchWG.Wait()
	return s.closeErr
}

// fail records the first abnormal error so Run can report it.
func (s *Session) fail(err error) {
	s.errOnce.Do(func() { s.closeErr = err })
}

// shutdown closes both links exactly once. The blocked Receive calls in
// the loops fail immediately afterward, which is what unwinds them.
func (s *Session) shutdown() {
	s.closers.Do(func() {
		s.setState(Closed)
		if s.cancel != nil {
			s.cancel()
		}
		if err := s.telephony.Close(); err != nil && !transports.IsExpectedClose(err) {
			s.log.Warn("Error closing telephony link: %v", err)
		}
		if err := s.agent.Close(); err != nil && !transports.IsExpectedClose(err) {
			s.log.Warn("Error closing agent link: %v", err)
		}
		s.log.Info("Session closed")
	})
}

// telephonyLoop reads caller events, latches the stream SID, and feeds
// coalesced audio frames toward the agent.
func (s *Session) telephonyLoop(ctx context.Context) {
	defer s.shutdown()

	for {
		msg, err := s.telephony.Receive()
		if err != nil {
			if !transports.IsExpectedClose(err) && ctx.Err() == nil {
				s.log.Warn("Telephony receive failed: %v", err)
				s.fail(fmt.Errorf("telephony receive: %w", err))
			}
			return
		}

		event, frame, err := s.serializer.Decode(msg.Data)
		if err != nil {
			s.log.Warn("Skipping undecodable telephony message: %v", err)
			continue
		}

		if frame != nil {
			for _, out := range s.chunker.Write(frame.Data()) {
				select {
				case s.outToAgent <- out:
				case <-ctx.Done():
					return
				}
			}
			continue
		}

		switch ev := event.(type) {
		case frames.StreamStarted:
			select {
			case <-s.streamReady:
				s.log.Warn("Duplicate start event for stream %s", ev.StreamSID)
			default:
				s.streamSID = ev.StreamSID
				close(s.streamReady)
				s.setState(Streaming)
				s.log.Info("Stream started: %s (call %s)", ev.StreamSID, ev.CallSID)
			}
		case frames.StreamStopped:
			s.setState(Draining)
			// Sub-frame audio left in the chunker never reaches the agent.
			if pending := s.chunker.Pending(); pending > 0 {
				s.log.Debug("Discarding %d buffered bytes at stream stop", pending)
				s.chunker.Reset()
			}
			s.log.Info("Stream stopped, draining session")
			return
		case frames.UnknownEvent:
			s.log.Debug("Ignoring telephony event %s", ev.Type)
		case nil:
			// Keepalive or ack, nothing to do.
		}
	}
}

// agentSendLoop drains the bounded queue toward the agent.
func (s *Session) agentSendLoop(ctx context.Context) {
	for {
		select {
		case frame := <-s.outToAgent:
			if err := s.agent.SendAudio(frame); err != nil {
				if !transports.IsExpectedClose(err) && ctx.Err() == nil {
					s.log.Warn("Agent audio send failed: %v", err)
				}
				s.shutdown()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// agentLoop handles everything coming back from the agent: synthesized
// audio, barge-in notifications, function calls, and close requests.
// Audio and the barge-in clear are sent from this single goroutine, so a
// clear always reaches the caller before any post-interruption audio.
func (s *Session) agentLoop(ctx context.Context) {
	defer s.shutdown()

	for {
		msg, err := s.agent.Receive()
		if err != nil {
			if !transports.IsExpectedClose(err) && ctx.Err() == nil {
				s.log.Warn("Agent receive failed: %v", err)
				s.fail(fmt.Errorf("agent receive: %w", err))
			}
			return
		}

		if msg.Type == transports.BinaryMessage {
			if !s.waitForStream(ctx) {
				return
			}
			payload, err := s.serializer.EncodeMedia(s.streamSID, msg.Data)
			if err != nil {
				s.log.Error("Failed to encode outbound media: %v", err)
				continue
			}
			if err := s.telephony.SendText(payload); err != nil {
				if !transports.IsExpectedClose(err) && ctx.Err() == nil {
					s.log.Warn("Telephony media send failed: %v", err)
				}
				return
			}
			continue
		}

		event, err := s.handleAgentEvent(ctx, msg.Data)
		if err != nil {
			s.log.Warn("Skipping undecodable agent message: %v", err)
			continue
		}
		if _, closed := event.(frames.ConversationClosed); closed {
			s.log.Info("Agent requested connection close")
			return
		}
	}
}

func (s *Session) handleAgentEvent(ctx context.Context, data []byte) (frames.ControlEvent, error) {
	event, err := deepgram.ParseEvent(data)
	if err != nil {
		return nil, err
	}

	switch ev := event.(type) {
	case frames.UserStartedSpeaking:
		s.bargeIn()
	case frames.SettingsApplied:
		s.log.Info("Agent settings applied")
	case frames.FunctionCallRequest:
		s.dispatchFunction(ctx, ev)
	case frames.UnknownEvent:
		s.log.Debug("Ignoring agent event %s", ev.Type)
	}
	return event, nil
}

// bargeIn tells the caller's device to drop any queued playback because
// the caller started talking over the agent.
func (s *Session) bargeIn() {
	select {
	case <-s.streamReady:
	default:
		// Nothing has been sent yet, so there is nothing to clear.
		return
	}

	s.log.Info("Barge-in: clearing queued playback")
	payload, err := s.serializer.EncodeClear(s.streamSID)
	if err != nil {
		s.log.Error("Failed to encode clear: %v", err)
		return
	}
	if err := s.telephony.SendText(payload); err != nil && !transports.IsExpectedClose(err) {
		s.log.Warn("Telephony clear send failed: %v", err)
	}
}

// dispatchFunction runs one function call off the agent loop so backend
// latency never stalls audio relay, and sends exactly one response back
// to the agent. A send failure after teardown is swallowed.
func (s *Session) dispatchFunction(ctx context.Context, req frames.FunctionCallRequest) {
	if s.dispatcher == nil {
		s.log.Warn("No dispatcher configured, rejecting %s", req.Name)
		s.sendFunctionResponse(req.CallID, fmt.Sprintf(`{"error":"Unknown function: %s"}`, req.Name))
		return
	}

	s.dispatchWG.Add(1)
	go func() {
		defer s.dispatchWG.Done()

		result := s.dispatcher.Dispatch(ctx, req)
		s.sendFunctionResponse(req.CallID, result.Output)

		if result.EndConversation {
			s.log.Info("Function requested conversation end")
			s.shutdown()
		}
	}()
}

func (s *Session) sendFunctionResponse(callID, output string) {
	resp := frames.FunctionCallResponse{CallID: callID, Output: output}
	if err := s.agent.SendFunctionResponse(resp); err != nil && !transports.IsExpectedClose(err) {
		s.log.Warn("Function response send failed: %v", err)
	}
}

// waitForStream blocks until the stream SID is known or the session is
// going away. Outbound media cannot be addressed before the start event.
func (s *Session) waitForStream(ctx context.Context) bool {
	select {
	case <-s.streamReady:
		return true
	case <-ctx.Done():
		return false
	}
}
