package serializers

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/square-key-labs/voicebridge/src/frames"
)

func TestDecodeStart(t *testing.T) {
	s := NewTwilioSerializer()

	msg := `{"event":"start","sequenceNumber":"1","start":{"streamSid":"MZ123","callSid":"CA456","accountSid":"AC789","tracks":["inbound"],"mediaFormat":{"encoding":"audio/x-mulaw","sampleRate":8000,"channels":1}},"streamSid":"MZ123"}`

	event, frame, err := s.Decode([]byte(msg))
	require.NoError(t, err)
	require.Nil(t, frame)

	started, ok := event.(frames.StreamStarted)
	require.True(t, ok)
	assert.Equal(t, "MZ123", started.StreamSID)
	assert.Equal(t, "CA456", started.CallSID)
}

func TestDecodeMedia(t *testing.T) {
	s := NewTwilioSerializer()

	audio := []byte{0x7f, 0x80, 0x00, 0xff}
	payload := base64.StdEncoding.EncodeToString(audio)
	msg := `{"event":"media","media":{"track":"inbound","chunk":"2","timestamp":"20","payload":"` + payload + `"},"streamSid":"MZ123"}`

	event, frame, err := s.Decode([]byte(msg))
	require.NoError(t, err)
	assert.Nil(t, event)
	require.NotNil(t, frame)
	assert.Equal(t, frames.TelephonyInbound, frame.Source())
	assert.Equal(t, audio, frame.Data())
}

func TestDecodeMediaWithoutTrack(t *testing.T) {
	s := NewTwilioSerializer()

	// Twilio omits the track field on unidirectional streams.
	msg := `{"event":"media","media":{"payload":"` + base64.StdEncoding.EncodeToString([]byte{1, 2}) + `"},"streamSid":"MZ123"}`

	_, frame, err := s.Decode([]byte(msg))
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, []byte{1, 2}, frame.Data())
}

func TestDecodeMediaOutboundTrackDropped(t *testing.T) {
	s := NewTwilioSerializer()

	msg := `{"event":"media","media":{"track":"outbound","payload":"AAEC"},"streamSid":"MZ123"}`

	event, frame, err := s.Decode([]byte(msg))
	require.NoError(t, err)
	assert.Nil(t, event)
	assert.Nil(t, frame)
}

func TestDecodeMediaBadPayload(t *testing.T) {
	s := NewTwilioSerializer()

	msg := `{"event":"media","media":{"track":"inbound","payload":"not-base64!!!"},"streamSid":"MZ123"}`

	_, _, err := s.Decode([]byte(msg))
	assert.Error(t, err)
}

func TestDecodeStop(t *testing.T) {
	s := NewTwilioSerializer()

	event, frame, err := s.Decode([]byte(`{"event":"stop","streamSid":"MZ123"}`))
	require.NoError(t, err)
	assert.Nil(t, frame)
	assert.IsType(t, frames.StreamStopped{}, event)
}

func TestDecodeConnectedAndMarkIgnored(t *testing.T) {
	s := NewTwilioSerializer()

	for _, msg := range []string{
		`{"event":"connected","protocol":"Call","version":"1.0.0"}`,
		`{"event":"mark","streamSid":"MZ123"}`,
	} {
		event, frame, err := s.Decode([]byte(msg))
		require.NoError(t, err, msg)
		assert.Nil(t, event, msg)
		assert.Nil(t, frame, msg)
	}
}

func TestDecodeUnknownEvent(t *testing.T) {
	s := NewTwilioSerializer()

	event, _, err := s.Decode([]byte(`{"event":"dtmf","streamSid":"MZ123"}`))
	require.NoError(t, err)
	assert.Equal(t, frames.UnknownEvent{Type: "dtmf"}, event)
}

func TestDecodeMalformedJSON(t *testing.T) {
	s := NewTwilioSerializer()

	_, _, err := s.Decode([]byte(`{"event":`))
	assert.Error(t, err)
}

func TestEncodeMedia(t *testing.T) {
	s := NewTwilioSerializer()

	audio := []byte{0x10, 0x20, 0x30}
	data, err := s.EncodeMedia("MZ123", audio)
	require.NoError(t, err)

	var decoded struct {
		Event     string `json:"event"`
		StreamSid string `json:"streamSid"`
		Media     struct {
			Payload string `json:"payload"`
		} `json:"media"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "media", decoded.Event)
	assert.Equal(t, "MZ123", decoded.StreamSid)
	assert.Equal(t, base64.StdEncoding.EncodeToString(audio), decoded.Media.Payload)
}

func TestEncodeClear(t *testing.T) {
	s := NewTwilioSerializer()

	data, err := s.EncodeClear("MZ123")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "clear", decoded["event"])
	assert.Equal(t, "MZ123", decoded["streamSid"])
	// A clear carries no media body.
	assert.NotContains(t, decoded, "media")
}
