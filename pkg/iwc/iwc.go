// Package iwc defines the inter-window communication protocol spoken
// between a game client and the bridge.
package iwc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ChannelIdentifier tags every envelope of this protocol so unrelated
// cross-window traffic can be told apart.
const ChannelIdentifier = "LOOTEX_GAME_IWC"

// Action names a request from the child or a reply from the bridge
type Action string

// Actions fired by the child
const (
	ActionRequestAddress            Action = "REQUEST_ADDRESS"
	ActionRequestChallenge          Action = "REQUEST_CHALLENGE"
	ActionCheckEmailAvailability    Action = "CHECK_EMAIL_AVAILABILITY"
	ActionCheckUsernameAvailability Action = "CHECK_USERNAME_AVAILABILITY"
	ActionSendOTPEmail              Action = "SEND_OTP_EMAIL"
	ActionRequestSignature          Action = "REQUEST_SIGNATURE"
	ActionRequestSignUp             Action = "REQUEST_SIGNUP"
	ActionRequestSignIn             Action = "REQUEST_SIGNIN"
	ActionRequestMint               Action = "REQUEST_MINT"
)

// Actions fired by the bridge
const (
	ActionGrantedAddress      Action = "GRANTED_ADDRESS"
	ActionDeniedAddress       Action = "DENIED_ADDRESS"
	ActionGrantedChallenge    Action = "GRANTED_CHALLENGE"
	ActionDeniedChallenge     Action = "DENIED_CHALLENGE"
	ActionEmailIsAvailable    Action = "EMAIL_IS_AVAILABLE"
	ActionEmailIsTaken        Action = "EMAIL_IS_TAKEN"
	ActionEmailCheckFailed    Action = "EMAIL_CHECK_FAILED"
	ActionUsernameIsAvailable Action = "USERNAME_IS_AVAILABLE"
	ActionUsernameIsTaken     Action = "USERNAME_IS_TAKEN"
	ActionUsernameCheckFailed Action = "USERNAME_CHECK_FAILED"
	ActionOTPEmailGranted     Action = "OTP_EMAIL_GRANTED"
	ActionOTPEmailDenied      Action = "OTP_EMAIL_DENIED"
	ActionGrantedSignature    Action = "GRANTED_SIGNATURE"
	ActionDeniedSignature     Action = "DENIED_SIGNATURE"
	ActionGrantedSignUp       Action = "GRANTED_SIGNUP"
	ActionDeniedSignUp        Action = "DENIED_SIGNUP"
	ActionGrantedSignIn       Action = "GRANTED_SIGNIN"
	ActionDeniedSignIn        Action = "DENIED_SIGNIN"
	ActionGrantedMint         Action = "GRANTED_MINT"
	ActionDeniedMint          Action = "DENIED_MINT"
)

// InboundActions lists every action the child may send, in protocol order.
var InboundActions = []Action{
	ActionRequestAddress,
	ActionRequestChallenge,
	ActionCheckEmailAvailability,
	ActionCheckUsernameAvailability,
	ActionSendOTPEmail,
	ActionRequestSignature,
	ActionRequestSignUp,
	ActionRequestSignIn,
	ActionRequestMint,
}

// OutboundActions lists every action the bridge may post back.
var OutboundActions = []Action{
	ActionGrantedAddress,
	ActionDeniedAddress,
	ActionGrantedChallenge,
	ActionDeniedChallenge,
	ActionEmailIsAvailable,
	ActionEmailIsTaken,
	ActionEmailCheckFailed,
	ActionUsernameIsAvailable,
	ActionUsernameIsTaken,
	ActionUsernameCheckFailed,
	ActionOTPEmailGranted,
	ActionOTPEmailDenied,
	ActionGrantedSignature,
	ActionDeniedSignature,
	ActionGrantedSignUp,
	ActionDeniedSignUp,
	ActionGrantedSignIn,
	ActionDeniedSignIn,
	ActionGrantedMint,
	ActionDeniedMint,
}

var (
	inboundSet  = toSet(InboundActions)
	outboundSet = toSet(OutboundActions)
)

func toSet(actions []Action) map[Action]struct{} {
	set := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

// IsInbound reports whether a is a recognized child action
func (a Action) IsInbound() bool {
	_, ok := inboundSet[a]
	return ok
}

// IsOutbound reports whether a is a recognized bridge reply
func (a Action) IsOutbound() bool {
	_, ok := outboundSet[a]
	return ok
}

// Envelope is the message shape exchanged in both directions.
type Envelope struct {
	Channel string         `json:"channel"`
	Action  Action         `json:"action"`
	Data    map[string]any `json:"data"`
}

// NewEnvelope builds an envelope stamped with ChannelIdentifier.
// A nil data map is replaced with an empty one so the wire form is always {}.
func NewEnvelope(action Action, data map[string]any) Envelope {
	if data == nil {
		data = map[string]any{}
	}
	return Envelope{
		Channel: ChannelIdentifier,
		Action:  action,
		Data:    data,
	}
}

// Decode parses a JSON envelope. It does not check the channel or action;
// callers decide what to drop.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if dec.More() {
		return Envelope{}, fmt.Errorf("failed to decode envelope: trailing data")
	}
	if env.Data == nil {
		env.Data = map[string]any{}
	}
	return env, nil
}

// OnChannel reports whether the envelope belongs to this protocol
func (e Envelope) OnChannel() bool {
	return e.Channel == ChannelIdentifier
}

// String returns data[key] as a string. Numbers and booleans are
// formatted; absent, null and structured values yield "".
func (e Envelope) String(key string) string {
	switch v := e.Data[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// Has reports whether data[key] is present and not null, even if empty.
func (e Envelope) Has(key string) bool {
	v, ok := e.Data[key]
	return ok && v != nil
}

// Missing returns the keys that are absent or whose scalar value is empty.
func (e Envelope) Missing(keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if e.String(k) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}
