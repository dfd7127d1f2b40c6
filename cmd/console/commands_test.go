package main

import (
	"testing"

	"github.com/jwebster45206/iwc-bridge/pkg/iwc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		action iwc.Action
		data   map[string]any
	}{
		{
			name:   "alias without data",
			line:   "address",
			action: iwc.ActionRequestAddress,
			data:   map[string]any{},
		},
		{
			name:   "alias with data",
			line:   "challenge address=0x1",
			action: iwc.ActionRequestChallenge,
			data:   map[string]any{"address": "0x1"},
		},
		{
			name:   "full action name",
			line:   "request_mint address=0xabc referrer=0x0",
			action: iwc.ActionRequestMint,
			data:   map[string]any{"address": "0xabc", "referrer": "0x0"},
		},
		{
			name:   "value with spaces",
			line:   "sign original=Welcome to Lootex nonce=7",
			action: iwc.ActionRequestSignature,
			data:   map[string]any{"original": "Welcome to Lootex", "nonce": "7"},
		},
		{
			name:   "value containing equals",
			line:   "sign original=a=b",
			action: iwc.ActionRequestSignature,
			data:   map[string]any{"original": "a=b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := parseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, iwc.ChannelIdentifier, env.Channel)
			assert.Equal(t, tt.action, env.Action)
			assert.Equal(t, tt.data, env.Data)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	for _, line := range []string{"", "teleport", "GRANTED_ADDRESS", "challenge 0x1"} {
		_, err := parseCommand(line)
		assert.Error(t, err, "line %q", line)
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Granted Challenge", label(iwc.ActionGrantedChallenge))
	assert.Equal(t, "Otp Email Granted", label(iwc.ActionOTPEmailGranted))
}

func TestIsDenial(t *testing.T) {
	assert.True(t, isDenial(iwc.ActionDeniedMint))
	assert.True(t, isDenial(iwc.ActionOTPEmailDenied))
	assert.True(t, isDenial(iwc.ActionEmailIsTaken))
	assert.True(t, isDenial(iwc.ActionUsernameCheckFailed))
	assert.False(t, isDenial(iwc.ActionGrantedSignature))
	assert.False(t, isDenial(iwc.ActionEmailIsAvailable))
}

func TestSocketURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/v1/iwc/ws", socketURL("http://localhost:8080/"))
	assert.Equal(t, "wss://bridge.example/v1/iwc/ws", socketURL("https://bridge.example"))
}
