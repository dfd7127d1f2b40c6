package main

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/iwc-bridge/pkg/iwc"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// aliases are the short names typed at the prompt
var aliases = map[string]iwc.Action{
	"address":   iwc.ActionRequestAddress,
	"challenge": iwc.ActionRequestChallenge,
	"email":     iwc.ActionCheckEmailAvailability,
	"username":  iwc.ActionCheckUsernameAvailability,
	"otp":       iwc.ActionSendOTPEmail,
	"sign":      iwc.ActionRequestSignature,
	"signup":    iwc.ActionRequestSignUp,
	"signin":    iwc.ActionRequestSignIn,
	"mint":      iwc.ActionRequestMint,
}

var titleCaser = cases.Title(language.English)

// parseCommand turns "challenge address=0x1" into a request envelope. The
// action is an alias or a full action name; the rest are key=value pairs.
// Words without '=' continue the previous value, so "sign original=hello
// there" signs "hello there".
func parseCommand(line string) (iwc.Envelope, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return iwc.Envelope{}, fmt.Errorf("empty command")
	}

	action, ok := aliases[strings.ToLower(fields[0])]
	if !ok {
		action = iwc.Action(strings.ToUpper(fields[0]))
	}
	if !action.IsInbound() {
		return iwc.Envelope{}, fmt.Errorf("unknown action %q", fields[0])
	}

	data := map[string]any{}
	lastKey := ""
	for _, field := range fields[1:] {
		key, value, found := strings.Cut(field, "=")
		if !found {
			if lastKey == "" {
				return iwc.Envelope{}, fmt.Errorf("expected key=value, got %q", field)
			}
			data[lastKey] = data[lastKey].(string) + " " + field
			continue
		}
		data[key] = value
		lastKey = key
	}
	return iwc.NewEnvelope(action, data), nil
}

// label renders an action for display, e.g. "Granted Challenge"
func label(action iwc.Action) string {
	return titleCaser.String(strings.ToLower(strings.ReplaceAll(string(action), "_", " ")))
}

// isDenial reports replies that signal a failed or negative outcome
func isDenial(action iwc.Action) bool {
	s := string(action)
	return strings.Contains(s, "DENIED") || strings.HasSuffix(s, "_FAILED") || strings.HasSuffix(s, "_TAKEN")
}
