// Package bridge relays IWC requests from a game client to the wallet, the
// Lootex ID API and the mint signer, and posts one reply per request.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jwebster45206/iwc-bridge/internal/services/lootex"
	"github.com/jwebster45206/iwc-bridge/internal/services/signer"
	"github.com/jwebster45206/iwc-bridge/internal/services/wallet"
	"github.com/jwebster45206/iwc-bridge/internal/tracer"
	"github.com/jwebster45206/iwc-bridge/pkg/iwc"
	"github.com/jwebster45206/iwc-bridge/pkg/mint"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingField  = errors.New("missing required field")
)

// Config is the read-only part of a bridge.
type Config struct {
	// TrustedOrigin is the only origin messages are accepted from and
	// replies are addressed to.
	TrustedOrigin string
	TokenURI      string
	Contract      string
}

// Deps are the external collaborators. Wallet may be nil, in which case
// wallet-backed actions are denied with wallet.ErrNoProvider.
type Deps struct {
	API      lootex.API
	Wallet   wallet.Provider
	Signer   signer.MintSigner
	Username UsernameChecker
}

// Poster delivers an envelope to the child, restricted to targetOrigin.
type Poster interface {
	PostMessage(ctx context.Context, env iwc.Envelope, targetOrigin string) error
}

// MessageEvent is one raw message received from the child
type MessageEvent struct {
	Origin string
	Data   []byte
}

// Result is the outcome of one handler. Reply is always set for a known
// action; Err is non-nil exactly when Reply is a denial.
type Result struct {
	Reply iwc.Envelope
	Err   error
}

// Granted reports whether the handler succeeded
func (r Result) Granted() bool {
	return r.Err == nil
}

type handlerFunc func(ctx context.Context, env iwc.Envelope) Result

// Bridge serves one child. It holds no mutable state besides the
// in-flight handler count, so a single value may process many messages
// concurrently.
type Bridge struct {
	cfg      Config
	api      lootex.API
	wallet   wallet.Provider
	signer   signer.MintSigner
	username UsernameChecker
	poster   Poster
	logger   *slog.Logger

	handlers map[iwc.Action]handlerFunc
	wg       sync.WaitGroup
}

// New creates a bridge posting replies through poster. Empty TokenURI and
// Contract fall back to the campaign defaults and a nil Username checker
// falls back to AlwaysAvailable.
func New(cfg Config, deps Deps, poster Poster, logger *slog.Logger) *Bridge {
	if cfg.TokenURI == "" {
		cfg.TokenURI = mint.TokenURI
	}
	if cfg.Contract == "" {
		cfg.Contract = mint.DefaultContractAddress
	}
	if deps.Username == nil {
		deps.Username = AlwaysAvailable{}
	}

	b := &Bridge{
		cfg:      cfg,
		api:      deps.API,
		wallet:   deps.Wallet,
		signer:   deps.Signer,
		username: deps.Username,
		poster:   poster,
		logger:   logger,
	}
	b.handlers = map[iwc.Action]handlerFunc{
		iwc.ActionRequestAddress:            b.handleRequestAddress,
		iwc.ActionRequestChallenge:          b.handleRequestChallenge,
		iwc.ActionCheckEmailAvailability:    b.handleCheckEmail,
		iwc.ActionCheckUsernameAvailability: b.handleCheckUsername,
		iwc.ActionSendOTPEmail:              b.handleSendOTPEmail,
		iwc.ActionRequestSignature:          b.handleRequestSignature,
		iwc.ActionRequestSignUp:             b.handleSignUp,
		iwc.ActionRequestSignIn:             b.handleSignIn,
		iwc.ActionRequestMint:               b.handleMint,
	}
	return b
}

// TrustedOrigin returns the origin this bridge talks to
func (b *Bridge) TrustedOrigin() string {
	return b.cfg.TrustedOrigin
}

// HandleMessage validates ev and, when it is a recognized request from the
// trusted origin, runs its handler in the background and posts the reply.
// Anything else is dropped without a reply. The return value reports
// whether the message was accepted.
func (b *Bridge) HandleMessage(ctx context.Context, ev MessageEvent) bool {
	if ev.Origin != b.cfg.TrustedOrigin {
		b.logger.Debug("Dropping message from untrusted origin", "origin", ev.Origin)
		return false
	}

	env, err := iwc.Decode(ev.Data)
	if err != nil {
		b.logger.Debug("Dropping undecodable message", "error", err)
		return false
	}
	if !env.OnChannel() {
		b.logger.Debug("Dropping message on foreign channel", "channel", env.Channel)
		return false
	}
	if !env.Action.IsInbound() {
		b.logger.Debug("Dropping unrecognized action", "action", env.Action)
		return false
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		res := b.Dispatch(ctx, env)
		if err := b.poster.PostMessage(ctx, res.Reply, b.cfg.TrustedOrigin); err != nil {
			b.logger.Error("Failed to post reply",
				"error", err,
				"request", env.Action,
				"reply", res.Reply.Action)
		}
	}()
	return true
}

// Dispatch runs the handler for env synchronously and returns its result
// without posting it.
func (b *Bridge) Dispatch(ctx context.Context, env iwc.Envelope) Result {
	handler, ok := b.handlers[env.Action]
	if !ok {
		return Result{Err: fmt.Errorf("%w: %s", ErrUnknownAction, env.Action)}
	}

	ctx, span := tracer.StartSpan(ctx, "iwc."+string(env.Action))
	defer span.End()

	res := handler(ctx, env)
	span.SetAttributes(tracer.StringAttr("iwc.reply", string(res.Reply.Action)))

	if res.Err != nil {
		tracer.RecordError(span, res.Err)
		b.logger.Info("Request denied",
			"action", env.Action,
			"reply", res.Reply.Action,
			"error", res.Err)
	} else {
		tracer.SetOK(span)
		b.logger.Debug("Request granted",
			"action", env.Action,
			"reply", res.Reply.Action)
	}
	return res
}

// Wait blocks until every handler started by HandleMessage has posted.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

// PostToChild sends an arbitrary envelope to the child.
func (b *Bridge) PostToChild(ctx context.Context, action iwc.Action, data map[string]any) error {
	return b.poster.PostMessage(ctx, iwc.NewEnvelope(action, data), b.cfg.TrustedOrigin)
}

func granted(action iwc.Action, data map[string]any) Result {
	return Result{Reply: iwc.NewEnvelope(action, data)}
}

// denied carries the failure message to the child as data.error
func denied(action iwc.Action, err error, message string) Result {
	return Result{
		Reply: iwc.NewEnvelope(action, map[string]any{"error": message}),
		Err:   err,
	}
}

// invalid is a validation denial, which carries no data
func invalid(action iwc.Action, missing []string) Result {
	return Result{
		Reply: iwc.NewEnvelope(action, nil),
		Err:   fmt.Errorf("%w: %v", ErrMissingField, missing),
	}
}

// bodyData turns an API response body into reply data. Objects are passed
// through; any other body is wrapped under "body".
func bodyData(body any) map[string]any {
	switch v := body.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	default:
		return map[string]any{"body": v}
	}
}
