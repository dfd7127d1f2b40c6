package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jwebster45206/iwc-bridge/internal/services/lootex"
	"github.com/jwebster45206/iwc-bridge/internal/services/signer"
	"github.com/jwebster45206/iwc-bridge/internal/services/wallet"
	"github.com/jwebster45206/iwc-bridge/pkg/digest"
	"github.com/jwebster45206/iwc-bridge/pkg/iwc"
	"github.com/jwebster45206/iwc-bridge/pkg/mint"
)

var ErrNoAccounts = errors.New("wallet exposed no accounts")

func (b *Bridge) noWallet(action iwc.Action) Result {
	return denied(action, wallet.ErrNoProvider, wallet.ErrNoProvider.Error())
}

func walletDenied(action iwc.Action, err error) Result {
	return denied(action, err, wallet.Message(err))
}

func apiDenied(action iwc.Action, err error) Result {
	return denied(action, err, lootex.Message(err))
}

// firstAccount connects the wallet and returns the first exposed address.
func (b *Bridge) firstAccount(ctx context.Context) (string, error) {
	accounts, err := b.wallet.RequestAccounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", ErrNoAccounts
	}
	return accounts[0], nil
}

func (b *Bridge) handleRequestAddress(ctx context.Context, _ iwc.Envelope) Result {
	if b.wallet == nil {
		return b.noWallet(iwc.ActionDeniedAddress)
	}

	address, err := b.firstAccount(ctx)
	if err != nil {
		return walletDenied(iwc.ActionDeniedAddress, err)
	}
	return granted(iwc.ActionGrantedAddress, map[string]any{"address": address})
}

func (b *Bridge) handleRequestChallenge(ctx context.Context, env iwc.Envelope) Result {
	if missing := env.Missing("address"); missing != nil {
		return invalid(iwc.ActionDeniedChallenge, missing)
	}

	body, err := b.api.GetChallenge(ctx, env.String("address"))
	if err != nil {
		return apiDenied(iwc.ActionDeniedChallenge, err)
	}
	return granted(iwc.ActionGrantedChallenge, bodyData(body))
}

func (b *Bridge) handleRequestSignature(ctx context.Context, env iwc.Envelope) Result {
	// An empty message is signed as "0x"
	if !env.Has("original") {
		return invalid(iwc.ActionDeniedSignature, []string{"original"})
	}
	if b.wallet == nil {
		return b.noWallet(iwc.ActionDeniedSignature)
	}

	address, err := b.firstAccount(ctx)
	if err != nil {
		return walletDenied(iwc.ActionDeniedSignature, err)
	}

	method, params := digest.SigningCall(b.wallet.IsMetaMask(), digest.UTF8ToHex(env.String("original")), address)
	sig, err := b.wallet.Sign(ctx, method, params)
	if err != nil {
		return walletDenied(iwc.ActionDeniedSignature, err)
	}
	return granted(iwc.ActionGrantedSignature, map[string]any{"signature": sig})
}

func (b *Bridge) handleCheckEmail(ctx context.Context, env iwc.Envelope) Result {
	if missing := env.Missing("email"); missing != nil {
		return invalid(iwc.ActionEmailCheckFailed, missing)
	}

	available, err := b.api.IsEmailAvailable(ctx, env.String("email"))
	if err != nil {
		return apiDenied(iwc.ActionEmailCheckFailed, err)
	}
	if available {
		return granted(iwc.ActionEmailIsAvailable, nil)
	}
	return granted(iwc.ActionEmailIsTaken, nil)
}

func (b *Bridge) handleCheckUsername(ctx context.Context, env iwc.Envelope) Result {
	if missing := env.Missing("username"); missing != nil {
		return invalid(iwc.ActionUsernameCheckFailed, missing)
	}

	available, err := b.username.IsAvailable(ctx, env.String("username"))
	if err != nil {
		return apiDenied(iwc.ActionUsernameCheckFailed, err)
	}
	if available {
		return granted(iwc.ActionUsernameIsAvailable, nil)
	}
	return granted(iwc.ActionUsernameIsTaken, nil)
}

func (b *Bridge) handleSendOTPEmail(ctx context.Context, env iwc.Envelope) Result {
	if missing := env.Missing("email"); missing != nil {
		return invalid(iwc.ActionOTPEmailDenied, missing)
	}

	body, err := b.api.SendOTPEmail(ctx, env.String("email"))
	if err != nil {
		return apiDenied(iwc.ActionOTPEmailDenied, err)
	}
	return granted(iwc.ActionOTPEmailGranted, bodyData(body))
}

func (b *Bridge) handleSignUp(ctx context.Context, env iwc.Envelope) Result {
	if missing := env.Missing("address", "username", "email", "otpCode", "signature"); missing != nil {
		return invalid(iwc.ActionDeniedSignUp, missing)
	}
	if b.wallet == nil {
		return b.noWallet(iwc.ActionDeniedSignUp)
	}

	req := lootex.NewSignUpRequest(
		env.String("address"),
		env.String("username"),
		env.String("email"),
		env.String("otpCode"),
		env.String("signature"),
		b.wallet.IsBlocto(),
	)
	body, err := b.api.SignUp(ctx, req)
	if err != nil {
		return apiDenied(iwc.ActionDeniedSignUp, err)
	}
	return granted(iwc.ActionGrantedSignUp, bodyData(body))
}

func (b *Bridge) handleSignIn(ctx context.Context, env iwc.Envelope) Result {
	if missing := env.Missing("address", "signature"); missing != nil {
		return invalid(iwc.ActionDeniedSignIn, missing)
	}
	if b.wallet == nil {
		return b.noWallet(iwc.ActionDeniedSignIn)
	}

	req := lootex.NewSignInRequest(env.String("address"), env.String("signature"), b.wallet.IsBlocto())
	body, err := b.api.SignIn(ctx, req)
	if err != nil {
		return apiDenied(iwc.ActionDeniedSignIn, err)
	}
	return granted(iwc.ActionGrantedSignIn, bodyData(body))
}

// handleMint gets the mint authorised by the signer service and submits
// the contract call through the player's wallet. The referrer field is
// required on the wire but the campaign always mints with the zero
// address as referrer.
func (b *Bridge) handleMint(ctx context.Context, env iwc.Envelope) Result {
	if missing := env.Missing("address", "referrer"); missing != nil {
		return invalid(iwc.ActionDeniedMint, missing)
	}
	if b.wallet == nil {
		return b.noWallet(iwc.ActionDeniedMint)
	}
	if b.signer == nil {
		return denied(iwc.ActionDeniedMint, signer.ErrNotConfigured, signer.ErrNotConfigured.Error())
	}

	address := env.String("address")
	referrer := common.Address{}

	hash, err := mint.Hash(address, b.cfg.TokenURI, referrer)
	if err != nil {
		return denied(iwc.ActionDeniedMint, err, err.Error())
	}

	authz, err := b.signer.SignMint(ctx, signer.SignatureRequest{
		Address:  address,
		TokenURI: b.cfg.TokenURI,
		Referrer: referrer.Hex(),
	})
	if err != nil {
		return denied(iwc.ActionDeniedMint, err, err.Error())
	}
	if authz.Hash != "" && common.HexToHash(authz.Hash) != hash {
		err := fmt.Errorf("mint signer authorised %s, expected %s", authz.Hash, hash.Hex())
		return denied(iwc.ActionDeniedMint, err, err.Error())
	}

	sig, err := hexutil.Decode(authz.Signature)
	if err != nil {
		err = fmt.Errorf("invalid mint signature: %w", err)
		return denied(iwc.ActionDeniedMint, err, err.Error())
	}

	callData, err := mint.PackMintCall(sig, b.cfg.TokenURI, referrer)
	if err != nil {
		return denied(iwc.ActionDeniedMint, err, err.Error())
	}

	txHash, err := b.wallet.SendTransaction(ctx, wallet.Transaction{
		From: address,
		To:   b.cfg.Contract,
		Data: hexutil.Encode(callData),
	})
	if err != nil {
		return walletDenied(iwc.ActionDeniedMint, err)
	}

	b.logger.Info("Mint submitted", "address", address, "transaction", txHash)
	return granted(iwc.ActionGrantedMint, map[string]any{"transaction": txHash})
}
