// Package mint holds the campaign contract's mint call: the hash the
// trusted signer authorises, the signature format, and the call data.
package mint

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// TokenURI is the metadata URI every campaign mint carries.
	TokenURI = "ipfs://tokenUri/"

	// DefaultContractAddress is the deployed campaign contract.
	DefaultContractAddress = "0x98F30E87eBda3fa6577F52B113DC8aD4E199236c"
)

const contractABI = `[{
	"inputs": [
		{"internalType": "bytes", "name": "signature", "type": "bytes"},
		{"internalType": "string", "name": "tokenUri", "type": "string"},
		{"internalType": "address", "name": "referrer", "type": "address"}
	],
	"name": "mint",
	"outputs": [],
	"stateMutability": "payable",
	"type": "function"
}]`

var ErrInvalidAddress = errors.New("invalid address")

var campaignABI = mustParseABI(contractABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("mint: invalid contract ABI: %v", err))
	}
	return parsed
}

// ParseAddress validates a hex address and returns it in checksummed form.
// All-lower or all-upper hex is accepted as is; mixed case must carry a
// valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	addr := common.HexToAddress(s)

	digits := s[len(s)-2*common.AddressLength:]
	if digits != strings.ToLower(digits) && digits != strings.ToUpper(digits) &&
		digits != addr.Hex()[2:] {
		return common.Address{}, fmt.Errorf("%w: bad checksum %q", ErrInvalidAddress, s)
	}
	return addr, nil
}

// Hash computes keccak256(abi.encodePacked(recipient, tokenURI, referrer)),
// the message the contract expects the trusted signer to have signed.
func Hash(recipient, tokenURI string, referrer common.Address) (common.Hash, error) {
	addr, err := ParseAddress(recipient)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(addr.Bytes(), []byte(tokenURI), referrer.Bytes()), nil
}

// PackMintCall ABI-encodes mint(signature, tokenURI, referrer).
func PackMintCall(signature []byte, tokenURI string, referrer common.Address) ([]byte, error) {
	data, err := campaignABI.Pack("mint", signature, tokenURI, referrer)
	if err != nil {
		return nil, fmt.Errorf("failed to pack mint call: %w", err)
	}
	return data, nil
}

// SignHash signs the raw hash bytes as an EIP-191 personal message, with the
// recovery byte shifted to 27/28 the way wallets and ethers emit it.
func SignHash(key *ecdsa.PrivateKey, hash common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(hash.Bytes()), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign mint hash: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverSigner returns the address that produced sig over hash via SignHash.
func RecoverSigner(hash common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(hash.Bytes()), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
