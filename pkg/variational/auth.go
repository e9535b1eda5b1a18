package variational

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	headerTimestamp = "X-Request-Timestamp-Ms"
	headerKey       = "X-Variational-Key"
	headerSignature = "X-Variational-Signature"
)

// RequestSigner attaches authentication headers to an outgoing request. It is
// called once per attempt, so retried requests carry a fresh timestamp.
type RequestSigner interface {
	SignRequest(req *http.Request, body []byte, now time.Time) error
}

// HMACSigner signs requests with the API key's hex-encoded HMAC-SHA256 secret.
type HMACSigner struct {
	key    string
	secret []byte
}

// NewHMACSigner validates the credentials and decodes the secret.
func NewHMACSigner(key, secretHex string) (*HMACSigner, error) {
	key = strings.TrimSpace(key)
	secretHex = strings.TrimPrefix(strings.TrimSpace(secretHex), "0x")
	if key == "" || secretHex == "" {
		return nil, ErrMissingCredentials
	}
	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return nil, fmt.Errorf("variational: decode api secret: %w", err)
	}
	return &HMACSigner{key: key, secret: secret}, nil
}

// Key returns the API key id sent with every request.
func (s *HMACSigner) Key() string { return s.key }

// SignRequest signs "key|timestamp|METHOD|path?query" followed by "|body"
// when the request has one.
func (s *HMACSigner) SignRequest(req *http.Request, body []byte, now time.Time) error {
	if req == nil || req.URL == nil {
		return errors.New("variational: nil request")
	}
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	req.Header.Set(headerTimestamp, ts)
	req.Header.Set(headerKey, s.key)
	req.Header.Set(headerSignature, s.signature(ts, req.Method, req.URL.RequestURI(), body))
	return nil
}

func (s *HMACSigner) signature(ts, method, pathURL string, body []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(s.key + "|" + ts + "|" + method + "|" + pathURL))
	if body != nil {
		mac.Write([]byte("|"))
		mac.Write(body)
	}
	return hex.EncodeToString(mac.Sum(nil))
}

// PrivateKeySigner signs EIP-712 digests with an Ethereum account key.
type PrivateKeySigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewPrivateKeySigner parses a hex private key with or without 0x prefix.
func NewPrivateKeySigner(privateKeyHex string) (*PrivateKeySigner, error) {
	keyHex := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if keyHex == "" {
		return nil, errors.New("variational: empty private key")
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("variational: decode private key: %w", err)
	}
	return &PrivateKeySigner{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the account that signatures recover to.
func (s *PrivateKeySigner) Address() common.Address {
	if s == nil {
		return common.Address{}
	}
	return s.address
}

// SignTypedData hashes td per EIP-712 and returns a 0x-prefixed 65-byte
// signature with v in {27, 28}.
func (s *PrivateKeySigner) SignTypedData(td apitypes.TypedData) (string, error) {
	if s == nil || s.privateKey == nil {
		return "", errors.New("variational: signer not initialised")
	}
	digest, err := typedDataHash(td)
	if err != nil {
		return "", err
	}
	sig, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return "", fmt.Errorf("variational: sign typed data: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

func typedDataHash(td apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("variational: hash domain: %w", err)
	}
	messageHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, fmt.Errorf("variational: hash %s: %w", td.PrimaryType, err)
	}
	raw := make([]byte, 0, 2+len(domainSeparator)+len(messageHash))
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator...)
	raw = append(raw, messageHash...)
	return crypto.Keccak256(raw), nil
}
