package variational

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/variational-research/variational-go/pkg/variational/models"
)

// PermitHelper generates, signs and submits transfer permits for one wallet.
type PermitHelper struct {
	client *Client
	signer *PrivateKeySigner
}

func NewPermitHelper(client *Client, signer *PrivateKeySigner) (*PermitHelper, error) {
	if client == nil || signer == nil {
		return nil, fmt.Errorf("variational: permit helper requires a client and a signer")
	}
	return &PermitHelper{client: client, signer: signer}, nil
}

// SignAndSubmit requests a permit template for the pool, signs it and submits
// the signature. The submitted message carries domain.chainId as an integer.
func (h *PermitHelper) SignAndSubmit(ctx context.Context, req PermitRequest) (*Single[bool], error) {
	template, err := h.client.GenerateTransferPermit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("variational: generate permit: %w", err)
	}
	message, signature, err := SignPermit(template.Result, h.signer)
	if err != nil {
		return nil, err
	}
	return h.client.SubmitTransferPermit(ctx, message, signature)
}

// SignPermit normalises the template's chain id and signs it as EIP-712 typed
// data. It returns the normalised message alongside the signature.
func SignPermit(template PermitTemplate, signer *PrivateKeySigner) (PermitTemplate, string, error) {
	message, err := normalisePermit(template)
	if err != nil {
		return nil, "", err
	}
	encoded, err := json.Marshal(message)
	if err != nil {
		return nil, "", fmt.Errorf("variational: encode permit: %w", err)
	}
	var td apitypes.TypedData
	if err := json.Unmarshal(encoded, &td); err != nil {
		return nil, "", fmt.Errorf("variational: decode permit typed data: %w", err)
	}
	signature, err := signer.SignTypedData(td)
	if err != nil {
		return nil, "", err
	}
	return message, signature, nil
}

// normalisePermit copies the template and rewrites domain.chainId from a hex
// string to an integer.
func normalisePermit(template PermitTemplate) (PermitTemplate, error) {
	if len(template) == 0 {
		return nil, fmt.Errorf("variational: empty permit template")
	}
	domain, ok := template["domain"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("variational: permit template has no domain")
	}
	chainID, err := parseChainID(domain["chainId"])
	if err != nil {
		return nil, err
	}

	out := make(PermitTemplate, len(template))
	for k, v := range template {
		out[k] = v
	}
	domainCopy := make(map[string]any, len(domain))
	for k, v := range domain {
		domainCopy[k] = v
	}
	domainCopy["chainId"] = json.Number(chainID.String())
	out["domain"] = domainCopy
	return out, nil
}

func parseChainID(raw any) (*big.Int, error) {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s, base = s[2:], 16
		}
		id, ok := new(big.Int).SetString(s, base)
		if !ok {
			return nil, fmt.Errorf("variational: invalid permit chainId %q", v)
		}
		return id, nil
	case float64:
		return big.NewInt(int64(v)), nil
	case json.Number:
		id, ok := new(big.Int).SetString(v.String(), 10)
		if !ok {
			return nil, fmt.Errorf("variational: invalid permit chainId %q", v)
		}
		return id, nil
	default:
		return nil, fmt.Errorf("variational: permit chainId has unexpected type %T", raw)
	}
}

// Permit builds a PermitRequest for an allowance on the given pool.
func Permit(pool models.SettlementPoolData, allowance models.Allowance, secondsUntilExpiry *int) (PermitRequest, error) {
	if pool.PoolAddress == nil {
		return PermitRequest{}, fmt.Errorf("variational: settlement pool %q has no on-chain address yet", pool.PoolName)
	}
	return PermitRequest{
		PoolAddress:        *pool.PoolAddress,
		Allowance:          allowance,
		SecondsUntilExpiry: secondsUntilExpiry,
	}, nil
}
