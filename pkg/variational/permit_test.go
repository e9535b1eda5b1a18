package variational

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/variational-research/variational-go/pkg/variational/models"
	"github.com/variational-research/variational-go/pkg/variational/vartest"
)

const testPrivateKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func permitTemplate() map[string]any {
	return map[string]any{
		"types": map[string]any{
			"EIP712Domain": []map[string]any{
				{"name": "name", "type": "string"},
				{"name": "version", "type": "string"},
				{"name": "chainId", "type": "uint256"},
				{"name": "verifyingContract", "type": "address"},
			},
			"Permit": []map[string]any{
				{"name": "owner", "type": "address"},
				{"name": "spender", "type": "address"},
				{"name": "value", "type": "uint256"},
				{"name": "nonce", "type": "uint256"},
				{"name": "deadline", "type": "uint256"},
			},
		},
		"primaryType": "Permit",
		"domain": map[string]any{
			"name":              "USD Coin",
			"version":           "2",
			"chainId":           "0xa4b1",
			"verifyingContract": "0xaf88d065e77c8cc2239327c5edb3a432268e5831",
		},
		"message": map[string]any{
			"owner":    "0x2c7536e3605d9c16a7a3d7b1898e529396a65c23",
			"spender":  "0x00000000000000000000000000000000000000bb",
			"value":    "1000000",
			"nonce":    "0",
			"deadline": "1714521600",
		},
	}
}

// decodedTemplate round-trips the template through JSON the way it arrives
// from the API.
func decodedTemplate(t *testing.T) PermitTemplate {
	t.Helper()
	raw, err := json.Marshal(permitTemplate())
	require.NoError(t, err)
	var out PermitTemplate
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestParseChainID(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{"0xa4b1", 42161},
		{"0XA4B1", 42161},
		{"42161", 42161},
		{float64(1), 1},
		{json.Number("8453"), 8453},
	}
	for _, tc := range cases {
		got, err := parseChainID(tc.in)
		require.NoError(t, err, "%v", tc.in)
		assert.Equal(t, tc.want, got.Int64())
	}

	_, err := parseChainID("0xzz")
	require.Error(t, err)
	_, err = parseChainID(nil)
	require.Error(t, err)
}

func TestNormalisePermitDoesNotMutateTemplate(t *testing.T) {
	template := decodedTemplate(t)
	out, err := normalisePermit(template)
	require.NoError(t, err)

	assert.Equal(t, "0xa4b1", template["domain"].(map[string]any)["chainId"])
	assert.Equal(t, json.Number("42161"), out["domain"].(map[string]any)["chainId"])

	_, err = normalisePermit(PermitTemplate{"message": map[string]any{}})
	require.Error(t, err)
}

func TestSignPermitRecoversSigner(t *testing.T) {
	signer, err := NewPrivateKeySigner(testPrivateKey)
	require.NoError(t, err)

	message, signature, err := SignPermit(decodedTemplate(t), signer)
	require.NoError(t, err)

	sig, err := hexutil.Decode(signature)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.Contains(t, []byte{27, 28}, sig[crypto.RecoveryIDOffset])

	encoded, err := json.Marshal(message)
	require.NoError(t, err)
	var td apitypes.TypedData
	require.NoError(t, json.Unmarshal(encoded, &td))
	hash, _, err := apitypes.TypedDataAndHash(td)
	require.NoError(t, err)

	sig[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), crypto.PubkeyToAddress(*pub))
}

func TestPermitHelperSignAndSubmit(t *testing.T) {
	srv := vartest.NewServer(t)
	srv.Enqueue(http.MethodPost, "/transfers/permit/template", vartest.Result(permitTemplate()))
	srv.Enqueue(http.MethodPost, "/transfers/permit", vartest.Result(true))
	client, _ := newTestClient(t, srv)
	signer, err := NewPrivateKeySigner(testPrivateKey)
	require.NoError(t, err)

	helper, err := NewPermitHelper(client, signer)
	require.NoError(t, err)

	poolAddr := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	secs := 600
	req, err := Permit(models.SettlementPoolData{PoolName: "desk", PoolAddress: &poolAddr}, models.DecimalAllowance(decimal.RequireFromString("1.5")), &secs)
	require.NoError(t, err)

	ok, err := helper.SignAndSubmit(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, ok.Result)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)

	var templateReq map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Body, &templateReq))
	assert.Equal(t, float64(600), templateReq["seconds_until_expiry"])
	assert.True(t, strings.EqualFold(poolAddr.Hex(), templateReq["pool_address"].(string)))

	var submitted struct {
		Message   map[string]any `json:"message"`
		Signature string         `json:"signature"`
	}
	require.NoError(t, json.Unmarshal(reqs[1].Body, &submitted))
	assert.Equal(t, float64(42161), submitted.Message["domain"].(map[string]any)["chainId"])
	assert.Len(t, submitted.Signature, 2+65*2)
}

func TestPermitRequiresPoolAddress(t *testing.T) {
	_, err := Permit(models.SettlementPoolData{PoolName: "pending"}, models.BaseAllowance(10), nil)
	require.Error(t, err)

	_, err = NewPermitHelper(nil, nil)
	require.Error(t, err)
}
