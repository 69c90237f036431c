package walletclient

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318" // gitleaks:allow

func newTestSigner(t *testing.T, upstream Provider) *LocalSigner {
	t.Helper()
	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	return NewLocalSigner(key, Base, upstream)
}

// recorder captures requests and answers from a fixed table.
type recorder struct {
	methods []string
	params  [][]any
	results map[string]any
	errs    map[string]error
}

func (r *recorder) Request(_ context.Context, method string, params ...any) (json.RawMessage, error) {
	r.methods = append(r.methods, method)
	r.params = append(r.params, params)
	if err := r.errs[method]; err != nil {
		return nil, err
	}
	return json.Marshal(r.results[method])
}

func TestNew_NilProvider(t *testing.T) {
	t.Parallel()
	_, err := New(nil, Mainnet)
	require.ErrorIs(t, err, ErrNilProvider)
}

func TestClient_GetAddresses(t *testing.T) {
	t.Parallel()

	rec := &recorder{results: map[string]any{
		"eth_accounts": []string{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"},
	}}
	c, err := New(rec, Mainnet)
	require.NoError(t, err)

	addrs, err := c.GetAddresses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}, addrs)
	assert.Equal(t, []string{"eth_accounts"}, rec.methods)
}

func TestClient_GetAddresses_Invalid(t *testing.T) {
	t.Parallel()

	rec := &recorder{results: map[string]any{"eth_accounts": []string{"not-an-address"}}}
	c, err := New(rec, Mainnet)
	require.NoError(t, err)

	_, err = c.GetAddresses(context.Background())
	require.ErrorIs(t, err, wserr.ErrInvalidAddress)
}

func TestClient_RequestAddresses_Rejected(t *testing.T) {
	t.Parallel()

	rec := &recorder{errs: map[string]error{
		"eth_requestAccounts": &ProviderError{Code: CodeUserRejected, Message: "User rejected the request."},
	}}
	c, err := New(rec, Mainnet)
	require.NoError(t, err)

	_, err = c.RequestAddresses(context.Background())
	require.ErrorIs(t, err, wserr.ErrRequestRejected)
}

func TestClient_ChainID(t *testing.T) {
	t.Parallel()

	rec := &recorder{results: map[string]any{"eth_chainId": "0x2105"}}
	c, err := New(rec, Base)
	require.NoError(t, err)

	id, err := c.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8453), id)
	assert.Equal(t, Base, c.Chain())
}

func TestClient_SignMessage_SendsPersonalSign(t *testing.T) {
	t.Parallel()

	const account = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	rec := &recorder{results: map[string]any{"personal_sign": "0x" + strings.Repeat("ab", 65)}}
	c, err := New(rec, Mainnet)
	require.NoError(t, err)

	sig, err := c.SignMessage(context.Background(), account, "hello")
	require.NoError(t, err)
	assert.Equal(t, "0x"+strings.Repeat("ab", 65), sig)

	require.Len(t, rec.params, 1)
	assert.Equal(t, []any{hexutil.Encode([]byte("hello")), account}, rec.params[0])
}

func TestClient_SignMessage_InvalidAccount(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c, err := New(rec, Mainnet)
	require.NoError(t, err)

	_, err = c.SignMessage(context.Background(), "0x123", "hello")
	require.ErrorIs(t, err, wserr.ErrInvalidAddress)
	assert.Empty(t, rec.methods)
}

func TestClient_SignMessage_BadSignature(t *testing.T) {
	t.Parallel()

	rec := &recorder{results: map[string]any{"personal_sign": "nope"}}
	c, err := New(rec, Mainnet)
	require.NoError(t, err)

	_, err = c.SignMessage(context.Background(), "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "hello")
	require.ErrorIs(t, err, wserr.ErrInvalidSignature)
}

func TestLocalSigner_AccountsAndChain(t *testing.T) {
	t.Parallel()
	s := newTestSigner(t, nil)

	c, err := New(s, Base)
	require.NoError(t, err)

	addrs, err := c.GetAddresses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{s.Address()}, addrs)

	addrs, err = c.RequestAddresses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{s.Address()}, addrs)

	id, err := c.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Base.ID, id)
}

func TestLocalSigner_SignAndVerify(t *testing.T) {
	t.Parallel()
	s := newTestSigner(t, nil)

	c, err := New(s, Base)
	require.NoError(t, err)

	sig, err := c.SignMessage(context.Background(), s.Address(), "Sign in to Showtime")
	require.NoError(t, err)

	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	require.Len(t, raw, 65)
	assert.Contains(t, []byte{27, 28}, raw[64])

	ok, err := VerifyMessage(s.Address(), "Sign in to Showtime", sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyMessage(s.Address(), "something else", sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalSigner_Deterministic(t *testing.T) {
	t.Parallel()
	s := newTestSigner(t, nil)

	a, err := s.SignText([]byte("same"))
	require.NoError(t, err)
	b, err := s.SignText([]byte("same"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLocalSigner_PersonalSign_Errors(t *testing.T) {
	t.Parallel()
	s := newTestSigner(t, nil)
	ctx := context.Background()

	_, err := s.Request(ctx, "personal_sign")
	require.ErrorIs(t, err, wserr.ErrInvalidInput)

	_, err = s.Request(ctx, "personal_sign", "0x68656c6c6f", "bogus")
	require.ErrorIs(t, err, wserr.ErrInvalidInput)

	_, err = s.Request(ctx, "personal_sign", "0x68656c6c6f", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodeUnauthorized, pe.Code)
	require.ErrorIs(t, err, wserr.ErrRequestRejected)
}

func TestLocalSigner_Forwarding(t *testing.T) {
	t.Parallel()

	t.Run("no upstream", func(t *testing.T) {
		t.Parallel()
		s := newTestSigner(t, nil)
		_, err := s.Request(context.Background(), "eth_blockNumber")
		require.ErrorIs(t, err, wserr.ErrUnsupportedMethod)
	})

	t.Run("upstream", func(t *testing.T) {
		t.Parallel()
		up := &recorder{results: map[string]any{"eth_blockNumber": "0x10"}}
		s := newTestSigner(t, up)

		raw, err := s.Request(context.Background(), "eth_blockNumber")
		require.NoError(t, err)
		assert.JSONEq(t, `"0x10"`, string(raw))
		assert.Equal(t, []string{"eth_blockNumber"}, up.methods)
	})
}

func TestDecodeMessageParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"0x68656c6c6f", "hello"},
		{"hello", "hello"},
		{"0xzz", "0xzz"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(DecodeMessageParam(tt.in)))
		})
	}
}

func TestRecoverAddress_Errors(t *testing.T) {
	t.Parallel()

	_, err := RecoverAddress("msg", "0x1234")
	require.ErrorIs(t, err, wserr.ErrInvalidSignature)

	_, err = RecoverAddress("msg", "garbage")
	require.ErrorIs(t, err, wserr.ErrInvalidSignature)

	_, err = VerifyMessage("bogus", "msg", "0x")
	require.ErrorIs(t, err, wserr.ErrInvalidAddress)
}

func TestRecoverAddress_AcceptsZeroOneV(t *testing.T) {
	t.Parallel()
	s := newTestSigner(t, nil)

	sig, err := s.SignText([]byte("v offset"))
	require.NoError(t, err)
	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	raw[64] -= 27

	addr, err := RecoverAddress("v offset", hexutil.Encode(raw))
	require.NoError(t, err)
	assert.Equal(t, s.Address(), addr)
}

func TestProviderError_Unwrap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want error
	}{
		{CodeUserRejected, wserr.ErrRequestRejected},
		{CodeUnauthorized, wserr.ErrRequestRejected},
		{CodeUnsupportedMethod, wserr.ErrUnsupportedMethod},
		{CodeMethodNotFound, wserr.ErrUnsupportedMethod},
		{CodeDisconnected, wserr.ErrNotConnected},
		{CodeInvalidParams, wserr.ErrInvalidInput},
	}
	for _, tt := range tests {
		err := &ProviderError{Code: tt.code, Message: "x"}
		assert.ErrorIs(t, err, tt.want, tt.code)
	}

	assert.NoError(t, errors.Unwrap(&ProviderError{Code: -32000, Message: "execution reverted"}))
	assert.Equal(t, "provider error 4001: denied", (&ProviderError{Code: 4001, Message: "denied"}).Error())
}

func TestChain(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "0x1", Mainnet.HexID())
	assert.Equal(t, "0x2105", Base.HexID())
	assert.Equal(t, "base (8453)", Base.String())
	assert.Equal(t, "chain 10", Chain{ID: 10}.String())
}
