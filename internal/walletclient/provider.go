// Package walletclient binds an EIP-1193 style provider to a chain and
// exposes the account and signing calls wallet sessions need.
package walletclient

import (
	"context"
	"encoding/json"
	"fmt"

	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

// Provider is a request-based wallet transport in the EIP-1193 shape.
type Provider interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, method string, params ...any) (json.RawMessage, error)

// Request calls f.
func (f ProviderFunc) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	return f(ctx, method, params...)
}

// Provider error codes from EIP-1193 and JSON-RPC 2.0.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
	CodeMethodNotFound    = -32601
	CodeInvalidParams     = -32602
)

// ProviderError is an error object returned by a provider.
type ProviderError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// Unwrap maps well-known codes onto the shared sentinels so callers can use
// errors.Is(err, errors.ErrRequestRejected) without caring about the transport.
func (e *ProviderError) Unwrap() error {
	switch e.Code {
	case CodeUserRejected, CodeUnauthorized:
		return wserr.ErrRequestRejected
	case CodeUnsupportedMethod, CodeMethodNotFound:
		return wserr.ErrUnsupportedMethod
	case CodeDisconnected, CodeChainDisconnected:
		return wserr.ErrNotConnected
	case CodeInvalidParams:
		return wserr.ErrInvalidInput
	default:
		return nil
	}
}

func unsupported(method string) error {
	return &ProviderError{Code: CodeUnsupportedMethod, Message: "method not supported: " + method}
}

func invalidParams(msg string) error {
	return &ProviderError{Code: CodeInvalidParams, Message: msg}
}

func stringParam(params []any, i int) (string, bool) {
	if i >= len(params) {
		return "", false
	}
	switch v := params[i].(type) {
	case string:
		return v, true
	case json.RawMessage:
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false
		}
		return s, true
	default:
		return "", false
	}
}

func marshalResult(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}
