package modal

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/showtime-xyz/walletsession/internal/seal"
)

// PairingTTL is how long a pairing URI stays valid.
const PairingTTL = 5 * time.Minute

// RelayProtocol is advertised in every pairing URI.
const RelayProtocol = "irn"

// Pairing is one connect attempt shown to the user.
type Pairing struct {
	Topic     string    `json:"topic"`
	SymKey    string    `json:"-"`
	Relay     string    `json:"relay,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewPairing creates a pairing with a random topic and symmetric key.
func NewPairing(relay string, now time.Time) (Pairing, error) {
	key, err := seal.RandomBytes(32)
	if err != nil {
		return Pairing{}, fmt.Errorf("generating pairing key: %w", err)
	}
	defer seal.Zero(key)

	return Pairing{
		Topic:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		SymKey:    hex.EncodeToString(key),
		Relay:     relay,
		ExpiresAt: now.Add(PairingTTL),
	}, nil
}

// URI renders the pairing as a wc: URI.
func (p Pairing) URI() string {
	q := url.Values{}
	q.Set("relay-protocol", RelayProtocol)
	q.Set("symKey", p.SymKey)
	q.Set("expiryTimestamp", strconv.FormatInt(p.ExpiresAt.Unix(), 10))
	if p.Relay != "" {
		q.Set("relay-url", p.Relay)
	}
	return fmt.Sprintf("wc:%s@2?%s", p.Topic, q.Encode())
}
