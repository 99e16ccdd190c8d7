// Package webhook verifies identity provider webhook deliveries and decodes
// their envelope. Signing follows the Svix scheme the provider uses:
// base64(HMAC-SHA256(secret, id + "." + timestamp + "." + body)).
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"

	secretPrefix     = "whsec_"
	signatureVersion = "v1"

	DefaultTolerance = 5 * time.Minute
)

var (
	ErrVerification            = errors.New("webhook verification failed")
	ErrMissingHeaders          = fmt.Errorf("%w: missing signature headers", ErrVerification)
	ErrInvalidTimestamp        = fmt.Errorf("%w: invalid timestamp", ErrVerification)
	ErrTimestampOutOfTolerance = fmt.Errorf("%w: timestamp outside tolerance", ErrVerification)
	ErrNoMatchingSignature     = fmt.Errorf("%w: no matching signature", ErrVerification)
)

// Verifier checks that a delivery was signed with the shared secret and is
// recent enough. It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier accepts the secret as shown in the provider dashboard
// ("whsec_" followed by base64). Secrets that are not valid base64 are used
// as raw bytes.
func NewVerifier(secret string, tolerance time.Duration) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is required")
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	raw := strings.TrimPrefix(secret, secretPrefix)
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		key = []byte(raw)
	}
	if len(key) == 0 {
		return nil, errors.New("webhook secret has no key material")
	}
	return &Verifier{key: key, tolerance: tolerance, now: time.Now}, nil
}

// Verify checks headers against the raw, unparsed request body.
func (v *Verifier) Verify(body []byte, headers http.Header) error {
	id := firstHeader(headers, HeaderID, "webhook-id")
	ts := firstHeader(headers, HeaderTimestamp, "webhook-timestamp")
	sigs := firstHeader(headers, HeaderSignature, "webhook-signature")
	if id == "" || ts == "" || sigs == "" {
		return ErrMissingHeaders
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	sent := time.Unix(unix, 0)
	now := v.now()
	if sent.Before(now.Add(-v.tolerance)) || sent.After(now.Add(v.tolerance)) {
		return ErrTimestampOutOfTolerance
	}

	expected := v.sign(id, ts, body)
	for _, candidate := range strings.Fields(sigs) {
		version, sig, ok := strings.Cut(candidate, ",")
		if !ok || version != signatureVersion {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(got, expected) {
			return nil
		}
	}
	return ErrNoMatchingSignature
}

// Sign returns a signature header value for body, as the provider would send it.
func (v *Verifier) Sign(id string, ts time.Time, body []byte) string {
	sig := v.sign(id, strconv.FormatInt(ts.Unix(), 10), body)
	return signatureVersion + "," + base64.StdEncoding.EncodeToString(sig)
}

// Headers builds the full header set for a delivery of body.
func (v *Verifier) Headers(id string, ts time.Time, body []byte) http.Header {
	h := http.Header{}
	h.Set(HeaderID, id)
	h.Set(HeaderTimestamp, strconv.FormatInt(ts.Unix(), 10))
	h.Set(HeaderSignature, v.Sign(id, ts, body))
	return h
}

func (v *Verifier) sign(id, ts string, body []byte) []byte {
	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}

func firstHeader(h http.Header, names ...string) string {
	for _, name := range names {
		if v := h.Get(name); v != "" {
			return v
		}
	}
	return ""
}
