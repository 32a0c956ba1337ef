// Package krakenauth implements Kraken's private API request signing.
//
// A private request carries two headers: API-Key with the public key and API-Sign with
//
//	base64( HMAC-SHA512( base64decode(secret), path + SHA256(nonce + body) ) )
//
// where body is the exact url-encoded POST body that is sent, nonce included.
package krakenauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// DecodeSecret decodes the base64 API secret into the HMAC key.
func DecodeSecret(secret string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(secret))
	if err != nil {
		return nil, errors.Wrap(err, "api secret is not valid base64")
	}
	if len(key) == 0 {
		return nil, errors.New("api secret is empty")
	}
	return key, nil
}

// Sign returns the API-Sign value for a request.
func Sign(secret []byte, nonce, body, path string) string {
	sum := sha256.Sum256([]byte(nonce + body))

	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(path))
	mac.Write(sum[:])

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Field one key/value pair of a request body.
type Field struct {
	Key   string
	Value string
}

// Form an ordered request body. Unlike url.Values it keeps insertion order, so the
// encoded string is stable and identical to what gets hashed.
type Form []Field

// Add appends a field.
func (f Form) Add(key, value string) Form {
	return append(f, Field{Key: key, Value: value})
}

// Get returns the first value for key.
func (f Form) Get(key string) string {
	for _, field := range f {
		if field.Key == key {
			return field.Value
		}
	}
	return ""
}

// Encode joins the fields as key=value pairs separated by '&' in insertion order.
func (f Form) Encode() string {
	var b strings.Builder
	for i, field := range f {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(field.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(field.Value))
	}
	return b.String()
}

// SignedRequest a private request ready to send.
type SignedRequest struct {
	Path      string
	Body      string
	Nonce     string
	Signature string
}

// NewSignedRequest prepends the nonce to form and signs the encoded body.
func NewSignedRequest(secret []byte, path, nonce string, form Form) SignedRequest {
	body := append(Form{{Key: "nonce", Value: nonce}}, form...).Encode()
	return SignedRequest{
		Path:      path,
		Body:      body,
		Nonce:     nonce,
		Signature: Sign(secret, nonce, body, path),
	}
}
