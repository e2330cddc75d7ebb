package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MaxInitDataAge bounds how old auth_date may be.
const MaxInitDataAge = time.Hour

// clock skew tolerated for auth_date in the future
const maxFutureSkew = 5 * time.Minute

var (
	ErrInvalidInitData = errors.New("invalid telegram init data")
	ErrStaleInitData   = errors.New("stale telegram init data")
)

// ValidateInitData verifies Telegram WebApp init_data HMAC and checks
// that the auth_date is recent (within 1 hour) to mitigate replay attacks.
func ValidateInitData(initData, botToken string) (url.Values, error) {
	return ValidateInitDataAt(initData, botToken, time.Now())
}

func ValidateInitDataAt(initData, botToken string, now time.Time) (url.Values, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrInvalidInitData
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrInvalidInitData
	}
	values.Del("hash")

	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, ErrInvalidInitData
	}
	if !hmac.Equal(signInitData(values, botToken), provided) {
		return nil, ErrInvalidInitData
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, ErrInvalidInitData
	}
	age := now.Sub(time.Unix(authDate, 0))
	if age > MaxInitDataAge || age < -maxFutureSkew {
		return nil, ErrStaleInitData
	}

	return values, nil
}

// signInitData computes the WebApp signature: the data-check string is the
// sorted key=value pairs joined by newlines, keyed with
// HMAC_SHA256("WebAppData", botToken).
func signInitData(values url.Values, botToken string) []byte {
	var dataCheck []string
	for k, v := range values {
		if k == "hash" {
			continue
		}
		dataCheck = append(dataCheck, k+"="+strings.Join(v, ""))
	}
	sort.Strings(dataCheck)

	key := hmac.New(sha256.New, []byte("WebAppData"))
	key.Write([]byte(botToken))

	h := hmac.New(sha256.New, key.Sum(nil))
	h.Write([]byte(strings.Join(dataCheck, "\n")))
	return h.Sum(nil)
}

// SignInitData builds a signed init_data query string. Used by tools and
// tests that need to talk to /api/v1/auth.
func SignInitData(values url.Values, botToken string) string {
	out := url.Values{}
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}
	out.Del("hash")
	out.Set("hash", hex.EncodeToString(signInitData(out, botToken)))
	return out.Encode()
}
