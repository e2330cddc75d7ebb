package telegram

import (
	"encoding/json"
	"errors"
	"net/url"

	"avatar_bot/internal/domain"
)

type WebAppUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LanguageCode string `json:"language_code"`
}

// ParseUser decodes the user field of validated init data.
func ParseUser(values url.Values) (*WebAppUser, error) {
	raw := values.Get("user")
	if raw == "" {
		return nil, errors.New("init data has no user")
	}

	var user WebAppUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	if user.ID <= 0 {
		return nil, errors.New("init data user has no id")
	}
	return &user, nil
}

// StartReferrer returns the referrer encoded in start_param ("ref_<id>"),
// or 0.
func StartReferrer(values url.Values) int64 {
	return domain.ParseReferralPayload(values.Get("start_param"))
}
