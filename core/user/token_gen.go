package user

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core"
)

var (
	tokenSalt  = []byte("coursedash.core.user.token_gen")
	tokenEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	tsEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// tokenGenerator makes password reset tokens of the form "<base32 hours since 2001>-<signature>".
// A token stops working once the user's password or last login changes.
type tokenGenerator struct {
	key     [sha256.Size]byte
	timeout time.Duration
	now     func() time.Time // mockable
}

func newTokenGenerator(secretKey string, timeout time.Duration) *tokenGenerator {
	seed := make([]byte, 0, len(tokenSalt)+len(secretKey))
	seed = append(seed, tokenSalt...)
	seed = append(seed, secretKey...)
	return &tokenGenerator{
		key:     sha256.Sum256(seed),
		timeout: timeout,
		now:     func() time.Time { return core.NowFunc() },
	}
}

// EncodeUID base64 encodes the ID of usr.
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

func decodeUID(uid string) (string, error) {
	id, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", err
	}
	return string(id), nil
}

func (gen *tokenGenerator) makeToken(usr User) string {
	return gen.makeTokenWithTimestamp(usr, hoursSinceEpoch(gen.now()))
}

func (gen *tokenGenerator) verifyToken(usr User, token string) error {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return errInvalidToken
	}
	raw, err := tsEncoding.DecodeString(parts[0])
	if err != nil {
		return errInvalidToken
	}
	ts, err := strconv.Atoi(string(raw))
	if err != nil {
		return errInvalidToken
	}

	if subtle.ConstantTimeCompare([]byte(gen.makeTokenWithTimestamp(usr, ts)), []byte(token)) == 0 {
		return errInvalidToken
	}
	if hoursSinceEpoch(gen.now())-ts > int(gen.timeout/time.Hour) {
		return errTokenExpired
	}
	return nil
}

func (gen *tokenGenerator) makeTokenWithTimestamp(usr User, ts int) string {
	var val bytes.Buffer
	val.WriteString(usr.ID)
	val.Write(usr.PasswordHash)
	if !usr.LastLogin.IsZero() {
		val.WriteString(usr.LastLogin.UTC().Format(time.RFC3339Nano))
	}
	val.WriteString(strconv.Itoa(ts))

	h := hmac.New(sha256.New, gen.key[:])
	_, _ = h.Write(val.Bytes())
	return tsEncoding.EncodeToString([]byte(strconv.Itoa(ts))) + "-" + base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func hoursSinceEpoch(t time.Time) int {
	return int(t.Sub(tokenEpoch) / time.Hour)
}
