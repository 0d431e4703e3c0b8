package user

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"time"

	"github.com/pkg/errors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	verificationSalt = []byte("elimu.core.user.verification")

	ErrInvalidCode     = errors.New("invalid or expired verification code")
	ErrAlreadyVerified = errors.New("email already verified")
)

// verificationCoder derives stateless 6-digit email verification codes (TOTP).
// The per-user secret is bound to the user ID and the email, the period is `timeout`.
// The code of the previous period is still accepted, so a code lives between timeout and 2*timeout.
type verificationCoder struct {
	secret  []byte
	timeout time.Duration
	now     func() time.Time
}

func (vc verificationCoder) opts() totp.ValidateOpts {
	period := uint(vc.timeout / time.Second)
	if period == 0 {
		period = 1
	}
	return totp.ValidateOpts{
		Period:    period,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA256,
	}
}

// userSecret is the base32 TOTP secret of usr.
func (vc verificationCoder) userSecret(usr User) string {
	key := sha256.Sum256(append(append([]byte{}, verificationSalt...), vc.secret...))
	h := hmac.New(sha256.New, key[:])
	h.Write([]byte(usr.ID))
	h.Write([]byte{0})
	h.Write([]byte(usr.Email))
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(h.Sum(nil))
}

func (vc verificationCoder) makeCode(usr User) string {
	code, err := totp.GenerateCodeCustom(vc.userSecret(usr), vc.now(), vc.opts())
	if err != nil { // only on a malformed secret, which userSecret never yields
		return ""
	}
	return code
}

func (vc verificationCoder) verify(usr User, code string) error {
	if len(code) != 6 {
		return ErrInvalidCode
	}
	secret, opts := vc.userSecret(usr), vc.opts()
	now := vc.now()
	for _, t := range []time.Time{now, now.Add(-time.Duration(opts.Period) * time.Second)} {
		want, err := totp.GenerateCodeCustom(secret, t, opts)
		if err != nil {
			return ErrInvalidCode
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 {
			return nil
		}
	}
	return ErrInvalidCode
}
