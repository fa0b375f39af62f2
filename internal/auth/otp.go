package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTP challenge errors.  Handlers map these onto the portal's error
// taxonomy: ErrOTPCooldown and ErrOTPUnavailable surface as delivery
// failures at request time, ErrOTPInvalid as an invalid challenge at
// verification time.
var (
	// ErrOTPCooldown is returned when a code was requested again before
	// the per-email cooldown elapsed.
	ErrOTPCooldown = errors.New("otp requested too recently")
	// ErrOTPInvalid is returned for a wrong, expired or already-consumed
	// code.  Verification never reveals which of the three it was.
	ErrOTPInvalid = errors.New("invalid otp")
	// ErrOTPUnavailable is returned when no challenge store is configured,
	// so codes can neither be issued nor verified.
	ErrOTPUnavailable = errors.New("otp store unavailable")
)

// challengeCmds is the slice of the Redis API the store actually uses.
// *redis.Client satisfies it; tests substitute an in-memory fake.
type challengeCmds interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// OTPStore keeps pending login challenges in Redis.  A challenge is a
// random six digit code stored under otp:code:<email> with the configured
// TTL, so expiry needs no sweeper.  A second key, otp:cooldown:<email>,
// throttles how often one email can request a code.  Nothing about a
// challenge is persisted after it is consumed.
type OTPStore struct {
	rdb      challengeCmds // nil when Redis is down; all ops fail closed
	ttl      time.Duration // validity window of an issued code
	cooldown time.Duration // minimum gap between two issues for one email
}

// NewOTPStore builds an OTPStore over the shared Redis client.  A nil
// client leaves the store disabled rather than wrapping a typed nil.
func NewOTPStore(rdb *redis.Client, ttl, cooldown time.Duration) *OTPStore {
	s := &OTPStore{ttl: ttl, cooldown: cooldown}
	if rdb != nil {
		s.rdb = rdb
	}
	return s
}

func codeKey(email string) string     { return "otp:code:" + email }
func cooldownKey(email string) string { return "otp:cooldown:" + email }

// Issue generates a fresh challenge for the email and returns the code so
// the caller can hand it to the mail pipeline.  The code is written before
// the caller attempts delivery; re-issuing within the TTL simply replaces
// the previous code, which keeps "resend" semantics simple.  The cooldown
// key is set with NX so only the first request in the window wins.
func (s *OTPStore) Issue(ctx context.Context, email string) (string, error) {
	if s.rdb == nil {
		return "", ErrOTPUnavailable
	}
	ok, err := s.rdb.SetNX(ctx, cooldownKey(email), 1, s.cooldown).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrOTPCooldown
	}
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, codeKey(email), code, s.ttl).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// ReleaseCooldown drops the cooldown key for an email.  Callers use it
// when delivery of an issued code failed outright, so the client is not
// forced to sit out the full cooldown for a mail that never left.
func (s *OTPStore) ReleaseCooldown(ctx context.Context, email string) error {
	if s.rdb == nil {
		return ErrOTPUnavailable
	}
	return s.rdb.Del(ctx, cooldownKey(email)).Err()
}

// Verify checks the submitted code against the pending challenge and
// consumes it on success.  A wrong attempt leaves the challenge in place
// (the user may simply have mistyped), but once a code verifies it is
// deleted, so a second use of the same code fails with ErrOTPInvalid.
func (s *OTPStore) Verify(ctx context.Context, email, code string) error {
	if s.rdb == nil {
		return ErrOTPUnavailable
	}
	stored, err := s.rdb.Get(ctx, codeKey(email)).Result()
	if err == redis.Nil {
		return ErrOTPInvalid // never issued, expired or already consumed
	}
	if err != nil {
		return err
	}
	if stored != code {
		return ErrOTPInvalid
	}
	if err := s.rdb.Del(ctx, codeKey(email)).Err(); err != nil {
		return err
	}
	return nil
}

// randomCode returns a uniformly random six digit code as a string.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
