package core

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"wardwatch/pkg/domain"
)

// verificationCode is the fixed second-factor code accepted for every unit
// until an SMS provider is integrated.
const verificationCode = "123456"

// Login resolves a unit by email as the first step of the two-step login.
// The returned unit lets callers display the account before code entry.
func (s *Service) Login(ctx context.Context, email string) (domain.Unit, error) {
	var unit domain.Unit
	err := s.instrument(ctx, "login", func(ctx context.Context) error {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized == "" {
			return domain.ValidationError{Field: "email", Reason: "must not be empty"}
		}
		found, ok := s.store.FindUnitByEmail(normalized)
		if !ok {
			return domain.ValidationError{Field: "email", Reason: "no unit registered for this address"}
		}
		unit = found
		return nil
	})
	return unit, err
}

// VerifyCode completes the login, creating a persistent session on success.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (domain.Session, error) {
	var session domain.Session
	err := s.instrument(ctx, "verify_code", func(ctx context.Context) error {
		unit, err := s.Login(ctx, email)
		if err != nil {
			return err
		}
		if code != verificationCode {
			return domain.ValidationError{Field: "code", Reason: "verification code mismatch"}
		}
		_, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			session = domain.Session{
				Token:     uuid.NewString(),
				UnitID:    unit.ID,
				CreatedAt: s.nowFn(),
			}
			tx.PutSession(session)
			audit(tx, unit.ID, "login", unit.ID, "")
			return nil
		})
		return err
	})
	return session, err
}

// Logout removes the session for the given token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.instrument(ctx, "logout", func(ctx context.Context) error {
		session, ok := s.store.FindSession(token)
		if !ok {
			return nil
		}
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			tx.DeleteSession(token)
			audit(tx, session.UnitID, "logout", session.UnitID, "")
			return nil
		})
		return err
	})
}

// ActorFromToken resolves the unit behind a session token. Every workflow
// operation takes the resolved actor explicitly; there is no ambient
// current-user state.
func (s *Service) ActorFromToken(token string) (domain.Unit, error) {
	session, ok := s.store.FindSession(token)
	if !ok {
		return domain.Unit{}, domain.ErrNoSession
	}
	unit, ok := s.store.FindUnit(session.UnitID)
	if !ok {
		return domain.Unit{}, domain.ErrNoSession
	}
	return unit, nil
}
