package verification

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/angelmondragon/tradelink-backend/internal/notifications"
	"github.com/angelmondragon/tradelink-backend/pkg/config"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/security"
)

// Failure reasons reported in error details.
const (
	ReasonNoCode          = "no_code_issued"
	ReasonMismatch        = "mismatch"
	ReasonTooManyAttempts = "too_many_attempts"
)

const codeDigits = 6

// Service issues and checks email verification codes for accounts that do
// not exist yet.
type Service interface {
	Issue(ctx context.Context, email string) (*Issued, error)
	Verify(ctx context.Context, email, code string) error
}

// Issued reports when the sent code stops working.
type Issued struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type dispatcher interface {
	Dispatch(ctx context.Context, msg notifications.Message)
}

// ServiceParams groups the verification service collaborators.
type ServiceParams struct {
	Store      Store
	Dispatcher dispatcher
	Config     config.VerificationConfig
	Hashing    config.PasswordConfig
	Logger     *logger.Logger
}

type service struct {
	store       Store
	dispatcher  dispatcher
	ttl         time.Duration
	maxAttempts int
	hashing     config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
	generate    func() (string, error)
}

// NewService wires the verification service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("verification store required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := params.Config.CodeTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	maxAttempts := params.Config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &service{
		store:       params.Store,
		dispatcher:  params.Dispatcher,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		hashing:     params.Hashing,
		logg:        params.Logger,
		now:         time.Now,
		generate:    func() (string, error) { return security.NumericCode(codeDigits) },
	}, nil
}

func (s *service) Issue(ctx context.Context, email string) (*Issued, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	code, err := s.generate()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification code")
	}
	hash, err := security.HashSecret(code, s.hashing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash verification code")
	}
	expires := s.now().UTC().Add(s.ttl)
	if err := s.store.Put(ctx, email, Record{Hash: hash, ExpiresAt: expires}, s.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "store verification code")
	}

	s.dispatcher.Dispatch(ctx, notifications.Message{
		Kind:      enums.NotificationKindEmailVerification,
		Recipient: email,
		Data: map[string]any{
			"code":       code,
			"expires_at": expires.Format(time.RFC3339),
		},
	})
	s.logg.Info(s.logg.WithField(ctx, "email", email), "verification code issued")
	return &Issued{Email: email, ExpiresAt: expires}, nil
}

func (s *service) Verify(ctx context.Context, email, code string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "code required")
	}

	rec, err := s.store.Get(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return conflict("no active verification code", ReasonNoCode)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "load verification code")
	}
	if rec.Attempts >= s.maxAttempts {
		s.discard(ctx, email)
		return conflict("too many attempts, request a new code", ReasonTooManyAttempts)
	}

	ok, err := security.VerifySecret(code, rec.Hash)
	if err != nil {
		s.discard(ctx, email)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verification record corrupt")
	}
	if ok {
		if err := s.store.Delete(ctx, email); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStore, err, "consume verification code")
		}
		return nil
	}

	rec.Attempts++
	if rec.Attempts >= s.maxAttempts {
		s.discard(ctx, email)
		return conflict("too many attempts, request a new code", ReasonTooManyAttempts)
	}
	if err := s.store.Update(ctx, email, *rec); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "record failed attempt")
	}
	return conflict("verification code does not match", ReasonMismatch)
}

func (s *service) discard(ctx context.Context, email string) {
	if err := s.store.Delete(ctx, email); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "email", email), "failed to discard verification code", err)
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "valid email required")
	}
	return email, nil
}

func conflict(msg, reason string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, msg).WithReason(reason)
}
