// Package local implements credentials.Provider on top of an account
// repository. The client uses it over SQLite for offline use and the
// credential server uses it over PostgreSQL.
package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/booksummary/internal/auth"
	"github.com/dmitrijs2005/booksummary/internal/common"
	"github.com/dmitrijs2005/booksummary/internal/credentials"
	"github.com/dmitrijs2005/booksummary/internal/cryptox"
	"github.com/dmitrijs2005/booksummary/internal/forms"
	"github.com/dmitrijs2005/booksummary/internal/logging"
	"github.com/dmitrijs2005/booksummary/internal/models"
	"github.com/google/uuid"
)

const (
	DefaultSessionTTL = 30 * 24 * time.Hour
	DefaultResetTTL   = time.Hour

	resetTokenBytes = 32
)

// AccountStore is the persistence the provider needs.
//
// Contract:
//   - Create returns common.ErrAlreadyExists for a taken email.
//   - ByEmail, ByID and UpdateDisplayName return common.ErrNotFound for a
//     missing account.
type AccountStore interface {
	Create(ctx context.Context, a *models.Account) error
	ByEmail(ctx context.Context, email string) (*models.Account, error)
	ByID(ctx context.Context, id string) (*models.Account, error)
	UpdateDisplayName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	SavePasswordReset(ctx context.Context, p *models.PasswordReset) error
}

// Mailer delivers a password reset token to the account owner.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer "delivers" reset tokens by logging them. It stands in for a
// real mail transport in development.
type LogMailer struct {
	Log logging.Logger
}

func (m LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	m.Log.Info(ctx, "password reset requested", "email", email, "token", token)
	return nil
}

type Option func(*Provider)

// WithSessionStore persists the session issued at sign-in and enables
// CurrentSession and SignOut.
func WithSessionStore(s credentials.SessionStore) Option {
	return func(p *Provider) { p.sessions = s }
}

func WithMailer(m Mailer) Option {
	return func(p *Provider) { p.mailer = m }
}

func WithSessionTTL(d time.Duration) Option {
	return func(p *Provider) { p.sessionTTL = d }
}

func WithResetTTL(d time.Duration) Option {
	return func(p *Provider) { p.resetTTL = d }
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(p *Provider) { p.log = l }
}

// Provider is safe for concurrent use if its AccountStore and SessionStore
// are.
type Provider struct {
	accounts   AccountStore
	sessions   credentials.SessionStore
	mailer     Mailer
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
	log        logging.Logger
}

var (
	_ credentials.Provider       = (*Provider)(nil)
	_ credentials.SessionChecker = (*Provider)(nil)
	_ credentials.SignOuter      = (*Provider)(nil)
)

// New returns a provider that signs sessions with secret.
func New(accounts AccountStore, secret []byte, opts ...Option) *Provider {
	p := &Provider{
		accounts:   accounts,
		secret:     secret,
		sessionTTL: DefaultSessionTTL,
		resetTTL:   DefaultResetTTL,
		now:        time.Now,
		log:        logging.Nop{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.mailer == nil {
		p.mailer = LogMailer{Log: p.log}
	}
	return p
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount registers a new account and signs it in.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (credentials.Identity, error) {
	email = normalizeEmail(email)
	if !forms.ValidEmail(email) {
		return credentials.Identity{}, credentials.ErrInvalidEmail
	}
	if utf8.RuneCountInString(password) < forms.MinPasswordLength {
		return credentials.Identity{}, credentials.ErrWeakPassword
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveMasterKey([]byte(password), salt)
	verifier := cryptox.MakeVerifier(key)
	common.WipeByteArray(key)

	a := &models.Account{
		ID:        uuid.NewString(),
		Email:     email,
		Salt:      salt,
		Verifier:  verifier,
		CreatedAt: p.now().UTC(),
	}
	if err := p.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return credentials.Identity{}, credentials.ErrEmailAlreadyInUse
		}
		return credentials.Identity{}, fmt.Errorf("create account: %w", err)
	}
	p.log.Info(ctx, "account created", "user_id", a.ID)

	id, err := p.startSession(ctx, a)
	if err != nil {
		// without a session the signup failed; free the email for a retry
		if derr := p.accounts.Delete(ctx, a.ID); derr != nil {
			p.log.Error(ctx, "account rollback failed", "user_id", a.ID, "error", derr)
			return credentials.Identity{}, errors.Join(err, fmt.Errorf("rollback account: %w", derr))
		}
		p.log.Warn(ctx, "account rolled back", "user_id", a.ID, "error", err)
		return credentials.Identity{}, err
	}
	return id, nil
}

// SignIn checks the password and starts a session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (credentials.Identity, error) {
	email = normalizeEmail(email)
	if !forms.ValidEmail(email) {
		return credentials.Identity{}, credentials.ErrInvalidEmail
	}

	a, err := p.lookupEmail(ctx, email)
	if err != nil {
		return credentials.Identity{}, err
	}
	if !cryptox.CheckPassword([]byte(password), a.Salt, a.Verifier) {
		return credentials.Identity{}, credentials.ErrWrongPassword
	}
	return p.startSession(ctx, a)
}

// SendPasswordReset stores the hash of a fresh one-time token and hands the
// token to the mailer.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !forms.ValidEmail(email) {
		return credentials.ErrInvalidEmail
	}
	a, err := p.lookupEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := common.MakeRandHexString(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("reset token: %w", err)
	}
	now := p.now().UTC()
	reset := &models.PasswordReset{
		TokenHash: cryptox.HashToken(token),
		AccountID: a.ID,
		ExpiresAt: now.Add(p.resetTTL),
		CreatedAt: now,
	}
	if err := p.accounts.SavePasswordReset(ctx, reset); err != nil {
		return fmt.Errorf("save reset: %w", err)
	}
	if err := p.mailer.SendPasswordReset(ctx, a.Email, token); err != nil {
		return fmt.Errorf("send reset: %w", err)
	}
	return nil
}

func (p *Provider) UpdateDisplayName(ctx context.Context, id credentials.Identity, name string) error {
	if id.ID == "" {
		return credentials.ErrUserNotFound
	}
	err := p.accounts.UpdateDisplayName(ctx, id.ID, strings.TrimSpace(name))
	if errors.Is(err, common.ErrNotFound) {
		return credentials.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	return nil
}

// VerifyToken resolves a session token to its account.
func (p *Provider) VerifyToken(ctx context.Context, token string) (credentials.Identity, error) {
	claims, err := auth.ParseToken(token, p.secret)
	if err != nil {
		return credentials.Identity{}, err
	}
	a, err := p.accounts.ByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return credentials.Identity{}, common.ErrInvalidToken
		}
		return credentials.Identity{}, fmt.Errorf("session account: %w", err)
	}
	id := identityOf(a)
	id.Token = token
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// CurrentSession validates the stored session token. An expired or
// invalid token is not an error; it just means there is no session.
func (p *Provider) CurrentSession(ctx context.Context) (credentials.Identity, bool, error) {
	if p.sessions == nil {
		return credentials.Identity{}, false, nil
	}
	token, err := p.sessions.LoadSession(ctx)
	if err != nil {
		return credentials.Identity{}, false, fmt.Errorf("load session: %w", err)
	}
	if token == "" {
		return credentials.Identity{}, false, nil
	}

	id, err := p.VerifyToken(ctx, token)
	switch {
	case errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrInvalidToken):
		p.log.Debug(ctx, "stored session rejected", "error", err)
		return credentials.Identity{}, false, nil
	case err != nil:
		return credentials.Identity{}, false, err
	}
	return id, true, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	if p.sessions == nil {
		return nil
	}
	return p.sessions.ClearSession(ctx)
}

func (p *Provider) lookupEmail(ctx context.Context, email string) (*models.Account, error) {
	a, err := p.accounts.ByEmail(ctx, email)
	if errors.Is(err, common.ErrNotFound) {
		return nil, credentials.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return a, nil
}

func (p *Provider) startSession(ctx context.Context, a *models.Account) (credentials.Identity, error) {
	token, expires, err := auth.GenerateToken(a.ID, a.Email, p.secret, p.sessionTTL, p.now())
	if err != nil {
		return credentials.Identity{}, fmt.Errorf("issue session: %w", err)
	}
	if p.sessions != nil {
		if err := p.sessions.SaveSession(ctx, token); err != nil {
			return credentials.Identity{}, fmt.Errorf("save session: %w", err)
		}
	}
	id := identityOf(a)
	id.Token = token
	id.ExpiresAt = expires
	return id, nil
}

func identityOf(a *models.Account) credentials.Identity {
	return credentials.Identity{ID: a.ID, Email: a.Email, DisplayName: a.DisplayName}
}
