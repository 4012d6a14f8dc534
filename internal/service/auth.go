package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/zaporka-api/internal/apperr"
	"github.com/iliyamo/zaporka-api/internal/model"
	"github.com/iliyamo/zaporka-api/internal/queue"
	"github.com/iliyamo/zaporka-api/internal/repository"
	"github.com/iliyamo/zaporka-api/internal/utils"
)

// TokenIssuer signs tokens for accounts.
type TokenIssuer interface {
	Issue(a model.Account) (utils.AccessToken, error)
}

// AuthResult is what register and login hand back to the client.
type AuthResult struct {
	Account model.Account
	Token   utils.AccessToken
}

// AuthService registers accounts and exchanges credentials for tokens.
type AuthService struct {
	accounts *Accounts
	hasher   utils.PasswordHasher
	tokens   TokenIssuer
	opts     options
}

func NewAuthService(accounts *Accounts, hasher utils.PasswordHasher, tokens TokenIssuer, opts ...Option) *AuthService {
	o := buildOptions(opts)
	o.log = o.log.With().Str("component", "auth").Logger()
	return &AuthService{accounts: accounts, hasher: hasher, tokens: tokens, opts: o}
}

// Register creates an account and signs it in.
//
// The phone number lookup before the insert only gives a friendlier error in
// the common case. Two identical registrations racing each other are settled
// by the store's unique constraint, so exactly one of them wins and the other
// fails with DUPLICATE_IDENTITY.
func (s *AuthService) Register(ctx context.Context, in model.Registration) (AuthResult, error) {
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Address = strings.TrimSpace(in.Address)
	in.Gender = strings.TrimSpace(in.Gender)
	in.Role = string(model.ParseRole(in.Role))

	if err := model.ValidateStruct(in); err != nil {
		return AuthResult{}, err
	}
	role := model.Role(in.Role)
	switch {
	case role.RequiresPassword() && in.Password == "":
		return AuthResult{}, apperr.New(apperr.KindPasswordPolicyViolation, "password is required for admin accounts")
	case !role.RequiresPassword() && in.Password != "":
		return AuthResult{}, apperr.New(apperr.KindPasswordPolicyViolation, "password is allowed only for admin accounts")
	}

	_, err := s.accounts.Lookup(ctx, repository.Eq(model.FieldPhoneNumber, in.PhoneNumber))
	switch {
	case err == nil:
		return AuthResult{}, apperr.New(apperr.KindDuplicateIdentity, "phone number is already registered").
			WithDetail("field", model.FieldPhoneNumber)
	case !apperr.Is(err, apperr.KindNotFound):
		return AuthResult{}, err
	}

	acc := model.Account{
		PhoneNumber: in.PhoneNumber,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Address:     in.Address,
		Gender:      in.Gender,
		Role:        role,
	}
	if in.Password != "" {
		hash, err := s.hasher.HashPassword(in.Password)
		if err != nil {
			return AuthResult{}, apperr.New(apperr.KindValidation, "password cannot be hashed").WithCause(err)
		}
		acc.PasswordHash = hash
	}

	created, err := s.accounts.Create(ctx, acc)
	if err != nil {
		if apperr.Is(err, apperr.KindDuplicateIdentity) {
			return AuthResult{}, apperr.New(apperr.KindDuplicateIdentity, "phone number is already registered").
				WithDetail("field", model.FieldPhoneNumber)
		}
		return AuthResult{}, err
	}

	tok, err := s.issue(created)
	if err != nil {
		return AuthResult{}, err
	}
	s.announce(ctx, created.ID)
	s.opts.log.Info().Str("account_id", created.ID).Str("role", string(created.Role)).Msg("account registered")
	return AuthResult{Account: created, Token: tok}, nil
}

// Login looks the account up by phone number and issues a fresh token. An
// unknown phone number and a wrong admin password produce the same error.
func (s *AuthService) Login(ctx context.Context, in model.Credentials) (AuthResult, error) {
	phone := strings.TrimSpace(in.PhoneNumber)
	if phone == "" {
		return AuthResult{}, apperr.New(apperr.KindMissingIdentity, "phone number is required").
			WithDetail("fields", []string{model.FieldPhoneNumber})
	}

	acc, err := s.accounts.Lookup(ctx, repository.Eq(model.FieldPhoneNumber, phone))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return AuthResult{}, apperr.InvalidCredentials()
		}
		return AuthResult{}, err
	}
	if acc.Role.RequiresPassword() && !s.hasher.VerifyPassword(acc.PasswordHash, in.Password) {
		s.opts.log.Debug().Str("account_id", acc.ID).Msg("password mismatch")
		return AuthResult{}, apperr.InvalidCredentials()
	}

	tok, err := s.issue(acc)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Account: acc.Public(), Token: tok}, nil
}

// Profile returns the account with the given id, without its hash.
func (s *AuthService) Profile(ctx context.Context, id string) (model.Account, error) {
	return s.accounts.Get(ctx, id)
}

// UpdateProfile applies a caller's change to their own account. The role is
// never self-assigned; a password may only be changed by an admin, through
// the same rules as any account update.
func (s *AuthService) UpdateProfile(ctx context.Context, id string, p model.AccountPatch) (model.Account, error) {
	if p.Role != nil {
		return model.Account{}, apperr.New(apperr.KindForbidden, "role cannot be changed on your own profile").
			WithDetail("field", model.FieldRole)
	}
	acc, err := s.accounts.Update(ctx, id, p)
	if apperr.Is(err, apperr.KindDuplicateIdentity) {
		return model.Account{}, apperr.New(apperr.KindDuplicateIdentity, "phone number is already registered").
			WithDetail("field", model.FieldPhoneNumber)
	}
	return acc, err
}

func (s *AuthService) issue(acc model.Account) (utils.AccessToken, error) {
	tok, err := s.tokens.Issue(acc)
	if err != nil {
		return utils.AccessToken{}, apperr.StoreUnavailable(errors.Join(errors.New("issue token"), err))
	}
	return tok, nil
}

func (s *AuthService) announce(ctx context.Context, id string) {
	ev := queue.Event{Type: queue.AccountRegistered, Collection: AccountsCollection, ID: id, Actor: id, At: s.opts.now().UTC()}
	if err := s.opts.events.Publish(ctx, ev); err != nil {
		logEventFailure(s.opts.log, err, ev)
	}
}

func logEventFailure(log zerolog.Logger, err error, ev queue.Event) {
	log.Warn().Err(err).Str("event", string(ev.Type)).Str("id", ev.ID).Msg("event not published")
}
