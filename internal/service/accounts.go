package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/zaporka-api/internal/apperr"
	"github.com/iliyamo/zaporka-api/internal/model"
	"github.com/iliyamo/zaporka-api/internal/repository"
	"github.com/iliyamo/zaporka-api/internal/utils"
)

// Accounts is the generic engine instantiated for accounts.
type Accounts = Collection[model.Account, model.AccountPatch]

// AccountsCollection is the store collection (and MySQL table) name.
const AccountsCollection = "accounts"

// NewAccounts builds the accounts collection.
func NewAccounts(store repository.Store[model.Account], hasher utils.PasswordHasher, opts ...Option) *Accounts {
	return NewCollection(accountSchema(hasher), store, opts...)
}

func accountSchema(hasher utils.PasswordHasher) Schema[model.Account, model.AccountPatch] {
	return Schema[model.Account, model.AccountPatch]{
		Name:           "account",
		Collection:     AccountsCollection,
		FilterFields:   []string{model.FieldRole},
		UpdatedAtField: model.FieldUpdatedAt,
		SetID:          func(a *model.Account, id string) { a.ID = id },
		Stamp: func(a *model.Account, now time.Time) {
			a.CreatedAt, a.UpdatedAt = now, now
		},
		Prepare: func(_ context.Context, a *model.Account) error {
			a.PhoneNumber = strings.TrimSpace(a.PhoneNumber)
			if a.Role == "" {
				a.Role = model.RoleUser
			}
			return nil
		},
		Merge: func(_ context.Context, cur model.Account, p model.AccountPatch) (model.Account, repository.Changes, error) {
			return mergeAccount(hasher, cur, p)
		},
		Validate: model.Account.Validate,
		Present:  model.Account.Public,
	}
}

// mergeAccount applies p onto cur field by field; a present field beats the
// stored value, an absent one leaves it alone. The password is re-hashed
// only when supplied and different from the current secret. Demoting an
// admin to user drops the stored hash in the same write.
func mergeAccount(hasher utils.PasswordHasher, cur model.Account, p model.AccountPatch) (model.Account, repository.Changes, error) {
	next := cur
	var ch repository.Changes

	setString(&ch, model.FieldPhoneNumber, &next.PhoneNumber, trimmed(p.PhoneNumber))
	setString(&ch, model.FieldFirstName, &next.FirstName, p.FirstName)
	setString(&ch, model.FieldLastName, &next.LastName, p.LastName)
	setString(&ch, model.FieldAddress, &next.Address, p.Address)
	setString(&ch, model.FieldGender, &next.Gender, p.Gender)

	if p.Role != nil {
		role := model.ParseRole(string(*p.Role))
		if role != next.Role {
			next.Role = role
			ch.Put(model.FieldRole, role)
		}
	}

	if p.Password != nil {
		if !next.Role.RequiresPassword() {
			return cur, ch, apperr.New(apperr.KindPasswordPolicyViolation, "password is allowed only for admin accounts")
		}
		if *p.Password == "" {
			return cur, ch, apperr.New(apperr.KindPasswordPolicyViolation, "password is required for admin accounts")
		}
		if !hasher.VerifyPassword(next.PasswordHash, *p.Password) {
			hash, err := hasher.HashPassword(*p.Password)
			if err != nil {
				return cur, ch, apperr.New(apperr.KindValidation, "password cannot be hashed").WithCause(err)
			}
			next.PasswordHash = hash
			ch.Put(model.FieldPasswordHash, hash)
		}
	}

	if !next.Role.RequiresPassword() && next.PasswordHash != "" {
		next.PasswordHash = ""
		ch.Remove(model.FieldPasswordHash)
	}
	return next, ch, nil
}

func setString(ch *repository.Changes, field string, dst *string, v *string) {
	if v == nil || *v == *dst {
		return
	}
	*dst = *v
	ch.Put(field, *v)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}
