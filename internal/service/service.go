package service

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/repository"
)

// Repos bundles the stateless repositories the services read and write through.
type Repos struct {
	AuthUsers repository.AuthUserRepository
	Admins    repository.AdminUserRepository
	Profiles  repository.ProfileRepository
	Wallets   repository.WalletRepository
	Ledger    repository.LedgerRepository
	Bets      repository.BetRepository
	Events    repository.EventRepository
	Odds      repository.OddsRepository
}

// NewPgRepos returns the pgx-backed repositories.
func NewPgRepos() Repos {
	return Repos{
		AuthUsers: repository.NewPgAuthUserRepository(),
		Admins:    repository.NewPgAdminUserRepository(),
		Profiles:  repository.NewPgProfileRepository(),
		Wallets:   repository.NewWalletRepository(),
		Ledger:    repository.NewLedgerRepository(),
		Bets:      repository.NewBetRepository(),
		Events:    repository.NewEventRepository(),
		Odds:      repository.NewOddsRepository(),
	}
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput runs struct-tag validation and reports the first failing field.
func validateInput(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.ErrValidation(fe.Field() + " failed " + fe.Tag() + " validation")
	}
	return domain.ErrValidation(err.Error())
}

// passOrStorage keeps domain errors as they are and classifies anything else
// as a storage failure.
func passOrStorage(msg string, err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return domain.ErrStorage(msg, err)
}

func utcNow() time.Time { return time.Now().UTC() }
