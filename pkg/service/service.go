package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type Store interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	CreateRequest(ctx context.Context, req models.Request) (models.Request, error)
	GetRequest(ctx context.Context, kind models.Kind, id string) (models.Request, error)
	ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.Request, error)
	AuthorizeRequest(ctx context.Context, kind models.Kind, auth models.Authorization) (models.Request, error)
	DeleteRequest(ctx context.Context, kind models.Kind, id, estudianteID string) error

	Stats(ctx context.Context, kind models.Kind, top int) (models.Stats, error)
	Timeline(ctx context.Context, kind models.Kind, since time.Time) ([]models.TimelineDay, error)

	Seed(ctx context.Context, users []models.User, requests []models.Request, auths []models.Authorization) error
}

// TokenConfig controls the bearer tokens issued on login.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

type LoanService struct {
	log      *logrus.Entry
	store    Store
	notifier Notifier
	validate *validator.Validate
	tokens   TokenConfig
	now      func() time.Time
}

func NewLoanService(log *logrus.Logger, store Store, notifier Notifier, tokens TokenConfig) *LoanService {
	s := LoanService{
		log:      log.WithField("component", "service"),
		store:    store,
		notifier: notifier,
		validate: newValidator(),
		tokens:   tokens,
		now:      time.Now,
	}
	return &s
}

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

// check runs the struct tags of v and folds the failures into one ErrValidation.
func (s *LoanService) check(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match %s", fe.Field(), layoutName(fe.Param()))
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

func layoutName(layout string) string {
	switch layout {
	case time.DateOnly:
		return "YYYY-MM-DD"
	case "15:04":
		return "HH:MM"
	}
	return layout
}
