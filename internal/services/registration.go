package services

import (
	"context"
	"net/mail"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"pocketbook/internal/auth"
	"pocketbook/internal/metrics"
	"pocketbook/internal/models"
	"pocketbook/internal/storage"
)

const maxUsernameLength = 150

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// RegisterInput is the submitted registration form.
type RegisterInput struct {
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
}

// RegistrationService creates accounts and seeds their categories.
type RegistrationService struct {
	db  *storage.DB
	log *zap.Logger
}

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(db *storage.DB, log *zap.Logger) *RegistrationService {
	return &RegistrationService{db: db, log: log}
}

// Register validates in, creates the account and seeds the default
// categories for it in a single transaction. It does not log the user in.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	var user *models.User
	err = s.db.InTx(ctx, func(q *storage.Queries) error {
		u, err := q.CreateUser(ctx, in.Username, in.Email, hash)
		if errors.Is(err, storage.ErrUsernameTaken) {
			verr := &ValidationError{}
			verr.Add("username", "A user with that username already exists.")
			return verr
		}
		if err != nil {
			return err
		}

		if _, err := seedDefaultCategories(ctx, q, u.ID); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Registration()
	s.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// SeedDefaultCategories gives userID its own copy of every default category
// name it does not own yet and returns how many were created.
func (s *RegistrationService) SeedDefaultCategories(ctx context.Context, userID int64) (int, error) {
	return seedDefaultCategories(ctx, s.db.Queries, userID)
}

func seedDefaultCategories(ctx context.Context, q *storage.Queries, userID int64) (int, error) {
	created := 0
	for _, name := range models.DefaultCategoryNames {
		ok, err := q.EnsureCategory(ctx, &userID, name, false)
		if err != nil {
			return created, errors.Wrapf(err, "seed category %q", name)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (s *RegistrationService) validate(ctx context.Context, in RegisterInput) error {
	verr := &ValidationError{}

	switch {
	case in.Username == "":
		verr.Add("username", msgRequired)
	case len(in.Username) > maxUsernameLength:
		verr.Add("username", "Ensure this value has at most 150 characters.")
	case !usernamePattern.MatchString(in.Username):
		verr.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	default:
		exists, err := s.db.UsernameExists(ctx, in.Username)
		if err != nil {
			return err
		}
		if exists {
			verr.Add("username", "A user with that username already exists.")
		}
	}

	if in.Email == "" {
		verr.Add("email", msgRequired)
	} else if !validEmail(in.Email) {
		verr.Add("email", "Enter a valid email address.")
	}

	switch {
	case in.Password == "":
		verr.Add("password1", msgRequired)
	case in.PasswordConfirmation == "":
		verr.Add("password2", msgRequired)
	case in.Password != in.PasswordConfirmation:
		verr.Add("password2", "The two password fields didn't match.")
	default:
		for _, problem := range auth.ValidatePassword(in.Password, in.Username, in.Email) {
			verr.Add("password2", problem)
		}
	}

	return verr.err()
}

// validEmail accepts a bare address with a dotted domain.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	_, domain, ok := strings.Cut(addr.Address, "@")
	return ok && strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}
