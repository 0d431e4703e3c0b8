package user

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// compared against when the email is unknown, so both failures cost a bcrypt round
	dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z1s7HoYbVxbOQW8R8bB2yV3e")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
	}

	Service interface {
		SignUp(ctx context.Context, nu NewUser) (User, error)
		// Authenticate returns ErrInvalidCredentials for an unknown email as well as for a wrong password.
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		// Save creates usr when it has no ID and updates it otherwise.
		Save(ctx context.Context, usr User) (User, error)
		RequestEmailVerification(ctx context.Context, usr User) error
		ConfirmEmail(ctx context.Context, usr User, code string) (User, error)
	}

	service struct {
		repo     Repository
		cache    core.Cache
		cacheTTL time.Duration
		mailSvc  core.EmailService
		coder    verificationCoder
		timeout  time.Duration
	}

	verificationMailData struct {
		Name      string
		Code      string
		ExpiresIn string
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, cache core.Cache, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:     repo,
		cache:    cache,
		cacheTTL: conf.CacheTTL,
		mailSvc:  mailSvc,
		coder: verificationCoder{
			secret:  []byte(conf.SecretKey),
			timeout: conf.VerificationTimeout,
			now:     func() time.Time { return core.NowFunc() },
		},
		timeout: conf.VerificationTimeout,
	}
}

func cacheKey(id string) string { return "user:" + id }

func (svc *service) SignUp(ctx context.Context, nu NewUser) (User, error) {
	if _, err := svc.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return User{}, emailExistsError()
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "checking email uniqueness")
	}

	now := core.NowFunc()
	usr := User{
		ID:        uuid.NewString(),
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return User{}, emailExistsError()
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func emailExistsError() error {
	return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
}

func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			_ = (&User{PasswordHash: dummyHash}).CheckPassword(pwd)
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

// GetByID returns the user without its password hash; cached copies never hold it.
func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	if data, err := svc.cache.Get(ctx, cacheKey(id)); err == nil {
		var usr User
		if err = json.Unmarshal(data, &usr); err == nil {
			return usr, nil
		}
	}

	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.PasswordHash = nil
	if data, err := json.Marshal(usr); err == nil {
		_ = svc.cache.Set(ctx, cacheKey(id), data, svc.cacheTTL)
	}
	return usr, nil
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) Save(ctx context.Context, usr User) (User, error) {
	usr.Email = core.CleanString(usr.Email, true /* lower */)
	usr.UpdatedAt = core.NowFunc()

	var err error
	if usr.ID == "" {
		usr.ID = uuid.NewString()
		usr.CreatedAt = usr.UpdatedAt
		if usr.Role == "" {
			usr.Role = RoleUser
		}
		usr, err = svc.repo.CreateUser(ctx, usr)
	} else {
		usr, err = svc.repo.UpdateUser(ctx, usr)
	}
	if err != nil {
		return User{}, err
	}
	_ = svc.cache.Delete(ctx, cacheKey(usr.ID))
	return usr, nil
}

func (svc *service) RequestEmailVerification(ctx context.Context, usr User) error {
	if usr.IsEmailVerified() {
		return core.NewValidationError(ErrAlreadyVerified)
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Verify your email",
		TemplateName: "verify_email",
		TemplateData: verificationMailData{
			Name:      usr.Name,
			Code:      svc.coder.makeCode(usr),
			ExpiresIn: fmt.Sprintf("%v", svc.timeout),
		},
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

func (svc *service) ConfirmEmail(ctx context.Context, usr User, code string) (User, error) {
	if usr.IsEmailVerified() {
		return usr, nil
	}
	if err := svc.coder.verify(usr, code); err != nil {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
	}
	// usr may come from the cache, without its password hash
	stored, err := svc.repo.GetUserByID(ctx, usr.ID)
	if err != nil {
		return User{}, errors.Wrap(err, "getting user")
	}
	now := core.NowFunc()
	stored.EmailVerifiedAt = &now
	return svc.Save(ctx, stored)
}
