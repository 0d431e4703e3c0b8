package enrollment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

type (
	Purchase struct {
		ID         string    `json:"id"`
		CustomerID string    `json:"customer_id"`
		CourseID   string    `json:"course_id"`
		CreatedAt  time.Time `json:"created_at"` // UTC
	}

	Result struct {
		Purchase        Purchase `json:"purchase"`
		AlreadyEnrolled bool     `json:"already_enrolled"`
	}

	Repository interface {
		// CreatePurchase inserts p unless the customer already purchased the course.
		// created is false when nothing was inserted.
		CreatePurchase(ctx context.Context, p Purchase) (created bool, err error)
		// GetPurchase returns core.ErrNotFound when the customer did not purchase the course.
		GetPurchase(ctx context.Context, customerID, courseID string) (Purchase, error)
		QueryCustomerPurchases(ctx context.Context, customerID string) ([]Purchase, error)
	}

	Service interface {
		// Enroll is idempotent: enrolling twice returns the first purchase with AlreadyEnrolled set.
		Enroll(ctx context.Context, studentID, courseID string) (Result, error)
		HasPurchased(ctx context.Context, studentID, courseID string) (bool, error)
		SectionAccess(ctx context.Context, studentID string, s course.Section) (Visibility, error)
		Purchases(ctx context.Context, studentID string) ([]Purchase, error)
	}

	service struct {
		repo    Repository
		courses course.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, courses course.Service) Service {
	return &service{repo: repo, courses: courses}
}

func (svc *service) Enroll(ctx context.Context, studentID, courseID string) (Result, error) {
	if _, err := svc.courses.GetPublished(ctx, courseID); err != nil {
		return Result{}, err
	}

	p := Purchase{
		ID:         uuid.NewString(),
		CustomerID: studentID,
		CourseID:   courseID,
		CreatedAt:  core.NowFunc(),
	}
	created, err := svc.repo.CreatePurchase(ctx, p)
	if err != nil && errors.Cause(err) != core.ErrConstraintViolation {
		return Result{}, errors.Wrap(err, "creating purchase")
	}
	if created {
		return Result{Purchase: p}, nil
	}

	// lost the race or enrolled before
	existing, err := svc.repo.GetPurchase(ctx, studentID, courseID)
	if err != nil {
		return Result{}, errors.Wrap(err, "getting existing purchase")
	}
	return Result{Purchase: existing, AlreadyEnrolled: true}, nil
}

func (svc *service) HasPurchased(ctx context.Context, studentID, courseID string) (bool, error) {
	if _, err := svc.repo.GetPurchase(ctx, studentID, courseID); err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (svc *service) SectionAccess(ctx context.Context, studentID string, s course.Section) (Visibility, error) {
	purchased, err := svc.HasPurchased(ctx, studentID, s.CourseID)
	if err != nil {
		return Locked, err
	}
	return Evaluate(purchased, s), nil
}

func (svc *service) Purchases(ctx context.Context, studentID string) ([]Purchase, error) {
	return svc.repo.QueryCustomerPurchases(ctx, studentID)
}
