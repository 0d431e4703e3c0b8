package gormrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

type userRepository struct {
	db *gorm.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) toRow(usr user.User) *userRow {
	return &userRow{
		ID:              usr.ID,
		Name:            usr.Name,
		Email:           usr.Email,
		PasswordHash:    usr.PasswordHash,
		Role:            usr.Role,
		EmailVerifiedAt: null.TimeFromPtr(usr.EmailVerifiedAt),
		CreatedAt:       usr.CreatedAt.UTC(),
		UpdatedAt:       usr.UpdatedAt.UTC(),
	}
}

func (repo userRepository) fromRow(row *userRow) user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         row.Role,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.EmailVerifiedAt.Valid {
		t := row.EmailVerifiedAt.Time.UTC()
		usr.EmailVerifiedAt = &t
	}
	return usr
}

func trapUserErr(err error) error {
	switch err = translateErr(err); err {
	case core.ErrNotFound:
		return user.ErrNotFound
	case core.ErrConstraintViolation:
		return user.ErrEmailExists
	}
	return err
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)
	if err := getDB(ctx, repo.db).Create(row).Error; err != nil {
		return user.User{}, trapUserErr(err)
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)
	res := getDB(ctx, repo.db).Model(row).Select("*").Omit("id", "created_at").Updates(row)
	if res.Error != nil {
		return user.User{}, trapUserErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var row userRow
	if err := getDB(ctx, repo.db).Where("id = ?", id).Take(&row).Error; err != nil {
		return user.User{}, errors.Wrap(trapUserErr(err), "getting user by id")
	}
	return repo.fromRow(&row), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	if err := getDB(ctx, repo.db).Where("email = ?", email).Take(&row).Error; err != nil {
		return user.User{}, errors.Wrap(trapUserErr(err), "getting user by email")
	}
	return repo.fromRow(&row), nil
}
