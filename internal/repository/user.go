package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	constant "github.com/SeakMengs/DocSign/internal/constant"
	"github.com/SeakMengs/DocSign/internal/model"
	"gorm.io/gorm"
)

var ErrUserAlreadyExists = errors.New("user already exists")

type UserRepository struct {
	*baseRepository
}

func (ur UserRepository) GetById(ctx context.Context, tx *gorm.DB, userId string) (*model.User, error) {
	ur.logger.Debugf("Get user by id: %s", userId)

	db := ur.getDB(tx)
	var user *model.User

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.User{}).Where(&model.User{BaseModel: model.BaseModel{ID: userId}}).First(&user).Error; err != nil {
		return user, err
	}

	return user, nil
}

func (ur UserRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*model.User, error) {
	ur.logger.Debugf("Get user by email: %s", email)

	db := ur.getDB(tx)
	var user *model.User

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.User{}).Where(&model.User{Email: email}).First(&user).Error; err != nil {
		return user, err
	}

	return user, nil
}

func (ur *UserRepository) Create(ctx context.Context, tx *gorm.DB, newUser *model.User) error {
	ur.logger.Debugf("Create user with email: %s", newUser.Email)

	db := ur.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Model(&model.User{}).Create(newUser).Error
}

// CheckDupAndCreate creates newUser unless the email is already registered.
func (ur *UserRepository) CheckDupAndCreate(ctx context.Context, tx *gorm.DB, newUser *model.User) error {
	ur.logger.Debugf("Check duplicate and create user with email: %s", newUser.Email)

	db := ur.getDB(tx)
	return ur.withTx(db, func(tx *gorm.DB) error {
		existingUser, err := ur.GetByEmail(ctx, tx, newUser.Email)
		if err != nil {
			// Since not found is not an error, we can ignore it
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		if existingUser != nil && strings.EqualFold(existingUser.Email, newUser.Email) {
			return fmt.Errorf("%w: %s", ErrUserAlreadyExists, existingUser.Email)
		}

		return ur.Create(ctx, tx, newUser)
	})
}
