package persistence

import (
	"context"
	"fmt"

	"github.com/helixml/scmtrack/domain/user"
	"github.com/helixml/scmtrack/internal/database"
)

// UserStore implements user.Store using GORM.
type UserStore struct {
	database.Repository[user.User, UserModel]
}

// NewUserStore creates a new UserStore.
func NewUserStore(db database.Database) UserStore {
	return UserStore{
		Repository: database.NewRepository[user.User, UserModel](db, UserMapper{}, "user"),
	}
}

// Save creates or updates a user.
func (s UserStore) Save(ctx context.Context, u user.User) (user.User, error) {
	model := s.Mapper().ToModel(u)
	if err := s.Session(ctx).Save(&model).Error; err != nil {
		return user.User{}, fmt.Errorf("save user: %w", err)
	}
	return s.Mapper().ToDomain(model), nil
}

var _ user.Store = UserStore{}
