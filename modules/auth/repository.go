package auth

import (
	"context"
	"errors"
	"strings"

	domain "github.com/example/task-manager/domain/user"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a user already exists.
	ErrUserExists = errors.New("user with this email already exists")
)

// UserRepository handles user persistence using GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Migrate creates or updates the users table.
func (r *UserRepository) Migrate() error {
	return r.db.AutoMigrate(&domain.User{})
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Update writes every column of an existing user.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	result := r.db.WithContext(ctx).Model(user).Select("*").Omit("id", "created_at").Updates(user)
	if result.Error != nil {
		return mapWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindByID finds a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail finds a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns users ordered by creation time. An empty role returns every user.
func (r *UserRepository) List(ctx context.Context, role domain.Role) ([]domain.User, error) {
	query := r.db.WithContext(ctx).Order("created_at, id")
	if role != "" {
		query = query.Where("role = ?", role)
	}
	var users []domain.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ExistingIDs returns the subset of ids that belong to stored users.
func (r *UserRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []string
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id IN ?", ids).Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// EmailExists checks if a user with the given email exists.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// mapWriteError turns unique violations on email into ErrUserExists. Drivers
// without error translation are matched on their message.
func mapWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
		return ErrUserExists
	}
	return err
}
