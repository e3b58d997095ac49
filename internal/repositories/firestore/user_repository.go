package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/lantern-eats/api/internal/domain"
	pfirestore "github.com/lantern-eats/api/internal/platform/firestore"
)

const userCollection = "users"

// UserRepository persists account records in Firestore.
type UserRepository struct {
	base *pfirestore.BaseRepository[userDocument]
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[userDocument](provider, userCollection, nil, nil)
	return &UserRepository{base: base}, nil
}

// Insert creates the user document, failing with a conflict when the ID exists.
func (r *UserRepository) Insert(ctx context.Context, user domain.User) error {
	if r == nil || r.base == nil {
		return errors.New("user repository not initialised")
	}
	if strings.TrimSpace(user.ID) == "" {
		return errors.New("user id is required")
	}
	_, err := r.base.Create(ctx, user.ID, fromDomainUser(user))
	return err
}

// FindByID loads the user by document ID.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.User, error) {
	if r == nil || r.base == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	if strings.TrimSpace(userID) == "" {
		return domain.User{}, errors.New("user id is required")
	}

	doc, err := r.base.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(doc.ID, doc.Data), nil
}

// FindByUsername loads the user matching the exact username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.findByField(ctx, "username", strings.TrimSpace(username))
}

// FindByEmail loads the user matching the lowercased email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findByField(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

// Count returns the total number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("user repository not initialised")
	}
	return r.base.Count(ctx, nil)
}

// CountNonAdmin counts accounts whose role is not admin.
func (r *UserRepository) CountNonAdmin(ctx context.Context) (int64, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("user repository not initialised")
	}
	return r.base.Count(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("role", "!=", string(domain.RoleAdmin))
	})
}

func (r *UserRepository) findByField(ctx context.Context, field, value string) (domain.User, error) {
	if r == nil || r.base == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	if value == "" {
		return domain.User{}, pfirestore.NewNotFoundError("users.find", errors.New("lookup value is empty"))
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where(field, "==", value).Limit(1)
	})
	if err != nil {
		return domain.User{}, err
	}
	if len(docs) == 0 {
		return domain.User{}, pfirestore.NewNotFoundError("users.find", errors.New("user not found"))
	}
	return toDomainUser(docs[0].ID, docs[0].Data), nil
}

type userDocument struct {
	Username     string    `firestore:"username"`
	Email        string    `firestore:"email"`
	PasswordHash string    `firestore:"passwordHash"`
	Role         string    `firestore:"role"`
	CreatedAt    time.Time `firestore:"createdAt"`
}

func toDomainUser(id string, doc userDocument) domain.User {
	role, _ := domain.ParseRole(doc.Role)
	return domain.User{
		ID:           id,
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Role:         role,
		CreatedAt:    doc.CreatedAt,
	}
}

func fromDomainUser(user domain.User) userDocument {
	return userDocument{
		Username:     strings.TrimSpace(user.Username),
		Email:        strings.ToLower(strings.TrimSpace(user.Email)),
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt.UTC(),
	}
}
