package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
)

// Identity is what an authentication provider knows about a user.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
}

// EnsureUser returns the profile of an authenticated identity, creating it
// with the user role on first sign-in. An existing profile is returned as is.
func EnsureUser(ctx context.Context, ds docstore.Store, id Identity) (*model.User, error) {
	if id.ID == "" {
		return nil, invalid("id", "identity without id")
	}
	existing, err := GetUser(ctx, ds, id.ID)
	if err != nil || existing != nil {
		return existing, err
	}

	u := model.User{
		ID:          id.ID,
		DisplayName: id.DisplayName,
		Email:       id.Email,
		Role:        model.RoleUser,
		IsActive:    true,
		CreatedAt:   model.Timestamp(now()),
	}
	fields, err := docstore.Encode(u)
	if err != nil {
		return nil, err
	}
	err = ds.Batch(ctx, []docstore.Op{docstore.CreateOp(CollectionUsers, u.ID, fields)})
	if errors.Is(err, docstore.ErrExists) {
		// Created concurrently by another sign-in.
		return GetUser(ctx, ds, id.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user profile: %w", err)
	}
	return &u, nil
}

// CreateUser stores a new profile with a generated ID.
func CreateUser(ctx context.Context, ds docstore.Store, u model.User) (*model.User, error) {
	if u.Email == "" {
		return nil, invalid("email", "email is required")
	}
	if !model.ValidRole(u.Role) {
		return nil, ErrInvalidRole
	}
	if existing, err := GetUserByEmail(ctx, ds, u.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("user %s: %w", u.Email, docstore.ErrExists)
	}

	u.ID = ds.NewID(CollectionUsers)
	u.CreatedAt = model.Timestamp(now())
	fields, err := docstore.Encode(u)
	if err != nil {
		return nil, err
	}
	if err := ds.Batch(ctx, []docstore.Op{docstore.CreateOp(CollectionUsers, u.ID, fields)}); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &u, nil
}

// GetUser returns a user by ID, or nil if it does not exist.
func GetUser(ctx context.Context, ds docstore.Store, id string) (*model.User, error) {
	return get[model.User](ctx, ds, CollectionUsers, id)
}

// GetUserByEmail returns the user with the given email, or nil.
func GetUserByEmail(ctx context.Context, ds docstore.Store, email string) (*model.User, error) {
	users, err := list[model.User](ctx, ds, docstore.From(CollectionUsers).
		Where("email", docstore.Eq, email).
		Take(1))
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return &users[0], nil
}

// UserFilter narrows the user list. Empty fields match everything.
type UserFilter struct {
	Search     string
	Department string
	Role       string
}

func (f UserFilter) match(u model.User) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(u.Email), q) &&
			!strings.Contains(strings.ToLower(u.DisplayName), q) {
			return false
		}
	}
	if f.Department != "" && u.Department != f.Department {
		return false
	}
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	return true
}

// ListUsers returns the users matching filter, newest first.
func ListUsers(ctx context.Context, ds docstore.Store, filter UserFilter) ([]model.User, error) {
	users, err := list[model.User](ctx, ds, docstore.From(CollectionUsers).Order(docstore.Desc("createdAt")))
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if filter.match(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

// SubscribeUsers streams all user profiles, newest first.
func SubscribeUsers(ctx context.Context, ds docstore.Store) (*docstore.Subscription, error) {
	return ds.Subscribe(ctx, docstore.From(CollectionUsers).Order(docstore.Desc("createdAt")))
}

// Departments returns the distinct non-empty departments, sorted.
func Departments(ctx context.Context, ds docstore.Store) ([]string, error) {
	users, err := ListUsers(ctx, ds, UserFilter{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	depts := []string{}
	for _, u := range users {
		if u.Department != "" && !seen[u.Department] {
			seen[u.Department] = true
			depts = append(depts, u.Department)
		}
	}
	sort.Strings(depts)
	return depts, nil
}

// UpdateUserRole changes another user's role.
func UpdateUserRole(ctx context.Context, ds docstore.Store, actorID, userID, role string) (*model.User, error) {
	if actorID == userID {
		return nil, ErrSelfModification
	}
	if !model.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	return updateUser(ctx, ds, userID, map[string]any{"role": role})
}

// SetUserActive enables or disables another user's account.
func SetUserActive(ctx context.Context, ds docstore.Store, actorID, userID string, active bool) (*model.User, error) {
	if actorID == userID {
		return nil, ErrSelfModification
	}
	return updateUser(ctx, ds, userID, map[string]any{"isActive": active})
}

// UpdateUserDepartment sets a user's department.
func UpdateUserDepartment(ctx context.Context, ds docstore.Store, userID, department string) (*model.User, error) {
	return updateUser(ctx, ds, userID, map[string]any{"department": strings.TrimSpace(department)})
}

func updateUser(ctx context.Context, ds docstore.Store, id string, fields map[string]any) (*model.User, error) {
	fields["updatedAt"] = model.Timestamp(now())
	if err := ds.Update(ctx, CollectionUsers, id, fields); err != nil {
		return nil, fmt.Errorf("updating user %s: %w", id, err)
	}
	return GetUser(ctx, ds, id)
}
