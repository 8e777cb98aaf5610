package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRole is the caller role carried in tokens and user documents.
type UserRole string

const (
	UserRoleADMIN           UserRole = "ADMIN"
	UserRoleMIT_COORDINATOR UserRole = "MIT_COORDINATOR"
	UserRoleLECTURER        UserRole = "LECTURER"
	UserRoleSTUDENT         UserRole = "STUDENT"
	UserRolePARENT          UserRole = "PARENT"
	UserRoleSTAFF           UserRole = "STAFF"
)

// legacyCoordinatorRole is the misspelling older tokens and documents carry.
const legacyCoordinatorRole = "MIT_CORDINATOR"

// AllUserRoles is the closed role set in display order.
var AllUserRoles = []UserRole{
	UserRoleADMIN,
	UserRoleMIT_COORDINATOR,
	UserRoleLECTURER,
	UserRoleSTUDENT,
	UserRolePARENT,
	UserRoleSTAFF,
}

// ParseUserRole normalises a raw role string. The second result is false for
// anything outside the closed set.
func ParseUserRole(raw string) (UserRole, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == legacyCoordinatorRole {
		return UserRoleMIT_COORDINATOR, true
	}
	role := UserRole(s)
	return role, role.Valid()
}

// StoredSpellings lists every value a stored document may carry for r.
func (r UserRole) StoredSpellings() []UserRole {
	if r == UserRoleMIT_COORDINATOR {
		return []UserRole{r, legacyCoordinatorRole}
	}
	return []UserRole{r}
}

// Valid reports whether r belongs to the closed role set.
func (r UserRole) Valid() bool {
	for _, known := range AllUserRoles {
		if r == known {
			return true
		}
	}
	return false
}

// In reports whether r is one of roles.
func (r UserRole) In(roles ...UserRole) bool {
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// User is an account in the users collection.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Role      UserRole           `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
}

// Summary projects u into the fields exposed on populated references.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:       u.ID.Hex(),
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

// Caller identifies the authenticated user behind a request.
type Caller struct {
	ID       string
	Username string
	Role     UserRole
}

// Auth request and response bodies.
type (
	// LoginRequest identifies by email or username.
	LoginRequest struct {
		Email    string `json:"email" binding:"omitempty,email"`
		Username string `json:"username"`
		Password string `json:"password" binding:"required"`
	}

	// LoginResponse is returned by a successful login.
	LoginResponse struct {
		Token string       `json:"token"`
		User  *UserSummary `json:"user"`
	}

	// RegisterRequest is the self-service sign-up body.
	RegisterRequest struct {
		Name     string `json:"name" binding:"required"`
		Username string `json:"username" binding:"required,min=2"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Role     string `json:"role"`
	}
)

// CreateUserRequest is the admin-only user creation body.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}
