package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gender of a child, stored as an integer (Boy = 0, Girl = 1)
type Gender int

const (
	GenderBoy  Gender = 0
	GenderGirl Gender = 1
)

// Valid reports whether g is one of the known genders
func (g Gender) Valid() bool {
	return g == GenderBoy || g == GenderGirl
}

func (g Gender) String() string {
	if g == GenderGirl {
		return "girl"
	}
	return "boy"
}

// Plural is used in result descriptions ("... percent of boys at that age ...")
func (g Gender) Plural() string {
	if g == GenderGirl {
		return "girls"
	}
	return "boys"
}

// ParseGender accepts "boy"/"girl" (any case) or the numeric form "0"/"1"
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "boy", "male", "m", "0":
		return GenderBoy, nil
	case "girl", "female", "f", "1":
		return GenderGirl, nil
	}
	return 0, fmt.Errorf("%w: unknown gender %q", ErrInvalidArgument, s)
}

// Role is the caller's role as carried in the JWT "role" claim
type Role string

const (
	RoleUser   Role = "User"
	RoleDoctor Role = "Doctor"
	RoleAdmin  Role = "Admin"
)

// ParseRole normalizes a role claim. Matching is case-insensitive so "ADMIN" and "Admin" are the same role.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, true
	case "doctor":
		return RoleDoctor, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

// Requester identifies who is calling a service operation
type Requester struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

func (r Requester) IsAdmin() bool  { return r.Role == RoleAdmin }
func (r Requester) IsDoctor() bool { return r.Role == RoleDoctor }

// Child is a registered child owned by a guardian (the User who registered it)
type Child struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	BirthDate  time.Time `json:"birth_date"` // Immutable after creation
	Gender     Gender    `json:"gender"`
	Note       string    `json:"note,omitempty"`
	GuardianID uuid.UUID `json:"guardian_id"`
	// Last computed velocity report, replaced wholesale on every recomputation
	GrowthVelocityResult []GrowthVelocityResult `json:"growth_velocity_result"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// IsGuardian checks whether userID owns the child
func (c *Child) IsGuardian(userID uuid.UUID) bool {
	return c.GuardianID == userID
}
