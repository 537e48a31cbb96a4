package transport

import "github.com/google/uuid"

// UpdateProfileRequest changes the caller's own profile.
type UpdateProfileRequest struct {
	DisplayName string   `json:"displayName" validate:"required,min=2,max=100"`
	Bio         *string  `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Skills      []string `json:"skills,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// MemberResponse is a member profile as shown in the directory.
type MemberResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Bio         *string   `json:"bio,omitempty"`
	Skills      []string  `json:"skills,omitempty"`
	Role        string    `json:"role"`
	MemberSince string    `json:"memberSince"`
}

// MemberListResponse wraps a page of member profiles.
type MemberListResponse struct {
	Items []MemberResponse `json:"items"`
	Total int              `json:"total"`
}
