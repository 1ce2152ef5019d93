package entity

import "strings"

// Profile is a user account row from the profile search
type Profile struct {
	UserID          ID         `json:"userId"`
	ProfileID       ID         `json:"profileId"`
	Username        string     `json:"username"`
	FullName        string     `json:"fullName"`
	Position        FlexString `json:"position"`
	Roles           []string   `json:"roles"`
	OfficeID        *int64     `json:"officeId"`
	OfficeName      string     `json:"officeName"`
	GovernorateID   *int64     `json:"governorateId"`
	GovernorateName string     `json:"governorateName"`
}

// RolesLabel joins roles for table display
func (p Profile) RolesLabel() string {
	return strings.Join(p.Roles, ", ")
}

// ProfileFilter narrows the profile search
type ProfileFilter struct {
	FullName      string   `json:"fullName"`
	OfficeID      *int64   `json:"officeId"`
	GovernorateID *int64   `json:"governorateId"`
	Roles         []string `json:"roles"`
}

// ProfileSearchRequest is the body of POST /api/profile/search
type ProfileSearchRequest struct {
	ProfileFilter
	PaginationParams struct {
		PageNumber int `json:"pageNumber"`
		PageSize   int `json:"pageSize"`
	} `json:"paginationParams"`
}

// RegisterRequest is the body of POST /api/account/register
type RegisterRequest struct {
	UserName      string   `json:"userName" validate:"required"`
	Password      string   `json:"password" validate:"required,min=6"`
	Roles         []string `json:"roles" validate:"required,min=1"`
	FullName      string   `json:"fullName" validate:"required"`
	Position      int      `json:"position" validate:"gte=0"`
	OfficeID      int64    `json:"officeId" validate:"required"`
	GovernorateID int64    `json:"governorateId" validate:"required"`
}

// UpdateAccountRequest is the body of PUT /api/account/{userId}
type UpdateAccountRequest struct {
	UserID        ID         `json:"userId" validate:"required"`
	UserName      string     `json:"userName" validate:"required"`
	FullName      string     `json:"fullName" validate:"required"`
	Position      FlexString `json:"position"`
	OfficeID      int64      `json:"officeId" validate:"required"`
	GovernorateID int64      `json:"governorateId" validate:"required"`
	Roles         []string   `json:"roles" validate:"required,min=1"`
	NewPassword   string     `json:"newPassword,omitempty" validate:"omitempty,min=6"`
}
