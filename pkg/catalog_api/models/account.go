package models

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// UpdateProfileInput is the self-service profile update. A password change
// requires the current password alongside the new one.
type UpdateProfileInput struct {
	Name            *string `json:"name"`
	Username        *string `json:"username"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
	Id      int  `json:"id,omitempty"`
}
