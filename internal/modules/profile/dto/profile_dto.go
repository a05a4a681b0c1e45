package dto

import (
	"anoa.com/tutorhub/internal/entity"
)

// UpdateProfileInput is the account form: both fields are required, as on
// the original page.
type UpdateProfileInput struct {
	FullName string `json:"full_name" form:"full_name" binding:"required,personname"`
	Email    string `json:"email" form:"email" binding:"required,email,max=254"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"old_password" form:"old_password" binding:"required"`
	NewPassword string `json:"new_password" form:"new_password" binding:"required,strongpassword"`
	Confirm     string `json:"confirm" form:"confirm" binding:"omitempty,eqfield=NewPassword"`
}

type DeleteAccountInput struct {
	Password        string `json:"password" form:"password" binding:"required"`
	ConfirmDeletion bool   `json:"confirm_deletion" form:"confirm_deletion" binding:"required"`
}

type ProfileResponse struct {
	User *entity.User `json:"user"`
	Role string       `json:"role"`
}

type DeleteAccountResult struct {
	RemovedResources int `json:"removed_resources"`
	RemovedFiles     int `json:"removed_files"`
}
