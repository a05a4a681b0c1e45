package dto

import (
	"anoa.com/tutorhub/internal/entity"
)

type RegisterInput struct {
	Email       string `json:"email" binding:"required,email,max=254"`
	Password    string `json:"password" binding:"required,strongpassword"`
	Confirm     string `json:"confirm" binding:"omitempty,eqfield=Password"`
	FullName    string `json:"full_name" binding:"required,personname"`
	DateOfBirth string `json:"date_of_birth" binding:"required,datetime=2006-01-02"`
	Role        string `json:"role" binding:"required,oneof=learner tutor guardian"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

type AuthResponse struct {
	AccessToken   string       `json:"access_token"`
	TokenType     string       `json:"token_type"`
	ExpiresIn     int64        `json:"expires_in"`
	User          *entity.User `json:"user"`
	Role          *entity.Role `json:"role"`
	RememberToken string       `json:"-"`
}
