package dto

import "github.com/Emmanuelamanga/cos-platform/internal/domain/model"

type UpdateProfileRequest struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	County      string `json:"county"`
}

type ProfileResponse struct {
	Account model.Account     `json:"account"`
	Cases   *CaseListResponse `json:"cases,omitempty"`
}
