package authapi

import "budgetly/cmd/identity"

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type registerResponse struct {
	UserID string `json:"userId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type currentUserResponse struct {
	Email     string `json:"email"`
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type validationResponse struct {
	Errors []identity.FieldError `json:"errors"`
}
