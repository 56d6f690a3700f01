package mapper

import "accounts-backend/internal/features/user/models"

// ToUserResponse maps User model to UserResponse DTO
func ToUserResponse(user *models.User) *models.UserResponse {
	return &models.UserResponse{
		ID:             user.ID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		Age:            user.Age,
		Role:           user.Role,
		Documents:      user.Documents,
		LastConnection: user.LastConnection,
		CreatedAt:      user.CreatedAt,
	}
}

// ToSessionIdentity projects a user into the minimal identity stored in
// the session at login.
func ToSessionIdentity(user *models.User) models.SessionIdentity {
	return models.SessionIdentity{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
	}
}
