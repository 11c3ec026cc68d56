package model

// ProfileUpdate — обновление собственного профиля
// (PUT /auth/users/me/settings, вариант с данными профиля).
type ProfileUpdate struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	TelegramID *string `json:"telegram_id,omitempty"`
}

// PasswordUpdate — смена собственного пароля
// (PUT /auth/users/me/settings, вариант с паролями).
type PasswordUpdate struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
