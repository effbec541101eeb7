package request

// CreateGuestRequest is the request body for anonymous sign-in
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for creating an account
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for email/password sign-in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenLoginRequest is the request body for one-time token sign-in
type TokenLoginRequest struct {
	Token string `json:"token"`
}

// ProviderLoginRequest is the request body for external provider sign-in.
// The subject is the provider's stable identifier for the account.
type ProviderLoginRequest struct {
	Provider    string `json:"provider"`
	Subject     string `json:"subject"`
	DisplayName string `json:"display_name"`
}

// GenerateFragmentRequest is the request body for fragment generation.
// Field names match the wire contract the web client already speaks.
type GenerateFragmentRequest struct {
	SecretTag      *string `json:"secretTag"`
	DifficultyTier *int    `json:"difficultyTier"`
}

// UpdateProfileRequest is the request body for a full stats write
type UpdateProfileRequest struct {
	Username          string `json:"username"`
	CurrentScore      int    `json:"currentScore"`
	HighestScore      int    `json:"highestScore"`
	CurrentStreak     int    `json:"currentStreak"`
	HighestStreak     int    `json:"highestStreak"`
	DifficultyTier    int    `json:"difficultyTier"`
	TotalRoundsPlayed int    `json:"totalRoundsPlayed"`
}
