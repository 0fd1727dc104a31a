package validate_token

// ValidateTokenRequest HTTP request model
type ValidateTokenRequest struct {
	Token string `json:"token"`
}
