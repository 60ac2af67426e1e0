package users

// RegisterInput is a registration request. Password is plaintext and must
// never be logged or persisted.
type RegisterInput struct {
	Email    string
	Password string
}

// User is the persisted registration record.
type User struct {
	Email        string
	PasswordHash string
}
