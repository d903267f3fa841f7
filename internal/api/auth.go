package api

import (
	"net/http" // HTTP status codes
	"regexp"   // Regular expressions

	"stocksim/internal/ledger" // Ledger store
	"stocksim/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Username        string `json:"username" binding:"required"`         // Username must be provided
	Password        string `json:"password" binding:"required"`         // Password must be provided
	ConfirmPassword string `json:"confirm_password" binding:"required"` // Confirmation must be provided
}

// LoginRequest is the login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// AuthResponse carries the issued token
type AuthResponse struct {
	Token string `json:"token"` // JWT token
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// isValidUsername checks the username shape: letters first, then letters,
// digits or underscores
func isValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// isValidPassword checks if the password length is between 8 and 64 characters
func isValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 64
}

// RegisterHandler creates a new account seeded with the starting cash balance
func RegisterHandler(store *ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			apology(c, http.StatusBadRequest, "Invalid request")
			return
		}
		// Validate username and password shape
		if !isValidUsername(req.Username) {
			apology(c, http.StatusBadRequest, "Username must start with a letter and contain only letters, digits or underscores")
			return
		}
		if !isValidPassword(req.Password) {
			apology(c, http.StatusBadRequest, "Password must be 8-64 characters")
			return
		}
		if req.Password != req.ConfirmPassword {
			apology(c, http.StatusBadRequest, "Passwords did not match")
			return
		}
		userID, err := store.CreateUser(req.Username, req.Password)
		if err != nil {
			// Duplicate names surface as-is, anything else stays generic
			if err == ledger.ErrDuplicateUsername {
				apology(c, http.StatusBadRequest, "Username already taken")
				return
			}
			apology(c, http.StatusInternalServerError, "Failed to register user")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user_id": userID})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(store *ledger.Store, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			apology(c, http.StatusBadRequest, "Invalid request")
			return
		}
		userID, err := store.VerifyCredentials(req.Username, req.Password)
		if err != nil {
			// No detail leaked: unknown user and bad password look the same
			apology(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		token, err := utils.GenerateJWT(userID, jwtSecret)
		if err != nil {
			apology(c, http.StatusInternalServerError, "Failed to generate token")
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token})
	}
}
