package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"evalgo.org/pathium/models"
)

var (
	// ErrInvalidToken is returned when an access token is invalid
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCredentials is returned when credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an existing email
	ErrEmailTaken = errors.New("a user with this email already exists")
)

// claims are the JWT custom claims carried by access tokens.
type claims struct {
	jwt.RegisteredClaims
}

type account struct {
	user models.User
	hash []byte
}

// AuthService issues and validates access tokens against an in-memory user
// store. All registrations receive the operator role; the first admin is
// created out of band.
type AuthService struct {
	mu         sync.RWMutex
	secret     []byte
	expiration time.Duration
	accounts   map[string]*account
	nextID     int
}

// NewAuthService creates an auth service with an empty user store.
func NewAuthService(secret string, expiration time.Duration) *AuthService {
	return &AuthService{
		secret:     []byte(secret),
		expiration: expiration,
		accounts:   make(map[string]*account),
		nextID:     1,
	}
}

// Register creates an account and returns the stored user.
func (a *AuthService) Register(email, password string, fullName *string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.accounts[email]; exists {
		return nil, ErrEmailTaken
	}

	user := models.User{
		ID:        a.nextID,
		Email:     email,
		FullName:  fullName,
		Role:      models.RoleOperator,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	a.nextID++
	a.accounts[email] = &account{user: user, hash: hash}

	return &user, nil
}

// Authenticate checks credentials and returns a signed access token.
func (a *AuthService) Authenticate(email, password string) (string, error) {
	a.mu.RLock()
	acc, ok := a.accounts[email]
	a.mu.RUnlock()

	if !ok || !acc.user.IsActive {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "pathium",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// UserFromToken validates an access token and resolves its user.
func (a *AuthService) UserFromToken(tokenString string) (*models.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	c, ok := token.Claims.(*claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	a.mu.RLock()
	acc, exists := a.accounts[c.Subject]
	a.mu.RUnlock()
	if !exists || !acc.user.IsActive {
		return nil, ErrInvalidToken
	}

	user := acc.user
	return &user, nil
}

const userContextKey = "pathium.user"

// RequireAuth is echo middleware that resolves the bearer token into a user
// and stores it in the request context.
func (a *AuthService) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
		}

		user, err := a.UserFromToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

// currentUser returns the authenticated user placed by RequireAuth.
func currentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}
