package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "focusmate/internal/errors"
	"focusmate/internal/model"
	"focusmate/internal/repository"
)

const minPasswordLength = 8

type AuthService struct {
	userRepo     *repository.UserRepository
	google       GoogleVerifier
	jwtSecret    []byte
	tokenTTL     time.Duration
	defaultImage string
}

// NewAuthService wires token issuing and the account store. A nil google
// verifier disables Google sign-in.
func NewAuthService(
	userRepo *repository.UserRepository,
	google GoogleVerifier,
	jwtSecret string,
	tokenTTL time.Duration,
	defaultImage string,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		google:       google,
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     tokenTTL,
		defaultImage: defaultImage,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

func (s *AuthService) GoogleEnabled() bool {
	return s.google != nil
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, *apperrors.APIError) {
	name := strings.TrimSpace(input.Name)
	normalizedEmail := normalizeEmail(input.Email)

	details := map[string]string{}
	if name == "" {
		details["name"] = "name is required"
	}
	if !isValidEmail(normalizedEmail) {
		details["email"] = "a valid email is required"
	}
	if len(input.Password) < minPasswordLength {
		details["password"] = "password must be at least 8 characters"
	}
	if len(details) > 0 {
		return nil, apperrors.Validation(details)
	}

	_, err := s.userRepo.GetByEmail(ctx, normalizedEmail)
	if err == nil {
		return nil, apperrors.Conflict("email_exists", "email already registered", nil)
	}
	if err != repository.ErrNotFound {
		return nil, apperrors.Wrap(err, "failed to query user")
	}

	passwordHashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to secure password")
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        normalizedEmail,
		PasswordHash: string(passwordHashBytes),
		Provider:     model.ProviderLocal,
		Image:        s.defaultImage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, &user); err != nil {
		if err == repository.ErrDuplicate {
			return nil, apperrors.Conflict("email_exists", "email already registered", nil)
		}
		return nil, apperrors.Wrap(err, "failed to create user")
	}

	return s.result(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, *apperrors.APIError) {
	normalizedEmail := normalizeEmail(email)
	if normalizedEmail == "" || password == "" {
		return nil, apperrors.BadRequest("invalid_credentials", "email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, normalizedEmail)
	if err == repository.ErrNotFound {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query user")
	}

	// Google-only accounts have no password to compare against.
	if user.PasswordHash == "" {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	return s.result(*user)
}

// GoogleLogin verifies a Google ID token and signs the matching account in,
// linking an existing local account by email or creating a new one.
func (s *AuthService) GoogleLogin(ctx context.Context, credential string) (*AuthResult, *apperrors.APIError) {
	if s.google == nil {
		return nil, apperrors.Unavailable("google_auth_disabled", "google sign-in is not configured")
	}
	if strings.TrimSpace(credential) == "" {
		return nil, apperrors.BadRequest("invalid_credential", "credential is required")
	}

	identity, err := s.google.Verify(ctx, credential)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid google credential")
	}

	user, err := s.userRepo.GetByGoogleID(ctx, identity.Subject)
	if err == nil {
		return s.result(*user)
	}
	if err != repository.ErrNotFound {
		return nil, apperrors.Wrap(err, "failed to query user")
	}

	normalizedEmail := normalizeEmail(identity.Email)
	if normalizedEmail == "" {
		return nil, apperrors.Unauthorized("google account has no email")
	}

	now := time.Now().UTC()
	subject := identity.Subject

	user, err = s.userRepo.GetByEmail(ctx, normalizedEmail)
	switch {
	case err == nil:
		user.GoogleID = &subject
		if user.Image == "" || user.Image == s.defaultImage {
			if identity.Picture != "" {
				user.Image = identity.Picture
			}
		}
		user.UpdatedAt = now
		if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
			return nil, apperrors.Wrap(err, "failed to link google account")
		}
		return s.result(*user)
	case err != repository.ErrNotFound:
		return nil, apperrors.Wrap(err, "failed to query user")
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = strings.SplitN(normalizedEmail, "@", 2)[0]
	}
	image := identity.Picture
	if image == "" {
		image = s.defaultImage
	}

	created := model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     normalizedEmail,
		Provider:  model.ProviderGoogle,
		GoogleID:  &subject,
		Image:     image,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, &created); err != nil {
		if err == repository.ErrDuplicate {
			return nil, apperrors.Conflict("email_exists", "email already registered", nil)
		}
		return nil, apperrors.Wrap(err, "failed to create user")
	}
	return s.result(created)
}

func (s *AuthService) ParseToken(tokenString string) (string, *apperrors.APIError) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", apperrors.Unauthorized("invalid token")
	}

	if claims.Subject == "" {
		return "", apperrors.Unauthorized("invalid token subject")
	}

	return claims.Subject, nil
}

func (s *AuthService) result(user model.User) (*AuthResult, *apperrors.APIError) {
	token, apiErr := s.issueToken(user)
	if apiErr != nil {
		return nil, apiErr
	}

	user.PasswordHash = ""
	return &AuthResult{
		Token: token,
		User:  user,
	}, nil
}

func (s *AuthService) issueToken(user model.User) (string, *apperrors.APIError) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
