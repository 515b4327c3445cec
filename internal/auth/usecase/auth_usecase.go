package usecase

import (
	"errors"
	"time"

	authdomain "inboxpilot-backend/internal/auth/domain"
	"inboxpilot-backend/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthUsecase issues and validates the access tokens the dashboard sends.
// Login and session refresh live in the dashboard's identity provider.
type AuthUsecase interface {
	IssueToken(userID, orgID string, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (*authdomain.Principal, error)
}

type authUsecase struct {
	config *config.Config
	now    func() time.Time
}

func NewAuthUsecase(cfg *config.Config) AuthUsecase {
	return &authUsecase{
		config: cfg,
		now:    time.Now,
	}
}

// IssueToken signs an access token for a user acting in an organization. A zero
// ttl uses the configured access expiry.
func (u *authUsecase) IssueToken(userID, orgID string, ttl time.Duration) (string, error) {
	if userID == "" || orgID == "" {
		return "", errors.New("user and organization are required")
	}
	if ttl <= 0 {
		ttl = u.config.JWTAccessExpiry
	}
	now := u.now()
	claims := jwt.MapClaims{
		"user_id":  userID,
		"org_id":   orgID,
		"token_id": uuid.New().String(),
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, errors.New("invalid token claims")
	}
	orgID, ok := claims["org_id"].(string)
	if !ok || orgID == "" {
		return nil, errors.New("token has no organization")
	}

	return &authdomain.Principal{UserID: userID, OrgID: orgID}, nil
}
