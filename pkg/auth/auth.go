package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arnavshah/alterations-api/pkg/apperr"
	"github.com/arnavshah/alterations-api/pkg/config"
	"github.com/arnavshah/alterations-api/pkg/database"
	"github.com/arnavshah/alterations-api/pkg/models"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

var jwtAlgorithm = jwt.SigningMethodHS256

const bcryptCost = 12

// Claims represents the JWT claims
type Claims struct {
	StaffID  uint        `json:"staff_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies staff session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(cfg config.Auth) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(cfg.JWTSecret), ttl: ttl, now: time.Now}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for a staff member
func (i *TokenIssuer) CreateToken(staff *models.Staff) (string, error) {
	now := i.now()
	claims := &Claims{
		StaffID:  staff.ID,
		Username: staff.Username,
		Role:     staff.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staff.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(i.secret)
}

// VerifyToken verifies a JWT token
func (i *TokenIssuer) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}

	if !token.Valid || claims.StaffID == 0 {
		return nil, fmt.Errorf("%w: invalid token", apperr.ErrUnauthenticated)
	}

	return claims, nil
}

// Login checks credentials and returns a signed token for an active staff
// member. Unknown users and wrong passwords look the same to the caller.
func (i *TokenIssuer) Login(ctx context.Context, store *database.Store, username, password string) (string, *models.Staff, error) {
	staff, err := store.FindStaffByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
	}
	if err != nil {
		return "", nil, fmt.Errorf("auth.Login: %w", err)
	}
	if !staff.IsActive || !CheckPasswordHash(password, staff.PasswordHash) {
		return "", nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
	}

	token, err := i.CreateToken(staff)
	if err != nil {
		return "", nil, fmt.Errorf("auth.Login: %w", err)
	}
	return token, staff, nil
}

// EnsureAdminStaff creates the bootstrap admin when no staff exists yet.
func EnsureAdminStaff(ctx context.Context, store *database.Store, cfg config.Auth, log *slog.Logger) error {
	const op = "auth.EnsureAdminStaff"

	count, err := store.CountStaff(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	admin := &models.Staff{
		Name:         "Administrator",
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := store.CreateStaff(ctx, admin); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("default admin created", slog.String("username", admin.Username))
	return nil
}
