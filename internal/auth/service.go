// Package auth is the authentication provider client: credential
// verification, session tokens, password reset and profile updates, plus the
// session/gate layer the rest of the app observes.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	dbpkg "github.com/lebelle-app/agenda-api/internal/db"
	"github.com/lebelle-app/agenda-api/internal/models"
)

const minPasswordLen = 6

// User is the authenticated account as seen by the rest of the app.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

// Mailer delivers password-reset tokens out of band.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer is the development stand-in: it logs instead of sending.
type LogMailer struct {
	Logger *zap.Logger
}

func (m LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.Logger.Info("password reset requested", zap.String("email", email), zap.String("token", token))
	return nil
}

type Service struct {
	db        *gorm.DB
	jwtSecret string
	mailer    Mailer
	logger    *zap.Logger
}

func NewService(db *gorm.DB, jwtSecret string, mailer Mailer, logger *zap.Logger) *Service {
	return &Service{db: db, jwtSecret: jwtSecret, mailer: mailer, logger: logger}
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if !isEmailShaped(email) {
		return nil, ErrInvalidEmail
	}

	var acc models.Account
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, ErrWrongPassword
	}

	return userFromAccount(&acc), nil
}

func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*User, error) {
	email = normalizeEmail(email)
	if !isEmailShaped(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailInUse
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	acc := models.Account{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashed),
		DisplayName:  strings.TrimSpace(displayName),
	}
	if err := s.db.WithContext(ctx).Create(&acc).Error; err != nil {
		if dbpkg.IsDuplicate(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	return userFromAccount(&acc), nil
}

func (s *Service) GetUser(ctx context.Context, uid string) (*User, error) {
	var acc models.Account
	err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return userFromAccount(&acc), nil
}

// UpdateProfile sets display name and/or photo URL; empty arguments leave
// the current value untouched.
func (s *Service) UpdateProfile(ctx context.Context, uid, displayName, photoURL string) (*User, error) {
	updates := map[string]any{}
	if displayName != "" {
		updates["display_name"] = strings.TrimSpace(displayName)
	}
	if photoURL != "" {
		updates["photo_url"] = photoURL
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Account{}).
			Where("uid = ?", uid).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrUserNotFound
		}
	}
	return s.GetUser(ctx, uid)
}

// SendPasswordReset issues a short-lived reset token and hands it to the
// mailer. The account must exist.
func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !isEmailShaped(email) {
		return ErrInvalidEmail
	}

	var acc models.Account
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	claims := jwt.MapClaims{
		"sub":     acc.UID,
		"purpose": "password_reset",
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return err
	}

	return s.mailer.SendPasswordReset(ctx, email, token)
}

// ResetPassword completes the reset loop started by SendPasswordReset.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidCredential
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidCredential
	}
	if purpose, _ := claims["purpose"].(string); purpose != "password_reset" {
		return ErrInvalidCredential
	}
	uid, _ := claims["sub"].(string)
	if uid == "" {
		return ErrInvalidCredential
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("uid = ?", uid).Update("password_hash", string(hashed))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Token issues the session JWT carried by the app: uid plus resolved salon.
func (s *Service) Token(user *User, salonID string) (string, error) {
	claims := jwt.MapClaims{
		"sub":     user.UID,
		"salonId": salonID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
}

func userFromAccount(acc *models.Account) *User {
	return &User{
		UID:         acc.UID,
		Email:       acc.Email,
		DisplayName: acc.DisplayName,
		PhotoURL:    acc.PhotoURL,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isEmailShaped(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
