package handlers

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/prehome/backend/internal/models"
	"github.com/anonto42/prehome/backend/internal/repositories"
	"github.com/anonto42/prehome/backend/pkg/config"
	"github.com/anonto42/prehome/backend/pkg/firebase"
	"github.com/anonto42/prehome/backend/pkg/mailer"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgBlocked            = "Your account has been blocked. Please contact support."
	msgInvalidOtp         = "Invalid or expired OTP"
	msgInvalidResetToken  = "Invalid or expired reset token"

	resetAudience = "password-reset"
)

// GoogleVerifier verifies a Google sign-in ID token
type GoogleVerifier interface {
	VerifyGoogleToken(ctx context.Context, idToken string) (*firebase.GoogleIdentity, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	otpRepository  repositories.OtpRepository
	google         GoogleVerifier
	mail           mailer.Sender

	jwtSecret         string
	jwtTTL            time.Duration
	otpTTL            time.Duration
	adminEmail        string
	adminPasswordHash string
}

// NewAuthHandler creates a new AuthHandler. google may be nil, in which case
// Google sign-in answers 503.
func NewAuthHandler(userRepo repositories.UserRepository, otpRepo repositories.OtpRepository, google GoogleVerifier, sender mailer.Sender, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userRepository:    userRepo,
		otpRepository:     otpRepo,
		google:            google,
		mail:              sender,
		jwtSecret:         cfg.JWTSecret,
		jwtTTL:            cfg.JWTTTL,
		otpTTL:            cfg.OtpTTL,
		adminEmail:        cfg.AdminEmail,
		adminPasswordHash: cfg.AdminPasswordHash,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/google-login", h.GoogleLogin)
	g.POST("/facebook-login", h.FacebookLogin)
	g.POST("/send-otp", h.SendOtp)
	g.POST("/verify-otp", h.VerifyOtp)
	g.POST("/set-password", h.SetPassword)
	g.POST("/forgot-password", h.ForgotPassword)
	g.POST("/verify-reset-otp", h.VerifyResetOtp)
	g.POST("/reset-password", h.ResetPassword)
}

// RegisterAdminAuthRoutes registers the dashboard login
func (h *AuthHandler) RegisterAdminAuthRoutes(g *echo.Group) {
	g.POST("/login", h.AdminLogin)
}

// Register handles local user registration with email and password
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.CredentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	_, err := h.userRepository.GetUserByEmail(ctx, req.Email)
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User already exists")
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return repositoryError(c, err, "")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{Email: req.Email, Password: string(hashedPassword)}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "User already exists")
		}
		return repositoryError(c, err, "")
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully", "userId": user.ID.Hex()})
}

// Login handles email and password authentication.
// Unknown email and wrong password are deliberately indistinguishable.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.CredentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidCredentials)
	}
	if err != nil {
		return repositoryError(c, err, "")
	}

	if user.IsBlocked {
		return echo.NewHTTPError(http.StatusForbidden, msgBlocked)
	}

	if !user.HasPassword() {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidCredentials)
	}

	return h.respondWithToken(c, user, "Login successful")
}

// GoogleLogin verifies a Firebase ID token from Google sign-in and issues a local JWT.
// The account is created on first sight.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	if h.google == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Google login is not configured")
	}

	var req models.GoogleLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	identity, err := h.google.VerifyGoogleToken(ctx, req.IDToken)
	if err != nil {
		c.Logger().Warnf("google token rejected: %v", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Google ID token")
	}

	email := models.NormalizeEmail(identity.Email)
	user, err := h.userRepository.GetUserByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		user = &models.User{Email: email, IsGoogleUser: true}
		err = h.userRepository.CreateUser(ctx, user)
		if errors.Is(err, repositories.ErrDuplicate) {
			user, err = h.userRepository.GetUserByEmail(ctx, email)
		}
	}
	if err != nil {
		return repositoryError(c, err, "")
	}

	if user.IsBlocked {
		return echo.NewHTTPError(http.StatusForbidden, msgBlocked)
	}
	return h.respondWithToken(c, user, "Google login successful")
}

// FacebookLogin signs in by the Facebook user id returned by the client SDK.
// The account is created on first sight.
func (h *AuthHandler) FacebookLogin(c echo.Context) error {
	var req models.FacebookLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Facebook userID is required")
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByFacebookID(ctx, req.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		user = &models.User{FacebookID: req.UserID}
		err = h.userRepository.CreateUser(ctx, user)
		if errors.Is(err, repositories.ErrDuplicate) {
			user, err = h.userRepository.GetUserByFacebookID(ctx, req.UserID)
		}
	}
	if err != nil {
		return repositoryError(c, err, "")
	}

	if user.IsBlocked {
		return echo.NewHTTPError(http.StatusForbidden, msgBlocked)
	}
	return h.respondWithToken(c, user, "Facebook login successful")
}

// SendOtp mails a fresh verification code, invalidating earlier ones
func (h *AuthHandler) SendOtp(c echo.Context) error {
	var req models.EmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.issueOtp(c, req.Email, "Your OTP Code", "Your OTP code is %s"); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "OTP sent to email"})
}

// VerifyOtp consumes a verification code and returns a reset token for set-password
func (h *AuthHandler) VerifyOtp(c echo.Context) error {
	return h.verifyOtp(c, "OTP verified, you can now set your password")
}

// SetPassword stores a password for an existing account. It needs the reset token from verify-otp.
func (h *AuthHandler) SetPassword(c echo.Context) error {
	return h.updatePassword(c, "Password set successfully")
}

// ForgotPassword mails a reset code to a registered email
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req models.EmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	_, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return repositoryError(c, err, "Email not found")
	}

	body := "Your password reset OTP is %s. It will expire in " + h.otpTTL.String() + "."
	if err := h.issueOtp(c, req.Email, "Password Reset OTP", body); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "OTP sent to email"})
}

// VerifyResetOtp consumes a password reset code and returns a reset token
func (h *AuthHandler) VerifyResetOtp(c echo.Context) error {
	return h.verifyOtp(c, "OTP verified. You can now reset your password.")
}

// ResetPassword replaces the password of an existing account. It needs the reset token from verify-reset-otp.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	return h.updatePassword(c, "Password reset successfully")
}

// AdminLogin checks the configured dashboard credentials and issues an admin token
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req models.CredentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if h.adminEmail == "" || h.adminPasswordHash == "" {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Admin login is not configured")
	}
	if !strings.EqualFold(req.Email, h.adminEmail) {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.adminPasswordHash), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidCredentials)
	}

	token, err := h.generateJWT(models.RoleAdmin, h.adminEmail, models.RoleAdmin)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(http.StatusOK, models.LoginResponse{Message: "Admin login successful", Token: token, UserID: models.RoleAdmin})
}

func (h *AuthHandler) issueOtp(c echo.Context, email, subject, bodyFormat string) error {
	code, err := generateOtp()
	if err != nil {
		c.Logger().Errorf("otp generation: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to send OTP")
	}

	if err := h.otpRepository.Replace(c.Request().Context(), &models.Otp{Email: email, Code: code}); err != nil {
		c.Logger().Errorf("store otp for %s: %v", email, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to send OTP")
	}

	if err := h.mail.Send(email, subject, fmt.Sprintf(bodyFormat, code)); err != nil {
		c.Logger().Errorf("%v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to send OTP")
	}
	return nil
}

func (h *AuthHandler) verifyOtp(c echo.Context, message string) error {
	var req models.VerifyOtpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.Normalize()
	if err := c.Validate(&req); err != nil {
		// a malformed code can never match a stored one
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidOtp)
	}

	ctx := c.Request().Context()
	notBefore := time.Now().Add(-h.otpTTL)
	if _, err := h.otpRepository.FindValid(ctx, req.Email, req.Otp, notBefore); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, msgInvalidOtp)
		}
		return repositoryError(c, err, "")
	}

	if err := h.otpRepository.DeleteByEmail(ctx, req.Email); err != nil {
		return repositoryError(c, err, "")
	}

	resetToken, err := h.generateResetToken(req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": message, "resetToken": resetToken})
}

func (h *AuthHandler) updatePassword(c echo.Context, message string) error {
	var req models.PasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if !h.validResetToken(req.ResetToken, req.Email) {
		return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidResetToken)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	if err := h.userRepository.UpdatePassword(c.Request().Context(), req.Email, string(hashedPassword)); err != nil {
		return repositoryError(c, err, "User not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": message})
}

func (h *AuthHandler) respondWithToken(c echo.Context, user *models.User, message string) error {
	token, err := h.generateJWT(user.ID.Hex(), user.Email, models.RoleUser)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(http.StatusOK, models.LoginResponse{Message: message, Token: token, UserID: user.ID.Hex()})
}

// generateJWT generates a JWT token for a given subject
func (h *AuthHandler) generateJWT(userID, email, role string) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}

// generateResetToken signs proof that email passed OTP verification, valid for one OTP lifetime
func (h *AuthHandler) generateResetToken(email string) (string, error) {
	now := time.Now()
	claims := &models.PasswordResetClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{resetAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(h.otpTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}

func (h *AuthHandler) validResetToken(raw, email string) bool {
	if raw == "" {
		return false
	}
	claims := &models.PasswordResetClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.jwtSecret), nil
	})
	return err == nil && token.Valid && claims.VerifyAudience(resetAudience, true) && claims.Email == email
}

// generateOtp returns a uniformly random six digit code in 100000-999999
func generateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
