package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/linkupapp/backend/internal/apperrors"
	"github.com/linkupapp/backend/internal/email"
	"github.com/linkupapp/backend/internal/logger"
	"github.com/linkupapp/backend/internal/models"
	"github.com/linkupapp/backend/internal/repositories"
	"github.com/linkupapp/backend/internal/sms"
	"github.com/linkupapp/backend/pkg/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	otpTTL       = 10 * time.Minute
	resendOTPTTL = 15 * time.Minute
	tokenTTL     = 72 * time.Hour
)

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{9,14}$`)

// AuthHandler handles registration, OTP verification and login.
type AuthHandler struct {
	profiles    repositories.ProfileRepository
	emailSender email.Sender
	smsSender   sms.Sender
	cfg         *config.Config
}

func NewAuthHandler(profiles repositories.ProfileRepository, emailSender email.Sender, smsSender sms.Sender, cfg *config.Config) *AuthHandler {
	return &AuthHandler{profiles: profiles, emailSender: emailSender, smsSender: smsSender, cfg: cfg}
}

// RegisterAuthRoutes registers the unauthenticated auth endpoints.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.POST("/verify-email-otp", h.VerifyEmailOTP)
	g.POST("/verify-mobile-otp", h.VerifyMobileOTP)
	g.POST("/resend-otp", h.ResendOTP)
}

// Signup registers an account with email or mobile and sends a verification
// code. An unverified account holding the same identifier is discarded and
// replaced; a verified one makes the identifier unavailable.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Email == "" && req.Mobile == "" {
		return apperrors.Validation("Either email or mobile is required")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Mobile != "" {
		mobile, err := normalizeMobile(req.Mobile)
		if err != nil {
			return apperrors.Validation("Invalid mobile number")
		}
		req.Mobile = mobile
	}

	existing, err := h.profiles.GetByEmailOrMobile(req.Email, req.Mobile)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil {
		if existing.EmailVerified || existing.MobileVerified {
			return apperrors.Conflict("An account with this email or mobile already exists")
		}
		// Stale unverified registration: the identifier was never proven, so
		// the new attempt wins.
		if err := h.profiles.Delete(existing.ID); err != nil {
			return err
		}
		logger.Log.Info("Replaced unverified registration", zap.Uint("profile_id", existing.ID))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	otp, err := generateOTP()
	if err != nil {
		return err
	}
	expires := time.Now().Add(otpTTL)

	profile := models.Profile{
		Name:       req.Name,
		Email:      req.Email,
		Mobile:     req.Mobile,
		Password:   string(hashed),
		OTP:        otp,
		OTPExpires: &expires,
	}
	if err := h.profiles.Create(&profile); err != nil {
		return err
	}

	if err := h.deliverOTP(c, &profile, otp); err != nil {
		return err
	}

	data := echo.Map{"user": profile.ToCompact()}
	if h.cfg.IsDevelopment() {
		data["otp"] = otp
	}
	logger.Log.Info("Account registered", zap.Uint("profile_id", profile.ID))
	return respond(c, http.StatusCreated, "Account created. Please verify with the code we sent you.", data)
}

// VerifyEmailOTP confirms an email verification code and issues a token.
func (h *AuthHandler) VerifyEmailOTP(c echo.Context) error {
	var req models.VerifyEmailOTPRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	profile, err := h.profiles.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("User not found")
		}
		return err
	}
	if err := checkOTP(profile, req.OTP); err != nil {
		return err
	}

	profile.EmailVerified = true
	clearOTP(profile)
	if err := h.profiles.Update(profile); err != nil {
		return err
	}
	return h.respondWithToken(c, profile, "Email verified successfully")
}

// VerifyMobileOTP confirms a mobile verification code and issues a token.
func (h *AuthHandler) VerifyMobileOTP(c echo.Context) error {
	var req models.VerifyMobileOTPRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	mobile, err := normalizeMobile(req.Mobile)
	if err != nil {
		return apperrors.Validation("Invalid mobile number")
	}
	profile, err := h.profiles.GetByMobile(mobile)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("User not found")
		}
		return err
	}
	if err := checkOTP(profile, req.OTP); err != nil {
		return err
	}

	profile.MobileVerified = true
	clearOTP(profile)
	if err := h.profiles.Update(profile); err != nil {
		return err
	}
	return h.respondWithToken(c, profile, "Mobile verified successfully")
}

// ResendOTP issues a fresh code for an account still awaiting verification.
// The resent code gets a longer window than the signup one.
func (h *AuthHandler) ResendOTP(c echo.Context) error {
	var req models.ResendOTPRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Email == "" && req.Mobile == "" {
		return apperrors.Validation("Either email or mobile is required")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Mobile != "" {
		mobile, err := normalizeMobile(req.Mobile)
		if err != nil {
			return apperrors.Validation("Invalid mobile number")
		}
		req.Mobile = mobile
	}

	profile, err := h.profiles.GetByEmailOrMobile(req.Email, req.Mobile)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("User not found")
		}
		return err
	}
	if (req.Email != "" && profile.EmailVerified) || (req.Mobile != "" && profile.MobileVerified) {
		return apperrors.Conflict("Account is already verified")
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}
	expires := time.Now().Add(resendOTPTTL)
	profile.OTP = otp
	profile.OTPExpires = &expires
	if err := h.profiles.Update(profile); err != nil {
		return err
	}

	if err := h.deliverOTP(c, profile, otp); err != nil {
		return err
	}

	var data echo.Map
	if h.cfg.IsDevelopment() {
		data = echo.Map{"otp": otp}
	}
	return respondOK(c, "Verification code sent", data)
}

// Login authenticates with email or mobile plus password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Email == "" && req.Mobile == "" {
		return apperrors.Validation("Either email or mobile is required")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Mobile != "" {
		if mobile, err := normalizeMobile(req.Mobile); err == nil {
			req.Mobile = mobile
		}
	}

	profile, err := h.profiles.GetByEmailOrMobile(req.Email, req.Mobile)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same answer as a bad password; never confirm account existence.
			return apperrors.Unauthorized("Invalid credentials")
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(req.Password)); err != nil {
		return apperrors.Unauthorized("Invalid credentials")
	}

	logger.Log.Info("User logged in", zap.Uint("profile_id", profile.ID))
	return h.respondWithToken(c, profile, "Login successful")
}

// deliverOTP routes the code to email or SMS, whichever identifier the
// account registered with. Delivery failure aborts the request: a code the
// user can never receive is worse than an error. In development no
// collaborator is called.
func (h *AuthHandler) deliverOTP(c echo.Context, profile *models.Profile, otp string) error {
	if h.cfg.IsDevelopment() {
		logger.Log.Debug("Skipping OTP delivery in development", zap.Uint("profile_id", profile.ID))
		return nil
	}

	if profile.Email != "" {
		body := fmt.Sprintf("Your verification code is %s. It expires shortly, so use it soon.", otp)
		if err := h.emailSender.Send(c.Request().Context(), profile.Email, "Your verification code", body); err != nil {
			logger.Log.Error("OTP email delivery failed", zap.Uint("profile_id", profile.ID), zap.Error(err))
			return apperrors.Upstream("email service")
		}
		return nil
	}
	if err := h.smsSender.Send(profile.Mobile, fmt.Sprintf("Your verification code is %s", otp)); err != nil {
		logger.Log.Error("OTP SMS delivery failed", zap.Uint("profile_id", profile.ID), zap.Error(err))
		return apperrors.Upstream("sms service")
	}
	return nil
}

func (h *AuthHandler) respondWithToken(c echo.Context, profile *models.Profile, message string) error {
	token, err := h.generateJWT(profile)
	if err != nil {
		return err
	}
	return respondOK(c, message, echo.Map{
		"user":         profile,
		"access_token": token,
	})
}

func (h *AuthHandler) generateJWT(profile *models.Profile) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID: profile.ID,
		Email:  profile.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// checkOTP validates the submitted code against the stored one and its expiry.
func checkOTP(profile *models.Profile, otp string) error {
	if profile.OTP == "" ||
		subtle.ConstantTimeCompare([]byte(profile.OTP), []byte(otp)) != 1 {
		return apperrors.Validation("Invalid OTP or OTP has expired")
	}
	if profile.OTPExpires == nil || time.Now().After(*profile.OTPExpires) {
		return apperrors.Validation("Invalid OTP or OTP has expired")
	}
	return nil
}

func clearOTP(profile *models.Profile) {
	profile.OTP = ""
	profile.OTPExpires = nil
}

// generateOTP returns a 6-digit code from crypto/rand.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// normalizeMobile canonicalizes a number to E.164. Numbers without a country
// code get the default calling code prepended.
func normalizeMobile(raw string) (string, error) {
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	mobile := b.String()
	if mobile != "" && !strings.HasPrefix(mobile, "+") {
		mobile = "+91" + mobile
	}
	if !e164Pattern.MatchString(mobile) {
		return "", fmt.Errorf("invalid mobile number: %q", raw)
	}
	return mobile, nil
}
