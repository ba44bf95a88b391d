package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Profile is the identity row in PostgreSQL: credentials, verification state
// and the public-facing profile with its denormalized counters. Email and
// mobile are deliberately NOT unique at the schema level: an unverified row
// with a colliding identifier is deleted and replaced on re-registration, so
// uniqueness is only enforced for verified accounts by the signup path.
type Profile struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	Name     string  `json:"name"`
	Username *string `json:"username,omitempty" gorm:"uniqueIndex"`
	Email    string  `json:"email,omitempty" gorm:"index"`
	Mobile   string  `json:"mobile,omitempty" gorm:"index"`
	Password string  `json:"-"`

	EmailVerified  bool       `json:"email_verified" gorm:"default:false"`
	MobileVerified bool       `json:"mobile_verified" gorm:"default:false"`
	OTP            string     `json:"-"`
	OTPExpires     *time.Time `json:"-"`

	Avatar    string `json:"avatar,omitempty"`
	Bio       string `json:"bio,omitempty" gorm:"size:500"`
	Location  string `json:"location,omitempty"`
	Website   string `json:"website,omitempty"`
	IsPrivate bool   `json:"is_private" gorm:"default:false"`

	FollowersCount int `json:"followers_count" gorm:"default:0"`
	FollowingCount int `json:"following_count" gorm:"default:0"`
	PostsCount     int `json:"posts_count" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileCompact is the trimmed identity attached to feeds, notifications and
// real-time events.
type ProfileCompact struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Username *string `json:"username,omitempty"`
	Avatar   string  `json:"avatar,omitempty"`
}

func (p *Profile) ToCompact() ProfileCompact {
	return ProfileCompact{
		ID:       p.ID,
		Name:     p.Name,
		Username: p.Username,
		Avatar:   p.Avatar,
	}
}

// SignupRequest registers a new account with email or mobile plus a password.
type SignupRequest struct {
	Name     string `json:"name" validate:"omitempty,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	Mobile   string `json:"mobile" validate:"omitempty"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest authenticates with email or mobile plus a password.
type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Mobile   string `json:"mobile" validate:"omitempty"`
	Password string `json:"password" validate:"required"`
}

// VerifyEmailOTPRequest confirms control of an email address.
type VerifyEmailOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

// VerifyMobileOTPRequest confirms control of a mobile number.
type VerifyMobileOTPRequest struct {
	Mobile string `json:"mobile" validate:"required"`
	OTP    string `json:"otp" validate:"required,len=6"`
}

// ResendOTPRequest requests a fresh verification code.
type ResendOTPRequest struct {
	Email  string `json:"email" validate:"omitempty,email"`
	Mobile string `json:"mobile" validate:"omitempty"`
}

// UpdateProfileRequest edits the caller's own profile.
type UpdateProfileRequest struct {
	Name      string  `json:"name,omitempty" validate:"omitempty,max=50"`
	Username  *string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Bio       string  `json:"bio,omitempty" validate:"omitempty,max=500"`
	Avatar    string  `json:"avatar,omitempty" validate:"omitempty,url"`
	Location  string  `json:"location,omitempty" validate:"omitempty,max=100"`
	Website   string  `json:"website,omitempty" validate:"omitempty,url"`
	IsPrivate *bool   `json:"is_private,omitempty"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
