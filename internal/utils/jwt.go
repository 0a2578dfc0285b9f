package utils

import (
	"errors"
	"fmt"
	"time"

	"lifeline/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JWTClaims carries the caller's profile. Accounts live with the identity
// provider; the dispatch core only ever sees what the token asserts.
type JWTClaims struct {
	UserID   primitive.ObjectID `json:"user_id"`
	UserType string             `json:"user_type"`
	Name     string             `json:"name"`
	Phone    string             `json:"phone"`

	// client
	BloodGroup          string `json:"blood_group,omitempty"`
	HasMedicalAllergies bool   `json:"has_medical_allergies,omitempty"`
	EmergencyContact    string `json:"emergency_contact,omitempty"`

	// driver
	Vehicle *models.Vehicle `json:"vehicle,omitempty"`

	// admin
	HospitalID *primitive.ObjectID `json:"hospital_id,omitempty"`

	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Principal converts the claims into the typed caller.
func (c *JWTClaims) Principal() (models.Principal, error) {
	if c.UserID.IsZero() {
		return nil, errors.New("token has no user id")
	}

	switch c.UserType {
	case UserTypeClient:
		return models.ClientPrincipal{
			ID:                  c.UserID,
			Name:                c.Name,
			Phone:               c.Phone,
			BloodGroup:          c.BloodGroup,
			HasMedicalAllergies: c.HasMedicalAllergies,
			EmergencyContact:    c.EmergencyContact,
		}, nil
	case UserTypeDriver:
		driver := models.DriverPrincipal{ID: c.UserID, Name: c.Name, Phone: c.Phone}
		if c.Vehicle != nil {
			driver.Vehicle = *c.Vehicle
		}
		return driver, nil
	case UserTypeAdmin:
		if c.HospitalID == nil || c.HospitalID.IsZero() {
			return nil, errors.New("admin token has no hospital")
		}
		return models.AdminPrincipal{ID: c.UserID, HospitalID: *c.HospitalID, Name: c.Name}, nil
	default:
		return nil, fmt.Errorf("unknown user type %q", c.UserType)
	}
}

func GenerateTokenPair(claims JWTClaims, secretKey string) (*TokenPair, error) {
	accessToken, err := signToken(claims, JWTAccessTokenTTL, secretKey)
	if err != nil {
		return nil, err
	}

	refreshToken, err := signToken(claims, JWTRefreshTokenTTL, secretKey)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(JWTAccessTokenTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func signToken(claims JWTClaims, ttl time.Duration, secretKey string) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    AppName,
		Subject:   claims.UserID.Hex(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString([]byte(secretKey))
}

func ValidateToken(tokenString, secretKey string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New(ErrInvalidToken)
}

func RefreshAccessToken(refreshTokenString, secretKey string) (*TokenPair, error) {
	claims, err := ValidateToken(refreshTokenString, secretKey)
	if err != nil {
		return nil, err
	}
	return GenerateTokenPair(*claims, secretKey)
}
