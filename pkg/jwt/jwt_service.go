package jwt

import (
	"errors"
	"fmt"
	"nutrition-catalog/domain"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const DefaultTokenTTL = 120 * time.Minute

type (
	JWTService interface {
		GenerateToken(user domain.Identity, ttl time.Duration) (string, error)
		ValidateToken(token string) (*jwt.Token, error)
		GetIdentityByToken(token string) (domain.Identity, error)
	}

	jwtUserClaim struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
		Role   string `json:"role"`
		jwt.RegisteredClaims
	}

	jwtService struct {
		secretKey string
		issuer    string
	}
)

func NewJWTService(secretKey string) JWTService {
	return &jwtService{
		secretKey: secretKey,
		issuer:    "NUTRITION-CATALOG",
	}
}

func (j *jwtService) GenerateToken(user domain.Identity, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}
	claims := jwtUserClaim{
		user.ID,
		user.Email,
		role,
		jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

func (j *jwtService) parseToken(t_ *jwt.Token) (any, error) {
	if _, ok := t_.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t_.Header["alg"])
	}
	return []byte(j.secretKey), nil
}

func (j *jwtService) ValidateToken(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &jwtUserClaim{}, j.parseToken)
}

func (j *jwtService) GetIdentityByToken(token string) (domain.Identity, error) {
	t_Token, err := j.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, domain.ErrTokenExpired
		}
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	if !t_Token.Valid {
		return domain.Identity{}, domain.ErrTokenInvalid
	}

	claims := t_Token.Claims.(*jwtUserClaim)
	if claims.UserID == "" {
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	return domain.Identity{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}
