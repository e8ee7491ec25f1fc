package usecase

import (
	"studio-booking/internal/domain/user"
	"studio-booking/internal/pkg/jwt"
	"studio-booking/internal/usecase/shared"
)

// TokenValidator turns a bearer token into the calling actor.
type TokenValidator interface {
	ValidateToken(tokenString string) (shared.Actor, error)
}

type tokenValidatorImpl struct {
	jwtService *jwt.Service
}

func NewTokenValidator(jwtService *jwt.Service) TokenValidator {
	return &tokenValidatorImpl{
		jwtService: jwtService,
	}
}

func (t *tokenValidatorImpl) ValidateToken(tokenString string) (shared.Actor, error) {
	claims, err := t.jwtService.ValidateToken(tokenString)
	if err != nil {
		return shared.Actor{}, err
	}

	role, err := user.NewRole(claims.Role)
	if err != nil {
		return shared.Actor{}, err
	}

	return shared.Actor{UserID: claims.UserID, Role: role}, nil
}
