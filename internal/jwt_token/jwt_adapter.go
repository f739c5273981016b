package jwttoken

import "certmint/internal/platform/middleware"

// MiddlewareAdapter bridges JWTService to the middleware's validator
// interface so the transport layer does not import jwt internals.
type MiddlewareAdapter struct {
	svc *JWTService
}

func NewMiddlewareAdapter(svc *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{svc: svc}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.svc.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Phone:  claims.Phone,
		Role:   claims.Role,
	}, nil
}
