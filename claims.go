package stockauth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names as emitted by the TechStock API. The server writes the long
// XML-schema claim URIs; the short forms are accepted as a fallback so tokens
// from newer API builds keep working.
const (
	claimEmailURI  = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	claimRoleURI   = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
	claimNameIDURI = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"

	claimEmailShort  = "email"
	claimRoleShort   = "role"
	claimNameIDShort = "nameid"
)

// userFromToken decodes the identity claims out of a bearer token's payload
// segment. The signature is deliberately not verified: the client only ever
// decodes tokens the server itself issued and validated.
func userFromToken(tokenString string) (*CurrentUser, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("token claims are not a map")
	}

	user := &CurrentUser{
		ID:       stringClaim(claims, claimNameIDURI, claimNameIDShort),
		UserName: stringClaim(claims, claimEmailURI, claimEmailShort),
		Roles:    roleClaims(claims),
	}
	if user.UserName == "" {
		// Some issuers put the email in the subject instead.
		if sub, err := claims.GetSubject(); err == nil {
			user.UserName = sub
		}
	}
	return user, nil
}

// stringClaim returns the first present string value among the given keys.
func stringClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// roleClaims collects role names. The claim is a plain string for a single
// role and an array for multiple.
func roleClaims(claims jwt.MapClaims) []string {
	for _, key := range []string{claimRoleURI, claimRoleShort} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return []string{v}
			}
		case []any:
			roles := make([]string, 0, len(v))
			for _, r := range v {
				if s, ok := r.(string); ok && s != "" {
					roles = append(roles, s)
				}
			}
			if len(roles) > 0 {
				return roles
			}
		}
	}
	return nil
}
