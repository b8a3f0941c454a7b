package http

import (
	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/pkg/authsdk"
)

func toUser(u domain.PublicUser) authsdk.User {
	return authsdk.User{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            string(u.Role),
		IsEmailVerified: u.IsEmailVerified,
		MFAEnabled:      u.MFAEnabled,
		CreatedAt:       u.CreatedAt,
	}
}

func toLoginResponse(pair domain.TokenPair, u domain.PublicUser) authsdk.LoginResponse {
	user := toUser(u)
	return authsdk.LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		User:         &user,
	}
}

func toAuditEvent(e domain.AuditEvent) authsdk.AuditEvent {
	return authsdk.AuditEvent{
		ID:        e.ID,
		Event:     string(e.Type),
		ActorID:   e.ActorID,
		Email:     e.Email,
		Reason:    e.Reason,
		IP:        e.IP,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}
