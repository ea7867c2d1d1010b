package service

import (
	"context"

	"go.uber.org/zap"

	"fanboxviewer/internal/credentials"
)

type SessionStatus struct {
	LoggedIn bool `json:"loggedIn"`
}

type SessionService struct {
	Session *credentials.Session
	Logger  *zap.Logger
}

func (s *SessionService) Status(ctx context.Context) SessionStatus {
	return SessionStatus{LoggedIn: s.Session.IsAuthenticated(ctx)}
}

func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.Session.Logout(ctx); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("session cleared")
	}
	return nil
}
