package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/audithawk/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{
			name:      "valid string",
			str:       "test",
			paramName: "param",
			wantErr:   false,
		},
		{
			name:      "empty string",
			str:       "",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			str:       "   ",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "string with spaces",
			str:       "  test  ",
			paramName: "param",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func TestValidateSession(t *testing.T) {
	tests := []struct {
		mutate  func(*model.AuditSession)
		wantErr error
		name    string
	}{
		{name: "valid session", mutate: func(*model.AuditSession) {}},
		{name: "missing creation time", mutate: func(s *model.AuditSession) { s.CreatedAt = time.Time{} }, wantErr: ErrInvalidSession},
		{name: "risk score above 100", mutate: func(s *model.AuditSession) { s.RiskScore = 101 }, wantErr: ErrInvalidSession},
		{name: "zero index", mutate: func(s *model.AuditSession) { s.Transactions[0].Index = 0 }, wantErr: ErrInvalidRecord},
		{name: "duplicate index", mutate: func(s *model.AuditSession) { s.Transactions[1].Index = 1 }, wantErr: ErrInvalidRecord},
		{name: "missing transaction id", mutate: func(s *model.AuditSession) { s.Transactions[2].TransactionID = "" }, wantErr: ErrInvalidRecord},
		{
			name: "flagged record outside transactions",
			mutate: func(s *model.AuditSession) {
				s.Flagged = append(s.Flagged, model.TransactionRecord{Index: 99})
			},
			wantErr: ErrInvalidSession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := createTestSession("validate", 3)
			tt.mutate(session)
			err := validateSession(session)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validateSession() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateSession() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
