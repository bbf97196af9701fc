package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/cbt-service/internal/events"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/testutil"
)

func TestAuthService_StudentLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedStudent(t, env.db, "STU-001", "SS3")
	svc := env.auth()

	resp, err := svc.StudentLogin(ctx, &models.StudentLoginRequest{StudentID: " STU-001 "})
	if err != nil {
		t.Fatalf("StudentLogin() error = %v", err)
	}
	profile, ok := resp.Profile.(models.StudentProfile)
	if !ok || profile.ClassLevel != "SS3" {
		t.Errorf("profile = %+v", resp.Profile)
	}

	claims, err := svc.VerifyStudentToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("VerifyStudentToken() error = %v", err)
	}
	if claims.StudentID != "STU-001" || claims.ClassLevel != "SS3" {
		t.Errorf("claims = %+v", claims)
	}
	if _, err := svc.VerifyAdminToken(ctx, resp.Token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("student token accepted on admin side: %v", err)
	}

	logins := env.pub.EventsOfType(events.StudentLoggedIn)
	if len(logins) != 1 || logins[0].Actor.Type != models.ActorStudent {
		t.Errorf("login events = %+v", logins)
	}

	env.clock.Advance(2 * time.Hour)
	if _, err := svc.VerifyStudentToken(ctx, resp.Token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expired token error = %v", err)
	}

	if _, err := svc.StudentLogin(ctx, &models.StudentLoginRequest{StudentID: "STU-404"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("unknown student error = %v", err)
	}
}

func TestAuthService_AdminLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.auth()

	if err := svc.EnsureBootstrapAdmin(ctx); err != nil {
		t.Fatalf("EnsureBootstrapAdmin() error = %v", err)
	}
	if err := svc.EnsureBootstrapAdmin(ctx); err != nil {
		t.Fatalf("second EnsureBootstrapAdmin() error = %v", err)
	}
	var admins int64
	env.db.Model(&models.Admin{}).Count(&admins)
	if admins != 1 {
		t.Fatalf("admins = %d, want 1", admins)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "correct password", email: "head@school.test", password: "s3cret-pass"},
		{name: "email case ignored", email: "HEAD@school.test", password: "s3cret-pass"},
		{name: "wrong password", email: "head@school.test", password: "nope", wantErr: ErrUnauthorized},
		{name: "unknown admin", email: "who@school.test", password: "s3cret-pass", wantErr: ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.AdminLogin(ctx, &models.AdminLoginRequest{Email: tt.email, Password: tt.password})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("AdminLogin() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AdminLogin() error = %v", err)
			}
			principal, err := svc.VerifyAdminToken(ctx, resp.Token)
			if err != nil {
				t.Fatalf("VerifyAdminToken() error = %v", err)
			}
			if principal.Role != models.RoleSuperAdmin || principal.Provider != "local" {
				t.Errorf("principal = %+v", principal)
			}
			if _, err := svc.VerifyStudentToken(ctx, resp.Token); !errors.Is(err, ErrUnauthorized) {
				t.Errorf("admin token accepted on student side: %v", err)
			}
		})
	}

	if _, err := svc.VerifyAdminToken(ctx, "not-a-token"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("garbage token error = %v", err)
	}
}
