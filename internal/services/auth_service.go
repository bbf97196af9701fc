package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/config"
	"github.com/SAP-F-2025/cbt-service/internal/events"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/cbt-service/internal/validator"
)

const (
	tokenIssuer     = "cbt-service"
	audienceStudent = "student"
	audienceAdmin   = "admin"
)

// sessionClaims is the body of every locally issued token. The audience
// keeps student tokens off admin routes and the other way round.
type sessionClaims struct {
	ClassLevel string           `json:"class_level,omitempty"`
	Email      string           `json:"email,omitempty"`
	Name       string           `json:"name,omitempty"`
	Role       models.AdminRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type authService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	cfg       config.AuthConfig
	secret    []byte
	casdoor   *casdoorsdk.Client
	now       Clock
}

func NewAuthService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, authCfg config.AuthConfig, casdoorCfg config.CasdoorConfig, clock Clock) AuthService {
	if clock == nil {
		clock = SystemClock
	}
	s := &authService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		cfg:       authCfg,
		secret:    []byte(authCfg.TokenSecret),
		now:       clock,
	}
	if casdoorCfg.Enabled() {
		s.casdoor = casdoor.NewClient(casdoorCfg)
	}
	return s
}

// ===== LOGIN =====

// StudentLogin identifies a candidate by student id alone.
func (s *authService) StudentLogin(ctx context.Context, req *models.StudentLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	student, err := s.repo.Student().GetByStudentID(ctx, nil, strings.TrimSpace(req.StudentID))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("unknown student id: %w", ErrUnauthorized)
		}
		return nil, err
	}

	expires := s.now().Add(s.cfg.StudentTokenTTL)
	token, err := s.sign(sessionClaims{
		ClassLevel: student.ClassLevel,
		Name:       student.FullName(),
		RegisteredClaims: s.registered(student.StudentCode, audienceStudent, expires),
	})
	if err != nil {
		return nil, err
	}

	actor := events.Actor{Type: models.ActorStudent, ID: student.StudentCode, IP: events.ActorFromContext(ctx).IP}
	publishEvent(events.WithActor(ctx, actor), s.publisher, s.logger, events.StudentLoggedIn, "student", student.StudentCode, nil)

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expires,
		Profile: models.StudentProfile{
			StudentID:  student.StudentCode,
			Name:       student.FullName(),
			ClassLevel: student.ClassLevel,
		},
	}, nil
}

func (s *authService) AdminLogin(ctx context.Context, req *models.AdminLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	admin, err := s.repo.Admin().GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
		}
		return nil, err
	}
	if admin.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		s.logger.WarnContext(ctx, "Admin login rejected", "email", admin.Email)
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}

	expires := s.now().Add(s.cfg.AdminTokenTTL)
	token, err := s.sign(sessionClaims{
		Email:            admin.Email,
		Name:             admin.Name,
		Role:             admin.Role,
		RegisteredClaims: s.registered(strconv.FormatUint(uint64(admin.ID), 10), audienceAdmin, expires),
	})
	if err != nil {
		return nil, err
	}

	principal := adminPrincipal(admin)
	actor := events.Actor{Type: models.ActorAdmin, ID: principal.ID, IP: events.ActorFromContext(ctx).IP}
	publishEvent(events.WithActor(ctx, actor), s.publisher, s.logger, events.AdminLoggedIn, "admin", principal.ID, nil)

	return &models.LoginResponse{Token: token, ExpiresAt: expires, Profile: principal}, nil
}

// ===== TOKEN VERIFICATION =====

func (s *authService) VerifyStudentToken(ctx context.Context, token string) (*StudentClaims, error) {
	claims, err := s.parse(token, audienceStudent)
	if err != nil {
		return nil, err
	}
	return &StudentClaims{StudentID: claims.Subject, ClassLevel: claims.ClassLevel}, nil
}

func (s *authService) VerifyAdminToken(ctx context.Context, token string) (*models.Principal, error) {
	claims, localErr := s.parse(token, audienceAdmin)
	if localErr == nil {
		id, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			return nil, ErrUnauthorized
		}
		admin, err := s.repo.Admin().GetByID(ctx, nil, uint(id))
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrUnauthorized
			}
			return nil, err
		}
		return adminPrincipal(admin), nil
	}

	if s.casdoor == nil || s.repo.AdminDirectory() == nil {
		return nil, localErr
	}

	cc, err := s.casdoor.ParseJwtToken(token)
	if err != nil || cc.Id == "" {
		return nil, ErrUnauthorized
	}
	principal, err := s.repo.AdminDirectory().GetByID(ctx, cc.Id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to resolve casdoor admin: %w", err)
	}
	return principal, nil
}

// EnsureBootstrapAdmin creates the configured super admin when no admin
// with that email exists yet.
func (s *authService) EnsureBootstrapAdmin(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(s.cfg.BootstrapAdminEmail))
	if email == "" || s.cfg.BootstrapAdminPassword == "" {
		return nil
	}

	_, err := s.repo.Admin().GetByEmail(ctx, nil, email)
	if err == nil {
		return nil
	}
	if !repositories.IsNotFoundError(err) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.BootstrapAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}
	admin := &models.Admin{
		Email:        email,
		Name:         s.cfg.BootstrapAdminName,
		PasswordHash: string(hash),
		Role:         models.RoleSuperAdmin,
	}
	if err := s.repo.Admin().Create(ctx, nil, admin); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to seed bootstrap admin: %w", err)
	}
	s.logger.InfoContext(ctx, "Bootstrap admin created", "email", email)
	return nil
}

// ===== HELPERS =====

func (s *authService) registered(subject, audience string, expires time.Time) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
}

func (s *authService) sign(claims sessionClaims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (s *authService) parse(token, audience string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("session expired: %w", ErrUnauthorized)
		}
		return nil, ErrUnauthorized
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func adminPrincipal(a *models.Admin) *models.Principal {
	return &models.Principal{
		ID:       strconv.FormatUint(uint64(a.ID), 10),
		Email:    a.Email,
		Name:     a.Name,
		Role:     a.Role,
		Provider: "local",
	}
}
