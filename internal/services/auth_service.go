package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"tableside/config"
	"tableside/internal/domain"
	"tableside/internal/domain/dining"
	"tableside/internal/repository"
	tableside_errors "tableside/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	staffRepo    repository.StaffRepository
	customerRepo repository.CustomerRepository
	tableRepo    repository.TableRepository
	jwtSecret    []byte
	accessTTL    time.Duration
}

func NewAuthService(staffRepo repository.StaffRepository, customerRepo repository.CustomerRepository, tableRepo repository.TableRepository, cfg *config.Config) *AuthService {
	ttl := time.Duration(cfg.JWTExpiryMin) * time.Minute
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		staffRepo:    staffRepo,
		customerRepo: customerRepo,
		tableRepo:    tableRepo,
		jwtSecret:    []byte(cfg.JWTSecret),
		accessTTL:    ttl,
	}
}

type StaffLoginInput struct {
	Username string
	Password string
}

type CustomerLoginInput struct {
	Name      string
	TableID   uint
	Allergies string
}

type AuthResponse struct {
	AccessToken string           `json:"access_token"`
	ExpiresIn   int64            `json:"expires_in"`
	Principal   domain.Principal `json:"principal"`
}

type AccessClaims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (s *AuthService) StaffLogin(ctx context.Context, in StaffLoginInput) (AuthResponse, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return AuthResponse{}, tableside_errors.ErrInvalidInput
	}

	member, err := s.staffRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, tableside_errors.ErrNotFound) {
			return AuthResponse{}, tableside_errors.ErrUnauthorized
		}
		return AuthResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(in.Password)); err != nil {
		return AuthResponse{}, tableside_errors.ErrUnauthorized
	}

	return s.issue(domain.Principal{ID: member.ID, Name: member.Name, Role: member.Role})
}

// CustomerLogin registers a guest at a table and returns a customer token.
func (s *AuthService) CustomerLogin(ctx context.Context, in CustomerLoginInput) (AuthResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.TableID == 0 {
		return AuthResponse{}, tableside_errors.ErrInvalidInput
	}
	if _, err := s.tableRepo.FindTable(ctx, in.TableID); err != nil {
		return AuthResponse{}, err
	}

	c := &dining.Customer{Name: name, TableID: in.TableID, Allergies: strings.TrimSpace(in.Allergies)}
	if err := s.customerRepo.Create(ctx, c); err != nil {
		return AuthResponse{}, err
	}
	return s.issue(domain.Principal{ID: c.ID, Name: c.Name, Role: domain.RoleCustomer})
}

func (s *AuthService) issue(p domain.Principal) (AuthResponse, error) {
	now := time.Now()
	claims := AccessClaims{
		Role: string(p.Role),
		Name: p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(p.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		Principal:   p,
	}, nil
}

func (s *AuthService) ParseAccessToken(token string) (AccessClaims, error) {
	if token == "" {
		return AccessClaims{}, tableside_errors.ErrUnauthorized
	}
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return AccessClaims{}, tableside_errors.ErrUnauthorized
	}
	return *claims, nil
}

// Principal resolves a bearer token into the caller it was issued to.
func (s *AuthService) Principal(token string) (domain.Principal, error) {
	claims, err := s.ParseAccessToken(token)
	if err != nil {
		return domain.Principal{}, err
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return domain.Principal{}, tableside_errors.ErrUnauthorized
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return domain.Principal{}, tableside_errors.ErrUnauthorized
	}
	return domain.Principal{ID: uint(id), Name: claims.Name, Role: role}, nil
}
