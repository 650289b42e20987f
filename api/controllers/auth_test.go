package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/greenloop/greenloop-backend/internal/auth"
	"github.com/greenloop/greenloop-backend/internal/users"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
)

type stubLoginService struct {
	resp    *auth.LoginResponse
	err     error
	portals []string
}

func (s *stubLoginService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.portals = append(s.portals, "customer")
	return s.resp, s.err
}

func (s *stubLoginService) PartnerLogin(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.portals = append(s.portals, "partner")
	return s.resp, s.err
}

func (s *stubLoginService) AdminLogin(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.portals = append(s.portals, "admin")
	return s.resp, s.err
}

func loginBody() *bytes.Reader {
	return bytes.NewReader([]byte(`{"email":"jo@example.com","password":"Secret123!"}`))
}

func TestAuthLoginSuccess(t *testing.T) {
	resp := &auth.LoginResponse{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Role:         enums.AppRoleCustomer,
		User:         &users.UserDTO{ID: uuid.New(), Email: "jo@example.com"},
	}
	svc := &stubLoginService{resp: resp}
	handler := AuthLogin(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/login", loginBody())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("X-GL-Token"); got != "access-token" {
		t.Fatalf("expected X-GL-Token access-token got %s", got)
	}
	var envelope struct {
		Data auth.LoginResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Role != enums.AppRoleCustomer {
		t.Fatalf("expected role customer got %s", envelope.Data.Role)
	}
	if len(svc.portals) != 1 || svc.portals[0] != "customer" {
		t.Fatalf("expected customer portal call got %v", svc.portals)
	}
}

func TestPartnerAuthLoginUsesPartnerPortal(t *testing.T) {
	svc := &stubLoginService{resp: &auth.LoginResponse{AccessToken: "t", Role: enums.AppRoleDeliveryPartner}}
	handler := PartnerAuthLogin(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/partner-login", loginBody())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if len(svc.portals) != 1 || svc.portals[0] != "partner" {
		t.Fatalf("expected partner portal call got %v", svc.portals)
	}
}

func TestAdminAuthLoginWrongRole(t *testing.T) {
	svc := &stubLoginService{err: pkgerrors.New(pkgerrors.CodeForbidden, "wrong portal")}
	handler := AdminAuthLogin(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin-login", loginBody())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if rec.Header().Get("X-GL-Token") != "" {
		t.Fatalf("expected no token header on failure")
	}
}

func TestAuthLoginRejectsBadPayload(t *testing.T) {
	handler := AuthLogin(&stubLoginService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader([]byte(`{"email":"not-an-email"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
