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
	"github.com/greenloop/greenloop-backend/pkg/config"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
)

type stubRegister struct {
	registered        []auth.RegisterRequest
	partnerRegistered []auth.RegisterPartnerRequest
	err               error
}

func (s *stubRegister) Register(ctx context.Context, req auth.RegisterRequest) error {
	s.registered = append(s.registered, req)
	return s.err
}

func (s *stubRegister) RegisterPartner(ctx context.Context, req auth.RegisterPartnerRequest) error {
	s.partnerRegistered = append(s.partnerRegistered, req)
	return s.err
}

type stubAdminRegister struct {
	user *users.UserDTO
	err  error
}

func (s *stubAdminRegister) Register(ctx context.Context, req auth.AdminRegisterRequest) (*users.UserDTO, error) {
	return s.user, s.err
}

func registerBody() *bytes.Reader {
	return bytes.NewReader([]byte(`{
		"first_name": "Jo",
		"last_name": "Mendez",
		"email": "jo@example.com",
		"password": "Secret123!"
	}`))
}

func TestAuthRegisterLogsInAfterCreate(t *testing.T) {
	reg := &stubRegister{}
	login := &stubLoginService{resp: &auth.LoginResponse{
		AccessToken: "fresh-token",
		Role:        enums.AppRoleCustomer,
	}}
	handler := AuthRegister(reg, login, nil)

	req := httptest.NewRequest(http.MethodPost, "/register", registerBody())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(reg.registered) != 1 {
		t.Fatalf("expected one registration got %d", len(reg.registered))
	}
	if reg.registered[0].Email != "jo@example.com" {
		t.Fatalf("unexpected email %s", reg.registered[0].Email)
	}
	if got := rec.Header().Get("X-GL-Token"); got != "fresh-token" {
		t.Fatalf("expected X-GL-Token fresh-token got %s", got)
	}
	if len(login.portals) != 1 || login.portals[0] != "customer" {
		t.Fatalf("expected customer login after register got %v", login.portals)
	}
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	reg := &stubRegister{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")}
	handler := AuthRegister(reg, &stubLoginService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/register", registerBody())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if rec.Header().Get("X-GL-Token") != "" {
		t.Fatalf("expected no token header on conflict")
	}
}

func TestAuthRegisterPartnerRequiresVehicle(t *testing.T) {
	reg := &stubRegister{}
	handler := AuthRegisterPartner(reg, &stubLoginService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/register-partner", registerBody())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if len(reg.partnerRegistered) != 0 {
		t.Fatalf("expected no registration on invalid payload")
	}
}

func TestAuthRegisterPartner(t *testing.T) {
	reg := &stubRegister{}
	login := &stubLoginService{resp: &auth.LoginResponse{
		AccessToken: "partner-token",
		Role:        enums.AppRoleDeliveryPartner,
	}}
	handler := AuthRegisterPartner(reg, login, nil)

	body := bytes.NewReader([]byte(`{
		"first_name": "Ade",
		"last_name": "Okafor",
		"email": "ade@example.com",
		"password": "Secret123!",
		"vehicle_type": "bike",
		"vehicle_number": "LG-4411"
	}`))
	req := httptest.NewRequest(http.MethodPost, "/register-partner", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(reg.partnerRegistered) != 1 {
		t.Fatalf("expected one partner registration got %d", len(reg.partnerRegistered))
	}
	if reg.partnerRegistered[0].VehicleType != enums.VehicleTypeBike {
		t.Fatalf("unexpected vehicle type %s", reg.partnerRegistered[0].VehicleType)
	}
	if len(login.portals) != 1 || login.portals[0] != "partner" {
		t.Fatalf("expected partner login after register got %v", login.portals)
	}
}

func TestAdminAuthRegisterDisabledInProd(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: config.AppEnvProd}}
	handler := AdminAuthRegister(&stubAdminRegister{}, cfg, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin-register", registerBody())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestAdminAuthRegister(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Email: "ops@example.com"}
	cfg := &config.Config{App: config.AppConfig{Env: "development"}}
	handler := AdminAuthRegister(&stubAdminRegister{user: user}, cfg, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin-register", registerBody())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			User *users.UserDTO `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.User == nil || envelope.Data.User.ID != user.ID {
		t.Fatalf("expected created admin in response")
	}
}
