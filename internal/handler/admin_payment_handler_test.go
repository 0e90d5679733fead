package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/handler"
	"github.com/darsy-edu/darsy-api/internal/service"
)

func newAdminPaymentApp(payments *stubPaymentService, role string) *fiber.App {
	h := handler.NewAdminPaymentHandler(payments, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/admin/payments", func(c *fiber.Ctx) error {
		c.Locals("user_role", role)
		if role == service.RoleSupervisor {
			c.Locals("user_id", uint(3))
		}
		return c.Next()
	})
	h.Register(group)
	return app
}

func TestListPendingPaymentsEndpoint(t *testing.T) {
	app := newAdminPaymentApp(&stubPaymentService{}, service.RoleOwner)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/payments/pending", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool                         `json:"success"`
		Data    []dto.PaymentRequestResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.Len(t, envelope.Data, 1)
	require.Equal(t, "FW-C-1-000001", envelope.Data[0].Reference)
}

func TestListPendingPaymentsForbidden(t *testing.T) {
	app := newAdminPaymentApp(&stubPaymentService{}, service.RoleSupervisor)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/payments/pending", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestApprovePaymentEndpoint(t *testing.T) {
	app := newAdminPaymentApp(&stubPaymentService{}, service.RoleOwner)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/payments/5/approve", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/payments/abc/approve", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApprovePaymentConflictStatuses(t *testing.T) {
	app := newAdminPaymentApp(&stubPaymentService{approveErr: service.ErrPaymentNotPending}, service.RoleOwner)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/payments/5/approve", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	app = newAdminPaymentApp(&stubPaymentService{approveErr: service.ErrPaymentExpired}, service.RoleOwner)
	req = httptest.NewRequest(http.MethodPost, "/api/admin/payments/5/approve", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusGone, resp.StatusCode)

	app = newAdminPaymentApp(&stubPaymentService{approveErr: service.ErrPaymentRequestNotFound}, service.RoleOwner)
	req = httptest.NewRequest(http.MethodPost, "/api/admin/payments/5/approve", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
