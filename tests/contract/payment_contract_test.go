package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/handler"
	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/service"
)

type paymentServiceStub struct{}

func (s paymentServiceStub) Subscribe(_ context.Context, _ uint, _ models.ContentKind, targetID uint) (dto.SubscribeResponse, error) {
	if targetID == 2 {
		return dto.SubscribeResponse{Status: dto.SubscribeStatusGranted}, nil
	}
	expires := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	return dto.SubscribeResponse{
		Status:      dto.SubscribeStatusCreated,
		Reference:   "FW-C-1741597200000-000042",
		AmountCents: 50000,
		ExpiresAt:   &expires,
	}, nil
}

func (s paymentServiceStub) Approve(_ context.Context, _ service.Principal, requestID uint) (dto.PaymentRequestResponse, error) {
	return dto.PaymentRequestResponse{ID: requestID}, nil
}

func (s paymentServiceStub) ListPending(context.Context, service.Principal) ([]dto.PaymentRequestResponse, error) {
	return []dto.PaymentRequestResponse{
		{
			ID:           1,
			StudentID:    7,
			StudentName:  "Nour",
			StudentPhone: "01011112222",
			Kind:         string(models.KindCourse),
			TargetID:     4,
			AmountCents:  50000,
			Status:       models.PaymentStatusPending,
			Reference:    "FW-C-1741579200000-000017",
			ExpiresAt:    time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC),
			CreatedAt:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
	}, nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func validateResponse(t *testing.T, schema *jsonschema.Schema, resp *http.Response) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestSubscribeContract(t *testing.T) {
	schema := compileSchema(t, "subscribe.schema.json")

	h := handler.NewSubscriptionHandler(paymentServiceStub{}, zerolog.Nop())
	app := fiber.New()
	group := app.Group("/api/subscribe", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", service.RoleStudent)
		return c.Next()
	})
	h.Register(group)

	req := httptest.NewRequest(http.MethodPost, "/api/subscribe/courses/1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validateResponse(t, schema, resp)

	req = httptest.NewRequest(http.MethodPost, "/api/subscribe/courses/2", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validateResponse(t, schema, resp)
}

func TestPendingPaymentsContract(t *testing.T) {
	schema := compileSchema(t, "payment_pending.schema.json")

	h := handler.NewAdminPaymentHandler(paymentServiceStub{}, zerolog.Nop())
	app := fiber.New()
	group := app.Group("/api/admin/payments", func(c *fiber.Ctx) error {
		c.Locals("user_role", service.RoleOwner)
		return c.Next()
	})
	h.Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/payments/pending", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validateResponse(t, schema, resp)
}
