package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/logistica-api/internal/application/auth"
	"github.com/jhoicas/logistica-api/internal/application/comment"
	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/invoice"
	"github.com/jhoicas/logistica-api/internal/application/notification"
	"github.com/jhoicas/logistica-api/internal/application/stock"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/infrastructure/memory"
	"github.com/jhoicas/logistica-api/internal/infrastructure/realtime"
	apphttp "github.com/jhoicas/logistica-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/logistica-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Entorno completo sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

type env struct {
	app    *fiber.App
	store  *memory.Store
	worker *notification.OutboxWorker
	tokens map[string]string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	users := []*entity.User{
		{ID: "a1", Email: "admin@x.co", Role: entity.RoleAdmin},
		{ID: "a2", Email: "conta@x.co", Role: entity.RoleAccountant},
		{ID: "u1", Email: "u1@acme.co", Role: entity.RoleClient, ClientID: "C1"},
		{ID: "u2", Email: "u2@acme.co", Role: entity.RoleClient, ClientID: "C1"},
		{ID: "u3", Email: "u3@otro.co", Role: entity.RoleClient, ClientID: "C2"},
	}
	tokens := map[string]string{}
	for _, u := range users {
		require.NoError(t, store.Repos().Users.Create(ctx, u))
		tok, err := pkgjwt.Generate(testJWTSecret, u.ID, u.ClientID, u.Role, testIssuer, testExpMin)
		require.NoError(t, err)
		tokens[u.ID] = tok
	}
	require.NoError(t, store.Repos().Stock.Upsert(ctx, &entity.Stock{
		ProductID: "SKU-1", Location: "main", Quantity: decimal.NewFromInt(10), ReservedQuantity: decimal.Zero,
	}))

	hub := realtime.NewHub(nil)
	dispatcher := notification.NewDispatcher(store, hub, nil)
	worker := notification.NewOutboxWorker(store, dispatcher, notification.WorkerConfig{}, nil)
	engine := stock.NewEngine(store, "main")

	app := apphttp.NewServer(apphttp.RouterDeps{
		AppName:   "test",
		AuthUC:    auth.NewAuthUseCase(store.Repos().Users, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		Invoices:  invoice.NewService(store, engine, worker, nil),
		Comments:  comment.NewService(store, worker, nil),
		Feed:      notification.NewFeedService(store),
		Stock:     engine,
		Hub:       hub,
		JWTSecret: testJWTSecret,
	})
	return &env{app: app, store: store, worker: worker, tokens: tokens}
}

func (e *env) do(t *testing.T, method, path, userID string, body interface{}, out interface{}) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[userID])
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *env) drain(t *testing.T) {
	t.Helper()
	_, err := e.worker.ProcessOnce(context.Background())
	require.NoError(t, err)
}

func newInvoiceBody(number, qty string) fiber.Map {
	return fiber.Map{
		"invoice_number": number,
		"delivery_date":  "2026-11-03",
		"notes":          "entregar en bodega",
		"items": []fiber.Map{
			{"product_id": "SKU-1", "product_name": "Caja", "quantity": qty, "unit_price": "12.50"},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario completo: crear, despachar, entregar, comentar
// ──────────────────────────────────────────────────────────────────────────────

func TestEscenario_FacturaDeCicloCompleto(t *testing.T) {
	e := newEnv(t)

	// 1. El cliente crea la factura: reserva 4 de 10.
	var created dto.CreateInvoiceResponse
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/invoices", "u1", newInvoiceBody("INV-1", "4"), &created))
	require.NotEmpty(t, created.ID)

	var st dto.StockResponse
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/stock/SKU-1", "a2", nil, &st))
	assert.True(t, st.ReservedQuantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, st.Available.Equal(decimal.NewFromInt(6)))

	// 2. El staff recibe new_invoice; el cliente no.
	e.drain(t)
	var feed []entity.Notification
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/notifications/user/a1", "a1", nil, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, entity.NotificationNewInvoice, feed[0].Type)
	assert.Equal(t, created.ID, feed[0].InvoiceID)
	var unread dto.UnreadCountResponse
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/notifications/user/u1/unread-count", "u1", nil, &unread))
	assert.Equal(t, 0, unread.Count)

	// 3. Contabilidad despacha y entrega.
	path := "/invoices/" + created.ID
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, path, "a2", fiber.Map{"status": "in_transit", "tracking_code": "TRK-1"}, nil))
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, path, "a2", fiber.Map{"status": "delivered"}, nil))

	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/stock/SKU-1", "a2", nil, &st))
	assert.True(t, st.Quantity.Equal(decimal.NewFromInt(6)))
	assert.True(t, st.ReservedQuantity.IsZero())

	// 4. Volver atrás desde delivered es inválido.
	var apiErr dto.ErrorResponse
	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPut, path, "a2", fiber.Map{"status": "in_transit"}, &apiErr))
	assert.Contains(t, apiErr.Error, "delivered")

	// 5. Los dos usuarios del cliente reciben cada cambio de estado.
	e.drain(t)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/notifications/user/u2/unread-count", "u2", nil, &unread))
	assert.Equal(t, 2, unread.Count)

	// 6. Comentario del cliente, visible en el hilo.
	var posted dto.PostCommentResponse
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/comments", "u1",
		fiber.Map{"invoice_id": created.ID, "comment_text": "Recibido, gracias"}, &posted))
	assert.Equal(t, "u1", posted.Comment.UserID)

	var thread []dto.CommentResponse
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/comments/invoice/"+created.ID, "u2", nil, &thread))
	require.Len(t, thread, 1)

	// 7. Bitácora en orden.
	var logs []dto.InvoiceLogResponse
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, path+"/logs", "u1", nil, &logs))
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []string{
		entity.LogActionCreated, entity.LogActionStatusChanged, entity.LogActionStatusChanged, entity.LogActionComment,
	}, actions)

	// 8. El usuario lee todo su feed.
	var bulk dto.BulkResultResponse
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, "/notifications/user/u2/read-all", "u2", nil, &bulk))
	assert.Equal(t, 2, bulk.Affected)
}

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo de errores
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateInvoice_StockInsuficienteEs409(t *testing.T) {
	e := newEnv(t)
	var apiErr dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, e.do(t, http.MethodPost, "/invoices", "u1", newInvoiceBody("INV-1", "11"), &apiErr))
	assert.Contains(t, apiErr.Error, "SKU-1")
}

func TestCreateInvoice_ValidacionEs400(t *testing.T) {
	e := newEnv(t)
	var apiErr dto.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/invoices", "u1", fiber.Map{"delivery_date": "2026-11-03"}, &apiErr))
	assert.Contains(t, apiErr.Error, "items")
}

func TestInvoice_ClienteAjenoEs403YDesconocidaEs404(t *testing.T) {
	e := newEnv(t)
	var created dto.CreateInvoiceResponse
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/invoices", "u1", newInvoiceBody("INV-1", "1"), &created))

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/invoices/"+created.ID, "u3", nil, nil))
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/invoices/no-existe", "a1", nil, nil))
}

func TestUpdateInvoice_ClienteNoPuede(t *testing.T) {
	e := newEnv(t)
	var created dto.CreateInvoiceResponse
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/invoices", "u1", newInvoiceBody("INV-1", "1"), &created))
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPut, "/invoices/"+created.ID, "u1", fiber.Map{"status": "cancelled"}, nil))
}

func TestDeleteInvoice_SoloAdmin(t *testing.T) {
	e := newEnv(t)
	var created dto.CreateInvoiceResponse
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/invoices", "u1", newInvoiceBody("INV-1", "1"), &created))

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodDelete, "/invoices/"+created.ID, "a2", nil, nil))
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodDelete, "/invoices/"+created.ID, "a1", nil, nil))
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodDelete, "/invoices/"+created.ID, "a1", nil, nil))
}

func TestStock_ClienteNoConsulta(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/stock/SKU-1", "u1", nil, nil))
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestWebSocket_SinUpgradeEs426(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusUpgradeRequired, e.do(t, http.MethodGet, "/ws?token="+e.tokens["u1"], "", nil, nil))
}

func TestLogin_DevuelveToken(t *testing.T) {
	e := newEnv(t)
	var created dto.UserResponse
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/users", "a1", fiber.Map{
		"email": "nuevo@acme.co", "password": "password1", "role": "client", "client_id": "C1",
	}, &created))

	var login dto.LoginResponse
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/auth/login", "", fiber.Map{
		"email": "nuevo@acme.co", "password": "password1",
	}, &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "C1", login.User.ClientID)

	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodPost, "/auth/login", "", fiber.Map{
		"email": "nuevo@acme.co", "password": "otra-clave",
	}, nil))
}
