package invoice_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/invoice"
	"github.com/jhoicas/logistica-api/internal/application/stock"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// ─── helpers ────────────────────────────────────────────────────────────────

var (
	admin      = entity.Actor{UserID: "a1", Role: entity.RoleAdmin}
	accountant = entity.Actor{UserID: "a2", Role: entity.RoleAccountant}
	clientC1   = entity.Actor{UserID: "u1", Role: entity.RoleClient, ClientID: "C1"}
	clientC2   = entity.Actor{UserID: "u3", Role: entity.RoleClient, ClientID: "C2"}
)

type countingNotifier struct{ n atomic.Int32 }

func (c *countingNotifier) Notify() { c.n.Add(1) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setup(t *testing.T) (*memory.Store, *invoice.Service, *countingNotifier) {
	t.Helper()
	store := memory.NewStore()
	notifier := &countingNotifier{}
	svc := invoice.NewService(store, stock.NewEngine(store, "main"), notifier, nil)
	return store, svc, notifier
}

func seedStock(t *testing.T, store *memory.Store, productID, qty string) {
	t.Helper()
	require.NoError(t, store.Repos().Stock.Upsert(context.Background(), &entity.Stock{
		ProductID: productID, Location: "main", Quantity: dec(qty), ReservedQuantity: decimal.Zero,
	}))
}

func stockOf(t *testing.T, store *memory.Store, productID string) *entity.Stock {
	t.Helper()
	s, err := store.Repos().Stock.Get(context.Background(), productID, "main")
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func request(number, clientID string, items ...dto.InvoiceItemRequest) dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		InvoiceNumber: number,
		ClientID:      clientID,
		DeliveryDate:  "2026-11-03",
		Items:         items,
	}
}

func line(productID, qty, price string) dto.InvoiceItemRequest {
	return dto.InvoiceItemRequest{ProductID: productID, ProductName: "Producto " + productID, Quantity: dec(qty), UnitPrice: dec(price)}
}

func changeStatus(t *testing.T, svc *invoice.Service, actor entity.Actor, id, status string) error {
	t.Helper()
	_, err := svc.ChangeStatus(context.Background(), actor, id, dto.UpdateInvoiceRequest{Status: status})
	return err
}

// ─── Create ─────────────────────────────────────────────────────────────────

func TestCreate_CalculaTotalesYReserva(t *testing.T) {
	store, svc, notifier := setup(t)
	seedStock(t, store, "p1", "10")

	res, err := svc.Create(context.Background(), clientC1, request("F-1", "",
		line("p1", "2", "10.01"),
		dto.InvoiceItemRequest{ProductName: "Flete", Quantity: dec("1"), UnitPrice: dec("5")},
	))
	require.NoError(t, err)

	assert.Equal(t, "C1", res.ClientID)
	assert.Equal(t, entity.InvoiceStatusPending, res.Status)
	assert.Equal(t, "2026-11-03", res.DeliveryDate)
	require.Len(t, res.Items, 2)
	assert.True(t, res.Items[0].LineTotal.Equal(dec("20.02")))
	assert.True(t, res.TotalAmount.Equal(dec("25.02")))
	assert.Equal(t, "main", res.Items[0].Location)

	s := stockOf(t, store, "p1")
	assert.True(t, s.ReservedQuantity.Equal(dec("2")))

	logs, err := svc.Logs(context.Background(), clientC1, res.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entity.LogActionCreated, logs[0].Action)
	assert.Equal(t, entity.InvoiceStatusPending, logs[0].NewStatus)

	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, entity.NotificationNewInvoice, events[0].EventType)
	assert.Equal(t, res.ID, events[0].InvoiceID)
	assert.EqualValues(t, 1, notifier.n.Load())
}

func TestCreate_TotalEsSumaExactaDeLineas(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")
	seedStock(t, store, "p2", "10")

	res, err := svc.Create(context.Background(), admin, request("F-EX", "C1",
		line("p1", "0.333", "1"),
		line("p2", "2", "10.01"),
	))
	require.NoError(t, err)

	assert.True(t, res.Items[0].LineTotal.Equal(dec("0.333")), "line=%s", res.Items[0].LineTotal)
	sum := decimal.Zero
	for _, it := range res.Items {
		sum = sum.Add(it.Quantity.Mul(it.UnitPrice))
	}
	assert.True(t, res.TotalAmount.Equal(dec("20.353")), "total=%s", res.TotalAmount)
	assert.True(t, res.TotalAmount.Equal(sum), "total=%s sum=%s", res.TotalAmount, sum)
}

func TestCreate_RechazaMasDecimalesQueLasColumnas(t *testing.T) {
	cases := []struct {
		name  string
		item  dto.InvoiceItemRequest
		field string
	}{
		{"precio con tres decimales", line("p1", "2", "10.005"), "items[0].unit_price"},
		{"cantidad con cinco decimales", line("p1", "0.33333", "1"), "items[0].quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, svc, _ := setup(t)
			seedStock(t, store, "p1", "10")

			_, err := svc.Create(context.Background(), admin, request("F-D", "C1", tc.item))
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "err=%v", err)
			assert.Equal(t, tc.field, verr.Field)
			assert.Contains(t, verr.Message, "decimales")

			assert.True(t, stockOf(t, store, "p1").ReservedQuantity.IsZero())
			assert.Empty(t, store.Events())
		})
	}

	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")
	_, err := svc.Create(context.Background(), admin, request("F-Z", "C1", line("p1", "1.5000", "10.500")))
	require.NoError(t, err, "los ceros a la derecha no cuentan como decimales")
}

func TestCreate_StaffNoGeneraEventoNewInvoice(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")

	_, err := svc.Create(context.Background(), accountant, request("", "C1", line("p1", "1", "1")))
	require.NoError(t, err)
	assert.Empty(t, store.Events())
}

func TestCreate_GeneraNumeroSiFalta(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")

	res, err := svc.Create(context.Background(), admin, request("", "C1", line("p1", "1", "1")))
	require.NoError(t, err)
	assert.Regexp(t, `^INV-[0-9A-Z]+$`, res.InvoiceNumber)
}

func TestCreate_ClienteParaOtroClienteEsForbidden(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")

	_, err := svc.Create(context.Background(), clientC1, request("F-1", "C2", line("p1", "1", "1")))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreate_StaffSinClienteEsValidacion(t *testing.T) {
	_, svc, _ := setup(t)

	_, err := svc.Create(context.Background(), admin, request("F-1", "", line("p1", "1", "1")))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "client_id", verr.Field)
}

func TestCreate_CantidadYPrecioInvalidos(t *testing.T) {
	_, svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, request("F-1", "C1", line("p1", "0", "1")))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items[0].quantity", verr.Field)

	_, err = svc.Create(ctx, admin, request("F-1", "C1", line("p1", "1", "-1")))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items[0].unit_price", verr.Field)

	_, err = svc.Create(ctx, admin, dto.CreateInvoiceRequest{ClientID: "C1", DeliveryDate: "03/11/2026", Items: []dto.InvoiceItemRequest{line("p1", "1", "1")}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_PrecioCeroRechazado(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")

	_, err := svc.Create(context.Background(), admin, request("F-0", "C1", line("p1", "1", "0")))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items[0].unit_price", verr.Field)
	assert.Equal(t, "debe ser mayor que cero", verr.Message)
	assert.True(t, stockOf(t, store, "p1").ReservedQuantity.IsZero())
	assert.Empty(t, store.Events())
}

func TestCreate_NumeroDuplicado(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, request("F-1", "C1", line("p1", "1", "1")))
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin, request("F-1", "C1", line("p1", "1", "1")))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invoice_number", verr.Field)
	assert.True(t, stockOf(t, store, "p1").ReservedQuantity.Equal(dec("1")))
}

func TestCreate_StockInsuficienteNoPersisteNada(t *testing.T) {
	store, svc, notifier := setup(t)
	seedStock(t, store, "p1", "3")
	ctx := context.Background()

	_, err := svc.Create(ctx, clientC1, request("F-1", "", line("p1", "4", "1")))
	var serr *domain.InsufficientStockError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "p1", serr.ProductID)

	list, err := svc.List(ctx, admin, dto.ListInvoicesQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, store.Events())
	assert.True(t, stockOf(t, store, "p1").ReservedQuantity.IsZero())
	assert.EqualValues(t, 0, notifier.n.Load())
}

func TestCreate_UltimasCincoUnidadesConcurrente(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "5")

	var ok, short atomic.Int32
	var g errgroup.Group
	for _, number := range []string{"F-A", "F-B"} {
		number := number
		g.Go(func() error {
			_, err := svc.Create(context.Background(), admin, request(number, "C1", line("p1", "5", "1")))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				short.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 1, short.Load())
	s := stockOf(t, store, "p1")
	assert.True(t, s.ReservedQuantity.Equal(dec("5")))
	assert.True(t, s.Available().IsZero())
}

// ─── ChangeStatus ───────────────────────────────────────────────────────────

func TestChangeStatus_EntregaDescuentaStock(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")
	ctx := context.Background()

	res, err := svc.Create(ctx, admin, request("F-1", "C1", line("p1", "4", "2")))
	require.NoError(t, err)

	require.NoError(t, changeStatus(t, svc, accountant, res.ID, entity.InvoiceStatusInTransit))
	require.NoError(t, changeStatus(t, svc, accountant, res.ID, entity.InvoiceStatusDelivered))

	s := stockOf(t, store, "p1")
	assert.True(t, s.Quantity.Equal(dec("6")))
	assert.True(t, s.ReservedQuantity.IsZero())

	logs, err := svc.Logs(ctx, admin, res.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, entity.LogActionStatusChanged, logs[2].Action)
	assert.Equal(t, entity.InvoiceStatusInTransit, logs[2].OldStatus)
	assert.Equal(t, entity.InvoiceStatusDelivered, logs[2].NewStatus)
}

func TestChangeStatus_DesdeTerminalFalla(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")
	ctx := context.Background()

	res, err := svc.Create(ctx, admin, request("F-1", "C1", line("p1", "1", "1")))
	require.NoError(t, err)
	require.NoError(t, changeStatus(t, svc, admin, res.ID, entity.InvoiceStatusInTransit))
	require.NoError(t, changeStatus(t, svc, admin, res.ID, entity.InvoiceStatusDelivered))
	before := len(store.Events())

	err = changeStatus(t, svc, admin, res.ID, entity.InvoiceStatusInTransit)
	var terr *domain.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, entity.InvoiceStatusDelivered, terr.From)

	logs, err := svc.Logs(ctx, admin, res.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
	assert.Len(t, store.Events(), before)

	got, err := svc.Get(ctx, admin, res.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusDelivered, got.Status)
}

func TestChangeStatus_PendingADeliveredNoPermitido(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")

	res, err := svc.Create(context.Background(), admin, request("F-1", "C1", line("p1", "1", "1")))
	require.NoError(t, err)

	err = changeStatus(t, svc, admin, res.ID, entity.InvoiceStatusDelivered)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.True(t, stockOf(t, store, "p1").Quantity.Equal(dec("10")))
}

func TestChangeStatus_CancelarLiberaReserva(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")
	ctx := context.Background()

	res, err := svc.Create(ctx, admin, request("F-1", "C1", line("p1", "7", "1")))
	require.NoError(t, err)
	require.NoError(t, changeStatus(t, svc, admin, res.ID, entity.InvoiceStatusCancelled))

	s := stockOf(t, store, "p1")
	assert.True(t, s.Quantity.Equal(dec("10")))
	assert.True(t, s.ReservedQuantity.IsZero())

	movs, err := store.Repos().Movements.ListByReference(ctx, entity.ReferenceInvoice, res.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeReleased, movs[1].Type)
	assert.True(t, movs[1].Quantity.Equal(dec("-7")))
}

func TestChangeStatus_MismoEstadoRegistraUpdated(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")
	ctx := context.Background()

	res, err := svc.Create(ctx, admin, request("F-1", "C1", line("p1", "1", "1")))
	require.NoError(t, err)

	notes := "llamar antes de entregar"
	tracking := "TRK-9"
	got, err := svc.ChangeStatus(ctx, accountant, res.ID, dto.UpdateInvoiceRequest{
		Status: entity.InvoiceStatusPending, Notes: &notes, TrackingCode: &tracking,
	})
	require.NoError(t, err)
	assert.Equal(t, notes, got.Notes)
	assert.Equal(t, tracking, got.TrackingCode)
	assert.Len(t, got.Items, 1)

	logs, err := svc.Logs(ctx, admin, res.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, entity.LogActionUpdated, logs[1].Action)

	events := store.Events()
	assert.Equal(t, entity.NotificationInvoiceUpdate, events[len(events)-1].EventType)
}

func TestChangeStatus_ClienteEsForbidden(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")

	res, err := svc.Create(context.Background(), clientC1, request("F-1", "", line("p1", "1", "1")))
	require.NoError(t, err)
	assert.ErrorIs(t, changeStatus(t, svc, clientC1, res.ID, entity.InvoiceStatusCancelled), domain.ErrForbidden)
}

func TestChangeStatus_FacturaInexistente(t *testing.T) {
	_, svc, _ := setup(t)
	assert.ErrorIs(t, changeStatus(t, svc, admin, "nope", entity.InvoiceStatusInTransit), domain.ErrNotFound)
}

func TestChangeStatus_EstadoDesconocido(t *testing.T) {
	_, svc, _ := setup(t)
	assert.ErrorIs(t, changeStatus(t, svc, admin, "x", "archived"), domain.ErrInvalidInput)
}

// ─── Delete / consultas ─────────────────────────────────────────────────────

func TestDelete_SoloAdminYConservaBitacora(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")
	ctx := context.Background()

	res, err := svc.Create(ctx, admin, request("F-1", "C1", line("p1", "1", "1")))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, accountant, res.ID), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, res.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, res.ID), domain.ErrNotFound)

	_, err = svc.Get(ctx, admin, res.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	logs, err := svc.Logs(ctx, admin, res.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	_, err = svc.Logs(ctx, clientC1, res.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	movs, err := store.Repos().Movements.ListByReference(ctx, entity.ReferenceInvoice, res.ID)
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

func TestGet_ClienteAjenoEsForbidden(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")
	ctx := context.Background()

	res, err := svc.Create(ctx, clientC1, request("F-1", "", line("p1", "1", "1")))
	require.NoError(t, err)

	_, err = svc.Get(ctx, clientC2, res.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Logs(ctx, clientC2, res.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestList_ClienteSoloVeLasSuyas(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")
	ctx := context.Background()

	_, err := svc.Create(ctx, clientC1, request("F-1", "", line("p1", "1", "1")))
	require.NoError(t, err)
	_, err = svc.Create(ctx, clientC2, request("F-2", "", line("p1", "1", "1")))
	require.NoError(t, err)

	mine, err := svc.List(ctx, clientC1, dto.ListInvoicesQuery{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "F-1", mine[0].InvoiceNumber)

	_, err = svc.List(ctx, clientC1, dto.ListInvoicesQuery{ClientID: "C2"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	all, err := svc.List(ctx, admin, dto.ListInvoicesQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := svc.List(ctx, admin, dto.ListInvoicesQuery{Status: entity.InvoiceStatusPending, ClientID: "C2"})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestLogs_LecturaIdempotente(t *testing.T) {
	store, svc, _ := setup(t)
	seedStock(t, store, "p1", "10")
	ctx := context.Background()

	res, err := svc.Create(ctx, admin, request("F-1", "C1", line("p1", "1", "1")))
	require.NoError(t, err)
	require.NoError(t, changeStatus(t, svc, admin, res.ID, entity.InvoiceStatusInTransit))

	first, err := svc.Logs(ctx, admin, res.ID)
	require.NoError(t, err)
	second, err := svc.Logs(ctx, admin, res.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
