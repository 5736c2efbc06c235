package comment_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jhoicas/logistica-api/internal/application/comment"
	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/notification"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── helpers ────────────────────────────────────────────────────────────────

var (
	admin      = entity.Actor{UserID: "a1", Role: entity.RoleAdmin}
	accountant = entity.Actor{UserID: "a2", Role: entity.RoleAccountant}
	clientU1   = entity.Actor{UserID: "u1", Role: entity.RoleClient, ClientID: "C1"}
	clientU2   = entity.Actor{UserID: "u2", Role: entity.RoleClient, ClientID: "C1"}
	clientU3   = entity.Actor{UserID: "u3", Role: entity.RoleClient, ClientID: "C2"}
)

func setup(t *testing.T) (*memory.Store, *comment.Service) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	for _, u := range []*entity.User{
		{ID: "a1", Email: "a1@x.co", Role: entity.RoleAdmin},
		{ID: "a2", Email: "a2@x.co", Role: entity.RoleAccountant},
		{ID: "u1", Email: "u1@x.co", Role: entity.RoleClient, ClientID: "C1"},
		{ID: "u2", Email: "u2@x.co", Role: entity.RoleClient, ClientID: "C1"},
		{ID: "u3", Email: "u3@x.co", Role: entity.RoleClient, ClientID: "C2"},
	} {
		require.NoError(t, store.Repos().Users.Create(ctx, u))
	}
	require.NoError(t, store.Repos().Invoices.Create(ctx, &entity.Invoice{
		ID: "inv-1", InvoiceNumber: "F-1", ClientID: "C1", Status: entity.InvoiceStatusPending,
	}))
	return store, comment.NewService(store, nil, nil)
}

// drain entrega todo el outbox y devuelve los destinatarios por usuario.
func drain(t *testing.T, store *memory.Store) map[string]int {
	t.Helper()
	w := notification.NewOutboxWorker(store, notification.NewDispatcher(store, nil, nil), notification.WorkerConfig{}, nil)
	_, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	got := map[string]int{}
	for _, id := range []string{"a1", "a2", "u1", "u2", "u3"} {
		n, err := store.Repos().Notifications.CountUnread(context.Background(), id)
		require.NoError(t, err)
		if n > 0 {
			got[id] = n
		}
	}
	return got
}

func post(t *testing.T, svc *comment.Service, actor entity.Actor, text string, internal bool) (*dto.CommentResponse, error) {
	t.Helper()
	return svc.Post(context.Background(), actor, dto.PostCommentRequest{InvoiceID: "inv-1", CommentText: text, IsInternal: internal})
}

// ─── Post ───────────────────────────────────────────────────────────────────

func TestPost_ClienteNotificaATodoElStaff(t *testing.T) {
	store, svc := setup(t)

	c, err := post(t, svc, clientU1, "  ¿Cuándo llega?  ", false)
	require.NoError(t, err)
	assert.Equal(t, "¿Cuándo llega?", c.CommentText)
	assert.Equal(t, "u1", c.UserID)

	assert.Equal(t, map[string]int{"a1": 1, "a2": 1}, drain(t, store))

	logs, err := store.Repos().Logs.ListByInvoice(context.Background(), "inv-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entity.LogActionComment, logs[0].Action)
	assert.Equal(t, "¿Cuándo llega?", logs[0].Description)
}

func TestPost_StaffPublicoNotificaAlCliente(t *testing.T) {
	store, svc := setup(t)

	_, err := post(t, svc, accountant, "Sale mañana", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"u1": 1, "u2": 1}, drain(t, store))
}

func TestPost_InternoNoLlegaAClientes(t *testing.T) {
	store, svc := setup(t)

	_, err := post(t, svc, admin, "revisar crédito", true)
	require.NoError(t, err)
	assert.Empty(t, drain(t, store))

	visible, err := svc.List(context.Background(), clientU1, "inv-1")
	require.NoError(t, err)
	assert.Empty(t, visible)

	staff, err := svc.List(context.Background(), accountant, "inv-1")
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.True(t, staff[0].IsInternal)
}

func TestPost_ClienteNoPublicaInterno(t *testing.T) {
	_, svc := setup(t)
	_, err := post(t, svc, clientU1, "secreto", true)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPost_UserIDDistintoAlTokenEsForbidden(t *testing.T) {
	_, svc := setup(t)
	_, err := svc.Post(context.Background(), clientU1, dto.PostCommentRequest{InvoiceID: "inv-1", UserID: "u2", CommentText: "hola"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPost_ClienteAjenoEsForbidden(t *testing.T) {
	store, svc := setup(t)
	_, err := post(t, svc, clientU3, "hola", false)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, store.Events())
}

func TestPost_TextoVacioEsValidacion(t *testing.T) {
	_, svc := setup(t)
	_, err := post(t, svc, clientU1, "   \n\t ", false)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "comment_text", verr.Field)
}

func TestPost_FacturaInexistente(t *testing.T) {
	_, svc := setup(t)
	_, err := svc.Post(context.Background(), admin, dto.PostCommentRequest{InvoiceID: "nope", CommentText: "hola"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPost_VistaPreviaTruncadaEnBitacora(t *testing.T) {
	store, svc := setup(t)
	_, err := post(t, svc, clientU1, strings.Repeat("palabra ", 40), false)
	require.NoError(t, err)

	logs, err := store.Repos().Logs.ListByInvoice(context.Background(), "inv-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, strings.HasSuffix(logs[0].Description, "…"))
}

// ─── Edit / Delete ──────────────────────────────────────────────────────────

func TestEdit_SoloAutor(t *testing.T) {
	store, svc := setup(t)
	ctx := context.Background()
	c, err := post(t, svc, clientU1, "original", false)
	require.NoError(t, err)
	drain(t, store)

	_, err = svc.Edit(ctx, clientU2, c.ID, dto.EditCommentRequest{CommentText: "hackeado"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Edit(ctx, admin, c.ID, dto.EditCommentRequest{CommentText: "hackeado"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	edited, err := svc.Edit(ctx, clientU1, c.ID, dto.EditCommentRequest{CommentText: "corregido"})
	require.NoError(t, err)
	assert.Equal(t, "corregido", edited.CommentText)

	logs, err := store.Repos().Logs.ListByInvoice(ctx, "inv-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, entity.LogActionCommentEdit, logs[1].Action)

	feed, err := store.Repos().Notifications.ListByUser(ctx, "a1", 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	drain(t, store)
	feed, err = store.Repos().Notifications.ListByUser(ctx, "a1", 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Contains(t, feed[0].Title, "editado")
}

func TestEdit_Inexistente(t *testing.T) {
	_, svc := setup(t)
	_, err := svc.Edit(context.Background(), admin, "nope", dto.EditCommentRequest{CommentText: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_AutorOAdmin(t *testing.T) {
	store, svc := setup(t)
	ctx := context.Background()
	first, err := post(t, svc, clientU1, "uno", false)
	require.NoError(t, err)
	second, err := post(t, svc, clientU1, "dos", false)
	require.NoError(t, err)
	eventsBefore := len(store.Events())

	assert.ErrorIs(t, svc.Delete(ctx, accountant, first.ID), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, clientU1, first.ID))
	require.NoError(t, svc.Delete(ctx, admin, second.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, second.ID), domain.ErrNotFound)

	list, err := svc.List(ctx, admin, "inv-1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Len(t, store.Events(), eventsBefore)

	logs, err := store.Repos().Logs.ListByInvoice(ctx, "inv-1")
	require.NoError(t, err)
	require.Len(t, logs, 4)
	assert.Equal(t, entity.LogActionCommentDelete, logs[2].Action)
	assert.Equal(t, entity.LogActionCommentDelete, logs[3].Action)
}

func TestList_OrdenDePublicacion(t *testing.T) {
	_, svc := setup(t)
	for _, text := range []string{"a", "b", "c"} {
		_, err := post(t, svc, clientU1, text, false)
		require.NoError(t, err)
	}
	list, err := svc.List(context.Background(), clientU2, "inv-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].CommentText)
	assert.Equal(t, "c", list[2].CommentText)

	_, err = svc.List(context.Background(), clientU3, "inv-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
