package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	domainnotif "github.com/jhoicas/logistica-api/internal/domain/notification"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/jhoicas/logistica-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_ExponencialConTope(t *testing.T) {
	base, maxDelay := 5*time.Second, time.Minute
	assert.Equal(t, 5*time.Second, Backoff(0, base, maxDelay))
	assert.Equal(t, 5*time.Second, Backoff(1, base, maxDelay))
	assert.Equal(t, 10*time.Second, Backoff(2, base, maxDelay))
	assert.Equal(t, 40*time.Second, Backoff(4, base, maxDelay))
	assert.Equal(t, time.Minute, Backoff(5, base, maxDelay))
	assert.Equal(t, time.Minute, Backoff(200, base, maxDelay))
}

func enqueueInTx(t *testing.T, store *memory.Store, evt domainnotif.Event) {
	t.Helper()
	require.NoError(t, store.RunInTx(context.Background(), func(repos repository.Repositories) error {
		return Enqueue(context.Background(), repos.Outbox, evt)
	}))
}

func TestOutboxWorker_DespachaEnOrdenYMarcaSent(t *testing.T) {
	store := memory.NewStore()
	seedUsers(t, store)
	pub := &fakePublisher{}
	w := NewOutboxWorker(store, NewDispatcher(store, pub, nil), WorkerConfig{}, nil)

	client := entity.Actor{UserID: "u1", Role: entity.RoleClient, ClientID: "C1"}
	enqueueInTx(t, store, domainnotif.Event{Type: entity.NotificationNewInvoice, InvoiceID: "inv-1", ClientID: "C1", Actor: client, Title: "primera"})
	enqueueInTx(t, store, domainnotif.Event{Type: entity.NotificationComment, InvoiceID: "inv-1", ClientID: "C1", Actor: client, Title: "segunda"})

	n, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, e := range store.Events() {
		assert.Equal(t, entity.OutboxStatusSent, e.Status)
		assert.NotNil(t, e.ProcessedAt)
		assert.Empty(t, e.LockedBy)
	}

	// El feed de a1 refleja el orden de commit (más reciente primero).
	feed, err := store.Repos().Notifications.ListByUser(context.Background(), "a1", 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "segunda", feed[0].Title)
	assert.Equal(t, "primera", feed[1].Title)

	n, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, pub.got, 4)
}

func TestOutboxWorker_ReintentaYMarcaDead(t *testing.T) {
	store := memory.NewStore()
	w := NewOutboxWorker(store, NewDispatcher(store, nil, nil), WorkerConfig{
		MaxAttempts: 2,
		BaseBackoff: time.Second,
		MaxBackoff:  time.Minute,
	}, nil)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	require.NoError(t, store.Repos().Outbox.Enqueue(context.Background(), &entity.OutboxEvent{
		EventType:     entity.NotificationComment,
		Payload:       []byte("{no-es-json"),
		CreatedAt:     clock,
		NextAttemptAt: clock,
	}))

	_, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	e := store.Events()[0]
	assert.Equal(t, entity.OutboxStatusPending, e.Status)
	assert.Equal(t, 1, e.Attempts)
	assert.Equal(t, clock.Add(time.Second), e.NextAttemptAt)
	assert.NotEmpty(t, e.LastError)

	// Antes del backoff no se vuelve a reclamar.
	n, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	clock = clock.Add(2 * time.Second)
	_, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	e = store.Events()[0]
	assert.Equal(t, entity.OutboxStatusDead, e.Status)
	assert.Equal(t, 2, e.Attempts)

	clock = clock.Add(time.Hour)
	n, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOutboxWorker_LeaseVencidoSeReclama(t *testing.T) {
	store := memory.NewStore()
	seedUsers(t, store)
	w := NewOutboxWorker(store, NewDispatcher(store, nil, nil), WorkerConfig{LockTTL: 30 * time.Second}, nil)

	enqueueInTx(t, store, domainnotif.Event{
		Type: entity.NotificationInvoiceStatus, InvoiceID: "inv-1", ClientID: "C1",
		Actor: entity.Actor{UserID: "a1", Role: entity.RoleAdmin},
	})
	// El reloj parte después del created_at real del evento.
	clock := time.Now().UTC().Add(time.Second)
	w.now = func() time.Time { return clock }
	// Otro worker tomó el evento y murió sin liberar el lease.
	claimed, err := store.Repos().Outbox.Claim(context.Background(), "otro", clock, clock.Add(-30*time.Second), 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	n, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	clock = clock.Add(31 * time.Second)
	n, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, entity.OutboxStatusSent, store.Events()[0].Status)
}

func TestOutboxWorker_LeasePerdidoNoDuplicaNotificaciones(t *testing.T) {
	store := memory.NewStore()
	seedUsers(t, store)
	pub := &fakePublisher{}
	dispatcher := NewDispatcher(store, pub, nil)
	cfg := WorkerConfig{LockTTL: 30 * time.Second}
	cfg.WorkerID = "lento"
	slow := NewOutboxWorker(store, dispatcher, cfg, nil)
	cfg.WorkerID = "rapido"
	fast := NewOutboxWorker(store, dispatcher, cfg, nil)

	enqueueInTx(t, store, domainnotif.Event{
		Type: entity.NotificationInvoiceStatus, InvoiceID: "inv-1", ClientID: "C1",
		Actor: entity.Actor{UserID: "a1", Role: entity.RoleAdmin}, Title: "estado",
	})
	clock := time.Now().UTC().Add(time.Second)
	slow.now = func() time.Time { return clock }
	fast.now = func() time.Time { return clock }
	ctx := context.Background()

	// "lento" reclama y se queda colgado más allá del TTL.
	stale, err := store.Repos().Outbox.Claim(ctx, "lento", clock, clock.Add(-30*time.Second), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)

	clock = clock.Add(31 * time.Second)
	n, err := fast.ProcessOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	unread, err := store.Repos().Notifications.CountUnread(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, unread)
	pushes := len(pub.users())

	// "lento" retoma su copia vencida: no inserta ni marca nada.
	slow.process(ctx, stale[0])

	unread, err = store.Repos().Notifications.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
	assert.Len(t, pub.users(), pushes)
	e := store.Events()[0]
	assert.Equal(t, entity.OutboxStatusSent, e.Status)
	assert.Zero(t, e.Attempts)

	// Un fallo reportado con el lease perdido tampoco toca el evento.
	slow.fail(ctx, stale[0], errors.New("timeout"))
	e = store.Events()[0]
	assert.Equal(t, entity.OutboxStatusSent, e.Status)
	assert.Zero(t, e.Attempts)
	assert.Empty(t, e.LastError)
}

func TestOutboxRepo_MarcarExigeLeaseVigente(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	repo := store.Repos().Outbox
	now := time.Now().UTC().Add(time.Second)

	require.NoError(t, repo.Enqueue(ctx, &entity.OutboxEvent{EventType: entity.NotificationComment, Payload: []byte("{}")}))
	id := store.Events()[0].ID

	// Sin reclamar nadie tiene el lease.
	assert.ErrorIs(t, repo.MarkSent(ctx, id, "w1", now), domain.ErrLeaseLost)

	_, err := repo.Claim(ctx, "w1", now, now.Add(-time.Minute), 10)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.MarkSent(ctx, id, "w2", now), domain.ErrLeaseLost)
	assert.ErrorIs(t, repo.MarkFailed(ctx, id, "w2", 1, now, false, "x"), domain.ErrLeaseLost)

	require.NoError(t, repo.MarkSent(ctx, id, "w1", now))
	assert.ErrorIs(t, repo.MarkSent(ctx, id, "w1", now), domain.ErrLeaseLost)
	assert.Equal(t, entity.OutboxStatusSent, store.Events()[0].Status)
}

func TestWorkerConfig_IDPorDefectoUnico(t *testing.T) {
	a := WorkerConfig{}.withDefaults()
	b := WorkerConfig{}.withDefaults()
	assert.NotEmpty(t, a.WorkerID)
	assert.NotEqual(t, a.WorkerID, b.WorkerID)
	assert.Equal(t, "fijo", WorkerConfig{WorkerID: "fijo"}.withDefaults().WorkerID)
}

func TestOutboxWorker_RunTerminaConContexto(t *testing.T) {
	store := memory.NewStore()
	seedUsers(t, store)
	w := NewOutboxWorker(store, NewDispatcher(store, nil, nil), WorkerConfig{Interval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	enqueueInTx(t, store, domainnotif.Event{
		Type: entity.NotificationInvoiceStatus, InvoiceID: "inv-1", ClientID: "C1",
		Actor: entity.Actor{UserID: "a1", Role: entity.RoleAdmin},
	})
	w.Notify()

	require.Eventually(t, func() bool {
		n, _ := store.Repos().Notifications.CountUnread(context.Background(), "u1")
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run no terminó tras cancelar el contexto")
	}
}
