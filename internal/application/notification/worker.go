package notification

import (
	"context"
	"errors"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// WorkerConfig parámetros del worker del outbox.
type WorkerConfig struct {
	WorkerID    string
	BatchSize   int
	Interval    time.Duration
	LockTTL     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.WorkerID == "" {
		c.WorkerID = defaultWorkerID()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 5 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Minute
	}
	return c
}

// defaultWorkerID es único por worker: el lease de outbox se verifica contra este id.
func defaultWorkerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "outbox"
	}
	return host + "-" + uuid.NewString()[:8]
}

// Backoff base * 2^(attempt-1), con tope maxDelay.
func Backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	if delay > maxDelay || delay <= 0 {
		return maxDelay
	}
	return delay
}

// OutboxWorker drena notification_outbox: reclama lotes con lease, despacha cada evento en su
// propia transacción (notificaciones + SENT juntos) y reintenta con backoff hasta DEAD.
type OutboxWorker struct {
	store      repository.Store
	dispatcher *Dispatcher
	cfg        WorkerConfig
	log        *logger.Logger
	kick       chan struct{}
	now        func() time.Time
}

// NewOutboxWorker construye el worker.
func NewOutboxWorker(store repository.Store, dispatcher *Dispatcher, cfg WorkerConfig, log *logger.Logger) *OutboxWorker {
	if log == nil {
		log = logger.Nop()
	}
	return &OutboxWorker{
		store:      store,
		dispatcher: dispatcher,
		cfg:        cfg.withDefaults(),
		log:        log.Named("outbox"),
		kick:       make(chan struct{}, 1),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Notify despierta al worker tras un commit. No bloquea.
func (w *OutboxWorker) Notify() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Run procesa hasta que ctx se cancele. El intervalo cubre eventos de otras instancias y reintentos.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	w.log.Info().Str("worker_id", w.cfg.WorkerID).Dur("interval", w.cfg.Interval).Msg("outbox worker iniciado")
	for {
		for {
			n, err := w.ProcessOnce(ctx)
			if err != nil && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("reclamo de outbox falló")
			}
			// Lote lleno: puede haber más pendientes.
			if err != nil || n < w.cfg.BatchSize {
				break
			}
		}
		select {
		case <-ctx.Done():
			w.log.Info().Msg("outbox worker detenido")
			return nil
		case <-ticker.C:
		case <-w.kick:
		}
	}
}

// ProcessOnce reclama un lote y lo procesa en orden de id. Devuelve cuántos eventos reclamó.
func (w *OutboxWorker) ProcessOnce(ctx context.Context) (int, error) {
	now := w.now()
	events, err := w.store.Repos().Outbox.Claim(ctx, w.cfg.WorkerID, now, now.Add(-w.cfg.LockTTL), w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	for _, e := range events {
		if ctx.Err() != nil {
			return len(events), ctx.Err()
		}
		w.process(ctx, e)
	}
	return len(events), nil
}

func (w *OutboxWorker) process(ctx context.Context, e *entity.OutboxEvent) {
	var created []*entity.Notification
	err := w.store.RunInTx(ctx, func(repos repository.Repositories) error {
		evt, err := decode(e)
		if err != nil {
			return err
		}
		created, err = w.dispatcher.Persist(ctx, repos, evt)
		if err != nil {
			return err
		}
		return repos.Outbox.MarkSent(ctx, e.ID, w.cfg.WorkerID, w.now())
	})
	if err != nil {
		w.fail(ctx, e, err)
		return
	}
	w.dispatcher.Push(created)
	w.log.Debug().
		Int64("event_id", e.ID).
		Str("event_type", e.EventType).
		Str("invoice_id", e.InvoiceID).
		Int("recipients", len(created)).
		Msg("evento de outbox despachado")
}

func (w *OutboxWorker) fail(ctx context.Context, e *entity.OutboxEvent, cause error) {
	// Otro worker reclamó el evento: la transacción ya se revirtió y no cuenta como intento.
	if errors.Is(cause, domain.ErrLeaseLost) {
		w.log.Warn().Int64("event_id", e.ID).Msg("lease de outbox perdido, evento descartado por este worker")
		return
	}
	attempts := e.Attempts + 1
	dead := attempts >= w.cfg.MaxAttempts
	next := w.now().Add(Backoff(attempts, w.cfg.BaseBackoff, w.cfg.MaxBackoff))
	if err := w.store.Repos().Outbox.MarkFailed(ctx, e.ID, w.cfg.WorkerID, attempts, next, dead, cause.Error()); err != nil {
		w.log.Error().Err(err).Int64("event_id", e.ID).Msg("no se pudo registrar el fallo del evento")
		return
	}
	ev := w.log.Warn()
	if dead {
		ev = w.log.Error()
	}
	ev.Err(cause).
		Int64("event_id", e.ID).
		Str("invoice_id", e.InvoiceID).
		Int("attempt", attempts).
		Bool("dead", dead).
		Msg("despacho de evento falló")
}
