package dispatch

import (
	"context"
	"sync"
	"time"

	"registration-sync-go/internal/models"
	"registration-sync-go/internal/reconcile"

	"go.uber.org/zap"
)

// Trigger names the mutation that caused a propagation run.
type Trigger string

const (
	TriggerFormSaved       Trigger = "form_saved"
	TriggerUserUpdated     Trigger = "user_updated"
	TriggerPaymentVerified Trigger = "payment_verified"
	TriggerFullRefresh     Trigger = "full_refresh"
)

// Sink labels used in outcomes and logs.
const (
	SinkLedger    = "ledger"
	SinkRecords   = "records"
	SinkAllowList = "allowlist"
)

// LedgerSink receives the complete due-payments set on every sync
// (full-replace semantics).
type LedgerSink interface {
	SyncDuePayments(ctx context.Context, rows []models.LedgerRow) error
}

// RecordSink receives single changed records (incremental upsert semantics).
type RecordSink interface {
	SyncUserRecord(ctx context.Context, user *models.User) error
	SyncFormRecord(ctx context.Context, form *models.Form, tab string) error
}

// AllowListSink mirrors identities to the external allow-list.
type AllowListSink interface {
	Upsert(ctx context.Context, identity models.AllowListIdentity) error
	Remove(ctx context.Context, email string) error
	Swap(ctx context.Context, oldEmail string, identity models.AllowListIdentity) error
	SyncFormPlayers(ctx context.Context, form *models.Form, university string) error
}

// Outcome is one observed propagation result. Failures surface here and in
// logs only; they never reach the triggering caller.
type Outcome struct {
	Trigger Trigger
	Sink    string
	UserId  string
	Err     error
}

// Dispatcher fans reconciliation state out to the configured sinks in the
// background. The triggering request returns before propagation finishes,
// and no sink's failure affects another sink or the primary mutation. A nil
// sink is simply skipped, which is how sheet sync is disabled by config.
type Dispatcher struct {
	engine    *reconcile.Engine
	ledger    LedgerSink
	records   RecordSink
	allowList AllowListSink
	sportTabs map[string]string // sport title -> sheet tab for form records
	timeout   time.Duration

	wg       sync.WaitGroup
	outcomes chan Outcome
}

func NewDispatcher(engine *reconcile.Engine, ledger LedgerSink, records RecordSink, allowList AllowListSink, sportTabs map[string]string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		engine:    engine,
		ledger:    ledger,
		records:   records,
		allowList: allowList,
		sportTabs: sportTabs,
		timeout:   timeout,
		outcomes:  make(chan Outcome, 64),
	}
}

// Outcomes exposes the propagation result stream. When nothing is draining
// the channel, outcomes are dropped rather than blocking propagation.
func (d *Dispatcher) Outcomes() <-chan Outcome {
	return d.outcomes
}

// Wait blocks until all in-flight propagation work has settled. Used by
// tests and graceful shutdown; request handlers never call it.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) spawn(trigger Trigger, sink, userId string, fn func(context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		// Deliberately not the request context: propagation outlives the
		// triggering call and only the per-call timeout bounds it.
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		err := fn(ctx)
		if err != nil {
			zap.L().Error("Propagation sink failed",
				zap.String("trigger", string(trigger)),
				zap.String("sink", sink),
				zap.String("user_id", userId),
				zap.Error(err))
		}

		select {
		case d.outcomes <- Outcome{Trigger: trigger, Sink: sink, UserId: userId, Err: err}:
		default:
		}
	}()
}

// LedgerRefresh recomputes the full due-payments set and mirrors it to the
// ledger sink. Every trigger funnels through this: the full-replace strategy
// makes per-user incremental updates unnecessary and self-healing.
func (d *Dispatcher) LedgerRefresh(trigger Trigger) {
	if d.ledger == nil {
		zap.L().Debug("Ledger sink disabled, skipping due-payments sync", zap.String("trigger", string(trigger)))
		return
	}
	d.spawn(trigger, SinkLedger, "", func(ctx context.Context) error {
		rows, err := d.engine.AllDuePayments(ctx)
		if err != nil {
			return err
		}
		return d.ledger.SyncDuePayments(ctx, rows)
	})
}

// FormSaved propagates a roster mutation: the form's players go to the
// allow-list and the due-payments mirror is refreshed.
func (d *Dispatcher) FormSaved(form *models.Form, university string) {
	if d.allowList != nil {
		f := *form
		d.spawn(TriggerFormSaved, SinkAllowList, form.OwnerId, func(ctx context.Context) error {
			return d.allowList.SyncFormPlayers(ctx, &f, university)
		})
	}
	if d.records != nil {
		if tab, ok := d.sportTabs[form.Title]; ok {
			f := *form
			d.spawn(TriggerFormSaved, SinkRecords, form.OwnerId, func(ctx context.Context) error {
				return d.records.SyncFormRecord(ctx, &f, tab)
			})
		}
	}
	d.LedgerRefresh(TriggerFormSaved)
}

// UserUpdated propagates a user record change. previousEmail carries the
// email before the mutation so an identity change becomes an allow-list
// swap; pass the current email when it did not change.
func (d *Dispatcher) UserUpdated(user *models.User, previousEmail string) {
	u := *user

	if d.records != nil {
		d.spawn(TriggerUserUpdated, SinkRecords, user.Id, func(ctx context.Context) error {
			return d.records.SyncUserRecord(ctx, &u)
		})
	}

	if d.allowList != nil {
		d.spawn(TriggerUserUpdated, SinkAllowList, user.Id, func(ctx context.Context) error {
			identity := models.AllowListIdentity{
				Email:      u.Email,
				Name:       u.Name,
				University: u.UniversityName,
				Phone:      u.Phone,
			}
			switch {
			case u.Deleted:
				return d.allowList.Remove(ctx, u.Email)
			case previousEmail != "" && previousEmail != u.Email:
				return d.allowList.Swap(ctx, previousEmail, identity)
			default:
				return d.allowList.Upsert(ctx, identity)
			}
		})
	}

	d.LedgerRefresh(TriggerUserUpdated)
}

// PaymentVerified propagates a payment verification for one user.
func (d *Dispatcher) PaymentVerified(userId string) {
	d.LedgerRefresh(TriggerPaymentVerified)
}

// FullRefresh re-mirrors everything: the due-payments tab and every active
// user's record row.
func (d *Dispatcher) FullRefresh(users []models.User) {
	d.LedgerRefresh(TriggerFullRefresh)

	if d.records == nil {
		return
	}
	for i := range users {
		u := users[i]
		d.spawn(TriggerFullRefresh, SinkRecords, u.Id, func(ctx context.Context) error {
			return d.records.SyncUserRecord(ctx, &u)
		})
	}
}
