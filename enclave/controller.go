package enclave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/enclaveops/enclave-console-backend/interfaces"
	"github.com/enclaveops/enclave-console-backend/metrics"
)

// triggerTimeout bounds the post-write destroy trigger. The client response
// does not wait for it.
const triggerTimeout = 30 * time.Second

// Controller validates and executes status transitions.
type Controller struct {
	store     interfaces.EnclaveStore
	trigger   interfaces.WorkflowTrigger
	providers *Registry
	log       *slog.Logger

	// triggerDone, when non-nil, is closed after the async destroy trigger
	// finishes. Tests use it to observe the fire-and-forget call.
	triggerDone chan struct{}
}

// NewController creates a lifecycle controller.
func NewController(store interfaces.EnclaveStore, trigger interfaces.WorkflowTrigger, providers *Registry, log *slog.Logger) *Controller {
	return &Controller{store: store, trigger: trigger, providers: providers, log: log}
}

// transitionFor returns the states an action is allowed from and the state
// it moves the enclave to. The switch is exhaustive over the closed Action
// set; ParseAction guarantees no other value reaches it, but the default
// still rejects rather than guessing.
func transitionFor(action interfaces.Action) (allowed []interfaces.Status, next interfaces.Status, err error) {
	switch action {
	case interfaces.ActionPause:
		return []interfaces.Status{interfaces.StatusDeployed}, interfaces.StatusPausing, nil
	case interfaces.ActionResume:
		return []interfaces.Status{interfaces.StatusPaused}, interfaces.StatusResuming, nil
	case interfaces.ActionTerminate:
		return []interfaces.Status{
			interfaces.StatusDeployed,
			interfaces.StatusPaused,
			interfaces.StatusFailed,
		}, interfaces.StatusPendingDestroy, nil
	default:
		return nil, "", &interfaces.ValidationError{Field: "action", Reason: fmt.Sprintf("unknown action %q", action)}
	}
}

// RequestTransition validates ownership and the action's precondition, then
// atomically writes the new status. No mutation happens on any validation
// failure. For terminate, the external destroy workflow is triggered
// asynchronously after the write commits; its outcome does not affect the
// returned record or error.
func (c *Controller) RequestTransition(ctx context.Context, id interfaces.EnclaveID, action interfaces.Action, caller interfaces.OwnerAddress) (*interfaces.Enclave, error) {
	allowed, next, err := transitionFor(action)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(action), "invalid").Inc()
		return nil, err
	}

	current, err := c.store.Get(ctx, id)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(action), "error").Inc()
		return nil, err
	}

	// Ownership first: a non-owner learns nothing about the record beyond
	// its existence, not even its status.
	if current.Owner != caller {
		metrics.TransitionsTotal.WithLabelValues(string(action), "denied").Inc()
		c.log.Warn("Transition denied: caller is not the owner",
			slog.String("enclave_id", id.String()),
			slog.String("action", action.String()))
		return nil, interfaces.ErrNotAuthorized
	}

	if c.providers != nil {
		if _, ok := c.providers.Get(current.Provider); !ok {
			metrics.TransitionsTotal.WithLabelValues(string(action), "error").Inc()
			return nil, &interfaces.InternalError{Err: fmt.Errorf("enclave %s references unregistered provider %q", id, current.Provider)}
		}
	}

	if !statusIn(current.Status, allowed) {
		metrics.TransitionsTotal.WithLabelValues(string(action), "conflict").Inc()
		return nil, &interfaces.ConflictError{Action: action.String(), Current: current.Status, Allowed: allowed}
	}

	updated, err := c.store.UpdateStatus(ctx, id, next)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(action), "error").Inc()
		return nil, &interfaces.InternalError{Err: fmt.Errorf("writing status %s: %w", next, err)}
	}

	c.log.Info("Status transition committed",
		slog.String("enclave_id", id.String()),
		slog.String("action", action.String()),
		slog.String("from", current.Status.String()),
		slog.String("to", next.String()))

	if action == interfaces.ActionTerminate {
		c.triggerDestroyAsync(ctx, updated)
	}

	metrics.TransitionsTotal.WithLabelValues(string(action), "ok").Inc()
	return updated, nil
}

// triggerDestroyAsync fires the external cleanup workflow without holding up
// the response. The status write has already committed; a trigger failure
// leaves the record in PENDING_DESTROY with no automatic compensation (see
// the delivery-gap note in DESIGN.md), so it is logged at Error and counted.
func (c *Controller) triggerDestroyAsync(ctx context.Context, enclave *interfaces.Enclave) {
	directive := interfaces.NewDestroyDirective(enclave.ID, enclave.Owner)
	done := c.triggerDone

	go func() {
		if done != nil {
			defer close(done)
		}

		// Detach from the request context: the client response must not
		// cancel the trigger.
		triggerCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), triggerTimeout)
		defer cancel()

		if err := c.trigger.TriggerDestroy(triggerCtx, directive); err != nil {
			metrics.TriggerFailuresTotal.Inc()
			c.log.Error("Destroy workflow trigger failed; record stays PENDING_DESTROY",
				slog.String("enclave_id", enclave.ID.String()),
				"err", err)
			return
		}

		c.log.Info("Destroy workflow triggered", slog.String("enclave_id", enclave.ID.String()))
	}()
}

func statusIn(status interfaces.Status, set []interfaces.Status) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
