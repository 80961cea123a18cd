package push

import (
	"errors"
	"log/slog"

	"github.com/mhollis/cadence/internal/model"
	"github.com/mhollis/cadence/internal/store"
)

// Sender delivers one payload to one subscription. *Service implements it;
// tests substitute fakes.
type Sender interface {
	Send(sub *model.PushSubscription, payload Payload) error
}

// Result summarizes one fan-out: per-endpoint successes, failures, and the
// number of subscriptions attempted.
type Result struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

// Dispatcher fans a payload out to every registered endpoint. One
// endpoint's failure never aborts delivery to the others. Endpoints the
// push service reports as permanently gone are pruned from the registry;
// transient failures are only counted, with no retry until the next cycle.
type Dispatcher struct {
	sender Sender
	subs   *store.SubscriptionStore
	logger *slog.Logger
}

func NewDispatcher(sender Sender, subs *store.SubscriptionStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, subs: subs, logger: logger}
}

// Dispatch sends the payload to every subscription currently registered.
func (d *Dispatcher) Dispatch(payload Payload) Result {
	subs := d.subs.List()
	res := Result{Total: len(subs)}

	for i := range subs {
		sub := &subs[i]
		err := d.sender.Send(sub, payload)
		if err == nil {
			res.Success++
			continue
		}
		res.Failed++

		if errors.Is(err, ErrExpired) {
			if _, rmErr := d.subs.Remove(sub.Endpoint); rmErr != nil {
				d.logger.Error("prune expired subscription", "endpoint", sub.Endpoint, "error", rmErr)
			} else {
				d.logger.Info("pruned expired subscription", "endpoint", sub.Endpoint)
			}
			continue
		}
		d.logger.Warn("push send failed", "endpoint", sub.Endpoint, "error", err)
	}

	return res
}

var _ Sender = (*Service)(nil)
