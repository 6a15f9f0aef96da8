package natsnotify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/kawahiro39/online-status-trygreen/core/logger"
	"github.com/kawahiro39/online-status-trygreen/pkg/presence"
)

// Publisher is the subset of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Notifier publishes presence changes as JSON to "<prefix>.<kind>",
// for example presence.event.join.
type Notifier struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
}

var _ presence.Notifier = (*Notifier)(nil)

// NewNotifier creates a notifier publishing under prefix.
func NewNotifier(pub Publisher, prefix string, log *slog.Logger) *Notifier {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "presence.event"
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Notifier{pub: pub, prefix: prefix, logger: log}
}

// Subject returns the subject a change of the given kind is published to.
func (n *Notifier) Subject(kind presence.ChangeKind) string {
	return n.prefix + "." + string(kind)
}

// Notify publishes the change. Failures are logged and dropped; presence
// state never depends on delivery.
func (n *Notifier) Notify(ctx context.Context, c presence.Change) {
	data, err := json.Marshal(c)
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to encode presence change", logger.Error(err))
		return
	}

	subject := n.Subject(c.Kind)
	if err := n.pub.Publish(subject, data); err != nil {
		n.logger.WarnContext(ctx, "failed to publish presence change",
			logger.Error(err),
			slog.String("subject", subject),
			logger.ClientID(c.ClientID),
		)
	}
}
