package handlers

import (
	"context"

	"github.com/georgestephanis/support-widget/internal/diagnostics"
	"github.com/georgestephanis/support-widget/pkg/email"
)

type MailSender interface {
	Send(ctx context.Context, msg email.Message) error
}

type TokenConsumer interface {
	Consume(ctx context.Context, token, action, userID string) error
}

type DiagnosticsCollector interface {
	Collect(ctx context.Context, in diagnostics.Input) (*diagnostics.Record, error)
}

type TokenIssuer interface {
	Create(action, userID string) (string, error)
}
