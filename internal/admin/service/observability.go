package service

import (
	"context"

	"storefront/internal/platform/privacy"
	"storefront/pkg/requestcontext"
)

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

// requestAttrs adds request correlation and the caller's device label.
func requestAttrs(ctx context.Context) []any {
	var attrs []any
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		attrs = append(attrs, "client_ip", privacy.AnonymizeIP(ip))
	}
	if label := requestcontext.DeviceLabel(ctx); label != "" {
		attrs = append(attrs, "device", label)
	}
	return attrs
}

func pseudonymize(email string) string {
	return privacy.PseudonymizeEmail(email)
}
