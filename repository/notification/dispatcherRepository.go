package notification

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"rentalbooking/util/httpx"
)

type Template string

const (
	TemplateNewReservation       Template = "new-reservation"
	TemplateReservationConfirmed Template = "reservation-confirmed"
	TemplateReservationRejected  Template = "reservation-rejected"
	TemplateReservationCancelled Template = "reservation-cancelled"
)

// Dispatcher delivers one templated message. Callers treat errors as non-fatal.
type Dispatcher interface {
	Send(ctx context.Context, tpl Template, fields map[string]any) error
}

type httpRepo struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewHTTP posts to {baseURL}/api/notifications/{template}.
// An empty baseURL gives a log-only dispatcher.
func NewHTTP(baseURL string, c *http.Client, log *slog.Logger) Dispatcher {
	if c == nil {
		c = httpx.Client()
	}
	return &httpRepo{baseURL: strings.TrimRight(baseURL, "/"), client: c, log: log}
}

func (r *httpRepo) Send(ctx context.Context, tpl Template, fields map[string]any) error {
	if r.baseURL == "" {
		r.log.Info("[MOCK NOTIFICATION]", "template", string(tpl), "fields", fields)
		return nil
	}
	u := r.baseURL + "/api/notifications/" + string(tpl)
	return httpx.DoJSON(ctx, r.client, http.MethodPost, u, nil, fields, nil)
}
