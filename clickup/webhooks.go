package clickup

import (
	"context"
	"net/http"
	"net/url"
)

// WebhooksService covers webhook subscriptions.
type WebhooksService struct {
	conn *Connection
}

// GetWebhooks lists the webhooks of a workspace created by this credential.
func (s *WebhooksService) GetWebhooks(ctx context.Context, teamID string) ([]Webhook, error) {
	resp, err := doFor[struct {
		Webhooks []Webhook `json:"webhooks"`
	}](ctx, s.conn, &Request{
		Method:    http.MethodGet,
		Path:      "team/" + url.PathEscape(teamID) + "/webhook",
		Operation: "webhooks.list",
	})
	if err != nil || resp == nil {
		return nil, err
	}
	return resp.Webhooks, nil
}

// CreateWebhook subscribes endpoint to events in a workspace.
func (s *WebhooksService) CreateWebhook(ctx context.Context, teamID string, req CreateWebhookRequest) (*Webhook, error) {
	resp, err := doFor[struct {
		ID      string  `json:"id"`
		Webhook Webhook `json:"webhook"`
	}](ctx, s.conn, &Request{
		Method:    http.MethodPost,
		Path:      "team/" + url.PathEscape(teamID) + "/webhook",
		Body:      req,
		Operation: "webhooks.create",
	})
	if err != nil || resp == nil {
		return nil, err
	}
	if resp.Webhook.ID == "" {
		resp.Webhook.ID = resp.ID
	}
	return &resp.Webhook, nil
}

// DeleteWebhook removes a webhook.
func (s *WebhooksService) DeleteWebhook(ctx context.Context, webhookID string) error {
	return s.conn.Do(ctx, &Request{
		Method:    http.MethodDelete,
		Path:      "webhook/" + url.PathEscape(webhookID),
		Operation: "webhooks.delete",
	}, nil)
}
