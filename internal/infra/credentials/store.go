package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"comercio/internal/infra"
	"comercio/internal/sqlinline"
)

const (
	ProviderRender   = "render"
	ProviderWhatsApp = "whatsapp"
)

// WhatsAppCredentials is the transport identity used to send messages. From
// is the sender number in E.164 form.
type WhatsAppCredentials struct {
	AccountSID string
	AuthToken  string
	From       string
}

// Store reads and writes per-provider integration secrets. Environment
// variables win over stored values; the store is the fallback so operators
// can rotate keys without redeploying.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) RenderAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderRender)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetRenderAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("render api key is required")
	}
	return s.upsert(ctx, ProviderRender, key, nil)
}

// WhatsAppCredentials returns the stored transport identity, or the zero
// value when none has been configured yet.
func (s *Store) WhatsAppCredentials(ctx context.Context) (WhatsAppCredentials, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationCredentials, ProviderWhatsApp)
	var (
		token string
		raw   []byte
	)
	if err := row.Scan(&token, &raw); err != nil {
		if infra.IsNoRows(err) {
			return WhatsAppCredentials{}, nil
		}
		return WhatsAppCredentials{}, err
	}

	var props struct {
		AccountSID string `json:"account_sid"`
		From       string `json:"from"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &props); err != nil {
			return WhatsAppCredentials{}, err
		}
	}
	return WhatsAppCredentials{
		AccountSID: props.AccountSID,
		AuthToken:  strings.TrimSpace(token),
		From:       props.From,
	}, nil
}

func (s *Store) SetWhatsAppCredentials(ctx context.Context, creds WhatsAppCredentials) error {
	creds.AuthToken = strings.TrimSpace(creds.AuthToken)
	if creds.AccountSID == "" || creds.AuthToken == "" {
		return errors.New("whatsapp account sid and auth token are required")
	}
	return s.upsert(ctx, ProviderWhatsApp, creds.AuthToken, map[string]any{
		"account_sid": creds.AccountSID,
		"from":        creds.From,
	})
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
