package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"comercio/internal/infra"
	"comercio/internal/infra/credentials"
)

func main() {
	var (
		providerFlag string
		keyFlag      string
		sidFlag      string
		tokenFlag    string
		fromFlag     string
	)
	flag.StringVar(&providerFlag, "provider", credentials.ProviderRender, "integration to configure (render or whatsapp)")
	flag.StringVar(&keyFlag, "key", "", "renderer API key (falls back to RENDERER_API_KEY)")
	flag.StringVar(&sidFlag, "account-sid", "", "whatsapp account SID (falls back to WHATSAPP_ACCOUNT_SID)")
	flag.StringVar(&tokenFlag, "auth-token", "", "whatsapp auth token (falls back to WHATSAPP_AUTH_TOKEN)")
	flag.StringVar(&fromFlag, "from", "", "whatsapp sender number (falls back to WHATSAPP_FROM_NUMBER)")
	flag.Parse()

	provider := strings.TrimSpace(strings.ToLower(providerFlag))
	switch provider {
	case credentials.ProviderRender, credentials.ProviderWhatsApp:
	case "":
		provider = credentials.ProviderRender
	default:
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "integrationkey").Str("provider", provider).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	ctxExec, cancelExec := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelExec()

	switch provider {
	case credentials.ProviderWhatsApp:
		creds := credentials.WhatsAppCredentials{
			AccountSID: fallbackEnv(sidFlag, "WHATSAPP_ACCOUNT_SID"),
			AuthToken:  fallbackEnv(tokenFlag, "WHATSAPP_AUTH_TOKEN"),
			From:       fallbackEnv(fromFlag, "WHATSAPP_FROM_NUMBER"),
		}
		if creds.AccountSID == "" || creds.AuthToken == "" {
			fmt.Fprintln(os.Stderr, "whatsapp requires -account-sid and -auth-token (or environment)")
			os.Exit(1)
		}
		if err := store.SetWhatsAppCredentials(ctxExec, creds); err != nil {
			fmt.Fprintf(os.Stderr, "failed to persist whatsapp credentials: %v\n", err)
			os.Exit(1)
		}
	default:
		key := fallbackEnv(keyFlag, "RENDERER_API_KEY")
		if key == "" {
			fmt.Fprintln(os.Stderr, "renderer API key is required via -key or RENDERER_API_KEY")
			os.Exit(1)
		}
		if err := store.SetRenderAPIKey(ctxExec, key); err != nil {
			fmt.Fprintf(os.Stderr, "failed to persist renderer api key: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("%s credentials stored successfully\n", provider)
}

func fallbackEnv(value, envKey string) string {
	v := strings.TrimSpace(value)
	if v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv(envKey))
}
