package paymentgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/buckholding/brokerage-api/pkg/configpkg"
)

const defaultBaseURL = "https://api.stripe.com"

// StripeGateway calls the Stripe payment intents API.
type StripeGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewStripeGateway returns a gateway configured from the application config.
func NewStripeGateway(config configpkg.Config) *StripeGateway {
	baseURL := config.StripeBaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &StripeGateway{
		baseURL: baseURL,
		apiKey:  config.StripeKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateIntent registers a payment intent tagged with the user id so the
// confirmation path can verify ownership later.
func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, currency string, userID int64) (Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("metadata["+MetadataUserIDKey+"]", strconv.FormatInt(userID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return Intent{}, err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return g.do(ctx, req)
}

// RetrieveIntent fetches the current state of an intent.
func (g *StripeGateway) RetrieveIntent(ctx context.Context, id string) (Intent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/v1/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return Intent{}, err
	}

	return g.do(ctx, req)
}

func (g *StripeGateway) do(ctx context.Context, req *http.Request) (Intent, error) {
	l := zerolog.Ctx(ctx)

	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		l.Error().Err(err).Send()
		return Intent{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		l.Error().Int("status_code", resp.StatusCode).Str("url", req.URL.Path).Msg("payment processor error")
		return Intent{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		l.Error().Err(err).Send()
		return Intent{}, fmt.Errorf("error decoding response body: %w", err)
	}

	return intent, nil
}
