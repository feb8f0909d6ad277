package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const currencyARS = "ARS"

type Client struct {
	BaseURL     string
	AccessToken string
	BackURL     string
	HTTP        *http.Client
}

func New(base, token, backURL string) *Client {
	return &Client{
		BaseURL:     base,
		AccessToken: token,
		BackURL:     backURL,
		HTTP:        &http.Client{Timeout: 5 * time.Second},
	}
}

// CreatePreference cria a preferência de checkout de um ticket pago eletronicamente.
// externalRef é o id do ticket; o provedor devolve esse valor nas notificações.
func (c *Client) CreatePreference(ctx context.Context, title string, quantity int, unitPrice decimal.Decimal, externalRef string) (Preference, error) {
	body, err := json.Marshal(PreferenceRequest{
		Items: []Item{{
			Title:      title,
			Quantity:   quantity,
			UnitPrice:  unitPrice,
			CurrencyID: currencyARS,
		}},
		ExternalReference: externalRef,
		BackURLs: BackURLs{
			Success: c.BackURL + "?status=success",
			Failure: c.BackURL + "?status=failure",
			Pending: c.BackURL + "?status=pending",
		},
		AutoReturn: "approved",
	})
	if err != nil {
		return Preference{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return Preference{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}
	req.Header.Set("X-Idempotency-Key", externalRef)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return Preference{}, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return Preference{}, fmt.Errorf("payment preference http %d", res.StatusCode)
	}
	var out Preference
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Preference{}, err
	}
	if out.ID == "" || out.InitPoint == "" {
		return Preference{}, fmt.Errorf("payment preference: empty response")
	}
	return out, nil
}
