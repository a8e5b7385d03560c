package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	"go.uber.org/zap"
)

// Status checks the API key by listing the available models. DeepSeek
// generators also report the account balance. A balance lookup failure is
// logged and leaves Balance empty.
func (g *Generator) Status(ctx context.Context) (commitsplit.ProviderStatus, error) {
	st := commitsplit.ProviderStatus{Provider: g.name}
	if _, err := g.client.ListModels(ctx); err != nil {
		err = g.wrap(err)
		if errors.Is(err, commitsplit.ErrAuthentication) {
			st.State = commitsplit.ProviderInvalidKey
			return st, nil
		}
		return st, err
	}
	st.State = commitsplit.ProviderActive
	if g.name != "deepseek" {
		return st, nil
	}

	balance, err := g.balance(ctx)
	if err != nil {
		g.logger.Warn("read account balance", zap.String("provider", g.name), zap.Error(err))
		return st, nil
	}
	st.Balance = balance
	return st, nil
}

type balanceResponse struct {
	IsAvailable  bool `json:"is_available"`
	BalanceInfos []struct {
		Currency     string `json:"currency"`
		TotalBalance string `json:"total_balance"`
	} `json:"balance_infos"`
}

// balance reads the DeepSeek account balance. The endpoint lives at the root
// of the API host, outside the versioned path.
func (g *Generator) balance(ctx context.Context) (string, error) {
	root := strings.TrimSuffix(strings.TrimSuffix(g.config.BaseURL, "/"), "/v1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root+"/user/balance", nil)
	if err != nil {
		return "", errors.Wrap(err, "build balance request")
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := g.config.HTTPClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "%s: balance", g.name)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("%s: balance: unexpected status %d", g.name, resp.StatusCode)
	}

	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Wrapf(err, "%s: decode balance", g.name)
	}
	parts := make([]string, 0, len(body.BalanceInfos))
	for _, b := range body.BalanceInfos {
		parts = append(parts, fmt.Sprintf("%s %s", b.TotalBalance, b.Currency))
	}
	balance := strings.Join(parts, ", ")
	if !body.IsAvailable {
		balance = strings.TrimSpace(balance + " (insufficient)")
	}
	return balance, nil
}
