// Package recipe reads stage budgets from the external recipe service.
package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/YelzhanWeb/orderboard/internal/metrics"
)

// Document is the part of a recipe this service reads.
type Document struct {
	ID                string `json:"id"`
	PrepBudgetSeconds int    `json:"prepBudgetSeconds"`
	CookBudgetSeconds int    `json:"cookBudgetSeconds"`
	CutBudgetSeconds  int    `json:"cutBudgetSeconds"`
}

// Budgets converts the document, using the default for any stage left unset.
func (d Document) Budgets() metrics.StageBudgets {
	b := metrics.DefaultBudgets
	if d.PrepBudgetSeconds > 0 {
		b.Prep = time.Duration(d.PrepBudgetSeconds) * time.Second
	}
	if d.CookBudgetSeconds > 0 {
		b.Cook = time.Duration(d.CookBudgetSeconds) * time.Second
	}
	if d.CutBudgetSeconds > 0 {
		b.Cut = time.Duration(d.CutBudgetSeconds) * time.Second
	}
	return b
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Budgets fetches a recipe's budgets. An unknown recipe gets the default budgets.
func (c *Client) Budgets(ctx context.Context, recipeID string) (metrics.StageBudgets, error) {
	if c.baseURL == "" {
		return metrics.DefaultBudgets, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/recipes/%s", c.baseURL, url.PathEscape(recipeID)), nil)
	if err != nil {
		return metrics.StageBudgets{}, fmt.Errorf("failed to build recipe request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return metrics.StageBudgets{}, fmt.Errorf("failed to fetch recipe %s: %w", recipeID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return metrics.DefaultBudgets, nil
	}
	if resp.StatusCode != http.StatusOK {
		return metrics.StageBudgets{}, fmt.Errorf("recipe service returned status %d", resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return metrics.StageBudgets{}, fmt.Errorf("failed to decode recipe %s: %w", recipeID, err)
	}
	return doc.Budgets(), nil
}
