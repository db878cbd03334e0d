package metrics

import (
	"time"

	"github.com/YelzhanWeb/orderboard/internal/domain"
)

// StageBudgets are the recipe-derived time allowances for each production stage.
type StageBudgets struct {
	Prep time.Duration
	Cook time.Duration
	Cut  time.Duration
}

var DefaultBudgets = StageBudgets{
	Prep: 300 * time.Second,
	Cook: 300 * time.Second,
	Cut:  60 * time.Second,
}

func (b StageBudgets) For(stage domain.ItemStatus) (time.Duration, bool) {
	switch stage {
	case domain.ItemPreparing:
		return b.Prep, true
	case domain.ItemOven:
		return b.Cook, true
	case domain.ItemCutting:
		return b.Cut, true
	}
	return 0, false
}

// StageTimer is what a kitchen display shows next to an item on the line.
type StageTimer struct {
	OrderID        string            `json:"order_id"`
	ItemID         string            `json:"item_id"`
	Name           string            `json:"name"`
	Stage          domain.ItemStatus `json:"stage"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
	BudgetSeconds  float64           `json:"budget_seconds"`
	Ratio          float64           `json:"ratio"`
	Overdue        bool              `json:"overdue"`
}

// TimerFor reports the elapsed-vs-budget figure for an item's current stage.
// Items off the production line have no timer.
func TimerFor(orderID string, item domain.OrderItem, budgets StageBudgets, now time.Time) (StageTimer, bool) {
	budget, ok := budgets.For(item.Status)
	if !ok {
		return StageTimer{}, false
	}
	entered, ok := item.Timestamps.At(item.Status)
	if !ok {
		return StageTimer{}, false
	}
	elapsed := now.Sub(entered)
	if elapsed < 0 {
		elapsed = 0
	}

	t := StageTimer{
		OrderID:        orderID,
		ItemID:         item.ID,
		Name:           item.Name,
		Stage:          item.Status,
		ElapsedSeconds: elapsed.Seconds(),
		BudgetSeconds:  budget.Seconds(),
	}
	if budget > 0 {
		t.Ratio = float64(elapsed) / float64(budget)
	}
	t.Overdue = budget > 0 && elapsed > budget
	return t, true
}
