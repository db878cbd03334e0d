package reporting

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
	"github.com/YelzhanWeb/orderboard/internal/metrics"
)

var exportHeader = []string{
	"id", "date", "time", "customer", "serviceType", "phone", "address",
	"items-summary", "total", "status", "paid", "deliveryMinutes", "notes",
}

// Export writes one CSV row per order created inside r, oldest first.
func (s *Service) Export(ctx context.Context, r metrics.Range, w io.Writer) error {
	var orders []*domain.Order
	err := s.policy.Call(ctx, func(ctx context.Context) error {
		var err error
		orders, err = s.orderRepo.List(ctx, interfaces.ListFilter{From: r.From, To: r.To})
		return err
	})
	if err != nil {
		return err
	}
	orders = metrics.Filter(orders, r)

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}
	for i := len(orders) - 1; i >= 0; i-- {
		if err := cw.Write(exportRow(orders[i])); err != nil {
			return fmt.Errorf("failed to write export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(o *domain.Order) []string {
	var phone, address string
	if d, ok := o.Fulfillment.(domain.Delivery); ok {
		phone, address = d.Phone, d.Address
	}

	items := make([]string, 0, len(o.Items))
	var notes []string
	for _, item := range o.Items {
		items = append(items, fmt.Sprintf("%dx %s", item.Quantity, item.Name))
		if item.Notes != "" {
			notes = append(notes, item.Notes)
		}
	}

	delivery := ""
	if m, ok := metrics.DeliveryMinutes(o); ok {
		delivery = strconv.FormatFloat(m, 'f', 1, 64)
	}

	return []string{
		o.ID,
		o.CreatedAt.Format("2006-01-02"),
		o.CreatedAt.Format("15:04"),
		o.CustomerLabel,
		string(o.ServiceType()),
		phone,
		address,
		strings.Join(items, "; "),
		strconv.FormatFloat(o.Total, 'f', 2, 64),
		string(o.Status),
		strconv.FormatBool(o.Paid),
		delivery,
		strings.Join(notes, "; "),
	}
}
