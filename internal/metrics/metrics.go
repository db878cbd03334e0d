// Package metrics derives reporting figures from order ledgers. Nothing here is stored;
// every figure is recomputed from the orders passed in.
package metrics

import (
	"strings"
	"time"

	"github.com/YelzhanWeb/orderboard/internal/domain"
)

type Thresholds struct {
	// KitchenTarget is the on-time limit for preparing -> ready_to_serve.
	KitchenTarget time.Duration
	// KitchenCeiling discards implausible kitchen times caused by clock skew or forgotten tickets.
	KitchenCeiling time.Duration
}

var DefaultThresholds = Thresholds{
	KitchenTarget:  15 * time.Minute,
	KitchenCeiling: 180 * time.Minute,
}

// KitchenMinutes is the time from preparing to ready_to_serve. Orders missing either
// stamp, with a non-positive duration, or above the ceiling report false.
func KitchenMinutes(o *domain.Order, ceiling time.Duration) (float64, bool) {
	start, ok := o.Timestamps.At(domain.OrderPreparing)
	if !ok {
		return 0, false
	}
	end, ok := o.Timestamps.At(domain.OrderReadyToServe)
	if !ok {
		return 0, false
	}
	d := end.Sub(start)
	if d <= 0 || (ceiling > 0 && d > ceiling) {
		return 0, false
	}
	return d.Minutes(), true
}

// DeliveryMinutes is the time from in_delivery to delivered, falling back to
// createdAt when the dispatch stamp is missing.
func DeliveryMinutes(o *domain.Order) (float64, bool) {
	end, ok := o.Timestamps.At(domain.OrderDelivered)
	if !ok {
		return 0, false
	}
	start, ok := o.Timestamps.At(domain.OrderInDelivery)
	if !ok {
		start = o.CreatedAt
	}
	d := end.Sub(start)
	if d <= 0 {
		return 0, false
	}
	return d.Minutes(), true
}

type DefectReason string

const (
	ReasonBurnt           DefectReason = "burnt"
	ReasonCold            DefectReason = "cold"
	ReasonWrongIngredient DefectReason = "wrong ingredient"
	ReasonRaw             DefectReason = "raw"
	ReasonCancelled       DefectReason = "cancelled by customer"
	ReasonOther           DefectReason = "other"
)

// defectVocabulary is checked in order; the first reason with a matching keyword wins.
var defectVocabulary = []struct {
	reason   DefectReason
	keywords []string
}{
	{ReasonBurnt, []string{"burn", "burnt", "charred"}},
	{ReasonCold, []string{"cold"}},
	{ReasonWrongIngredient, []string{"wrong ingredient", "wrong topping", "missing"}},
	{ReasonRaw, []string{"raw", "undercooked"}},
}

func keywordReason(o *domain.Order) (DefectReason, bool) {
	for _, entry := range defectVocabulary {
		for _, item := range o.Items {
			notes := strings.ToLower(item.Notes)
			if notes == "" {
				continue
			}
			for _, kw := range entry.keywords {
				if strings.Contains(notes, kw) {
					return entry.reason, true
				}
			}
		}
	}
	return "", false
}

// ClassifyDefect reports whether the order is a defect candidate and why.
func ClassifyDefect(o *domain.Order) (DefectReason, bool) {
	if reason, ok := keywordReason(o); ok {
		return reason, true
	}
	if o.Status == domain.OrderCancelled {
		return ReasonCancelled, true
	}
	return ReasonOther, false
}

// OnTimeRate is the share of orders with a valid kitchen time at or under the target.
func OnTimeRate(orders []*domain.Order, th Thresholds) float64 {
	var measured, onTime int
	for _, o := range orders {
		m, ok := KitchenMinutes(o, th.KitchenCeiling)
		if !ok {
			continue
		}
		measured++
		if m <= th.KitchenTarget.Minutes() {
			onTime++
		}
	}
	if measured == 0 {
		return 0
	}
	return float64(onTime) / float64(measured)
}

type Summary struct {
	Range              Range                      `json:"range"`
	Orders             int                        `json:"orders"`
	ByStatus           map[domain.OrderStatus]int `json:"by_status"`
	ByServiceType      map[domain.ServiceType]int `json:"by_service_type"`
	Paid               int                        `json:"paid"`
	Revenue            float64                    `json:"revenue"`
	AvgKitchenMinutes  float64                    `json:"avg_kitchen_minutes"`
	KitchenSamples     int                        `json:"kitchen_samples"`
	AvgDeliveryMinutes float64                    `json:"avg_delivery_minutes"`
	DeliverySamples    int                        `json:"delivery_samples"`
	OnTimeRate         float64                    `json:"on_time_rate"`
	Defects            int                        `json:"defects"`
	DefectRate         float64                    `json:"defect_rate"`
	DefectsByReason    map[DefectReason]int       `json:"defects_by_reason"`
}

// Summarize aggregates the given orders. Revenue counts every non-cancelled order.
func Summarize(orders []*domain.Order, th Thresholds) Summary {
	s := Summary{
		Orders:          len(orders),
		ByStatus:        make(map[domain.OrderStatus]int),
		ByServiceType:   make(map[domain.ServiceType]int),
		DefectsByReason: make(map[DefectReason]int),
	}

	var kitchenTotal, deliveryTotal float64
	for _, o := range orders {
		s.ByStatus[o.Status]++
		s.ByServiceType[o.ServiceType()]++
		if o.Paid {
			s.Paid++
		}
		if o.Status != domain.OrderCancelled {
			s.Revenue += o.Total
		}
		if m, ok := KitchenMinutes(o, th.KitchenCeiling); ok {
			kitchenTotal += m
			s.KitchenSamples++
		}
		if m, ok := DeliveryMinutes(o); ok {
			deliveryTotal += m
			s.DeliverySamples++
		}
		if reason, ok := ClassifyDefect(o); ok {
			s.Defects++
			s.DefectsByReason[reason]++
		}
	}

	if s.KitchenSamples > 0 {
		s.AvgKitchenMinutes = kitchenTotal / float64(s.KitchenSamples)
	}
	if s.DeliverySamples > 0 {
		s.AvgDeliveryMinutes = deliveryTotal / float64(s.DeliverySamples)
	}
	if s.Orders > 0 {
		s.DefectRate = float64(s.Defects) / float64(s.Orders)
	}
	s.OnTimeRate = OnTimeRate(orders, th)
	return s
}
