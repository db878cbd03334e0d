package domain

import (
	"encoding/json"
	"time"
)

// orderDocument is the flat wire shape shared by the API, the fan-out and the dashboards.
type orderDocument struct {
	ID            string              `json:"id"`
	ServiceType   ServiceType         `json:"serviceType"`
	CustomerLabel string              `json:"customerLabel"`
	TableNumber   *string             `json:"tableNumber,omitempty"`
	Address       *string             `json:"address,omitempty"`
	Phone         *string             `json:"phone,omitempty"`
	GeoLocation   *GeoPoint           `json:"geoLocation,omitempty"`
	Items         []OrderItem         `json:"items"`
	Total         float64             `json:"total"`
	Paid          bool                `json:"paid"`
	Status        OrderStatus         `json:"status"`
	CreatedAt     time.Time           `json:"createdAt"`
	Timestamps    Ledger[OrderStatus] `json:"timestamps"`
	Version       int64               `json:"version"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	doc := orderDocument{
		ID:            o.ID,
		ServiceType:   o.ServiceType(),
		CustomerLabel: o.CustomerLabel,
		Items:         o.Items,
		Total:         o.Total,
		Paid:          o.Paid,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		Timestamps:    o.Timestamps,
		Version:       o.Version,
	}
	switch f := o.Fulfillment.(type) {
	case DineIn:
		doc.TableNumber = &f.TableNumber
	case Delivery:
		doc.Address = &f.Address
		if f.Phone != "" {
			doc.Phone = &f.Phone
		}
		doc.GeoLocation = f.Geo
	}
	return json.Marshal(doc)
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var doc orderDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	f, err := FulfillmentFromFields(doc.ServiceType, doc.TableNumber, doc.Address, doc.Phone, doc.GeoLocation)
	if err != nil {
		return err
	}
	*o = Order{
		ID:            doc.ID,
		Fulfillment:   f,
		CustomerLabel: doc.CustomerLabel,
		Items:         doc.Items,
		Total:         doc.Total,
		Paid:          doc.Paid,
		Status:        doc.Status,
		CreatedAt:     doc.CreatedAt,
		Timestamps:    doc.Timestamps,
		Version:       doc.Version,
	}
	if o.Timestamps == nil {
		o.Timestamps = Ledger[OrderStatus]{}
	}
	return nil
}
