package handler

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/laundry-orders/internal/domain/catalog"
	"github.com/xenking/laundry-orders/internal/domain/order"
	"github.com/xenking/laundry-orders/internal/domain/promotion"
)

// decodeOrderRequest reads the order form payload. Subtotals and totals are
// never read from the client.
func decodeOrderRequest(d *jx.Decoder) (order.Request, error) {
	var req order.Request
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "storeId":
			req.StoreID, err = d.Str()
		case "customerId":
			req.CustomerID, err = d.Str()
		case "staffId":
			req.StaffID, err = d.Str()
		case "receivedAt":
			req.ReceivedAt, err = decodeTime(d)
		case "returnAt":
			req.ReturnAt, err = decodeTime(d)
		case "pickupAddress":
			req.PickupAddress, err = d.Str()
		case "deliveryAddress":
			req.DeliveryAddress, err = d.Str()
		case "status":
			var s string
			s, err = d.Str()
			req.Status = order.Status(s)
		case "promotionId":
			req.PromotionID, err = decodeOptStr(d)
		case "items":
			err = d.Arr(func(d *jx.Decoder) error {
				item, err := decodeRequestItem(d)
				if err != nil {
					return errors.Wrapf(err, "items[%d]", len(req.Items))
				}
				req.Items = append(req.Items, item)
				return nil
			})
		default:
			err = d.Skip()
		}
		return errors.Wrap(err, key)
	})
	return req, err
}

func decodeRequestItem(d *jx.Decoder) (order.RequestItem, error) {
	item := order.RequestItem{Quantity: 1}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "serviceId":
			item.ServiceID, err = decodeOptStr(d)
		case "goodsId":
			item.GoodsID, err = decodeOptStr(d)
		case "quantity":
			err = decodeQuantity(d, &item)
		case "unitPrice":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var p decimal.Decimal
			p, err = decodeMoney(d)
			item.UnitPrice = &p
		case "note":
			item.Note, err = decodeOptStr(d)
		default:
			err = d.Skip()
		}
		return errors.Wrap(err, key)
	})
	return item, err
}

// decodeQuantity accepts numbers and numeric strings. Whole numbers in any
// JSON notation (2, 2.0, 2e0) are normalized; anything else is left for the
// pricing engine to reject as an invalid quantity.
func decodeQuantity(d *jx.Decoder, item *order.RequestItem) error {
	switch d.Next() {
	case jx.Null:
		return d.Null()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return err
		}
		item.QuantityText = n.String()
		if v, err := decimal.NewFromString(n.String()); err == nil && v.IsInteger() {
			item.QuantityText = v.String()
		}
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return err
		}
		if s == "" {
			item.Quantity = 0
			return nil
		}
		item.QuantityText = s
	default:
		return errors.Errorf("unexpected %s", d.Next())
	}
	return nil
}

func decodeOptStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := decodeOptStr(d)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parse time")
	}
	return t, nil
}

func decodeMoney(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = string(n)
	default:
		return decimal.Decimal{}, errors.Errorf("unexpected %s", d.Next())
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "parse amount")
	}
	return v, nil
}

func encodeMoney(e *jx.Encoder, name string, v decimal.Decimal) {
	e.FieldStart(name)
	e.Str(v.String())
}

func encodeTime(e *jx.Encoder, name string, t time.Time) {
	e.FieldStart(name)
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeOptStr(e *jx.Encoder, name, v string) {
	if v == "" {
		return
	}
	e.FieldStart(name)
	e.Str(v)
}

func encodeService(e *jx.Encoder, s catalog.Service) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(s.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(s.Name) })
		encodeMoney(e, "price", s.Price)
		e.Field("unit", func(e *jx.Encoder) { e.Str(s.Unit) })
	})
}

func encodeGoods(e *jx.Encoder, g catalog.Goods) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(g.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(g.Name) })
		encodeMoney(e, "price", g.Price)
		e.Field("stock", func(e *jx.Encoder) { e.Int(g.Stock) })
	})
}

func encodePromotion(e *jx.Encoder, p promotion.Promotion) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("kind", func(e *jx.Encoder) { e.Str(string(p.Kind)) })
		encodeMoney(e, "value", p.Value)
		encodeOptStr(e, "description", p.Description)
		if p.ValidFrom != nil {
			encodeTime(e, "validFrom", *p.ValidFrom)
		}
		if p.ValidUntil != nil {
			encodeTime(e, "validUntil", *p.ValidUntil)
		}
	})
}

func encodeLineItems(e *jx.Encoder, items []order.LineItem) {
	e.FieldStart("items")
	e.Arr(func(e *jx.Encoder) {
		for _, li := range items {
			e.Obj(func(e *jx.Encoder) {
				e.Field("serviceId", func(e *jx.Encoder) { e.Str(li.ServiceID) })
				encodeOptStr(e, "goodsId", li.GoodsID)
				e.Field("quantity", func(e *jx.Encoder) { e.Int(li.Quantity) })
				encodeMoney(e, "unitPrice", li.UnitPrice)
				encodeMoney(e, "subtotal", li.Subtotal)
				encodeOptStr(e, "note", li.Note)
			})
		}
	})
}

func encodeTotals(e *jx.Encoder, t order.Totals) {
	encodeMoney(e, "totalAmount", t.TotalAmount)
	encodeMoney(e, "discountAmount", t.DiscountAmount)
	encodeMoney(e, "amountPaid", t.AmountPaid)
}

func encodeQuote(e *jx.Encoder, s order.Snapshot) {
	e.Obj(func(e *jx.Encoder) {
		encodeLineItems(e, s.LineItems)
		encodeOptStr(e, "promotionId", s.PromotionID)
		encodeTotals(e, s.Totals)
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("storeId", func(e *jx.Encoder) { e.Str(o.StoreID) })
		e.Field("customerId", func(e *jx.Encoder) { e.Str(o.CustomerID) })
		e.Field("staffId", func(e *jx.Encoder) { e.Str(o.StaffID) })
		encodeTime(e, "receivedAt", o.ReceivedAt)
		encodeTime(e, "returnAt", o.ReturnAt)
		encodeOptStr(e, "pickupAddress", o.PickupAddress)
		encodeOptStr(e, "deliveryAddress", o.DeliveryAddress)
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		encodeLineItems(e, o.LineItems)
		encodeOptStr(e, "promotionId", o.PromotionID)
		encodeTotals(e, o.Totals)
		encodeTime(e, "createdAt", o.CreatedAt)
	})
}
