package order

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/laundry-orders/internal/domain/catalog"
	"github.com/xenking/laundry-orders/internal/domain/promotion"
)

// Catalog is the read-only lookup the Composer prices against.
type Catalog interface {
	Service(id string) (catalog.Service, bool)
	Goods(id string) (catalog.Goods, bool)
	Promotion(id string) (promotion.Promotion, bool)
}

// Composer assembles the line items of one order being edited and keeps the
// derived totals in sync. Every mutating method recomputes the totals before
// returning; a method that returns an error leaves the state untouched.
//
// A Composer belongs to a single editing session and is not safe for
// concurrent use.
type Composer struct {
	catalog Catalog

	pending   LineItem
	items     []LineItem
	promotion *promotion.Promotion
	totals    Totals
}

// MaxQuantity is the largest quantity a line item may carry.
const MaxQuantity = math.MaxInt32

// NewComposer returns an empty Composer backed by cat.
func NewComposer(cat Catalog) *Composer {
	c := &Composer{catalog: cat}
	c.Reset()
	return c
}

// Reset discards all line items, the pending draft and the promotion.
func (c *Composer) Reset() {
	c.pending = emptyDraft()
	c.items = nil
	c.promotion = nil
	c.recompute()
}

func emptyDraft() LineItem {
	return LineItem{Quantity: 1, UnitPrice: decimal.Zero, Subtotal: decimal.Zero}
}

// Pending returns the draft line item not yet committed.
func (c *Composer) Pending() LineItem {
	return c.pending
}

// LineItems returns a copy of the committed line items in insertion order.
func (c *Composer) LineItems() []LineItem {
	return append([]LineItem(nil), c.items...)
}

// Totals returns the current derived totals.
func (c *Composer) Totals() Totals {
	return c.totals
}

// PromotionID returns the selected promotion, or "" when none is selected.
func (c *Composer) PromotionID() string {
	if c.promotion == nil {
		return ""
	}
	return c.promotion.ID
}

// SelectService sets the draft's service and takes the unit price from the
// catalog. The draft quantity is kept.
func (c *Composer) SelectService(id string) error {
	s, ok := c.catalog.Service(id)
	if !ok {
		return &NotFoundError{Entity: "service", ID: id}
	}
	c.pending.ServiceID = s.ID
	c.pending.UnitPrice = s.Price
	c.pending.recompute()
	return nil
}

// SelectGoods bundles a goods item with the draft. Goods do not change the price.
func (c *Composer) SelectGoods(id string) error {
	g, ok := c.catalog.Goods(id)
	if !ok {
		return &NotFoundError{Entity: "goods", ID: id}
	}
	c.pending.GoodsID = g.ID
	return nil
}

// ClearGoods removes the goods item from the draft.
func (c *Composer) ClearGoods() {
	c.pending.GoodsID = ""
}

// SetPendingQuantity sets the draft quantity, which must be in
// [1, MaxQuantity].
func (c *Composer) SetPendingQuantity(quantity int) error {
	if quantity <= 0 || quantity > MaxQuantity {
		return newValidationError(InvalidQuantity, "got %d", quantity)
	}
	c.pending.Quantity = quantity
	c.pending.recompute()
	return nil
}

// SetPendingQuantityText parses raw form input and sets the draft quantity.
func (c *Composer) SetPendingQuantityText(raw string) error {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return newValidationError(InvalidQuantity, "%q is not a number", raw)
	}
	return c.SetPendingQuantity(q)
}

// SetPendingUnitPrice overrides the catalog price of the draft.
func (c *Composer) SetPendingUnitPrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return newValidationError(InvalidPrice, "got %s", price)
	}
	c.pending.UnitPrice = price
	c.pending.recompute()
	return nil
}

// SetPendingNote attaches free text to the draft.
func (c *Composer) SetPendingNote(note string) {
	c.pending.Note = note
}

// CommitPending appends a copy of the draft to the line items and resets the
// draft to its defaults.
func (c *Composer) CommitPending() error {
	if c.pending.ServiceID == "" {
		return newValidationError(ServiceRequired, "")
	}
	c.items = append(c.items, c.pending)
	c.pending = emptyDraft()
	c.recompute()
	return nil
}

// RemoveLineItem deletes the line item at index, keeping the order of the rest.
// An out-of-range index is a programming error and panics.
func (c *Composer) RemoveLineItem(index int) {
	if index < 0 || index >= len(c.items) {
		panic("order: line item index " + strconv.Itoa(index) + " out of range [0, " + strconv.Itoa(len(c.items)) + ")")
	}
	items := make([]LineItem, 0, len(c.items)-1)
	items = append(items, c.items[:index]...)
	c.items = append(items, c.items[index+1:]...)
	c.recompute()
}

// SelectPromotion applies the promotion with the given ID.
func (c *Composer) SelectPromotion(id string) error {
	p, ok := c.catalog.Promotion(id)
	if !ok {
		return &NotFoundError{Entity: "promotion", ID: id}
	}
	c.promotion = &p
	c.recompute()
	return nil
}

// ClearPromotion removes the selected promotion.
func (c *Composer) ClearPromotion() {
	c.promotion = nil
	c.recompute()
}

// Finalize returns a snapshot of the composition combined with d. The
// composition is not modified; calling Finalize again without mutations
// yields an equal snapshot.
func (c *Composer) Finalize(d Details) (Snapshot, error) {
	if len(c.items) == 0 {
		return Snapshot{}, newValidationError(EmptyOrder, "")
	}
	if !c.totals.AmountPaid.IsPositive() {
		return Snapshot{}, newValidationError(NonPositivePayment,
			"total %s, discount %s", c.totals.TotalAmount, c.totals.DiscountAmount)
	}
	if d.Status == "" {
		d.Status = StatusPending
	}
	return Snapshot{
		Details:     d,
		Totals:      c.totals,
		LineItems:   c.LineItems(),
		PromotionID: c.PromotionID(),
	}, nil
}

func (c *Composer) recompute() {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal)
	}
	discount := promotion.Discount(c.promotion, total)
	c.totals = Totals{
		TotalAmount:    total,
		DiscountAmount: discount,
		AmountPaid:     promotion.Payable(total, discount),
	}
}

func (l *LineItem) recompute() {
	l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
