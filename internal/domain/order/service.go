package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/laundry-orders/internal/domain/catalog"
)

// CatalogSource provides the catalog snapshot for one editing session.
type CatalogSource interface {
	Catalog(ctx context.Context) (*catalog.Catalog, error)
}

// RequestItem is one line of an order request as entered in the form.
// UnitPrice overrides the catalog price when set. QuantityText, when not
// empty, is parsed instead of Quantity.
type RequestItem struct {
	ServiceID    string
	GoodsID      string
	Quantity     int
	QuantityText string
	UnitPrice    *decimal.Decimal
	Note         string
}

// Request holds the input for quoting or placing an order.
type Request struct {
	Details
	Items       []RequestItem
	PromotionID string
}

// Service prices order requests with a Composer and persists finalized orders.
type Service struct {
	catalogs CatalogSource
	orders   Repository
	validate *validator.Validate

	tracer trace.Tracer
	meter  metric.Meter
	placed metric.Int64Counter

	now   func() time.Time
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithTracerProvider sets the tracer provider used for order spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("laundry-orders/order") }
}

// WithMeterProvider sets the meter provider used for order metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meter = mp.Meter("laundry-orders/order") }
}

// NewService creates an order Service with the required domain dependencies.
func NewService(catalogs CatalogSource, orders Repository, opts ...Option) (*Service, error) {
	s := &Service{
		catalogs: catalogs,
		orders:   orders,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   tracenoop.NewTracerProvider().Tracer("laundry-orders/order"),
		meter:    metricnoop.NewMeterProvider().Meter("laundry-orders/order"),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(s)
	}

	placed, err := s.meter.Int64Counter("laundry.orders.placed",
		metric.WithDescription("Number of laundry orders placed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders counter")
	}
	s.placed = placed

	return s, nil
}

// Quote prices req without persisting anything.
func (s *Service) Quote(ctx context.Context, req Request) (Snapshot, error) {
	c, err := s.compose(ctx, req)
	if err != nil {
		return Snapshot{}, err
	}
	return c.Finalize(req.Details)
}

// Place prices req, validates the order details and persists the order.
func (s *Service) Place(ctx context.Context, req Request) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Place",
		trace.WithAttributes(
			attribute.String("laundry.store_id", req.StoreID),
			attribute.Int("laundry.items", len(req.Items)),
		),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	c, err := s.compose(ctx, req)
	if err != nil {
		return nil, err
	}
	snap, err := c.Finalize(req.Details)
	if err != nil {
		return nil, err
	}
	if err := s.validateDetails(snap.Details); err != nil {
		return nil, err
	}

	o := &Order{
		ID:        s.newID(),
		Snapshot:  snap,
		CreatedAt: s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.placed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("laundry.store_id", o.StoreID),
		attribute.Bool("laundry.promotion", o.PromotionID != ""),
	))
	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("store_id", o.StoreID),
		zap.Int("items", len(o.LineItems)),
		zap.Stringer("amount_paid", o.AmountPaid),
	)

	return o, nil
}

// Get returns a stored order by ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	return o, nil
}

// compose replays the request through a fresh Composer, stopping at the
// first rejected item.
func (s *Service) compose(ctx context.Context, req Request) (*Composer, error) {
	cat, err := s.catalogs.Catalog(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}

	c := NewComposer(cat)
	for i, item := range req.Items {
		if err := addItem(c, item); err != nil {
			return nil, &ItemError{Index: i, Err: err}
		}
	}
	if req.PromotionID != "" {
		if err := c.SelectPromotion(req.PromotionID); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func addItem(c *Composer, item RequestItem) error {
	if item.ServiceID != "" {
		if err := c.SelectService(item.ServiceID); err != nil {
			return err
		}
	}
	if item.GoodsID != "" {
		if err := c.SelectGoods(item.GoodsID); err != nil {
			return err
		}
	}
	if item.QuantityText != "" {
		if err := c.SetPendingQuantityText(item.QuantityText); err != nil {
			return err
		}
	} else if err := c.SetPendingQuantity(item.Quantity); err != nil {
		return err
	}
	if item.UnitPrice != nil {
		if err := c.SetPendingUnitPrice(*item.UnitPrice); err != nil {
			return err
		}
	}
	c.SetPendingNote(item.Note)
	return c.CommitPending()
}

func (s *Service) validateDetails(d Details) error {
	err := s.validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate details")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &DetailsError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gtefield":
		return fmt.Sprintf("must not be before %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
