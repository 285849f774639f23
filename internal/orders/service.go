package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/payments"
)

const DefaultPageLimit = 10

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

type Config struct {
	// StatusGuard enforces the transition table. When false any known status
	// is accepted, matching the legacy admin behaviour.
	StatusGuard    bool
	PriceTolerance float64
	DeliveryWindow time.Duration
}

func DefaultConfig() Config {
	return Config{
		StatusGuard:    true,
		PriceTolerance: 0.01,
		DeliveryWindow: 45 * time.Minute,
	}
}

// Caller is the authenticated identity a request acts on behalf of.
type Caller struct {
	UserID primitive.ObjectID
	Role   string
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

type PlaceOrderInput struct {
	UserID          primitive.ObjectID
	Items           []Line
	TotalAmount     float64
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
}

// Placed is the summary returned to the customer after checkout.
type Placed struct {
	ID          string  `json:"id"`
	OrderNumber string  `json:"orderNumber"`
	TotalAmount float64 `json:"totalAmount"`
	Status      string  `json:"status"`
}

type Pagination struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

type AdminQuery struct {
	Status        string
	PaymentStatus string
	Search        string
	// UserID narrows the listing to one customer; empty lists everyone.
	UserID string
	Page   Page
}

type Service struct {
	catalog Catalog
	store   Store
	numbers *NumberGenerator
	gateway payments.Gateway
	cfg     Config
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithGateway(g payments.Gateway) Option {
	return func(s *Service) { s.gateway = g }
}

func NewService(catalog Catalog, store Store, numbers *NumberGenerator, cfg Config, opts ...Option) *Service {
	s := &Service{
		catalog: catalog,
		store:   store,
		numbers: numbers,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type stockKey struct {
	productID primitive.ObjectID
	size      string
}

// Place validates the cart against the catalog, snapshots it into a new order
// and persists the order together with the stock decrements.
func (s *Service) Place(ctx context.Context, in PlaceOrderInput) (Placed, error) {
	if err := validatePlaceInput(&in); err != nil {
		return Placed{}, err
	}

	products := make(map[primitive.ObjectID]models.Product, len(in.Items))
	requested := make(map[stockKey]int, len(in.Items))
	lines := make([]pricedLine, 0, len(in.Items))

	for _, item := range in.Items {
		id, _ := primitive.ObjectIDFromHex(item.ProductID)
		product, ok := products[id]
		if !ok {
			found, err := s.catalog.FindProduct(ctx, id)
			if err != nil {
				if errors.Is(err, ErrProductNotFound) {
					return Placed{}, fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
				}
				return Placed{}, fmt.Errorf("catalog lookup: %w", err)
			}
			product = found
			products[id] = product
		}

		key := stockKey{productID: id, size: item.Size}
		requested[key] += item.Quantity
		if err := ValidateStock(product, item.Size, requested[key]); err != nil {
			return Placed{}, err
		}
		lines = append(lines, pricedLine{Line: item, productID: id, product: product})
	}

	items, total, err := Assemble(lines, in.TotalAmount, s.cfg.PriceTolerance)
	if err != nil {
		return Placed{}, err
	}

	number, err := s.numbers.Next(ctx)
	if err != nil {
		return Placed{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	now := s.now()
	order := models.Order{
		OrderNumber:      number,
		UserID:           in.UserID,
		Items:            items,
		TotalAmount:      total,
		ShippingAddress:  in.ShippingAddress,
		Status:           models.OrderStatusPending,
		PaymentStatus:    models.PaymentStatusPending,
		PaymentMethod:    in.PaymentMethod,
		ExpectedDelivery: now.Add(s.cfg.DeliveryWindow),
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	decrements := make([]StockAdjustment, 0, len(items))
	for _, item := range items {
		decrements = append(decrements, StockAdjustment{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
		})
	}

	if err := s.store.PlaceOrder(ctx, &order, decrements); err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			if p, ok := products[mustObjectID(stockErr.ProductID)]; ok && stockErr.Title == "" {
				stockErr.Title = p.Title
			}
			return Placed{}, stockErr
		}
		var unavailable *ProductUnavailableError
		if errors.As(err, &unavailable) || errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrConflict) {
			return Placed{}, err
		}
		return Placed{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	log.Printf("[ORDER] [INFO] order %s placed by %s total=%.2f items=%d",
		order.OrderNumber, order.UserID.Hex(), order.TotalAmount, len(order.Items))

	return Placed{
		ID:          order.ID.Hex(),
		OrderNumber: order.OrderNumber,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
	}, nil
}

func validatePlaceInput(in *PlaceOrderInput) error {
	verr := &ValidationError{}

	if in.UserID.IsZero() {
		verr.add("userId is required")
	}
	if len(in.Items) == 0 {
		verr.add("at least one item is required")
	}
	for i := range in.Items {
		item := &in.Items[i]
		item.ProductID = strings.TrimSpace(item.ProductID)
		item.Size = strings.TrimSpace(item.Size)
		if !primitive.IsValidObjectID(item.ProductID) {
			verr.add("items[%d].productId is invalid", i)
		}
		if !models.IsValidSize(item.Size) {
			verr.add("items[%d].size must be one of %s", i, strings.Join(models.Sizes, ", "))
		}
		if item.Quantity <= 0 {
			verr.add("items[%d].quantity must be greater than zero", i)
		}
		if item.Price < 0 || math.IsNaN(item.Price) {
			verr.add("items[%d].price must not be negative", i)
		}
	}
	if in.TotalAmount <= 0 || math.IsNaN(in.TotalAmount) {
		verr.add("totalAmount must be greater than zero")
	}

	validateAddress(&in.ShippingAddress, verr)

	switch in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod)); in.PaymentMethod {
	case "":
		in.PaymentMethod = models.PaymentMethodCOD
	case models.PaymentMethodCOD, models.PaymentMethodOnline:
	default:
		verr.add("paymentMethod must be cod or online")
	}

	return verr.orNil()
}

func validateAddress(a *models.ShippingAddress, verr *ValidationError) {
	required := []struct {
		name  string
		value *string
	}{
		{"firstName", &a.FirstName},
		{"lastName", &a.LastName},
		{"phone", &a.Phone},
		{"email", &a.Email},
		{"addressLine1", &a.AddressLine1},
		{"city", &a.City},
		{"state", &a.State},
		{"pincode", &a.Pincode},
	}
	for _, field := range required {
		*field.value = strings.TrimSpace(*field.value)
		if *field.value == "" {
			verr.add("shippingAddress.%s is required", field.name)
		}
	}
	a.AddressLine2 = strings.TrimSpace(a.AddressLine2)
	a.Email = strings.ToLower(a.Email)
	if a.Email != "" && !strings.Contains(a.Email, "@") {
		verr.add("shippingAddress.email is invalid")
	}
	if a.Pincode != "" && !pincodePattern.MatchString(a.Pincode) {
		verr.add("shippingAddress.pincode is invalid")
	}
	if a.Country = strings.TrimSpace(a.Country); a.Country == "" {
		a.Country = "India"
	}
}

// ListForUser returns the caller's active orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID primitive.ObjectID, status string, page Page) (OrderPage, error) {
	status = strings.TrimSpace(status)
	if status != "" && !models.IsValidOrderStatus(status) {
		return OrderPage{}, &ValidationError{Details: []string{"status is invalid"}}
	}
	page = normalizePage(page)

	orders, total, err := s.store.ListOrders(ctx, OrderFilter{UserID: &userID, Status: status}, page)
	if err != nil {
		return OrderPage{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return newOrderPage(orders, total, page), nil
}

// GetForUser fetches one order. Non-admin callers only see their own active
// orders; someone else's order yields ErrAccessDenied.
func (s *Service) GetForUser(ctx context.Context, rawID string, caller Caller) (models.Order, error) {
	order, err := s.load(ctx, rawID)
	if err != nil {
		return models.Order{}, err
	}
	if caller.IsAdmin() {
		return order, nil
	}
	if !order.IsActive {
		return models.Order{}, ErrNotFound
	}
	if order.UserID != caller.UserID {
		return models.Order{}, ErrAccessDenied
	}
	return order, nil
}

func (s *Service) ListAdmin(ctx context.Context, q AdminQuery) (OrderPage, error) {
	verr := &ValidationError{}
	q.Status = strings.TrimSpace(q.Status)
	q.PaymentStatus = strings.TrimSpace(q.PaymentStatus)
	if q.Status != "" && !models.IsValidOrderStatus(q.Status) {
		verr.add("status is invalid")
	}
	if q.PaymentStatus != "" && !models.IsValidPaymentStatus(q.PaymentStatus) {
		verr.add("paymentStatus is invalid")
	}
	var userID *primitive.ObjectID
	if raw := strings.TrimSpace(q.UserID); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			verr.add("userId is invalid")
		} else {
			userID = &id
		}
	}
	if err := verr.orNil(); err != nil {
		return OrderPage{}, err
	}
	page := normalizePage(q.Page)

	filter := OrderFilter{
		UserID:        userID,
		Status:        q.Status,
		PaymentStatus: q.PaymentStatus,
		Search:        strings.TrimSpace(q.Search),
	}
	orders, total, err := s.store.ListOrders(ctx, filter, page)
	if err != nil {
		return OrderPage{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return newOrderPage(orders, total, page), nil
}

func (s *Service) GetAdmin(ctx context.Context, rawID string) (models.Order, error) {
	return s.load(ctx, rawID)
}

// UpdateStatus applies an admin status change. Cancelling restores the stock
// held by the order.
func (s *Service) UpdateStatus(ctx context.Context, rawID, status string) (models.Order, error) {
	status = strings.TrimSpace(status)
	if !models.IsValidOrderStatus(status) {
		return models.Order{}, &ValidationError{Details: []string{
			"status must be one of " + strings.Join(models.OrderStatuses, ", "),
		}}
	}

	order, err := s.load(ctx, rawID)
	if err != nil {
		return models.Order{}, err
	}
	if !order.IsActive {
		return models.Order{}, ErrNotFound
	}
	if s.cfg.StatusGuard && !CanTransition(order.Status, status) {
		return models.Order{}, &TransitionError{From: order.Status, To: status}
	}
	if !s.cfg.StatusGuard && order.Status != status {
		log.Printf("[ORDER] [WARN] unguarded status change %s: %s -> %s", order.OrderNumber, order.Status, status)
	}

	var stock StockMovement
	switch {
	case status == models.OrderStatusCancelled && order.Status != models.OrderStatusCancelled:
		stock.Restock = adjustmentsFor(order)
	case order.Status == models.OrderStatusCancelled && status != models.OrderStatusCancelled:
		// Reopening takes the units back out of inventory.
		stock.Reserve = adjustmentsFor(order)
	}
	return s.transition(ctx, order, status, stock)
}

// Cancel lets the owner withdraw an order that has not entered processing.
func (s *Service) Cancel(ctx context.Context, rawID string, caller Caller) (models.Order, error) {
	order, err := s.GetForUser(ctx, rawID, caller)
	if err != nil {
		return models.Order{}, err
	}
	if !customerCancellable(order.Status) {
		return models.Order{}, &TransitionError{From: order.Status, To: models.OrderStatusCancelled}
	}
	return s.transition(ctx, order, models.OrderStatusCancelled, StockMovement{Restock: adjustmentsFor(order)})
}

func (s *Service) transition(ctx context.Context, order models.Order, status string, stock StockMovement) (models.Order, error) {
	change := models.StatusChange{From: order.Status, To: status, ChangedAt: s.now()}
	updated, err := s.store.TransitionStatus(ctx, order.ID, change, stock)
	if err != nil {
		var stockErr *InsufficientStockError
		var unavailable *ProductUnavailableError
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrProductNotFound) ||
			errors.As(err, &stockErr) || errors.As(err, &unavailable) {
			return models.Order{}, err
		}
		return models.Order{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	log.Printf("[ORDER] [INFO] order %s status %s -> %s", order.OrderNumber, change.From, change.To)
	return updated, nil
}

// Archive soft-deletes an order; it stays in storage with isActive=false.
func (s *Service) Archive(ctx context.Context, rawID string) error {
	id, err := parseOrderID(rawID)
	if err != nil {
		return err
	}
	if err := s.store.ArchiveOrder(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// StartPayment opens a remote payment for the order's total.
func (s *Service) StartPayment(ctx context.Context, rawID string, caller Caller) (payments.RemoteOrder, error) {
	if s.gateway == nil {
		return payments.RemoteOrder{}, &PaymentError{Reason: "payment gateway not configured"}
	}
	order, err := s.GetForUser(ctx, rawID, caller)
	if err != nil {
		return payments.RemoteOrder{}, err
	}
	if order.Status == models.OrderStatusCancelled {
		return payments.RemoteOrder{}, &PaymentError{Reason: "order is cancelled"}
	}
	if order.PaymentStatus == models.PaymentStatusCompleted {
		return payments.RemoteOrder{}, &PaymentError{Reason: "order is already paid"}
	}

	remote, err := s.gateway.CreateOrder(ctx, models.ToMinorUnits(order.TotalAmount), payments.NewReceipt())
	if err != nil {
		return payments.RemoteOrder{}, fmt.Errorf("create gateway order: %w", err)
	}

	if _, err := s.store.UpdatePayment(ctx, order.ID, PaymentUpdate{
		Method:         models.PaymentMethodOnline,
		Status:         models.PaymentStatusPending,
		GatewayOrderID: remote.ID,
	}); err != nil {
		return payments.RemoteOrder{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return remote, nil
}

// VerifyPayment checks the gateway signature and records the outcome.
func (s *Service) VerifyPayment(ctx context.Context, rawID string, caller Caller, paymentID, signature string) (models.Order, error) {
	if s.gateway == nil {
		return models.Order{}, &PaymentError{Reason: "payment gateway not configured"}
	}
	order, err := s.GetForUser(ctx, rawID, caller)
	if err != nil {
		return models.Order{}, err
	}
	if order.PaymentGatewayOrderID == "" {
		return models.Order{}, &PaymentError{Reason: "payment was not started"}
	}
	if order.PaymentStatus == models.PaymentStatusCompleted {
		return order, nil
	}

	if !s.gateway.VerifySignature(order.PaymentGatewayOrderID, paymentID, signature) {
		if _, err := s.store.UpdatePayment(ctx, order.ID, PaymentUpdate{Status: models.PaymentStatusFailed}); err != nil {
			log.Printf("[PAYMENT] [ERROR] could not mark %s failed: %v", order.OrderNumber, err)
		}
		log.Printf("[PAYMENT] [WARN] signature mismatch for order %s", order.OrderNumber)
		return models.Order{}, &PaymentError{Reason: "signature verification failed"}
	}

	updated, err := s.store.UpdatePayment(ctx, order.ID, PaymentUpdate{
		Status:    models.PaymentStatusCompleted,
		PaymentID: paymentID,
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	log.Printf("[PAYMENT] [INFO] order %s paid with %s", order.OrderNumber, paymentID)
	return updated, nil
}

func (s *Service) load(ctx context.Context, rawID string) (models.Order, error) {
	id, err := parseOrderID(rawID)
	if err != nil {
		return models.Order{}, err
	}
	order, err := s.store.FindOrder(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Order{}, err
		}
		return models.Order{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return order, nil
}

func parseOrderID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: order id %q", ErrInvalidArgument, raw)
	}
	return id, nil
}

func mustObjectID(hex string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(hex)
	return id
}

func adjustmentsFor(order models.Order) []StockAdjustment {
	out := make([]StockAdjustment, 0, len(order.Items))
	for _, item := range order.Items {
		out = append(out, StockAdjustment{ProductID: item.ProductID, Size: item.Size, Quantity: item.Quantity})
	}
	return out
}

func normalizePage(p Page) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if maxPage := MaxPage(p.Limit); p.Page > maxPage {
		p.Page = maxPage
	}
	return p
}

func newOrderPage(orders []models.Order, total int64, page Page) OrderPage {
	if orders == nil {
		orders = []models.Order{}
	}
	pages := int64(0)
	if total > 0 {
		pages = int64(math.Ceil(float64(total) / float64(page.Limit)))
	}
	return OrderPage{
		Orders: orders,
		Pagination: Pagination{
			Page:  page.Page,
			Limit: page.Limit,
			Total: total,
			Pages: pages,
		},
	}
}
