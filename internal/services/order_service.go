package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"tableside/internal/commands"
	"tableside/internal/domain"
	"tableside/internal/domain/order"
	"tableside/internal/events"
	"tableside/internal/payment"
	"tableside/internal/repository"
	tableside_errors "tableside/pkg/errors"
	"tableside/pkg/logger"
	"tableside/pkg/metrics"
	"tableside/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderService struct {
	orders  repository.OrderRepository
	menu    repository.MenuRepository
	tables  repository.TableRepository
	events  events.Bus
	gateway payment.Gateway
	bus     *commands.Bus
	log     *logger.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	menu repository.MenuRepository,
	tables repository.TableRepository,
	publisher events.Bus,
	gateway payment.Gateway,
	bus *commands.Bus,
	log *logger.Logger,
) *OrderService {
	if bus == nil {
		bus = commands.NewBus()
	}
	if gateway == nil {
		gateway = payment.Disabled{}
	}
	svc := &OrderService{
		orders:  orders,
		menu:    menu,
		tables:  tables,
		events:  publisher,
		gateway: gateway,
		bus:     bus,
		log:     logger.OrNop(log).Named("orders"),
	}
	svc.RegisterHandlers()
	return svc
}

func (s *OrderService) RegisterHandlers() {
	s.bus.Register(commands.TypeOrderTransition, commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.TransitionOrderCommand)
		if !ok {
			return commands.Result{}, tableside_errors.ErrInvalidInput
		}
		return s.executeTransition(ctx, typed)
	}))
	s.bus.Register(commands.TypeOrderCheckout, commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.CheckoutCommand)
		if !ok {
			return commands.Result{}, tableside_errors.ErrInvalidInput
		}
		return s.executeCheckout(ctx, typed)
	}))
	s.bus.Register(commands.TypeOrderUpdateItems, commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.UpdateOrderItemsCommand)
		if !ok {
			return commands.Result{}, tableside_errors.ErrInvalidInput
		}
		return s.executeUpdateItems(ctx, typed)
	}))
}

func (s *OrderService) Bus() *commands.Bus {
	return s.bus
}

// Transition runs a status change through the command bus.
func (s *OrderService) Transition(ctx context.Context, cmd commands.TransitionOrderCommand) (order.Order, error) {
	res, err := s.bus.Execute(ctx, cmd)
	if err != nil {
		if errors.Is(err, tableside_errors.ErrForbidden) {
			metrics.IncOrderTransition(string(cmd.TargetStatus), "forbidden")
		}
		return order.Order{}, err
	}
	o, _ := res.Payload.(order.Order)
	return o, nil
}

func (s *OrderService) executeTransition(ctx context.Context, cmd commands.TransitionOrderCommand) (commands.Result, error) {
	ctx, span := observability.Tracer().Start(ctx, "order.transition", trace.WithAttributes(
		attribute.Int64("order.id", int64(cmd.OrderID)),
		attribute.String("order.target", string(cmd.TargetStatus)),
		attribute.String("actor.role", string(cmd.Actor.Role)),
	))
	defer span.End()

	o, err := s.orders.FindOrder(ctx, cmd.OrderID)
	if err != nil {
		span.RecordError(err)
		return commands.Result{}, err
	}

	from := o.Status
	if from.IsTerminal() || !order.CanTransition(from, cmd.TargetStatus) {
		metrics.IncOrderTransition(string(cmd.TargetStatus), "invalid")
		span.SetStatus(codes.Error, "invalid transition")
		return commands.Result{}, fmt.Errorf("%w: %s -> %s", tableside_errors.ErrInvalidTransition, from, cmd.TargetStatus)
	}

	var completedAt *time.Time
	if cmd.TargetStatus == order.StatusCompleted {
		completedAt = tableside_errors.NowPtr()
	}
	if err := s.orders.UpdateOrderStatus(ctx, o.ID, from, cmd.TargetStatus, completedAt); err != nil {
		metrics.IncOrderTransition(string(cmd.TargetStatus), "failed")
		span.RecordError(err)
		return commands.Result{}, fmt.Errorf("failed to persist order status: %w", err)
	}
	o.Status = cmd.TargetStatus
	if completedAt != nil {
		o.CompletedAt = completedAt
	}

	s.log.WithContext(ctx).Info("order transitioned",
		zap.Uint("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
		zap.String("actor_role", string(cmd.Actor.Role)),
	)

	s.publish(ctx, events.DashboardOrders, nil)
	s.publish(ctx, events.OrderTopic(o.ID), events.NewMessage(events.TypeUpdateOrder, statusMessage(o)))
	if o.Status == order.StatusReadyToDeliver {
		s.publish(ctx, events.WaiterTopic, events.NewMessage(events.TypeSuccess,
			fmt.Sprintf("Order #%d is ready to serve", o.ID)))
	}
	metrics.IncOrderTransition(string(o.Status), "ok")

	return commands.Result{AggregateID: orderAggregateID(o.ID), Payload: o}, nil
}

func statusMessage(o order.Order) string {
	return fmt.Sprintf("Order #%d is now %s", o.ID, o.Status)
}

// Checkout turns a basket into a PENDING order.
func (s *OrderService) Checkout(ctx context.Context, cmd commands.CheckoutCommand) (order.Order, error) {
	res, err := s.bus.Execute(ctx, cmd)
	if err != nil {
		return order.Order{}, err
	}
	o, _ := res.Payload.(order.Order)
	return o, nil
}

func (s *OrderService) executeCheckout(ctx context.Context, cmd commands.CheckoutCommand) (commands.Result, error) {
	key := cmd.IdempotencyKey()
	if key != "" {
		existing, err := s.orders.FindOrderByIdempotencyKey(ctx, key)
		switch {
		case err == nil:
			return commands.Result{AggregateID: orderAggregateID(existing.ID), Payload: existing}, nil
		case !errors.Is(err, tableside_errors.ErrNotFound):
			return commands.Result{}, err
		}
	}

	items, err := s.priceLines(ctx, basketLines(cmd.Basket))
	if err != nil {
		return commands.Result{}, err
	}
	if len(items) == 0 {
		return commands.Result{}, tableside_errors.ErrEmptyBasket
	}

	table, err := s.tables.FindTable(ctx, cmd.TableID)
	if err != nil {
		return commands.Result{}, err
	}

	o := order.Order{
		CustomerID: cmd.Customer.ID,
		TableID:    table.ID,
		WaiterID:   table.WaiterID,
		Items:      items,
		Status:     order.StatusPending,
	}
	if key != "" {
		o.IdempotencyKey = &key
	}
	o.RecomputeTotal()

	if err := s.orders.Create(ctx, &o); err != nil {
		if key != "" && errors.Is(err, tableside_errors.ErrAlreadyExists) {
			// A concurrent retry won the insert.
			existing, findErr := s.orders.FindOrderByIdempotencyKey(ctx, key)
			if findErr == nil {
				return commands.Result{AggregateID: orderAggregateID(existing.ID), Payload: existing}, nil
			}
		}
		return commands.Result{}, fmt.Errorf("failed to create order: %w", err)
	}

	s.log.WithContext(ctx).Info("order placed",
		zap.Uint("order_id", o.ID),
		zap.Uint("customer_id", o.CustomerID),
		zap.Float64("total", o.TotalPrice),
	)
	s.publish(ctx, events.DashboardOrders, nil)

	return commands.Result{AggregateID: orderAggregateID(o.ID), Payload: o}, nil
}

// UpdateItems replaces an order's lines and tells the customer's devices.
func (s *OrderService) UpdateItems(ctx context.Context, cmd commands.UpdateOrderItemsCommand) (order.Order, error) {
	res, err := s.bus.Execute(ctx, cmd)
	if err != nil {
		return order.Order{}, err
	}
	o, _ := res.Payload.(order.Order)
	return o, nil
}

func (s *OrderService) executeUpdateItems(ctx context.Context, cmd commands.UpdateOrderItemsCommand) (commands.Result, error) {
	o, err := s.orders.FindOrder(ctx, cmd.OrderID)
	if err != nil {
		return commands.Result{}, err
	}
	if o.Status.IsTerminal() {
		return commands.Result{}, fmt.Errorf("%w: order is %s", tableside_errors.ErrInvalidTransition, o.Status)
	}

	items, err := s.priceLines(ctx, cmd.Items)
	if err != nil {
		return commands.Result{}, err
	}
	o.Items = items
	o.RecomputeTotal()

	if err := s.orders.ReplaceItems(ctx, o.ID, o.Items, o.TotalPrice); err != nil {
		return commands.Result{}, fmt.Errorf("failed to replace order items: %w", err)
	}

	s.publish(ctx, events.DashboardOrders, nil)
	s.publish(ctx, events.OrderTopic(o.ID), events.NewMessage(events.TypeUpdateOrder, fmt.Sprintf("Order #%d was updated", o.ID)))
	s.publish(ctx, events.MenuNotificationsTopic(o.CustomerID), events.Payload{Type: events.TypeUpdateOrder}.Encode())

	return commands.Result{AggregateID: orderAggregateID(o.ID), Payload: o}, nil
}

// priceLines prices each line from the current menu. Unknown menu items are skipped.
func (s *OrderService) priceLines(ctx context.Context, lines []commands.ItemLine) ([]order.OrderItem, error) {
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.MenuItemID)
	}
	menuItems, err := s.menu.FindMenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	prices := make(map[uint]float64, len(menuItems))
	for _, m := range menuItems {
		prices[m.ID] = m.Price
	}

	items := make([]order.OrderItem, 0, len(lines))
	for _, l := range lines {
		price, ok := prices[l.MenuItemID]
		if !ok || l.Quantity <= 0 {
			continue
		}
		items = append(items, order.OrderItem{
			MenuItemID: l.MenuItemID,
			Quantity:   l.Quantity,
			Price:      order.LineTotal(price, l.Quantity),
			Note:       l.Note,
			Reason:     l.Reason,
		})
	}
	return items, nil
}

// basketLines orders the basket by menu item id so line order is stable.
func basketLines(basket map[uint]int) []commands.ItemLine {
	lines := make([]commands.ItemLine, 0, len(basket))
	for id, qty := range basket {
		if qty > 0 {
			lines = append(lines, commands.ItemLine{MenuItemID: id, Quantity: qty})
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].MenuItemID < lines[j].MenuItemID })
	return lines
}

// GetOrder returns an order the principal is allowed to see.
func (s *OrderService) GetOrder(ctx context.Context, p domain.Principal, id uint) (order.Order, error) {
	o, err := s.orders.FindOrder(ctx, id)
	if err != nil {
		return order.Order{}, err
	}
	if !p.IsStaff() && o.CustomerID != p.ID {
		return order.Order{}, tableside_errors.ErrForbidden
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]order.Order, error) {
	return s.orders.ListOrders(ctx, filter)
}

// Pay opens a checkout session for the order and returns the redirect URL.
func (s *OrderService) Pay(ctx context.Context, p domain.Principal, id uint) (string, error) {
	o, err := s.GetOrder(ctx, p, id)
	if err != nil {
		return "", err
	}
	if o.Paid {
		return "", fmt.Errorf("%w: order already paid", tableside_errors.ErrConflict)
	}

	ids := make([]uint, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.MenuItemID)
	}
	menuItems, err := s.menu.FindMenuItemsByIDs(ctx, ids)
	if err != nil {
		return "", err
	}
	priceIDs := make(map[uint]string, len(menuItems))
	for _, m := range menuItems {
		if m.StripePriceID != nil && *m.StripePriceID != "" {
			priceIDs[m.ID] = *m.StripePriceID
		}
	}

	lines := make([]payment.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		priceID, ok := priceIDs[it.MenuItemID]
		if !ok {
			continue
		}
		lines = append(lines, payment.LineItem{PriceID: priceID, Quantity: int64(it.Quantity)})
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: no payable items", tableside_errors.ErrInvalidInput)
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, o.ID, lines)
	if err != nil {
		s.log.WithContext(ctx).Warn("checkout session failed", zap.Uint("order_id", o.ID), zap.Error(err))
		return "", err
	}
	return url, nil
}

// CompletePayment records the payment intent for a finished checkout session.
// Calling it again for a paid order returns the order unchanged.
func (s *OrderService) CompletePayment(ctx context.Context, p domain.Principal, id uint, sessionID string) (order.Order, error) {
	o, err := s.GetOrder(ctx, p, id)
	if err != nil {
		return order.Order{}, err
	}
	if sessionID == "" || o.Paid || o.PaymentID != nil {
		return o, nil
	}

	intentID, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return order.Order{}, err
	}
	if err := s.orders.MarkPaid(ctx, o.ID, intentID); err != nil {
		return order.Order{}, fmt.Errorf("failed to mark order paid: %w", err)
	}
	o.Paid = true
	o.PaymentID = &intentID

	s.log.WithContext(ctx).Info("order paid", zap.Uint("order_id", o.ID))
	s.publish(ctx, events.DashboardOrders, nil)
	return o, nil
}

// MarkUnavailable moves every PENDING order containing menuItemID to UNAVAILABLE
// as the system actor. It returns the ids that were moved.
func (s *OrderService) MarkUnavailable(ctx context.Context, menuItemID uint) ([]uint, error) {
	affected, err := s.orders.FindOpenOrdersWithMenuItem(ctx, menuItemID, order.StatusPending)
	if err != nil {
		return nil, err
	}
	system := domain.Principal{Role: domain.RoleSystem, Name: "stock"}
	moved := make([]uint, 0, len(affected))
	for _, o := range affected {
		_, err := s.Transition(ctx, commands.TransitionOrderCommand{
			OrderID:      o.ID,
			TargetStatus: order.StatusUnavailable,
			Actor:        system,
		})
		if err != nil {
			s.log.WithContext(ctx).Warn("could not mark order unavailable",
				zap.Uint("order_id", o.ID), zap.Uint("menu_item_id", menuItemID), zap.Error(err))
			continue
		}
		moved = append(moved, o.ID)
	}
	return moved, nil
}

func (s *OrderService) publish(ctx context.Context, topic string, payload []byte) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, topic, payload); err != nil {
		s.log.WithContext(ctx).Warn("publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

func orderAggregateID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
