package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"tableside/internal/commands"
	"tableside/internal/events"
	tableside_errors "tableside/pkg/errors"
	"tableside/pkg/logger"

	"go.uber.org/zap"
)

// NotificationService sends toasts and basket suggestions between staff and guests.
type NotificationService struct {
	events events.Bus
	bus    *commands.Bus
	log    *logger.Logger
}

func NewNotificationService(publisher events.Bus, bus *commands.Bus, log *logger.Logger) *NotificationService {
	if bus == nil {
		bus = commands.NewBus()
	}
	svc := &NotificationService{
		events: publisher,
		bus:    bus,
		log:    logger.OrNop(log).Named("notifications"),
	}
	svc.RegisterHandlers()
	return svc
}

func (s *NotificationService) RegisterHandlers() {
	s.bus.Register(commands.TypeStaffBroadcast, commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.StaffBroadcastCommand)
		if !ok {
			return commands.Result{}, tableside_errors.ErrInvalidInput
		}
		return s.executeBroadcast(ctx, typed)
	}))
	s.bus.Register(commands.TypeBasketSuggestion, commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.BasketSuggestionCommand)
		if !ok {
			return commands.Result{}, tableside_errors.ErrInvalidInput
		}
		return s.executeBasketSuggestion(ctx, typed)
	}))
	s.bus.Register(commands.TypeCallWaiter, commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		typed, ok := cmd.(commands.CallWaiterCommand)
		if !ok {
			return commands.Result{}, tableside_errors.ErrInvalidInput
		}
		return s.executeCallWaiter(ctx, typed)
	}))
}

// Broadcast sends a warning toast to a role channel.
func (s *NotificationService) Broadcast(ctx context.Context, cmd commands.StaffBroadcastCommand) error {
	_, err := s.bus.Execute(ctx, cmd)
	return err
}

// SuggestBasket pushes quantities into a customer's basket.
func (s *NotificationService) SuggestBasket(ctx context.Context, cmd commands.BasketSuggestionCommand) error {
	_, err := s.bus.Execute(ctx, cmd)
	return err
}

// CallWaiter alerts the waiter channel that a table needs help.
func (s *NotificationService) CallWaiter(ctx context.Context, cmd commands.CallWaiterCommand) error {
	_, err := s.bus.Execute(ctx, cmd)
	return err
}

func (s *NotificationService) executeBroadcast(ctx context.Context, cmd commands.StaffBroadcastCommand) (commands.Result, error) {
	topic := events.RoleTopic(cmd.Role)
	payload := events.NewMessage(events.TypeWarning, BroadcastMessage(cmd.Sender.Name, cmd.Role, cmd.Receivers, cmd.Message))
	if err := s.events.Publish(ctx, topic, payload); err != nil {
		return commands.Result{}, err
	}
	s.log.WithContext(ctx).Info("staff broadcast", zap.String("topic", topic), zap.Int("receivers", len(cmd.Receivers)))
	return commands.Result{AggregateID: topic}, nil
}

// BroadcastMessage renders "<sender> to <target> | <message>". The target is the
// receiver list when one is given, else the role.
func BroadcastMessage(sender, role string, receivers []string, message string) string {
	target := role
	names := make([]string, 0, len(receivers))
	for _, r := range receivers {
		if r = strings.TrimSpace(r); r != "" {
			names = append(names, r)
		}
	}
	if len(names) > 0 {
		target = strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s to %s | %s", sender, target, strings.TrimSpace(message))
}

func (s *NotificationService) executeBasketSuggestion(ctx context.Context, cmd commands.BasketSuggestionCommand) (commands.Result, error) {
	updates := make([]events.BasketUpdate, 0, len(cmd.Items))
	for id, qty := range cmd.Items {
		if id == 0 || qty <= 0 {
			continue
		}
		updates = append(updates, events.BasketUpdate{MenuItemID: id, Quantity: qty})
	}
	if len(updates) == 0 {
		return commands.Result{}, tableside_errors.ErrEmptyBasket
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].MenuItemID < updates[j].MenuItemID })

	payload, err := events.NewBasketUpdate(updates)
	if err != nil {
		return commands.Result{}, err
	}
	topic := events.MenuNotificationsTopic(cmd.CustomerID)
	if err := s.events.Publish(ctx, topic, payload); err != nil {
		return commands.Result{}, err
	}
	return commands.Result{AggregateID: topic, Payload: updates}, nil
}

func (s *NotificationService) executeCallWaiter(ctx context.Context, cmd commands.CallWaiterCommand) (commands.Result, error) {
	msg := fmt.Sprintf("Customer %s at table %d needs assistance with order %d", strings.TrimSpace(cmd.Name), cmd.TableID, cmd.OrderID)
	if err := s.events.Publish(ctx, events.WaiterTopic, events.NewMessage(events.TypeMessage, msg)); err != nil {
		return commands.Result{}, err
	}
	s.log.WithContext(ctx).Info("waiter called", zap.Uint("order_id", cmd.OrderID), zap.Uint("table_id", cmd.TableID))
	return commands.Result{AggregateID: events.WaiterTopic}, nil
}
