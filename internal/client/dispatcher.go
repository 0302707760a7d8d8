package client

import (
	"fmt"
	"strconv"
	"strings"

	"tableside/internal/events"
)

type ToastLevel string

const (
	ToastWarning ToastLevel = "warning"
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
)

type Toast struct {
	Level   ToastLevel
	Message string
}

// Callbacks receive dispatched frames. Any of them may be nil.
type Callbacks struct {
	OnToast   func(Toast)
	OnRefresh func()
	OnBasket  func(snapshot map[uint]int)
}

// Dispatcher routes data frames to application state.
type Dispatcher struct {
	basket    *Basket
	callbacks Callbacks
}

func NewDispatcher(basket *Basket, callbacks Callbacks) *Dispatcher {
	if basket == nil {
		basket = NewBasket()
	}
	return &Dispatcher{basket: basket, callbacks: callbacks}
}

func (d *Dispatcher) Basket() *Basket {
	return d.basket
}

// Dispatch handles one frame. Heartbeats are ignored. A bare number is a
// dashboard refresh ping. Everything else must be an event payload.
func (d *Dispatcher) Dispatch(f Frame) error {
	if f.IsHeartbeat() {
		return nil
	}
	data := strings.TrimSpace(f.Data)
	if data == "" {
		return nil
	}
	if _, err := strconv.ParseInt(data, 10, 64); err == nil {
		d.refresh()
		return nil
	}

	p, err := events.DecodePayload([]byte(data))
	if err != nil {
		return fmt.Errorf("invalid event payload: %w", err)
	}

	switch p.Type {
	case events.TypeMessage:
		d.toast(ToastWarning, p.Message)
	case events.TypeUpdateBasket:
		updates, err := p.Updates()
		if err != nil {
			return err
		}
		d.basket.Merge(updates)
		if d.callbacks.OnBasket != nil {
			d.callbacks.OnBasket(d.basket.Snapshot())
		}
	case events.TypeUpdateOrder:
		d.refresh()
	default:
		d.toast(ToastWarning, p.Message)
	}
	return nil
}

func (d *Dispatcher) toast(level ToastLevel, message string) {
	if d.callbacks.OnToast != nil {
		d.callbacks.OnToast(Toast{Level: level, Message: message})
	}
}

func (d *Dispatcher) refresh() {
	if d.callbacks.OnRefresh != nil {
		d.callbacks.OnRefresh()
	}
}
