package client

import (
	"sync"

	"tableside/internal/events"
)

// Basket is the guest's local, not yet ordered selection.
type Basket struct {
	mu    sync.Mutex
	items map[uint]int
}

func NewBasket() *Basket {
	return &Basket{items: map[uint]int{}}
}

// Add changes the quantity of an item. Quantities never go below zero.
func (b *Basket) Add(menuItemID uint, quantity int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := b.items[menuItemID] + quantity
	if q <= 0 {
		delete(b.items, menuItemID)
		return
	}
	b.items[menuItemID] = q
}

// Merge adds every suggested quantity to the basket.
func (b *Basket) Merge(updates []events.BasketUpdate) {
	for _, u := range updates {
		if u.Quantity > 0 {
			b.Add(u.MenuItemID, u.Quantity)
		}
	}
}

func (b *Basket) Quantity(menuItemID uint) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items[menuItemID]
}

// Snapshot returns a copy suitable for a checkout request.
func (b *Basket) Snapshot() map[uint]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[uint]int, len(b.items))
	for id, q := range b.items {
		out[id] = q
	}
	return out
}

func (b *Basket) Clear() {
	b.mu.Lock()
	b.items = map[uint]int{}
	b.mu.Unlock()
}
