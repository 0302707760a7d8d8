package events

import (
	"encoding/json"
	"fmt"
)

type PayloadType string

const (
	TypeMessage      PayloadType = "message"
	TypeUpdateBasket PayloadType = "update-basket"
	TypeUpdateOrder  PayloadType = "update-order"
	TypeSuccess      PayloadType = "success"
	TypeWarning      PayloadType = "warning"
)

// Payload is the JSON body carried in SSE data frames.
type Payload struct {
	Type    PayloadType `json:"type"`
	Message string      `json:"message,omitempty"`
	// BasketUpdates holds a JSON-encoded []BasketUpdate.
	BasketUpdates string `json:"basketUpdates,omitempty"`
}

type BasketUpdate struct {
	MenuItemID uint `json:"menuItemId"`
	Quantity   int  `json:"quantity"`
}

func (p Payload) Encode() []byte {
	b, _ := json.Marshal(p)
	return b
}

func NewMessage(t PayloadType, message string) []byte {
	return Payload{Type: t, Message: message}.Encode()
}

func NewBasketUpdate(updates []BasketUpdate) ([]byte, error) {
	inner, err := json.Marshal(updates)
	if err != nil {
		return nil, fmt.Errorf("failed to encode basket updates: %w", err)
	}
	return Payload{Type: TypeUpdateBasket, BasketUpdates: string(inner)}.Encode(), nil
}

func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, err
	}
	if p.Type == "" {
		return Payload{}, fmt.Errorf("payload has no type")
	}
	return p, nil
}

// Updates decodes the nested basket list.
func (p Payload) Updates() ([]BasketUpdate, error) {
	if p.BasketUpdates == "" {
		return nil, nil
	}
	var out []BasketUpdate
	if err := json.Unmarshal([]byte(p.BasketUpdates), &out); err != nil {
		return nil, fmt.Errorf("invalid basketUpdates: %w", err)
	}
	return out, nil
}
