package events

import "time"

// Event kinds pushed over websocket connections. The strings are part of the
// client contract, keep them stable.
const (
	KindConnected = "connected"
	KindPong      = "pong"

	KindProductCreated  = "product.created"
	KindProductUpdated  = "product.updated"
	KindProductDeleted  = "product.deleted"
	KindProductApproved = "product.approved"
	KindProductRejected = "product.rejected"

	KindBalanceUpdated = "balance.updated"

	KindOrderCreated   = "order.created"
	KindOrderCompleted = "order.completed"

	KindGenerationStarted   = "generation.started"
	KindGenerationCompleted = "generation.completed"

	KindSettingsUpdated = "settings.updated"

	KindModerationQueueUpdated = "moderation.queue_updated"
)

// Event is the wire payload for one realtime push. Data holds only primitives,
// strings and plain nested maps, so marshalling never touches live objects.
type Event struct {
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// New builds an event stamped with the current UTC time.
func New(kind string, data map[string]any) Event {
	return Event{
		Event:     kind,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Connected is the first message a freshly registered connection receives.
func Connected(class string, identity int64) Event {
	return New(KindConnected, map[string]any{
		"client_type": class,
		"client_id":   identity,
	})
}

// Pong answers a client keep-alive ping, echoing the client timestamp if any.
func Pong(clientTimestamp any) Event {
	return New(KindPong, map[string]any{
		"timestamp": clientTimestamp,
	})
}

// ProductChanged describes a create or update of a product by its shop.
func ProductChanged(kind string, productID, shopID int64, name, status string, isActive bool) Event {
	return New(kind, map[string]any{
		"product_id":        productID,
		"shop_id":           shopID,
		"name":              name,
		"moderation_status": status,
		"is_active":         isActive,
	})
}

// ProductModeration describes an approve/reject decision on a product.
func ProductModeration(kind string, productID, shopID, adminID int64, productName, shopName, status, notes string, fee float64) Event {
	data := map[string]any{
		"product_id":        productID,
		"product_name":      productName,
		"shop_id":           shopID,
		"shop_name":         shopName,
		"moderation_status": status,
		"moderation_notes":  notes,
		"admin_id":          adminID,
	}
	if fee > 0 {
		data["approval_fee"] = fee
	}
	return New(kind, data)
}

// ProductDeleted reports a lifecycle decision on a product. Outcome is either
// "hard" (record and media gone) or "soft" (deactivated, media retained).
func ProductDeleted(productID, shopID int64, productName, outcome string) Event {
	return New(KindProductDeleted, map[string]any{
		"product_id":   productID,
		"product_name": productName,
		"shop_id":      shopID,
		"outcome":      outcome,
	})
}

// ProductsApproved aggregates one bulk approval run into a single event
// listing every product that went live.
func ProductsApproved(productIDs []int64, adminID int64) Event {
	return New(KindProductApproved, map[string]any{
		"product_ids": productIDs,
		"count":       len(productIDs),
		"admin_id":    adminID,
	})
}

// ModerationQueue reports the size of the pending backlog after a transition.
func ModerationQueue(pendingCount int, action string, productID int64) Event {
	data := map[string]any{
		"pending_count": pendingCount,
		"action":        action,
	}
	if productID != 0 {
		data["product_id"] = productID
	}
	return New(KindModerationQueueUpdated, data)
}

// BalanceUpdated reports a shop balance change caused by a fee or topup.
func BalanceUpdated(shopID int64, oldBalance, newBalance float64, reason string) Event {
	return New(KindBalanceUpdated, map[string]any{
		"entity_type":   "shop",
		"entity_id":     shopID,
		"old_balance":   oldBalance,
		"new_balance":   newBalance,
		"change_amount": newBalance - oldBalance,
		"reason":        reason,
	})
}

// OrderCreated confirms a newly placed order to its buyer.
func OrderCreated(orderID, userID int64, total float64, itemCount int) Event {
	return New(KindOrderCreated, map[string]any{
		"order_id":   orderID,
		"user_id":    userID,
		"total":      total,
		"item_count": itemCount,
	})
}

// OrderCompleted reports that a buyer's order was confirmed and paid out.
func OrderCompleted(orderID, userID int64, total float64) Event {
	return New(KindOrderCompleted, map[string]any{
		"order_id": orderID,
		"user_id":  userID,
		"total":    total,
	})
}

// GenerationProgress reports try-on generation state to its progress room.
func GenerationProgress(kind string, generationID, userID int64, imageURL string) Event {
	data := map[string]any{
		"generation_id": generationID,
		"user_id":       userID,
	}
	if imageURL != "" {
		data["image_url"] = imageURL
	}
	return New(kind, data)
}

// SettingsUpdated reports a platform setting change made by an admin.
func SettingsUpdated(key, oldValue, newValue string, adminID int64) Event {
	return New(KindSettingsUpdated, map[string]any{
		"key":        key,
		"old_value":  oldValue,
		"new_value":  newValue,
		"updated_by": adminID,
	})
}
