package dispatch

import (
	"fmt"

	"github.com/vetra-app/vetra/internal/events"
	"github.com/vetra-app/vetra/internal/realtime"
)

// Sender is the delivery surface of the connection registry. The dispatcher
// only ever goes through it, never into the registry's internals.
type Sender interface {
	SendToIdentity(evt events.Event, class string, identity int64)
	BroadcastToClass(evt events.Event, class string)
	BroadcastToRoom(evt events.Event, room string)
}

// Dispatcher translates domain outcomes into typed events and routes them to
// the right audience. It holds no connection state of its own.
type Dispatcher struct {
	sender Sender
}

func New(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// ModerationOutcome carries everything the audiences need to know about one
// approve/reject decision.
type ModerationOutcome struct {
	ProductID   int64
	ProductName string
	ShopID      int64
	ShopName    string
	Status      string
	Notes       string
	AdminID     int64
	Fee         float64
}

// ProductCreated confirms a submission to the owning shop. Admins learn about
// it through the backlog broadcast, end users only once it is approved.
func (d *Dispatcher) ProductCreated(productID, shopID int64, name, status string) {
	evt := events.ProductChanged(events.KindProductCreated, productID, shopID, name, status, false)
	d.sender.SendToIdentity(evt, realtime.ClassShop, shopID)
}

// ProductUpdated notifies the owning shop; edits to a live product are also
// announced to end users.
func (d *Dispatcher) ProductUpdated(productID, shopID int64, name, status string, isActive bool) {
	evt := events.ProductChanged(events.KindProductUpdated, productID, shopID, name, status, isActive)
	d.sender.SendToIdentity(evt, realtime.ClassShop, shopID)
	if isActive {
		d.sender.BroadcastToClass(evt, realtime.ClassUser)
	}
}

// ProductApproved notifies the owning shop directly and announces the newly
// visible product to every connected end user.
func (d *Dispatcher) ProductApproved(o ModerationOutcome) {
	evt := events.ProductModeration(events.KindProductApproved,
		o.ProductID, o.ShopID, o.AdminID, o.ProductName, o.ShopName, o.Status, o.Notes, o.Fee)
	d.sender.SendToIdentity(evt, realtime.ClassShop, o.ShopID)
	d.sender.BroadcastToClass(evt, realtime.ClassUser)
}

// ProductApprovedToShop notifies only the owning shop. Bulk runs use this per
// item and announce the successes to end users once, in aggregate.
func (d *Dispatcher) ProductApprovedToShop(o ModerationOutcome) {
	evt := events.ProductModeration(events.KindProductApproved,
		o.ProductID, o.ShopID, o.AdminID, o.ProductName, o.ShopName, o.Status, o.Notes, o.Fee)
	d.sender.SendToIdentity(evt, realtime.ClassShop, o.ShopID)
}

// ProductsApproved announces one bulk approval run to every connected end
// user as a single aggregate event.
func (d *Dispatcher) ProductsApproved(productIDs []int64, adminID int64) {
	if len(productIDs) == 0 {
		return
	}
	d.sender.BroadcastToClass(events.ProductsApproved(productIDs, adminID), realtime.ClassUser)
}

// ProductRejected notifies only the owning shop.
func (d *Dispatcher) ProductRejected(o ModerationOutcome) {
	evt := events.ProductModeration(events.KindProductRejected,
		o.ProductID, o.ShopID, o.AdminID, o.ProductName, o.ShopName, o.Status, o.Notes, 0)
	d.sender.SendToIdentity(evt, realtime.ClassShop, o.ShopID)
}

// ModerationBacklog tells every connected admin the new pending count.
func (d *Dispatcher) ModerationBacklog(pendingCount int, action string, productID int64) {
	d.sender.BroadcastToClass(events.ModerationQueue(pendingCount, action, productID), realtime.ClassAdmin)
}

// ProductDeleted reports a lifecycle decision: the shop always hears about
// it, end users only when the product actually disappeared.
func (d *Dispatcher) ProductDeleted(productID, shopID int64, productName, outcome string) {
	evt := events.ProductDeleted(productID, shopID, productName, outcome)
	d.sender.SendToIdentity(evt, realtime.ClassShop, shopID)
	if outcome == "hard" {
		d.sender.BroadcastToClass(evt, realtime.ClassUser)
	}
}

// ShopBalanceChanged notifies the shop of a balance move (fee, topup).
func (d *Dispatcher) ShopBalanceChanged(shopID int64, oldBalance, newBalance float64, reason string) {
	d.sender.SendToIdentity(events.BalanceUpdated(shopID, oldBalance, newBalance, reason), realtime.ClassShop, shopID)
}

// OrderCreated confirms a freshly placed order to its buyer.
func (d *Dispatcher) OrderCreated(orderID, userID int64, total float64, itemCount int) {
	d.sender.SendToIdentity(events.OrderCreated(orderID, userID, total, itemCount), realtime.ClassUser, userID)
}

// OrderCompleted tells the buyer the order went through and each credited
// shop how its balance moved.
func (d *Dispatcher) OrderCompleted(orderID, userID int64, total float64) {
	d.sender.SendToIdentity(events.OrderCompleted(orderID, userID, total), realtime.ClassUser, userID)
}

// GenerationRoom names the progress room for one generation.
func GenerationRoom(generationID int64) string {
	return fmt.Sprintf("generation:%d", generationID)
}

// GenerationStarted announces a try-on job to its owner and progress room.
func (d *Dispatcher) GenerationStarted(generationID, userID int64) {
	evt := events.GenerationProgress(events.KindGenerationStarted, generationID, userID, "")
	d.sender.SendToIdentity(evt, realtime.ClassUser, userID)
	d.sender.BroadcastToRoom(evt, GenerationRoom(generationID))
}

// GenerationCompleted announces the produced media reference.
func (d *Dispatcher) GenerationCompleted(generationID, userID int64, imageURL string) {
	evt := events.GenerationProgress(events.KindGenerationCompleted, generationID, userID, imageURL)
	d.sender.SendToIdentity(evt, realtime.ClassUser, userID)
	d.sender.BroadcastToRoom(evt, GenerationRoom(generationID))
}

// SettingsUpdated fans a platform setting change out to all classes.
func (d *Dispatcher) SettingsUpdated(key, oldValue, newValue string, adminID int64) {
	evt := events.SettingsUpdated(key, oldValue, newValue, adminID)
	for _, class := range []string{realtime.ClassUser, realtime.ClassShop, realtime.ClassAdmin} {
		d.sender.BroadcastToClass(evt, class)
	}
}
