package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"commerce-service/internal/entity"
)

type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionReadAll Action = "READ_ALL"
	ActionReadOne Action = "READ_ONE"
	ActionUpdate  Action = "UPDATE"
	ActionDelete  Action = "DELETE"
)

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Subjects recorded in audit_on.
const (
	SubjectProduct = "Product"
	SubjectOrder   = "Order"
	SubjectPayment = "Payment"
)

const DefaultActor = "system"

// Payload is one of the audit variants declared below. Kind names the variant in the
// stored audit_data so a reader can decode it back into the right type.
type Payload interface {
	Action() Action
	Kind() string
}

type ProductCreated struct {
	Product entity.Product `json:"product"`
}

type ProductsListed struct {
	Role  string `json:"role,omitempty"`
	Count int    `json:"count"`
}

type ProductRead struct {
	ID int64 `json:"id"`
}

type ProductUpdated struct {
	ID    int64               `json:"id"`
	Patch entity.ProductPatch `json:"dto"`
}

type ProductDeleted struct {
	ID int64 `json:"id"`
}

type ProductImageAdded struct {
	ProductID int64               `json:"product_id"`
	Image     entity.ProductImage `json:"image"`
}

type ProductImageRemoved struct {
	ProductID int64 `json:"product_id"`
	ImageID   int64 `json:"image_id"`
}

type ProductSizeAdded struct {
	ProductID int64       `json:"product_id"`
	Size      entity.Size `json:"size"`
}

type ProductSizeRemoved struct {
	ProductID int64 `json:"product_id"`
	SizeID    int64 `json:"size_id"`
}

type OrderPlaced struct {
	OrderID       int64                `json:"order_id,omitempty"`
	CustomerEmail string               `json:"customer_email"`
	Items         []entity.ItemRequest `json:"items"`
}

type OrdersListed struct {
	Count int `json:"count"`
}

type OrderRead struct {
	ID int64 `json:"id"`
}

type OrderRemoved struct {
	ID      int64 `json:"id"`
	Removed bool  `json:"removed"`
}

type PaymentProcessed struct {
	Operation string `json:"operation"`
	Reference string `json:"reference,omitempty"`
}

func (ProductCreated) Action() Action      { return ActionCreate }
func (ProductsListed) Action() Action      { return ActionReadAll }
func (ProductRead) Action() Action         { return ActionReadOne }
func (ProductUpdated) Action() Action      { return ActionUpdate }
func (ProductDeleted) Action() Action      { return ActionDelete }
func (ProductImageAdded) Action() Action   { return ActionCreate }
func (ProductImageRemoved) Action() Action { return ActionDelete }
func (ProductSizeAdded) Action() Action    { return ActionCreate }
func (ProductSizeRemoved) Action() Action  { return ActionDelete }
func (OrderPlaced) Action() Action         { return ActionCreate }
func (OrdersListed) Action() Action        { return ActionReadAll }
func (OrderRead) Action() Action           { return ActionReadOne }
func (OrderRemoved) Action() Action        { return ActionDelete }
func (PaymentProcessed) Action() Action    { return ActionCreate }

func (ProductCreated) Kind() string      { return "product.created" }
func (ProductsListed) Kind() string      { return "product.listed" }
func (ProductRead) Kind() string         { return "product.read" }
func (ProductUpdated) Kind() string      { return "product.updated" }
func (ProductDeleted) Kind() string      { return "product.deleted" }
func (ProductImageAdded) Kind() string   { return "product.image.added" }
func (ProductImageRemoved) Kind() string { return "product.image.removed" }
func (ProductSizeAdded) Kind() string    { return "product.size.added" }
func (ProductSizeRemoved) Kind() string  { return "product.size.removed" }
func (OrderPlaced) Kind() string         { return "order.placed" }
func (OrdersListed) Kind() string        { return "order.listed" }
func (OrderRead) Kind() string           { return "order.read" }
func (OrderRemoved) Kind() string        { return "order.removed" }
func (PaymentProcessed) Kind() string    { return "payment.processed" }

type Event struct {
	ID           uuid.UUID
	Payload      Payload
	Status       Status
	ErrorMessage string
	By           string
	On           string
	OccurredAt   time.Time
}

// Success builds a SUCCESS event attributed to the actor carried by ctx.
func Success(ctx context.Context, on string, p Payload) Event {
	return Event{
		ID:         uuid.New(),
		Payload:    p,
		Status:     StatusSuccess,
		By:         ActorFrom(ctx),
		On:         on,
		OccurredAt: time.Now().UTC(),
	}
}

// Failure builds a FAILED event carrying err's message.
func Failure(ctx context.Context, on string, p Payload, err error) Event {
	e := Success(ctx, on, p)
	e.Status = StatusFailed
	if err != nil {
		e.ErrorMessage = err.Error()
	}
	return e
}

// Outcome picks Success or Failure depending on err.
func Outcome(ctx context.Context, on string, p Payload, err error) Event {
	if err != nil {
		return Failure(ctx, on, p, err)
	}
	return Success(ctx, on, p)
}

type envelope struct {
	Kind string  `json:"kind"`
	Data Payload `json:"data"`
}

// Record converts the event into its persisted shape.
func (e Event) Record() (entity.AuditRecord, error) {
	if e.Payload == nil {
		return entity.AuditRecord{}, fmt.Errorf("audit event %s has no payload", e.ID)
	}
	data, err := json.Marshal(envelope{Kind: e.Payload.Kind(), Data: e.Payload})
	if err != nil {
		return entity.AuditRecord{}, fmt.Errorf("encode audit data: %w", err)
	}

	by := e.By
	if by == "" {
		by = DefaultActor
	}
	record := entity.AuditRecord{
		EventID:   e.ID.String(),
		Action:    string(e.Payload.Action()),
		AuditData: data,
		Status:    string(e.Status),
		AuditBy:   by,
		AuditOn:   e.On,
		CreatedAt: e.OccurredAt,
	}
	if e.ErrorMessage != "" {
		msg := e.ErrorMessage
		record.ErrorMessage = &msg
	}
	return record, nil
}
