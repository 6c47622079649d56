package handler

import (
	"context"
	"time"

	transferapp "github.com/erp/stocktransfer/internal/application/transfer"
	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/erp/stocktransfer/internal/domain/shared/valueobject"
	"github.com/erp/stocktransfer/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferService is the workflow surface the handler drives
type TransferService interface {
	CreateRequest(ctx context.Context, tenantID, userID uuid.UUID, in transferapp.CreateRequestInput) (*transferapp.RequestResponse, error)
	UpdateRequest(ctx context.Context, tenantID, userID, requestID uuid.UUID, in transferapp.UpdateRequestInput) (*transferapp.RequestResponse, error)
	DeleteRequest(ctx context.Context, tenantID, requestID uuid.UUID) error
	Submit(ctx context.Context, tenantID, userID, requestID uuid.UUID) (*transferapp.RequestResponse, error)
	Approve(ctx context.Context, tenantID, userID, requestID uuid.UUID, in transferapp.ApproveInput) (*transferapp.RequestResponse, error)
	ApproveAll(ctx context.Context, tenantID, userID, requestID uuid.UUID, note string) (*transferapp.RequestResponse, error)
	Reject(ctx context.Context, tenantID, userID, requestID uuid.UUID, reason string) (*transferapp.RequestResponse, error)
	Cancel(ctx context.Context, tenantID, userID, requestID uuid.UUID, note string) (*transferapp.RequestResponse, error)
	Issue(ctx context.Context, tenantID, userID, requestID uuid.UUID, in transferapp.IssueInput) (*transferapp.RequestResponse, error)
	IssueAll(ctx context.Context, tenantID, userID, requestID uuid.UUID, note string) (*transferapp.RequestResponse, error)
	Receive(ctx context.Context, tenantID, userID, requestID uuid.UUID, in transferapp.ReceiveInput) (*transferapp.RequestResponse, error)
	ReceiveAll(ctx context.Context, tenantID, userID, requestID uuid.UUID, note string) (*transferapp.RequestResponse, error)
	CancelReceipt(ctx context.Context, tenantID, userID, requestID uuid.UUID, note string) (*transferapp.RequestResponse, error)
	GetRequest(ctx context.Context, tenantID, requestID uuid.UUID) (*transferapp.RequestResponse, error)
	ListRequests(ctx context.Context, tenantID uuid.UUID, filter transferapp.ListFilter) ([]transferapp.RequestResponse, int64, error)
	ListItemLog(ctx context.Context, tenantID, requestID uuid.UUID, itemID *uuid.UUID) ([]transferapp.ChangeLogResponse, error)
	ListMovements(ctx context.Context, tenantID, requestID uuid.UUID) ([]transferapp.MovementResponse, error)
}

var _ TransferService = (*transferapp.TransferService)(nil)

// TransferHandler handles the transfer request endpoints
type TransferHandler struct {
	BaseHandler
	service TransferService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(service TransferService) *TransferHandler {
	return &TransferHandler{service: service}
}

// ItemRequest is one requested line. Quantities and costs are decimal strings.
type ItemRequest struct {
	ProductID    string     `json:"product_id" binding:"required,uuid"`
	Quantity     string     `json:"quantity" binding:"required,decimal"`
	UnitCost     string     `json:"unit_cost" binding:"omitempty,rate"`
	BatchNumber  string     `json:"batch_number" binding:"max=64"`
	ExpiryDate   *time.Time `json:"expiry_date"`
	SerialNumber string     `json:"serial_number" binding:"max=128"`
}

// SaveTransferRequest is the body of create and update
type SaveTransferRequest struct {
	RequestingStoreID string        `json:"requesting_store_id" binding:"required,uuid"`
	IssuingStoreID    string        `json:"issuing_store_id" binding:"required,uuid,nefield=RequestingStoreID"`
	Direction         string        `json:"direction" binding:"omitempty,oneof=request issue"`
	Priority          string        `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	Currency          string        `json:"currency" binding:"omitempty,len=3"`
	ExchangeRate      string        `json:"exchange_rate" binding:"omitempty,rate"`
	Note              string        `json:"note" binding:"max=1000"`
	Items             []ItemRequest `json:"items" binding:"dive"`
}

// LineRequest targets one item with a quantity
type LineRequest struct {
	ItemID   string `json:"item_id" binding:"required,uuid"`
	Quantity string `json:"quantity" binding:"required,decimal"`
}

// LinesRequest is the body of approve, issue and receive
type LinesRequest struct {
	Lines []LineRequest `json:"lines" binding:"dive"`
	Note  string        `json:"note" binding:"max=1000"`
}

// NoteRequest is the optional body of the bulk and cancel endpoints
type NoteRequest struct {
	Note string `json:"note" binding:"max=1000"`
}

// RejectRequest is the body of reject
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=1000"`
}

// ListTransfersQuery filters the list endpoint
type ListTransfersQuery struct {
	dto.ListRequest
	Status    string `form:"status"`
	StoreID   string `form:"store_id" binding:"omitempty,uuid"`
	Direction string `form:"direction" binding:"omitempty,oneof=request issue"`
}

// Create creates a draft request
// POST /api/v1/transfers
func (h *TransferHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	var req SaveTransferRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.service.CreateRequest(c.Request.Context(), tenantID, userID, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Update replaces the header and items of a draft
// PUT /api/v1/transfers/:id
func (h *TransferHandler) Update(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req SaveTransferRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.service.UpdateRequest(c.Request.Context(), tenantID, userID, id, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete removes a draft
// DELETE /api/v1/transfers/:id
func (h *TransferHandler) Delete(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteRequest(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Get returns a request with its items
// GET /api/v1/transfers/:id
func (h *TransferHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.service.GetRequest(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List lists requests of the caller's tenant
// GET /api/v1/transfers
func (h *TransferHandler) List(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	query := ListTransfersQuery{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.HandleValidation(c, err)
		return
	}

	filter := transferapp.ListFilter{
		Status:    query.Status,
		Direction: query.Direction,
		Page:      query.Page,
		PageSize:  query.PageSize,
		OrderBy:   query.OrderBy,
		OrderDir:  query.OrderDir,
	}
	if query.StoreID != "" {
		storeID := uuid.MustParse(query.StoreID)
		filter.StoreID = &storeID
	}

	items, total, err := h.service.ListRequests(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Submit sends a draft for approval
// POST /api/v1/transfers/:id/submit
func (h *TransferHandler) Submit(c *gin.Context) {
	h.transition(c, nil, func(ctx context.Context, tenantID, userID, id uuid.UUID) (*transferapp.RequestResponse, error) {
		return h.service.Submit(ctx, tenantID, userID, id)
	})
}

// Approve sets approved quantities; unlisted items are approved in full
// POST /api/v1/transfers/:id/approve
func (h *TransferHandler) Approve(c *gin.Context) {
	var req LinesRequest
	h.transition(c, &req, func(ctx context.Context, tenantID, userID, id uuid.UUID) (*transferapp.RequestResponse, error) {
		lines, err := toLines(req.Lines)
		if err != nil {
			return nil, err
		}
		return h.service.Approve(ctx, tenantID, userID, id, transferapp.ApproveInput{Lines: lines, Note: req.Note})
	})
}

// ApproveAll approves every pending item at its requested quantity
// POST /api/v1/transfers/:id/approve-all
func (h *TransferHandler) ApproveAll(c *gin.Context) {
	var req NoteRequest
	h.transition(c, &req, func(ctx context.Context, tenantID, userID, id uuid.UUID) (*transferapp.RequestResponse, error) {
		return h.service.ApproveAll(ctx, tenantID, userID, id, req.Note)
	})
}

// Reject closes a submitted request
// POST /api/v1/transfers/:id/reject
func (h *TransferHandler) Reject(c *gin.Context) {
	var req RejectRequest
	h.transition(c, &req, func(ctx context.Context, tenantID, userID, id uuid.UUID) (*transferapp.RequestResponse, error) {
		return h.service.Reject(ctx, tenantID, userID, id, req.Reason)
	})
}

// Cancel cancels a request without moving stock
// POST /api/v1/transfers/:id/cancel
func (h *TransferHandler) Cancel(c *gin.Context) {
	var req NoteRequest
	h.transition(c, &req, func(ctx context.Context, tenantID, userID, id uuid.UUID) (*transferapp.RequestResponse, error) {
		return h.service.Cancel(ctx, tenantID, userID, id, req.Note)
	})
}

// Issue moves stock out of the issuing store
// POST /api/v1/transfers/:id/issue
func (h *TransferHandler) Issue(c *gin.Context) {
	var req LinesRequest
	h.transition(c, &req, func(ctx context.Context, tenantID, userID, id uuid.UUID) (*transferapp.RequestResponse, error) {
		lines, err := toLines(req.Lines)
		if err != nil {
			return nil, err
		}
		return h.service.Issue(ctx, tenantID, userID, id, transferapp.IssueInput{Lines: lines, Note: req.Note})
	})
}

// IssueAll issues every approved remainder
// POST /api/v1/transfers/:id/issue-all
func (h *TransferHandler) IssueAll(c *gin.Context) {
	var req NoteRequest
	h.transition(c, &req, func(ctx context.Context, tenantID, userID, id uuid.UUID) (*transferapp.RequestResponse, error) {
		return h.service.IssueAll(ctx, tenantID, userID, id, req.Note)
	})
}

// Receive moves stock into the requesting store
// POST /api/v1/transfers/:id/receive
func (h *TransferHandler) Receive(c *gin.Context) {
	var req LinesRequest
	h.transition(c, &req, func(ctx context.Context, tenantID, userID, id uuid.UUID) (*transferapp.RequestResponse, error) {
		lines, err := toLines(req.Lines)
		if err != nil {
			return nil, err
		}
		return h.service.Receive(ctx, tenantID, userID, id, transferapp.ReceiveInput{Lines: lines, Note: req.Note})
	})
}

// ReceiveAll receives everything still in transit
// POST /api/v1/transfers/:id/receive-all
func (h *TransferHandler) ReceiveAll(c *gin.Context) {
	var req NoteRequest
	h.transition(c, &req, func(ctx context.Context, tenantID, userID, id uuid.UUID) (*transferapp.RequestResponse, error) {
		return h.service.ReceiveAll(ctx, tenantID, userID, id, req.Note)
	})
}

// CancelReceipt returns unreceived stock to the issuing store
// POST /api/v1/transfers/:id/cancel-receipt
func (h *TransferHandler) CancelReceipt(c *gin.Context) {
	var req NoteRequest
	h.transition(c, &req, func(ctx context.Context, tenantID, userID, id uuid.UUID) (*transferapp.RequestResponse, error) {
		return h.service.CancelReceipt(ctx, tenantID, userID, id, req.Note)
	})
}

// ItemLog lists quantity changes of a request, or of one item with ?item_id=
// GET /api/v1/transfers/:id/log
func (h *TransferHandler) ItemLog(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var itemID *uuid.UUID
	if raw := c.Query("item_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid item_id format")
			return
		}
		itemID = &parsed
	}

	entries, err := h.service.ListItemLog(c.Request.Context(), tenantID, id, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// Movements lists the stock ledger entries written for a request
// GET /api/v1/transfers/:id/movements
func (h *TransferHandler) Movements(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	entries, err := h.service.ListMovements(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

type transitionFunc func(ctx context.Context, tenantID, userID, id uuid.UUID) (*transferapp.RequestResponse, error)

// transition runs a status-changing call. body may be nil; an empty body
// is accepted for requests whose fields are all optional.
func (h *TransferHandler) transition(c *gin.Context, body any, call transitionFunc) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if body != nil && c.Request.ContentLength != 0 {
		if !h.bind(c, body) {
			return
		}
	} else if body != nil {
		if err := binding.Validator.ValidateStruct(body); err != nil {
			h.HandleValidation(c, err)
			return
		}
	}

	result, err := call(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (r SaveTransferRequest) toInput() (transferapp.CreateRequestInput, error) {
	rate, err := valueobject.ParseOptionalRate(r.ExchangeRate, decimal.Zero)
	if err != nil {
		return transferapp.CreateRequestInput{}, invalidField("exchange_rate", err)
	}
	in := transferapp.CreateRequestInput{
		RequestingStoreID: uuid.MustParse(r.RequestingStoreID),
		IssuingStoreID:    uuid.MustParse(r.IssuingStoreID),
		Direction:         r.Direction,
		Priority:          r.Priority,
		Currency:          r.Currency,
		ExchangeRate:      rate,
		Note:              r.Note,
		Items:             make([]transferapp.ItemInput, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		qty, err := valueobject.ParseQuantity(item.Quantity)
		if err != nil {
			return transferapp.CreateRequestInput{}, invalidField("quantity", err)
		}
		cost, err := valueobject.ParseOptionalRate(item.UnitCost, decimal.Zero)
		if err != nil {
			return transferapp.CreateRequestInput{}, invalidField("unit_cost", err)
		}
		in.Items = append(in.Items, transferapp.ItemInput{
			ProductID:    uuid.MustParse(item.ProductID),
			Quantity:     qty,
			UnitCost:     cost,
			BatchNumber:  item.BatchNumber,
			ExpiryDate:   item.ExpiryDate,
			SerialNumber: item.SerialNumber,
		})
	}
	return in, nil
}

func toLines(lines []LineRequest) ([]transferapp.LineQuantity, error) {
	out := make([]transferapp.LineQuantity, 0, len(lines))
	for _, l := range lines {
		qty, err := valueobject.ParseQuantity(l.Quantity)
		if err != nil {
			return nil, invalidField("quantity", err)
		}
		out = append(out, transferapp.LineQuantity{ItemID: uuid.MustParse(l.ItemID), Quantity: qty})
	}
	return out, nil
}

func invalidField(field string, err error) error {
	return shared.NewValidationError("%s: %s", field, err.Error()).WithDetail("field", field)
}
