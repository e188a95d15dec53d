package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/customer"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/fulfillment"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/httpx"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/payment"
)

// codeConfirmFailed is reported for confirmation failures that carry no
// classification of their own.
const codeConfirmFailed = "CONFIRM_FAILED"

const maxWebhookBody = 64 << 10

// ProviderOrderRequest drives the provider side of an order.
// swagger:model ProviderOrderRequest
type ProviderOrderRequest struct {
	Action   string `json:"action"   example:"create"`
	OrderID  string `json:"orderId"  example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Provider string `json:"provider,omitempty" example:"cj"`
	Reason   string `json:"reason,omitempty"`
}

type IntentRequest struct {
	OrderID string `json:"orderId"`
}

type ConfirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId" example:"pi_3Nf..."`
	OrderID         string `json:"orderId"`
}

// createOrderHandler godoc
// @Summary      Create an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body      order.CreateOrderRequest  true  "checkout"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  httpx.ErrorBody
// @Failure      500   {object}  httpx.ErrorBody
// @Router       /orders [post]
func createOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid json: %v", err)
			return
		}
		o, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"order": o})
	}
}

// listOrdersHandler godoc
// @Summary      List orders, newest first
// @Tags         orders
// @Produce      json
// @Param        status          query  string  false  "order status"
// @Param        payment_status  query  string  false  "payment status"
// @Param        customer_id     query  string  false  "customer"
// @Param        date_from       query  string  false  "RFC3339 or YYYY-MM-DD"
// @Param        date_to         query  string  false  "RFC3339 or YYYY-MM-DD"
// @Param        limit           query  int     false  "page size"
// @Param        offset          query  int     false  "offset"
// @Success      200  {object}  order.ListResult
// @Failure      400  {object}  httpx.ErrorBody
// @Router       /orders [get]
func listOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := order.ParseFilter(c.Request.URL.Query())
		if err != nil {
			httpx.Error(c, err)
			return
		}
		res, err := svc.List(c.Request.Context(), f)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary  Get an order
// @Tags     orders
// @Produce  json
// @Param    id   path      string  true  "order id"
// @Success  200  {object}  map[string]interface{}
// @Failure  404  {object}  httpx.ErrorBody
// @Router   /orders/{id} [get]
func getOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": o})
	}
}

// updateOrderHandler godoc
// @Summary      Move an order's status and/or payment status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body      order.UpdateOrderRequest  true  "update"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  httpx.ErrorBody
// @Failure      404   {object}  httpx.ErrorBody
// @Failure      409   {object}  httpx.ErrorBody
// @Router       /orders [put]
func updateOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.UpdateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid json: %v", err)
			return
		}
		if strings.TrimSpace(req.OrderID) == "" {
			httpx.BadRequest(c, "orderId is required")
			return
		}
		var (
			st *order.Status
			ps *order.PaymentStatus
		)
		if req.Status != "" {
			st = order.Ptr(order.Status(strings.ToLower(string(req.Status))))
		}
		if req.PaymentStatus != "" {
			ps = order.Ptr(order.PaymentStatus(strings.ToLower(string(req.PaymentStatus))))
		}
		o, err := svc.Update(c.Request.Context(), req.OrderID, st, ps)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": o})
	}
}

// providerOrderHandler godoc
// @Summary      Create, refresh or cancel the provider order behind an order
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Param        body  body      ProviderOrderRequest  true  "action"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  httpx.ErrorBody
// @Failure      409   {object}  httpx.ErrorBody
// @Failure      502   {object}  httpx.ErrorBody
// @Router       /orders/cj-sync [post]
func providerOrderHandler(f *fulfillment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProviderOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid json: %v", err)
			return
		}
		if req.OrderID == "" {
			httpx.BadRequest(c, "orderId is required")
			return
		}
		ctx := c.Request.Context()
		switch strings.ToLower(req.Action) {
		case "create":
			link, err := f.CreateProviderOrder(ctx, req.OrderID, req.Provider)
			if err != nil {
				httpx.Error(c, err)
				return
			}
			c.JSON(http.StatusOK, link)
		case "sync":
			res, err := f.SyncOrderStatus(ctx, req.OrderID)
			if err != nil {
				httpx.Error(c, err)
				return
			}
			c.JSON(http.StatusOK, res)
		case "cancel":
			o, err := f.CancelProviderOrder(ctx, req.OrderID, req.Reason)
			if err != nil {
				httpx.Error(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"order": o})
		default:
			httpx.BadRequest(c, "action must be one of create, sync, cancel")
		}
	}
}

// createIntentHandler godoc
// @Summary      Open a payment intent for a pending order
// @Tags         payment
// @Accept       json
// @Produce      json
// @Param        body  body      IntentRequest  true  "order"
// @Success      201   {object}  payment.IntentResult
// @Failure      400   {object}  httpx.ErrorBody
// @Failure      409   {object}  httpx.ErrorBody
// @Router       /payment/intent [post]
func createIntentHandler(cf *payment.Confirmer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid json: %v", err)
			return
		}
		res, err := cf.CreateIntent(c.Request.Context(), req.OrderID)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

// confirmPaymentHandler godoc
// @Summary      Confirm an order's payment against the gateway
// @Tags         payment
// @Accept       json
// @Produce      json
// @Param        body  body      ConfirmRequest  true  "intent"
// @Success      200   {object}  payment.Result
// @Failure      400   {object}  httpx.ErrorBody
// @Failure      404   {object}  httpx.ErrorBody
// @Failure      409   {object}  httpx.ErrorBody
// @Failure      502   {object}  httpx.ErrorBody
// @Failure      504   {object}  httpx.ErrorBody
// @Router       /payment/confirm [post]
func confirmPaymentHandler(cf *payment.Confirmer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid json: %v", err)
			return
		}
		res, err := cf.Confirm(c.Request.Context(), req.PaymentIntentID, req.OrderID)
		if err != nil {
			if _, ok := apperr.As(err); !ok {
				rid, _ := c.Get("rid")
				log.Printf("[payment] rid=%v confirm %s: %v", rid, req.OrderID, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, httpx.ErrorBody{Error: httpx.ErrorDetail{
					Code:    codeConfirmFailed,
					Message: "payment confirmation failed",
				}})
				return
			}
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary  Stripe webhook
// @Tags     payment
// @Accept   json
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Failure  400  {object}  httpx.ErrorBody
// @Router   /payment/webhook [post]
func webhookHandler(wh *payment.Webhook) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			httpx.BadRequest(c, "read body: %v", err)
			return
		}
		handled, err := wh.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			// An order we cannot find will not appear on retry either.
			if errors.Is(err, apperr.ErrNotFound) {
				log.Printf("[payment] webhook for unknown order acknowledged: %v", err)
				c.JSON(http.StatusOK, gin.H{"received": true, "handled": false})
				return
			}
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true, "handled": handled})
	}
}

// providerWebhookHandler godoc
// @Summary      Provider order events
// @Description  Signed order pushes (created, shipped, delivered, cancelled, updated) from a dropshipping provider. The body is signed with HMAC-SHA256 in the provider's signature header.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        provider  path      string  true  "cj, zendrop or appscenic"
// @Success      200       {object}  map[string]interface{}
// @Failure      400       {object}  httpx.ErrorBody
// @Failure      409       {object}  httpx.ErrorBody
// @Router       /webhooks/{provider} [post]
func providerWebhookHandler(pushes *fulfillment.Pushes) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("provider")
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			httpx.BadRequest(c, "read body: %v", err)
			return
		}
		res, err := pushes.Handle(c.Request.Context(), name, payload, c.GetHeader(fulfillment.SignatureHeader(name)))
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				log.Printf("[fulfillment] %s webhook for unknown order acknowledged: %v", name, err)
				c.JSON(http.StatusOK, gin.H{"received": true, "handled": false})
				return
			}
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true, "handled": res.Handled, "result": res})
	}
}

// @Summary  Create a customer
// @Tags     customers
// @Accept   json
// @Produce  json
// @Param    body  body      customer.CreateRequest  true  "customer"
// @Success  201   {object}  map[string]interface{}
// @Failure  400   {object}  httpx.ErrorBody
// @Failure  409   {object}  httpx.ErrorBody
// @Router   /customers [post]
func createCustomerHandler(svc *customer.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req customer.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid json: %v", err)
			return
		}
		cu, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"customer": cu})
	}
}

func getCustomerHandler(svc *customer.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cu, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"customer": cu})
	}
}

func findCustomerHandler(svc *customer.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cu, err := svc.GetByEmail(c.Request.Context(), c.Query("email"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"customer": cu})
	}
}
