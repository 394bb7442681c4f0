package public

import (
	"errors"
	"strings"

	"github.com/pizzaria-cajazeiras/internal/checkout"
	handlershared "github.com/pizzaria-cajazeiras/internal/http/handlers/shared"
	"github.com/pizzaria-cajazeiras/internal/http/response"

	"github.com/gin-gonic/gin"
)

// StepValidationView 单步校验结果
type StepValidationView struct {
	Step   string               `json:"step"`
	Valid  bool                 `json:"valid"`
	Fields checkout.FieldErrors `json:"fields"`
}

// LookupCEP 按邮编查询地址，失败时返回字段级错误
func (h *Handler) LookupCEP(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	addr, err := sess.Checkout.LookupAddress(c.Request.Context(), c.Param("cep"))
	if err != nil {
		respondCEPLookupError(c, err)
		return
	}
	response.Success(c, addr)
}

// ValidateCheckoutStep 校验结账单个步骤
func (h *Handler) ValidateCheckoutStep(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	var form checkout.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	step := strings.TrimSpace(c.Param("step"))
	fields, err := sess.Checkout.ValidateStep(step, form)
	if err != nil {
		if errors.Is(err, checkout.ErrUnknownStep) {
			respondError(c, response.CodeBadRequest, "error.checkout_step_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, StepValidationView{Step: step, Valid: len(fields) == 0, Fields: fields})
}

// SubmitCheckout 提交订单
func (h *Handler) SubmitCheckout(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	var form checkout.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	order, err := sess.Checkout.Submit(c.Request.Context(), form)
	if err != nil {
		respondCheckoutSubmitError(c, err)
		return
	}
	response.Success(c, order)
}

// GetLastOrder 读取最近一次下单回执
func (h *Handler) GetLastOrder(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	order := sess.Checkout.LastOrder(c.Request.Context())
	if order == nil {
		respondError(c, response.CodeNotFound, "error.last_order_not_found", nil)
		return
	}
	response.Success(c, order)
}
