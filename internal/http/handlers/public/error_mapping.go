package public

import (
	"context"
	"errors"

	"github.com/pizzaria-cajazeiras/internal/checkout"
	handlershared "github.com/pizzaria-cajazeiras/internal/http/handlers/shared"
	"github.com/pizzaria-cajazeiras/internal/http/response"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var checkoutSubmitErrorRules = []mappedHandlerError{
	{target: checkout.ErrCartEmpty, code: response.CodeBadRequest, key: "error.checkout_cart_empty"},
	{target: checkout.ErrSubmitInProgress, code: response.CodeConflict, key: "error.checkout_in_progress"},
	{target: context.Canceled, code: response.CodeBadRequest, key: "error.checkout_cancelled"},
	{target: context.DeadlineExceeded, code: response.CodeBadRequest, key: "error.checkout_cancelled"},
}

// cepLookupErrorRule 邮编查询错误为字段级错误，不中断结账流程
type cepLookupErrorRule struct {
	target       error
	key          string
	manualAllows bool
}

var cepLookupErrorRules = []cepLookupErrorRule{
	{target: checkout.ErrInvalidCEP, key: "error.cep_invalid"},
	{target: checkout.ErrCEPNotFound, key: "error.cep_not_found"},
	{target: checkout.ErrLookupTransport, key: "error.cep_lookup_failed", manualAllows: true},
}

func respondCheckoutSubmitError(c *gin.Context, err error) {
	var validationErr *checkout.ValidationError
	if errors.As(err, &validationErr) {
		handlershared.RespondErrorWithData(c, response.CodeBadRequest, "error.checkout_validation", gin.H{
			"fields": validationErr.Fields,
		})
		return
	}
	if errors.Is(err, checkout.ErrOrderNotSaved) {
		respondError(c, response.CodeInternal, "error.checkout_order_not_saved", err)
		return
	}
	respondWithMappedError(c, err, checkoutSubmitErrorRules, response.CodeInternal, "error.checkout_failed")
}

func respondCEPLookupError(c *gin.Context, err error) {
	for _, rule := range cepLookupErrorRules {
		if errors.Is(err, rule.target) {
			handlershared.RespondErrorWithData(c, response.CodeBadRequest, rule.key, gin.H{
				"fields":               checkout.FieldErrors{checkout.FieldCEP: handlershared.Message(rule.key)},
				"manual_entry_allowed": rule.manualAllows,
			})
			return
		}
	}
	handlershared.RespondErrorWithData(c, response.CodeBadRequest, "error.cep_lookup_failed", gin.H{
		"fields":               checkout.FieldErrors{checkout.FieldCEP: handlershared.Message("error.cep_lookup_failed")},
		"manual_entry_allowed": true,
	})
}
