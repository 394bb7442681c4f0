package public

import (
	"strings"

	"github.com/pizzaria-cajazeiras/internal/cart"
	"github.com/pizzaria-cajazeiras/internal/catalog"
	handlershared "github.com/pizzaria-cajazeiras/internal/http/handlers/shared"
	"github.com/pizzaria-cajazeiras/internal/http/response"
	"github.com/pizzaria-cajazeiras/internal/models"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	ID   models.ItemID `json:"id" binding:"required"`
	Size string        `json:"size"`
}

// UpdateCartItemRequest 修改数量请求，quantity <= 0 视为删除
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CartView 购物车响应
type CartView struct {
	Items []cart.LineItem `json:"items"`
	Total models.Money    `json:"total"`
	Count int             `json:"count"`
}

func buildCartView(snapshot cart.Cart) CartView {
	items := snapshot.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return CartView{Items: items, Total: snapshot.Total, Count: snapshot.Count()}
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	response.Success(c, buildCartView(sess.Cart.Snapshot()))
}

// AddCartItem 按菜单 id 与尺寸加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	size, valid := catalog.NormalizeSize(req.Size)
	if !valid {
		respondError(c, response.CodeBadRequest, "error.size_invalid", nil)
		return
	}
	state := sess.Catalog.EnsureLoaded(c.Request.Context())
	pizza, found := catalog.Find(state.Pizzas, req.ID)
	if !found {
		respondError(c, response.CodeNotFound, "error.pizza_not_found", nil)
		return
	}
	snapshot := sess.Cart.AddItem(c.Request.Context(), catalog.Variant(pizza, size))
	response.Success(c, buildCartView(snapshot))
}

// UpdateCartItem 修改购物车项数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	key := strings.TrimSpace(c.Param("key"))
	if _, found := sess.Cart.Snapshot().Find(key); !found {
		respondError(c, response.CodeNotFound, "error.cart_item_not_found", nil)
		return
	}
	snapshot := sess.Cart.UpdateQuantity(c.Request.Context(), key, *req.Quantity)
	response.Success(c, buildCartView(snapshot))
}

// RemoveCartItem 删除购物车项（不存在时无操作）
func (h *Handler) RemoveCartItem(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	snapshot := sess.Cart.RemoveItem(c.Request.Context(), strings.TrimSpace(c.Param("key")))
	response.Success(c, buildCartView(snapshot))
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	response.Success(c, buildCartView(sess.Cart.ClearCart(c.Request.Context())))
}
