package public

import (
	"strings"

	"github.com/pizzaria-cajazeiras/internal/catalog"
	"github.com/pizzaria-cajazeiras/internal/constants"
	handlershared "github.com/pizzaria-cajazeiras/internal/http/handlers/shared"
	"github.com/pizzaria-cajazeiras/internal/http/response"
	"github.com/pizzaria-cajazeiras/internal/models"

	"github.com/gin-gonic/gin"
)

// CatalogView 菜单响应
type CatalogView struct {
	Status     catalog.Status  `json:"status"`
	Source     catalog.Origin  `json:"source"`
	Offline    bool            `json:"offline"`
	RetryCount int             `json:"retry_count"`
	Category   string          `json:"category"`
	Categories []string        `json:"categories"`
	Pizzas     []catalog.Pizza `json:"pizzas"`
	Total      int             `json:"total"`
}

// SizeOption 尺寸报价
type SizeOption struct {
	Size  string       `json:"size"`
	Price models.Money `json:"price"`
}

// PizzaDetailView 单个披萨详情
type PizzaDetailView struct {
	catalog.Pizza
	Sizes []SizeOption `json:"sizes"`
}

// ConnectivityRequest 网络状态切换请求
type ConnectivityRequest struct {
	Online *bool `json:"online" binding:"required"`
}

func buildCatalogView(state catalog.State, category string) CatalogView {
	category = strings.TrimSpace(category)
	if category == "" {
		category = constants.CategoryFilterAll
	}
	pizzas := catalog.Filter(state.Pizzas, category)
	return CatalogView{
		Status:     state.Status,
		Source:     state.Source,
		Offline:    state.Offline,
		RetryCount: state.RetryCount,
		Category:   category,
		Categories: catalog.Categories(state.Pizzas),
		Pizzas:     pizzas,
		Total:      len(pizzas),
	}
}

// GetCatalog 获取菜单（首次访问时触发加载）
func (h *Handler) GetCatalog(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	state := sess.Catalog.EnsureLoaded(c.Request.Context())
	response.Success(c, buildCatalogView(state, c.Query("category")))
}

// GetPizza 获取单个披萨及各尺寸价格
func (h *Handler) GetPizza(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	state := sess.Catalog.EnsureLoaded(c.Request.Context())
	pizza, found := catalog.Find(state.Pizzas, models.ItemID(strings.TrimSpace(c.Param("id"))))
	if !found {
		respondError(c, response.CodeNotFound, "error.pizza_not_found", nil)
		return
	}
	sizes := make([]SizeOption, 0, 3)
	for _, size := range []string{constants.SizeSmall, constants.SizeMedium, constants.SizeLarge} {
		sizes = append(sizes, SizeOption{Size: size, Price: catalog.PriceForSize(pizza.Price, size)})
	}
	response.Success(c, PizzaDetailView{Pizza: pizza, Sizes: sizes})
}

// RetryCatalog 清除缓存后重新加载主数据源
func (h *Handler) RetryCatalog(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	state := sess.Catalog.Retry(c.Request.Context())
	response.Success(c, buildCatalogView(state, c.Query("category")))
}

// SetConnectivity 切换在线/离线状态
func (h *Handler) SetConnectivity(c *gin.Context) {
	sess, ok := handlershared.GetSession(c)
	if !ok {
		return
	}
	var req ConnectivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	state := sess.Catalog.SetOnline(c.Request.Context(), *req.Online)
	response.Success(c, buildCatalogView(state, c.Query("category")))
}
