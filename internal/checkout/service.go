package checkout

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pizzaria-cajazeiras/internal/cart"
	"github.com/pizzaria-cajazeiras/internal/constants"
	"github.com/pizzaria-cajazeiras/internal/logger"
	"github.com/pizzaria-cajazeiras/internal/models"
	"github.com/pizzaria-cajazeiras/internal/storage"
)

var (
	// ErrCartEmpty 购物车为空
	ErrCartEmpty = errors.New("cart is empty")
	// ErrSubmitInProgress 已有提交在进行中
	ErrSubmitInProgress = errors.New("checkout submit already in progress")
	// ErrOrderNotSaved 订单回执写入失败
	ErrOrderNotSaved = errors.New("order receipt could not be saved")
)

const defaultSubmitDelay = 2 * time.Second

// ValidationError 表单校验失败
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	return "checkout validation failed: " + strings.Join(keys, ", ")
}

// OrderAddress 配送地址
type OrderAddress struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	CEP          string `json:"cep"`
}

// Customer 下单人
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// OrderSnapshot 下单回执，保存在 lastOrder
type OrderSnapshot struct {
	OrderNo       string          `json:"order_no"`
	Items         []cart.LineItem `json:"items"`
	Total         models.Money    `json:"total"`
	Address       OrderAddress    `json:"address"`
	Customer      Customer        `json:"customer"`
	PaymentMethod string          `json:"payment_method"`
	PlacedAt      time.Time       `json:"placed_at"`
}

// Notifier 下单完成通知
type Notifier interface {
	OrderPlaced(ctx context.Context, clientID string, order OrderSnapshot) error
}

// Config 结账服务配置
type Config struct {
	ClientID    string
	SubmitDelay time.Duration
}

// Service 结账流程
type Service struct {
	cart        *cart.Store
	local       storage.Backend
	lookup      AddressLookup
	notifier    Notifier
	clientID    string
	submitDelay time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
	submitting  atomic.Bool
}

// NewService 创建结账服务
func NewService(cartStore *cart.Store, local storage.Backend, lookup AddressLookup, notifier Notifier, cfg Config) *Service {
	delay := cfg.SubmitDelay
	if delay <= 0 {
		delay = defaultSubmitDelay
	}
	return &Service{
		cart:        cartStore,
		local:       local,
		lookup:      lookup,
		notifier:    notifier,
		clientID:    cfg.ClientID,
		submitDelay: delay,
		sleep:       sleepContext,
		now:         time.Now,
	}
}

// ValidateStep 校验单个步骤
func (s *Service) ValidateStep(step string, form Form) (FieldErrors, error) {
	return ValidateStep(step, form.Normalize())
}

// LookupAddress 按邮编查询地址
func (s *Service) LookupAddress(ctx context.Context, cep string) (*Address, error) {
	if len(StripCEP(cep)) != 8 {
		return nil, ErrInvalidCEP
	}
	if s.lookup == nil {
		return nil, ErrLookupTransport
	}
	addr, err := s.lookup.Lookup(ctx, cep)
	if err != nil {
		logger.Warnw("checkout_cep_lookup_failed", "client_id", s.clientID, "cep", StripCEP(cep), "error", err)
		return nil, err
	}
	return addr, nil
}

// Submit 模拟提交订单：校验、等待、写入回执并清空购物车
func (s *Service) Submit(ctx context.Context, form Form) (*OrderSnapshot, error) {
	if !s.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmitInProgress
	}
	defer s.submitting.Store(false)

	snapshot := s.cart.Snapshot()
	if len(snapshot.Items) == 0 {
		return nil, ErrCartEmpty
	}
	form = form.Normalize()
	if errs := ValidateAll(form); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	if err := s.sleep(ctx, s.submitDelay); err != nil {
		return nil, err
	}
	// 回执取清空前的最新购物车（等待期间其他标签页可能已修改）
	snapshot = s.cart.Snapshot()
	if len(snapshot.Items) == 0 {
		return nil, ErrCartEmpty
	}

	order := &OrderSnapshot{
		OrderNo: generateOrderNo(s.now()),
		Items:   snapshot.Items,
		Total:   snapshot.Total,
		Address: OrderAddress{
			Street:       form.Address,
			Number:       form.Number,
			Complement:   form.Complement,
			Neighborhood: form.Neighborhood,
			CEP:          form.CEP,
		},
		Customer: Customer{
			Name:  form.Name,
			Phone: form.Phone,
			Email: form.Email,
		},
		PaymentMethod: form.PaymentMethod,
		PlacedAt:      s.now(),
	}
	raw, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderNotSaved, err)
	}
	if err := s.local.Set(ctx, constants.StorageKeyLastOrder, string(raw)); err != nil {
		logger.Errorw("checkout_last_order_write_failed", "client_id", s.clientID, "order_no", order.OrderNo, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrOrderNotSaved, err)
	}
	s.cart.ClearCart(ctx)

	logger.Infow("checkout_order_placed",
		"client_id", s.clientID,
		"order_no", order.OrderNo,
		"items", len(order.Items),
		"total", order.Total.String(),
		"payment_method", order.PaymentMethod,
	)
	if s.notifier != nil {
		if err := s.notifier.OrderPlaced(ctx, s.clientID, *order); err != nil {
			logger.Warnw("checkout_order_notify_failed", "client_id", s.clientID, "order_no", order.OrderNo, "error", err)
		}
	}
	return order, nil
}

// LastOrder 读取最近一次下单回执，不存在或损坏时返回 nil
func (s *Service) LastOrder(ctx context.Context) *OrderSnapshot {
	raw, found, err := s.local.Get(ctx, constants.StorageKeyLastOrder)
	if err != nil {
		logger.Warnw("checkout_last_order_read_failed", "client_id", s.clientID, "error", err)
		return nil
	}
	if !found || raw == "" {
		return nil
	}
	var order OrderSnapshot
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		logger.Warnw("checkout_last_order_corrupt", "client_id", s.clientID, "error", err)
		return nil
	}
	return &order
}

func generateOrderNo(now time.Time) string {
	return fmt.Sprintf("PZ%s%s", now.Format("20060102150405"), randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(n.String())
	}
	return b.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
