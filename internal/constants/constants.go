package constants

// 存储键常量（与浏览器端存储布局保持一致）
const (
	StorageKeyCart         = "cart"
	StorageKeyLegacyPizzas = "pizzasCache"
	StorageKeyLastOrder    = "lastOrder"
	StorageProbeKey        = "__storage_test__"
)

// 缓存常量
const (
	CachePrefix            = "pizza_app_cache_"
	CacheVersion           = "1.0"
	CacheDefaultTTLMinutes = 60 * 24
	CacheKeyPizzas         = "pizzas"
)

// 存储类型常量
const (
	StorageTypeLocal   = "localStorage"
	StorageTypeSession = "sessionStorage"
)

// 持久化存储驱动常量
const (
	StorageDriverDatabase = "database"
	StorageDriverRedis    = "redis"
	StorageDriverMemory   = "memory"
)

// 披萨尺寸常量
const (
	SizeSmall  = "P"
	SizeMedium = "M"
	SizeLarge  = "G"
)

// 披萨分类常量
const (
	CategoryTraditional = "Tradicional"
	CategorySpecial     = "Especial"
	CategorySweet       = "Doce"
)

// 菜单筛选常量
const (
	CategoryFilterAll    = "all"
	CategoryFilterSavory = "salgadas"
	CategoryFilterSweet  = "doces"
)

// 菜单数据源常量
const (
	CatalogSourceStatic   = "static"
	CatalogSourceDatabase = "database"
)

// 支付方式常量
const (
	PaymentMethodCredit = "credit"
	PaymentMethodDebit  = "debit"
	PaymentMethodPix    = "pix"
	PaymentMethodMoney  = "money"
)

// 结账步骤常量
const (
	CheckoutStepPersonal = "personal"
	CheckoutStepAddress  = "address"
	CheckoutStepPayment  = "payment"
)

// 队列常量
const (
	QueueDefault    = "default"
	TaskOrderPlaced = "order:placed"
)

// 会话常量
const (
	DefaultClientID = "anonymous"
	DefaultTabID    = "default"
	HeaderClientID  = "X-Client-ID"
	HeaderTabID     = "X-Tab-ID"
)
