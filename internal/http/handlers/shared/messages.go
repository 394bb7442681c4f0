package shared

// 错误消息表（pt-BR），key 与日志事件一一对应
var messages = map[string]string{
	"error.bad_request":              "Requisição inválida",
	"error.internal":                 "Erro interno, tente novamente",
	"error.client_id_invalid":        "Identificador de cliente inválido",
	"error.pizza_not_found":          "Pizza não encontrada",
	"error.size_invalid":             "Tamanho inválido",
	"error.cart_item_not_found":      "Item não encontrado no carrinho",
	"error.quantity_invalid":         "Quantidade inválida",
	"error.cache_unavailable":        "Armazenamento indisponível",
	"error.cache_key_invalid":        "Chave de cache inválida",
	"error.checkout_step_invalid":    "Etapa inválida",
	"error.checkout_validation":      "Verifique os campos do formulário",
	"error.checkout_cart_empty":      "Seu carrinho está vazio",
	"error.checkout_in_progress":     "Pedido já está sendo enviado",
	"error.checkout_order_not_saved": "Não foi possível registrar o pedido",
	"error.checkout_cancelled":       "Envio do pedido cancelado",
	"error.checkout_failed":          "Erro ao enviar pedido",
	"error.cep_invalid":              "CEP inválido",
	"error.cep_not_found":            "CEP não encontrado",
	"error.cep_lookup_failed":        "Erro ao buscar CEP, preencha o endereço manualmente",
	"error.last_order_not_found":     "Nenhum pedido recente",
	"error.rate_limited":             "Muitas tentativas, aguarde %d segundos",
	"error.rate_limit_unavailable":   "Serviço temporariamente indisponível",
}

// Message 根据 key 查找消息，不存在时返回 key 本身
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}
