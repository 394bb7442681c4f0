package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrInvalidCEP 邮编不是 8 位数字
	ErrInvalidCEP = errors.New("cep must have 8 digits")
	// ErrCEPNotFound 邮编不存在
	ErrCEPNotFound = errors.New("cep not found")
	// ErrLookupTransport 地址查询请求失败
	ErrLookupTransport = errors.New("address lookup failed")
)

const (
	defaultCEPBaseURL = "https://viacep.com.br/ws"
	defaultCEPTimeout = 5 * time.Second
)

// Address 地址查询结果
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// AddressLookup 地址查询接口
type AddressLookup interface {
	Lookup(ctx context.Context, cep string) (*Address, error)
}

// ViaCEPClient ViaCEP 兼容的地址查询客户端
type ViaCEPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewViaCEPClient 创建地址查询客户端
func NewViaCEPClient(baseURL string, timeout time.Duration) *ViaCEPClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultCEPBaseURL
	}
	if timeout <= 0 {
		timeout = defaultCEPTimeout
	}
	return &ViaCEPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type viaCEPResponse struct {
	CEP        string          `json:"cep"`
	Logradouro string          `json:"logradouro"`
	Bairro     string          `json:"bairro"`
	Localidade string          `json:"localidade"`
	UF         string          `json:"uf"`
	Erro       json.RawMessage `json:"erro"`
}

func (r viaCEPResponse) notFound() bool {
	flag := bytes.TrimSpace(r.Erro)
	if len(flag) == 0 {
		return false
	}
	switch string(flag) {
	case "false", "null", `"false"`:
		return false
	}
	return true
}

// Lookup 查询邮编对应地址，非数字字符会被去除
func (c *ViaCEPClient) Lookup(ctx context.Context, cep string) (*Address, error) {
	digits := StripCEP(cep)
	if len(digits) != 8 {
		return nil, ErrInvalidCEP
	}
	url := fmt.Sprintf("%s/%s/json/", c.baseURL, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrLookupTransport, resp.StatusCode)
	}

	var result viaCEPResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&result); decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupTransport, decodeErr)
	}
	if result.notFound() {
		return nil, ErrCEPNotFound
	}
	return &Address{
		CEP:          digits,
		Street:       result.Logradouro,
		Neighborhood: result.Bairro,
		City:         result.Localidade,
		State:        result.UF,
	}, nil
}
