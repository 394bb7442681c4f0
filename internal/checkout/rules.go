package checkout

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pizzaria-cajazeiras/internal/constants"
)

// ErrUnknownStep 未知的结账步骤
var ErrUnknownStep = errors.New("unknown checkout step")

var (
	phonePattern = regexp.MustCompile(`^\(\d{2}\) \d{5}-\d{4}$`)
	cepPattern   = regexp.MustCompile(`^\d{8}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// Form 结账表单（字段名与前端表单保持一致）
type Form struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	CEP           string `json:"user_cep"`
	Address       string `json:"user_address"`
	Number        string `json:"user_number"`
	Complement    string `json:"user_complement"`
	Neighborhood  string `json:"user_neighborhood"`
	PaymentMethod string `json:"paymentMethod"`
}

// 表单字段名
const (
	FieldName          = "name"
	FieldPhone         = "phone"
	FieldEmail         = "email"
	FieldCEP           = "user_cep"
	FieldAddress       = "user_address"
	FieldNumber        = "user_number"
	FieldComplement    = "user_complement"
	FieldNeighborhood  = "user_neighborhood"
	FieldPaymentMethod = "paymentMethod"
)

func (f Form) value(field string) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldPhone:
		return f.Phone
	case FieldEmail:
		return f.Email
	case FieldCEP:
		return f.CEP
	case FieldAddress:
		return f.Address
	case FieldNumber:
		return f.Number
	case FieldComplement:
		return f.Complement
	case FieldNeighborhood:
		return f.Neighborhood
	case FieldPaymentMethod:
		return f.PaymentMethod
	}
	return ""
}

// Normalize 去除首尾空白并格式化电话
func (f Form) Normalize() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = FormatPhone(strings.TrimSpace(f.Phone))
	f.Email = strings.TrimSpace(f.Email)
	f.CEP = strings.TrimSpace(f.CEP)
	f.Address = strings.TrimSpace(f.Address)
	f.Number = strings.TrimSpace(f.Number)
	f.Complement = strings.TrimSpace(f.Complement)
	f.Neighborhood = strings.TrimSpace(f.Neighborhood)
	f.PaymentMethod = strings.TrimSpace(f.PaymentMethod)
	return f
}

// Rule 单个字段的校验规则
type Rule struct {
	Field     string
	Required  bool
	MinLength int
	Pattern   *regexp.Regexp
	Email     bool
	OneOf     []string
	// Prepare 在格式校验前转换取值
	Prepare func(string) string

	RequiredMessage  string
	MinLengthMessage string
	PatternMessage   string
	EmailMessage     string
	OneOfMessage     string
}

// Rules 各步骤的声明式校验规则
var Rules = map[string][]Rule{
	constants.CheckoutStepPersonal: {
		{
			Field: FieldName, Required: true, MinLength: 3,
			RequiredMessage: "Nome é obrigatório", MinLengthMessage: "Nome muito curto",
		},
		{
			Field: FieldPhone, Required: true, Pattern: phonePattern,
			RequiredMessage: "Telefone é obrigatório", PatternMessage: "Formato: (99) 99999-9999",
		},
		{
			Field: FieldEmail, Email: true,
			EmailMessage: "Email inválido",
		},
	},
	constants.CheckoutStepAddress: {
		{
			Field: FieldAddress, Required: true, MinLength: 5,
			RequiredMessage: "Endereço é obrigatório", MinLengthMessage: "Endereço muito curto",
		},
		{
			Field: FieldNumber, Required: true,
			RequiredMessage: "Número é obrigatório",
		},
		{
			Field: FieldNeighborhood, Required: true,
			RequiredMessage: "Bairro é obrigatório",
		},
		{
			Field: FieldComplement,
		},
		{
			Field: FieldCEP, Pattern: cepPattern, Prepare: StripCEP,
			PatternMessage: "CEP inválido",
		},
	},
	constants.CheckoutStepPayment: {
		{
			Field: FieldPaymentMethod, Required: true,
			OneOf: []string{
				constants.PaymentMethodCredit,
				constants.PaymentMethodDebit,
				constants.PaymentMethodPix,
				constants.PaymentMethodMoney,
			},
			RequiredMessage: "Selecione uma forma de pagamento", OneOfMessage: "Forma de pagamento inválida",
		},
	},
}

// Steps 结账步骤顺序
var Steps = []string{
	constants.CheckoutStepPersonal,
	constants.CheckoutStepAddress,
	constants.CheckoutStepPayment,
}

// FieldErrors 字段 -> 错误信息
type FieldErrors map[string]string

// ValidateStep 校验单个步骤
func ValidateStep(step string, form Form) (FieldErrors, error) {
	rules, ok := Rules[step]
	if !ok {
		return nil, ErrUnknownStep
	}
	errs := FieldErrors{}
	for _, rule := range rules {
		if msg := rule.check(form.value(rule.Field)); msg != "" {
			errs[rule.Field] = msg
		}
	}
	return errs, nil
}

// ValidateAll 按顺序校验全部步骤
func ValidateAll(form Form) FieldErrors {
	errs := FieldErrors{}
	for _, step := range Steps {
		stepErrs, _ := ValidateStep(step, form)
		for field, msg := range stepErrs {
			errs[field] = msg
		}
	}
	return errs
}

func (r Rule) check(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		if r.Required {
			return r.RequiredMessage
		}
		return ""
	}
	if r.MinLength > 0 && utf8.RuneCountInString(value) < r.MinLength {
		return r.MinLengthMessage
	}
	if r.Prepare != nil {
		value = r.Prepare(value)
	}
	if r.Pattern != nil && !r.Pattern.MatchString(value) {
		return r.PatternMessage
	}
	if r.Email && !validEmail(value) {
		return r.EmailMessage
	}
	if len(r.OneOf) > 0 && !contains(r.OneOf, value) {
		return r.OneOfMessage
	}
	return ""
}

func validEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}
	return addr.Address == value && strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".")
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// FormatPhone 11 位数字格式化为 (99) 99999-9999，其他输入原样返回
func FormatPhone(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) != 11 {
		return raw
	}
	return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
}

// StripCEP 去除邮编中的非数字字符
func StripCEP(raw string) string {
	return nonDigits.ReplaceAllString(raw, "")
}
