package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrItemIDInvalid 商品标识格式错误
var ErrItemIDInvalid = errors.New("item id must be a string or a number")

// ItemID 菜单商品标识
// 历史数据使用数字 id，应急数据使用字符串 id，两者统一按字符串处理
type ItemID string

// String 返回字符串形式
func (id ItemID) String() string {
	return string(id)
}

// IsZero 是否为空标识
func (id ItemID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// UnmarshalJSON 同时接受字符串与数字
func (id *ItemID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ItemID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return ErrItemIDInvalid
	}
	*id = ItemID(n.String())
	return nil
}
