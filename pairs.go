package formx

import (
	"fmt"
	"net/url"
	"strings"
)

// Pair 是一个已解码的表单键值对。
type Pair struct {
	Key   string
	Value string
}

// Pairs 是按文档顺序排列的键值对序列。
// 与 url.Values 不同，Pairs 保留重复键的每一次出现及其先后顺序，
// 多选控件（multi-select、checkbox 组）产出的同名键不会被合并或覆盖。
type Pairs []Pair

// ParsePairs 把原始表单字节解码为有序键值对。
// 百分号解码委托给 net/url（'+' 按表单约定还原为空格）。
// 解码失败的错误会带上出错的键，供拒绝响应拼出字段路径。
func ParsePairs(raw []byte) (Pairs, error) {
	s := string(raw)
	if s == "" {
		return Pairs{}, nil
	}

	pairs := make(Pairs, 0, strings.Count(s, "&")+1)

	for s != "" {
		var segment string
		segment, s, _ = strings.Cut(s, "&")
		if segment == "" {
			continue // 容忍 "a=1&&b=2" 这类空段
		}

		rawKey, rawValue, _ := strings.Cut(segment, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}

		pairs = append(pairs, Pair{Key: key, Value: value})
	}

	return pairs, nil
}

// Values 把有序键值对折叠为 url.Values。
// 跨键的全局顺序在 map 中丢失，但同名键内部的先后顺序被完整保留，
// 这正是下游把重复键聚合为 slice 字段时唯一依赖的顺序。
func (ps Pairs) Values() url.Values {
	values := make(url.Values, len(ps))
	for _, p := range ps {
		values[p.Key] = append(values[p.Key], p.Value)
	}
	return values
}

// Encode 把键值对重新编码为 x-www-form-urlencoded 文本，保持原有顺序。
func (ps Pairs) Encode() string {
	var b strings.Builder
	for i, p := range ps {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// Get 返回键的首个值，不存在时返回空串。
func (ps Pairs) Get(key string) string {
	for _, p := range ps {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// GetAll 返回键的全部值，保持出现顺序。
func (ps Pairs) GetAll(key string) []string {
	var values []string
	for _, p := range ps {
		if p.Key == key {
			values = append(values, p.Value)
		}
	}
	return values
}
