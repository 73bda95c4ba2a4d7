package formx

import (
	"net/http"

	"github.com/gorilla/schema"
)

// SchemaDecoder 是默认的表单解码器。
// gorilla/schema 内部已有字段缓存机制，性能良好；
// 同名键的多次出现会按顺序聚合进 slice 字段，不会互相覆盖。
var SchemaDecoder = newSchemaDecoder(true)

// strictSchemaDecoder 在 WithDisallowUnknownKeys 开启时使用，
// 未声明的键会以 UnknownKeyError 的形式进入拒绝消息。
var strictSchemaDecoder = newSchemaDecoder(false)

func newSchemaDecoder(ignoreUnknown bool) *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("form") // 优先读取 form tag
	d.IgnoreUnknownKeys(ignoreUnknown)
	return d
}

// Form 包装一次成功提取的表单值。
// 只会作为提取成功的结果被构造，构造后不再变更。
type Form[T any] struct {
	Value T
}

// FromRequest 把 x-www-form-urlencoded 请求体提取为类型化的值。
//
// 流程：提取原始字节 -> 解码为有序键值对 -> 结构化反序列化为 T。
// 任何一步失败都立即返回 *FormRejection，不重试、不 panic：
//   - 原始字节阶段失败 -> RejectionRawBody，状态码由底层错误决定
//   - 解码/反序列化失败 -> RejectionDeserialize，恒为 400，
//     消息带字段路径（"a: invalid syntax"、"items[2].name: ..."）
//
// 重复键按出现顺序完整保留，目标字段声明为 slice 时依次聚合。
func FromRequest[T any](r *http.Request, opts ...Option) (Form[T], error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return fromRequestConfigured[T](r, cfg)
}

// fromRequestConfigured 与 FromRequest 相同，但复用已构建好的 config。
func fromRequestConfigured[T any](r *http.Request, cfg *config) (Form[T], error) {
	var form Form[T]

	raw, err := ExtractRawForm(r)
	if err != nil {
		return form, NewRawBodyRejection(err)
	}

	pairs, err := ParsePairs(raw)
	if err != nil {
		// 百分号解码失败属于解码阶段，错误里已带上出错的键
		return form, NewDeserializeRejection(err)
	}

	if err := decodePairs(&form.Value, pairs, cfg.disallowUnknownKeys); err != nil {
		return form, NewDeserializeRejection(err)
	}

	return form, nil
}

// decodePairs 把有序键值对喂给结构化解码器。
func decodePairs(v any, pairs Pairs, strict bool) error {
	decoder := SchemaDecoder
	if strict {
		decoder = strictSchemaDecoder
	}
	return decoder.Decode(v, pairs.Values())
}
