package formx

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
)

// DeserializePrefix 是反序列化失败响应正文的固定前缀。
const DeserializePrefix = "Failed to deserialize form: "

// RejectionKind 标识拒绝值的失败类别。
type RejectionKind int

const (
	// RejectionRawBody 表示获取原始表单字节阶段的失败（Body 超限、Content-Type 不符等）。
	// 状态码完全委托给被包装错误自己的 HTTPStatus。
	RejectionRawBody RejectionKind = iota
	// RejectionDeserialize 表示解码/结构化反序列化阶段的失败。
	// 一律 400：输入形状或类型错误是客户端问题，不是服务端问题。
	RejectionDeserialize
)

func (k RejectionKind) String() string {
	switch k {
	case RejectionRawBody:
		return "raw_body"
	case RejectionDeserialize:
		return "deserialize"
	default:
		return "unknown"
	}
}

// RejectionHook 是拒绝响应写出前的观测回调（记录类别、状态码、正文）。
// 只做日志等副作用，不改变响应内容。可被 Handler Option 覆盖。
var RejectionHook func(ctx context.Context, rejection *FormRejection) = nil

// FormRejection 是表单提取的失败值。
// 它是一个封闭但可扩展的 tagged union：Kind 区分变体，cause 携带底层错误。
// 提取器的公开契约是返回值而非 panic——任何失败都以 *FormRejection 的形式
// 返回给调用方，由调用方（或 Error 转换器）渲染为 HTTP 响应。
type FormRejection struct {
	kind  RejectionKind
	cause error
}

// NewRawBodyRejection 包装获取原始字节阶段产生的错误。
func NewRawBodyRejection(err error) *FormRejection {
	return &FormRejection{kind: RejectionRawBody, cause: err}
}

// NewDeserializeRejection 包装解码/反序列化阶段产生的错误。
func NewDeserializeRejection(err error) *FormRejection {
	return &FormRejection{kind: RejectionDeserialize, cause: err}
}

// Kind 返回失败类别。
func (e *FormRejection) Kind() RejectionKind { return e.kind }

// Unwrap 暴露底层错误，支持 errors.Is / errors.As。
func (e *FormRejection) Unwrap() error { return e.cause }

func (e *FormRejection) Error() string { return e.BodyText() }

// Status 计算该拒绝对应的 HTTP 状态码。
// Raw-Body 变体委托给底层错误的 ErrorCoder 实现；反序列化失败恒为 400。
func (e *FormRejection) Status() int {
	switch e.kind {
	case RejectionRawBody:
		if coder, ok := e.cause.(ErrorCoder); ok {
			return coder.HTTPStatus()
		}
		// 底层错误没有声明状态码时按客户端错误处理
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

// HTTPStatus 实现 ErrorCoder，让拒绝值能直接进入通用的错误->响应转换。
func (e *FormRejection) HTTPStatus() int { return e.Status() }

// BodyText 计算响应正文。
// Raw-Body 变体沿用底层错误自己的文案；反序列化失败拼固定前缀加字段路径消息。
func (e *FormRejection) BodyText() string {
	switch e.kind {
	case RejectionRawBody:
		return e.cause.Error()
	default:
		return DeserializePrefix + formatDeserializeError(e.cause)
	}
}

// PublicMessage 实现 PublicError。
// 拒绝文案描述的是客户端自己的输入，SafeMode 下也可以原样返回。
func (e *FormRejection) PublicMessage() string { return e.BodyText() }

// WriteResponse 把拒绝渲染为 HTTP 响应（纯文本正文）。
// 写出前触发 RejectionHook——仅用于观测，响应内容不受其影响。
func (e *FormRejection) WriteResponse(w http.ResponseWriter, r *http.Request) {
	e.writeResponse(w, r, RejectionHook)
}

func (e *FormRejection) writeResponse(w http.ResponseWriter, r *http.Request, hook func(ctx context.Context, rejection *FormRejection)) {
	if hook != nil {
		hook(r.Context(), e)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(e.Status())
	_, _ = w.Write([]byte(e.BodyText()))
}

// --- 字段路径消息 (Path-Qualified Messages) ---

// formatDeserializeError 把 gorilla/schema 的错误渲染为“路径: 原因”形式。
// 多个字段同时失败时按路径排序、分号连接，保证消息可重现。
func formatDeserializeError(err error) string {
	var multi schema.MultiError
	if errors.As(err, &multi) {
		keys := make([]string, 0, len(multi))
		for k := range multi {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, formatFieldError(k, multi[k]))
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}

// formatFieldError 渲染单个字段的失败：字段路径 + 简短原因。
func formatFieldError(key string, err error) string {
	var conv schema.ConversionError
	if errors.As(err, &conv) {
		path := bracketPath(conv.Key)
		// 切片元素的下标在 Index 里，不在 Key 里
		if conv.Index >= 0 {
			path += "[" + strconv.Itoa(conv.Index) + "]"
		}
		return path + ": " + conversionCause(conv)
	}

	var unknown schema.UnknownKeyError
	if errors.As(err, &unknown) {
		return bracketPath(unknown.Key) + ": unknown field"
	}

	var empty schema.EmptyFieldError
	if errors.As(err, &empty) {
		return bracketPath(empty.Key) + ": empty required field"
	}

	return bracketPath(key) + ": " + err.Error()
}

// conversionCause 提取简短的失败原因。
// strconv 错误在这里还原为其内部文案 ("invalid syntax", "value out of range")，
// 避免把 `strconv.ParseInt: parsing "false": ...` 整串塞给客户端。
func conversionCause(conv schema.ConversionError) string {
	if conv.Err != nil {
		var numErr *strconv.NumError
		if errors.As(conv.Err, &numErr) {
			return numErr.Err.Error()
		}
		return conv.Err.Error()
	}
	if conv.Type != nil {
		return "invalid " + conv.Type.String()
	}
	return "invalid value"
}

// bracketPath 把 schema 的点分路径转成带下标的展示形式：
// "items.2.name" -> "items[2].name"。纯数字段视为数组下标。
func bracketPath(key string) string {
	segments := strings.Split(key, ".")
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 && isDigits(seg) {
			b.WriteByte('[')
			b.WriteString(seg)
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
