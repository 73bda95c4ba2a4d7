package formx

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/bytedance/sonic"
)

// DefaultMaxBodySize 默认的请求体上限 (2MB)
const DefaultMaxBodySize = 2 << 20

// HandlerFunc 定义业务处理函数签名。
// 坚持使用标准 context.Context，避免框架耦合：用户不必依赖我们，但有我们会更好。
type HandlerFunc[Req any, Res any] func(ctx context.Context, req *Req) (Res, error)

// NewHandler 把一个表单业务函数包装为 http.HandlerFunc。
// 流程：Body 限额 -> FromRequest 提取 -> Validate -> 业务逻辑 -> JSON 信封。
// 提取失败的拒绝按自己的格式写出（状态码委托 + 纯文本），其余错误走 Error 转换。
func NewHandler[Req any, Res any](fn HandlerFunc[Req, Res], opts ...Option) http.HandlerFunc {
	// 应用配置 (默认值)
	cfg := &config{
		errorHook:   ErrorHook,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	// 计算 No-Vary-Search 头 (一次性计算)
	nvHeader := buildNoVarySearch[Req](cfg)

	return func(w http.ResponseWriter, r *http.Request) {
		// GET 表单走 Query String，缓存需要知道哪些参数影响响应
		if nvHeader != "" {
			w.Header().Set("No-Vary-Search", nvHeader)
		}

		res, requestID, ok := prepare(w, r, cfg, fn)
		if !ok {
			return
		}

		// JSON 响应
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)

		var body any = res
		if !cfg.noEnvelope {
			// 使用标准信封包裹，并自动填充 RequestID
			body = &Response[Res]{
				Code:      CodeOK,
				Message:   "success",
				Data:      res,
				RequestID: requestID,
			}
		}

		if err := sonic.ConfigDefault.NewEncoder(w).Encode(body); err != nil && cfg.errorHook != nil {
			cfg.errorHook(r.Context(), err)
		}
	}
}

// 内部辅助函数，处理通用的请求准备工作
func prepare[Req any, Res any](w http.ResponseWriter, r *http.Request, cfg *config, fn HandlerFunc[Req, Res]) (res Res, requestID string, ok bool) {
	ctx := r.Context()

	// 1. 应用 Body 大小限制
	// http.MaxBytesReader 会包装 r.Body：读取超限时返回 *http.MaxBytesError，
	// 并标记连接应当关闭而非复用。ExtractRawForm 把这个错误映射为 413。
	if cfg.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.maxBodySize)
	}

	// 2. 提取 (Extraction)
	form, err := fromRequestConfigured[Req](r, cfg)
	if err != nil {
		var rejection *FormRejection
		if errors.As(err, &rejection) {
			if cfg.errorHook != nil {
				cfg.errorHook(ctx, err)
			}
			hook := cfg.rejectionHook
			if hook == nil {
				hook = RejectionHook
			}
			rejection.writeResponse(w, r, hook)
			return
		}
		Error(w, r, err, cfg.errorHook)
		return
	}

	// 3. 验证 (Validation)
	if err := Validate(ctx, &form.Value, cfg.validator); err != nil {
		Error(w, r, err, cfg.errorHook) // Validate 返回的已经是 HttpError (400)
		return
	}

	// 4. 业务逻辑 (Business Logic)
	res, err = fn(ctx, &form.Value)
	if err != nil {
		Error(w, r, err, cfg.errorHook)
		return
	}

	// 5. 成功路径: 自动在 Response Header 中注入 RequestID
	// 失败路径由 Error / writeResponse 内部处理
	requestID = GetRequestID(ctx)
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}

	return res, requestID, true
}

func buildNoVarySearch[Req any](cfg *config) string {
	if cfg.disableNoVarySearch {
		return ""
	}

	var keys []string
	if cfg.noVarySearch != nil {
		// 手动指定
		keys = cfg.noVarySearch
	} else {
		// 自动推断
		t := reflect.TypeOf((*Req)(nil))
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		// 只有 struct 才有元数据
		if t.Kind() == reflect.Struct {
			keys = getStructMeta(t).keys
		}
	}

	if len(keys) == 0 {
		return "key-order, params"
	}
	// 简单去重
	seen := make(map[string]struct{}, len(keys))
	unique := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			unique = append(unique, "\""+k+"\"")
		}
	}
	return "key-order, params, except=(" + strings.Join(unique, " ") + ")"
}
