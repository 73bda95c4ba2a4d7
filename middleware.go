package formx

import (
	"context"
	"fmt"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/rs/xid"
)

// Middleware 标准中间件定义
type Middleware func(http.Handler) http.Handler

// Chain 组合多个中间件
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Recovery 捕获 Panic 防止服务崩溃。
// 提取器本身从不 panic，这里兜底的是业务逻辑。
func Recovery(panicHook func(ctx context.Context, err error)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic: %v", rec)
					if panicHook != nil {
						panicHook(r.Context(), err)
					}
					Error(w, r, &HttpError{
						HttpCode: http.StatusInternalServerError,
						BizCode:  "PANIC",
						Msg:      err.Error(),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LogFunc 定义日志回调签名
type LogFunc func(r *http.Request, metrics httpsnoop.Metrics)

// Logger 使用 httpsnoop 包装 ResponseWriter，采集状态码、字节数和耗时。
func Logger(logFunc LogFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// httpsnoop 会自动检测 w 是否支持 Flusher/Hijacker 并自动包装
			m := httpsnoop.CaptureMetrics(next, w, r)

			if logFunc != nil {
				logFunc(r, m)
			}
		})
	}
}

// --- Request ID ---

type requestIDKey struct{}

// RequestID 为每个请求分配一个 xid，注入 Context 并回写 X-Request-ID 头。
// 客户端已携带 X-Request-ID 时沿用客户端的值。
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = xid.New().String()
		}
		w.Header().Set("X-Request-ID", id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID 从 Context 中取出当前请求的 ID，没有则返回空串。
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
