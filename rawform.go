package formx

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// FormContentType 是表单请求要求的媒体类型。
const FormContentType = "application/x-www-form-urlencoded"

// RawForm 持有一段尚未解码的原始表单字节。
// 对 GET/HEAD 请求，它来自 URL 的 RawQuery；对其余方法，它来自 Request Body。
// 两种来源在后续解码路径上完全等价。
type RawForm []byte

// ExtractRawForm 从请求中提取原始表单字节。
//
// 提取本身可能失败（Body 超限、Content-Type 不符、读取中断），
// 这类失败属于“获取原始字节”阶段，状态码由错误自己决定：
//   - Content-Type 不是 x-www-form-urlencoded -> 415
//   - http.MaxBytesReader 触发限制 -> 413
//   - 其他读取错误 -> 400
//
// 没有 Body（nil 或 http.NoBody）不算失败，返回空字节，交给下游解码零个键值对。
func ExtractRawForm(r *http.Request) (RawForm, error) {
	// GET/HEAD 没有语义化的 Body，表单内容约定放在 Query String 里。
	// 这使得 GET /?a=1 与 POST body "a=1" 走完全相同的解码路径。
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return RawForm(r.URL.RawQuery), nil
	}

	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, FormContentType) {
		return nil, ErrUnsupportedMediaType
	}

	if r.Body == nil || r.Body == http.NoBody {
		return RawForm{}, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		// MaxBytesReader 的错误必须保留 413 语义，不能降级为普通读取失败
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, ErrRequestEntityTooLarge
		}
		return nil, &HttpError{
			HttpCode: http.StatusBadRequest,
			BizCode:  CodeBadRequest,
			Msg:      fmt.Sprintf("failed to read request body: %v", err),
		}
	}

	return RawForm(body), nil
}
