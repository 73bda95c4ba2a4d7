package formx

// Response 是默认的统一响应信封。
type Response[T any] struct {
	// Code 是业务错误码 (字符串)，例如 "OK", "BAD_REQUEST"。
	// 它与 HTTP Status Code 分离，由前端用于展示具体的错误文案。
	Code      string `json:"code"`
	Message   string `json:"message"`
	Data      T      `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
