package formx

import (
	"context"

	"github.com/go-playground/validator/v10"
)

type config struct {
	noEnvelope          bool
	disallowUnknownKeys bool
	validator           *validator.Validate
	errorHook           func(ctx context.Context, err error)
	rejectionHook       func(ctx context.Context, rejection *FormRejection)
	maxBodySize         int64
	noVarySearch        []string
	disableNoVarySearch bool
}

type Option func(*config)

// NoEnvelope 指示 Handler 不要使用标准的 {code, message, data} 信封
func NoEnvelope() Option {
	return func(c *config) {
		c.noEnvelope = true
	}
}

// WithDisallowUnknownKeys 开启严格模式：
// 表单里出现目标结构体未声明的键时，提取以反序列化拒绝失败（400）。
// 默认关闭，未知键被静默忽略。
func WithDisallowUnknownKeys() Option {
	return func(c *config) {
		c.disallowUnknownKeys = true
	}
}

// WithValidator 设置自定义的 Validator 实例
func WithValidator(v *validator.Validate) Option {
	return func(c *config) {
		c.validator = v
	}
}

// WithErrorHook 设置该 Handler 专属的错误处理 Hook
func WithErrorHook(hook func(ctx context.Context, err error)) Option {
	return func(c *config) {
		c.errorHook = hook
	}
}

// WithRejectionHook 设置该 Handler 专属的拒绝观测 Hook（覆盖包级 RejectionHook）。
// Hook 在拒绝响应写出前被调用，能看到类别、状态码和正文。
func WithRejectionHook(hook func(ctx context.Context, rejection *FormRejection)) Option {
	return func(c *config) {
		c.rejectionHook = hook
	}
}

// WithMaxBodySize 限制请求体 (Body) 的最大字节数。
// 超过限制时将返回 413 Request Entity Too Large。
// 这是一个硬限制，会切断连接，有效防止大请求体攻击。
func WithMaxBodySize(maxBytes int64) Option {
	return func(c *config) {
		c.maxBodySize = maxBytes
	}
}

// WithNoVarySearch 手动指定 No-Vary-Search 头部允许的参数列表。
// 如果不指定 (默认)，将自动使用 Req 结构体中声明的表单键作为 allowlist
// (No-Vary-Search: params, except=(...))。
// 如果传入空且未禁用，将生成 "No-Vary-Search: params" (忽略所有参数)。
func WithNoVarySearch(keys ...string) Option {
	return func(c *config) {
		c.noVarySearch = keys
		// 显式设置为空 slice (非 nil) 以区别于默认行为
		if c.noVarySearch == nil {
			c.noVarySearch = []string{}
		}
	}
}

// DisableNoVarySearch 禁用 No-Vary-Search 头部的自动生成。
func DisableNoVarySearch() Option {
	return func(c *config) {
		c.disableNoVarySearch = true
	}
}
