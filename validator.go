package formx

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Validator 是默认的验证器实例
var Validator = validator.New()

// SelfValidatable 是高性能验证接口。
// 如果提取出的结构体实现了此接口，将跳过反射验证。
type SelfValidatable interface {
	Validate(ctx context.Context) error
}

// Validate 对提取成功的表单值执行验证。
// 验证失败是业务层面的 400，与提取阶段的拒绝（FormRejection）分属两个阶段。
func Validate(ctx context.Context, v any, validators ...*validator.Validate) error {
	// 1. Fast Path: 接口验证 (优先)
	if val, ok := v.(SelfValidatable); ok {
		if err := val.Validate(ctx); err != nil {
			return &HttpError{
				HttpCode: http.StatusBadRequest,
				BizCode:  CodeValidation,
				Msg:      err.Error(),
			}
		}
		return nil
	}

	// 2. Slow Path: 反射验证
	var validate *validator.Validate
	if len(validators) == 0 || validators[0] == nil {
		validate = Validator
	} else {
		validate = validators[0]
	}

	if err := validate.Struct(v); err != nil {
		return &HttpError{
			HttpCode: http.StatusBadRequest,
			BizCode:  CodeValidation,
			Msg:      err.Error(),
		}
	}
	return nil
}
