package interceptors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
)

// NewValidationInterceptor validates request messages against their `validate`
// struct tags before the handler runs.
func NewValidationInterceptor(v *validator.Validate) connect.UnaryInterceptorFunc {
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if err := v.StructCtx(ctx, req.Any()); err != nil {
				var invalid *validator.InvalidValidationError
				if errors.As(err, &invalid) {
					// Not a struct; nothing to validate.
					return next(ctx, req)
				}
				return nil, connect.NewError(connect.CodeInvalidArgument, formatValidationError(err))
			}
			return next(ctx, req)
		}
	}
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}
