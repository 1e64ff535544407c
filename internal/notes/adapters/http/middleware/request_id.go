// Package middleware содержит промежуточное ПО для HTTP обработчиков.
package middleware

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"notekeeper/pkg/logger"
)

// HeaderRequestID читается из запроса и повторяется в ответе.
const HeaderRequestID = "X-Request-ID"

// LocalsRequestContext ключ fiber.Locals с контекстом запроса.
const LocalsRequestContext = "requestContext"

// NewRequestIDMiddleware кладет идентификатор запроса в контекст и в заголовок ответа.
func NewRequestIDMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := logger.NewRequestIDContext(ctx.Context(), ctx.Get(HeaderRequestID))
		id, _ := logger.GetRequestID(requestCtx)

		ctx.Set(HeaderRequestID, id)
		ctx.Locals(LocalsRequestContext, requestCtx)

		return ctx.Next()
	}
}

// RequestContext возвращает контекст, сохраненный middleware request id,
// или контекст fiber, если его нет.
func RequestContext(ctx fiber.Ctx) context.Context {
	if requestCtx, ok := ctx.Locals(LocalsRequestContext).(context.Context); ok {
		return requestCtx
	}
	return ctx.Context()
}
