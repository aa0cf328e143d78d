package httpadapter

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const corsAllowMethods = "GET,POST,OPTIONS"
const corsAllowHeaders = "Content-Type"

// corsPolicy answers browser preflights for the render dashboard. An empty
// origin list allows any origin.
type corsPolicy struct {
	origins []string
}

func (p corsPolicy) allowOrigin(origin string) string {
	if len(p.origins) == 0 {
		return "*"
	}
	for _, o := range p.origins {
		if strings.EqualFold(o, origin) {
			return o
		}
	}
	return ""
}

func (p corsPolicy) apply(ctx *app.RequestContext) {
	allowed := p.allowOrigin(string(ctx.GetHeader("Origin")))
	if allowed == "" {
		return
	}
	ctx.Response.Header.Set("Access-Control-Allow-Origin", allowed)
	if allowed != "*" {
		ctx.Response.Header.Set("Vary", "Origin")
	}
	ctx.Response.Header.Set("Access-Control-Allow-Methods", corsAllowMethods)
	ctx.Response.Header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	ctx.Response.Header.Set("Access-Control-Max-Age", "600")
}

func (p corsPolicy) middleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		p.apply(ctx)
		if string(ctx.Method()) == consts.MethodOptions {
			ctx.AbortWithStatus(consts.StatusNoContent)
			return
		}
		ctx.Next(c)
	}
}
