package handler

import "context"

type ContextKey string

var (
	RoleCtxKey   ContextKey = "role"
	SubCtxKey    ContextKey = "sub"
	MyInfoCtx    ContextKey = "myInfo"
	ActionCtxKey ContextKey = "action"
)

func contextWithAction(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ActionCtxKey, name)
}
