package shopcontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey string

const (
	shopIDKey    contextKey = "shop_id"
	actorTypeKey contextKey = "actor_type"
	actorIDKey   contextKey = "actor_id"
)

// WithShopID stores the tenant shop ID for downstream services.
func WithShopID(ctx context.Context, shopID snowflake.ID) context.Context {
	if shopID == 0 {
		return ctx
	}
	return context.WithValue(ctx, shopIDKey, shopID)
}

func ShopIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	shopID, ok := ctx.Value(shopIDKey).(snowflake.ID)
	if !ok || shopID == 0 {
		return 0, false
	}
	return shopID, true
}

func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	if actorType != "" {
		ctx = context.WithValue(ctx, actorTypeKey, actorType)
	}
	if actorID != "" {
		ctx = context.WithValue(ctx, actorIDKey, actorID)
	}
	return ctx
}

func ActorFromContext(ctx context.Context) (string, string) {
	actorType, _ := ctx.Value(actorTypeKey).(string)
	actorID, _ := ctx.Value(actorIDKey).(string)
	return actorType, actorID
}
