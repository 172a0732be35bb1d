package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

type contextKey string

const (
	sellerIDKey contextKey = "seller_id"
	userIDKey   contextKey = "user_id"
	roleKey     contextKey = "role"
	languageKey contextKey = "language"
)

// Metadata keys set by the gateway in front of this service.
const (
	MetadataSellerID = "x-seller-id"
	MetadataUserID   = "x-user-id"
	MetadataRole     = "x-user-role"
	MetadataLanguage = "accept-language"
)

type UserContext struct {
	SellerID string
	UserID   string
	Role     string
	Language string
}

// RoleAdmin may manage the shared product category tree.
const RoleAdmin = "admin"

func WithUser(ctx context.Context, u UserContext) context.Context {
	ctx = context.WithValue(ctx, sellerIDKey, u.SellerID)
	ctx = context.WithValue(ctx, userIDKey, u.UserID)
	ctx = context.WithValue(ctx, roleKey, u.Role)
	return context.WithValue(ctx, languageKey, u.Language)
}

// GetSellerID reads the seller populated by the context interceptor, falling
// back to raw metadata when the interceptor is not installed.
func GetSellerID(ctx context.Context) string {
	return lookup(ctx, sellerIDKey, MetadataSellerID)
}

func GetUserID(ctx context.Context) string {
	return lookup(ctx, userIDKey, MetadataUserID)
}

func IsAdmin(ctx context.Context) bool {
	return lookup(ctx, roleKey, MetadataRole) == RoleAdmin
}

func GetLanguage(ctx context.Context) string {
	if lang := lookup(ctx, languageKey, MetadataLanguage); lang != "" {
		return lang
	}
	return "en"
}

func lookup(ctx context.Context, key contextKey, mdKey string) string {
	if val, ok := ctx.Value(key).(string); ok && val != "" {
		return val
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if val := md.Get(mdKey); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}
