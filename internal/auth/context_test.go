package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"
)

func TestGetSellerID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetSellerID(ctx))
	assert.Equal(t, "en", GetLanguage(ctx))

	md := metadata.Pairs(MetadataSellerID, "s-md", MetadataLanguage, "id")
	ctx = metadata.NewIncomingContext(ctx, md)
	assert.Equal(t, "s-md", GetSellerID(ctx))
	assert.Equal(t, "id", GetLanguage(ctx))

	ctx = WithUser(ctx, UserContext{SellerID: "s-ctx", UserID: "u-1"})
	assert.Equal(t, "s-ctx", GetSellerID(ctx))
	assert.Equal(t, "u-1", GetUserID(ctx))
	// empty context value falls back to metadata
	assert.Equal(t, "id", GetLanguage(ctx))
}

func TestIsAdmin(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsAdmin(ctx))

	ctx = metadata.NewIncomingContext(ctx, metadata.Pairs(MetadataRole, "seller"))
	assert.False(t, IsAdmin(ctx))

	ctx = WithUser(ctx, UserContext{Role: RoleAdmin})
	assert.True(t, IsAdmin(ctx))
}
