package grpcerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/fekuna/marketplace-catalog-service/internal/imagestore"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

func TestFrom(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		err  error
		code codes.Code
		msg  string
	}{
		{"validation", matrix.Invalid("attributes", "category %q has no attributes", "Size"), codes.InvalidArgument, `Invalid request: invalid attributes: category "Size" has no attributes`},
		{"capacity", &matrix.CapacityError{Requested: 2050, Limit: 2000}, codes.ResourceExhausted, "This change would create 2050 variants, the limit is 2000"},
		{"conflict", matrix.Conflict(errors.New("lock timeout")), codes.Aborted, "The product is being modified by another request, please retry"},
		{"integrity", fmt.Errorf("sync: %w", &matrix.IntegrityRiskError{VariantIDs: []string{"a", "b"}}), codes.FailedPrecondition, "Variants still used by orders or carts cannot be removed: a, b"},
		{"corruption", &matrix.CorruptionError{Reason: "duplicate attribute 4"}, codes.DataLoss, "Variant data for this product is inconsistent: duplicate attribute 4"},
		{"not found", fmt.Errorf("variant v1: %w", model.ErrNotFound), codes.NotFound, "Variant not found"},
		{"duplicate", fmt.Errorf("category Shoes: %w", model.ErrAlreadyExists), codes.AlreadyExists, "Category already exists"},
		{"image not found", fmt.Errorf("image i1: %w", model.ErrNotFound), codes.NotFound, "Image not found"},
		{"stock", model.ErrInsufficientStock, codes.FailedPrecondition, "Insufficient stock"},
		{"upload", fmt.Errorf("%w: status 502", imagestore.ErrUpload), codes.Unavailable, "Image upload failed"},
		{"store", matrix.StoreFailure(errors.New("disk full")), codes.Internal, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := status.Convert(From(ctx, tc.err))
			assert.Equal(t, tc.code, st.Code())
			assert.Equal(t, tc.msg, st.Message())
		})
	}

	assert.NoError(t, From(ctx, nil))
	passthrough := status.Error(codes.PermissionDenied, "nope")
	assert.Equal(t, passthrough, From(ctx, passthrough))
}

func TestFrom_Localized(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("accept-language", "id"))

	st := status.Convert(From(ctx, fmt.Errorf("product p1: %w", model.ErrNotFound)))
	assert.Equal(t, "Product tidak ditemukan", st.Message())

	st = status.Convert(Unauthenticated(ctx))
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, "Identitas penjual tidak ditemukan", st.Message())

	st = status.Convert(PermissionDenied(ctx))
	assert.Equal(t, codes.PermissionDenied, st.Code())
	assert.Equal(t, "Tindakan ini memerlukan administrator", st.Message())
}
