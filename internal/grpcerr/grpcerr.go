// Package grpcerr turns use case errors into localized gRPC statuses.
package grpcerr

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fekuna/marketplace-catalog-service/internal/auth"
	"github.com/fekuna/marketplace-catalog-service/internal/i18n"
	"github.com/fekuna/marketplace-catalog-service/internal/imagestore"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

// From maps err to a status in the caller's language. Errors that already
// carry a status pass through.
func From(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	lang := auth.GetLanguage(ctx)

	var (
		invalid *matrix.ValidationError
		capErr  *matrix.CapacityError
		risk    *matrix.IntegrityRiskError
		corrupt *matrix.CorruptionError
	)
	switch {
	case errors.As(err, &invalid):
		return status.Error(codes.InvalidArgument, i18n.Translate(lang, "invalid_argument", map[string]any{"Reason": invalid.Error()}))
	case errors.As(err, &capErr):
		return status.Error(codes.ResourceExhausted, i18n.Translate(lang, "too_many_combinations", map[string]any{
			"Requested": capErr.Requested, "Limit": capErr.Limit,
		}))
	case errors.As(err, &risk):
		return status.Error(codes.FailedPrecondition, i18n.Translate(lang, "variants_referenced", map[string]any{
			"IDs": strings.Join(risk.VariantIDs, ", "),
		}))
	case errors.As(err, &corrupt):
		return status.Error(codes.DataLoss, i18n.Translate(lang, "data_corruption", map[string]any{"Reason": corrupt.Reason}))
	case errors.Is(err, matrix.ErrValidation):
		return status.Error(codes.InvalidArgument, i18n.Translate(lang, "invalid_argument", map[string]any{"Reason": err.Error()}))
	case errors.Is(err, matrix.ErrConflict):
		return status.Error(codes.Aborted, i18n.Translate(lang, "conflict_retry", nil))
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, i18n.Translate(lang, "not_found", map[string]any{"Entity": entity(err)}))
	case errors.Is(err, model.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, i18n.Translate(lang, "already_exists", map[string]any{"Entity": entity(err)}))
	case errors.Is(err, model.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, i18n.Translate(lang, "insufficient_stock", nil))
	case errors.Is(err, imagestore.ErrUpload):
		return status.Error(codes.Unavailable, i18n.Translate(lang, "upload_failed", nil))
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, i18n.Translate(lang, "internal_error", nil))
}

// Unauthenticated is returned when the gateway did not pass a seller.
func Unauthenticated(ctx context.Context) error {
	return status.Error(codes.Unauthenticated, i18n.Translate(auth.GetLanguage(ctx), "unauthenticated", nil))
}

func PermissionDenied(ctx context.Context) error {
	return status.Error(codes.PermissionDenied, i18n.Translate(auth.GetLanguage(ctx), "permission_denied", nil))
}

// entity names what was missing from the "<entity> <id>: not found" prefix
// the use cases wrap ErrNotFound with.
func entity(err error) string {
	msg := err.Error()
	for _, e := range []string{"product", "variant", "category", "image"} {
		if strings.HasPrefix(msg, e+" ") {
			return strings.ToUpper(e[:1]) + e[1:]
		}
	}
	return "Resource"
}
