package catalogv1

import (
	"context"

	"google.golang.org/grpc"
)

const VariantServiceName = "catalog.v1.VariantService"

type SyncVariantsRequest struct {
	ProductID    string `json:"product_id"`
	DeletePolicy string `json:"delete_policy,omitempty"`
	DryRun       bool   `json:"dry_run,omitempty"`
	InitialPrice string `json:"initial_price,omitempty"`
	InitialStock int32  `json:"initial_stock,omitempty"`
}

type ListVariantsRequest struct {
	ProductID       string `json:"product_id"`
	IncludeArchived bool   `json:"include_archived,omitempty"`
}

type ListVariantsResponse struct {
	Variants []*Variant `json:"variants"`
}

type GetVariantRequest struct {
	ID string `json:"id"`
}

type VariantResponse struct {
	Variant *Variant `json:"variant"`
}

type UpdateVariantRequest struct {
	ID          string  `json:"id"`
	Price       *string `json:"price,omitempty"`
	Stock       *int32  `json:"stock,omitempty"`
	RemoveImage bool    `json:"remove_image,omitempty"`
}

type BulkUpdateVariantsRequest struct {
	Variants []*UpdateVariantRequest `json:"variants"`
}

// SetVariantImageRequest carries the raw image; Data is base64 on the wire.
type SetVariantImageRequest struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

type VariantServiceServer interface {
	SyncVariants(context.Context, *SyncVariantsRequest) (*MatrixResponse, error)
	ListVariants(context.Context, *ListVariantsRequest) (*ListVariantsResponse, error)
	GetVariant(context.Context, *GetVariantRequest) (*VariantResponse, error)
	UpdateVariant(context.Context, *UpdateVariantRequest) (*VariantResponse, error)
	BulkUpdateVariants(context.Context, *BulkUpdateVariantsRequest) (*ListVariantsResponse, error)
	SetVariantImage(context.Context, *SetVariantImageRequest) (*VariantResponse, error)
}

var VariantService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: VariantServiceName,
	HandlerType: (*VariantServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(VariantServiceName, "SyncVariants", VariantServiceServer.SyncVariants),
		unary(VariantServiceName, "ListVariants", VariantServiceServer.ListVariants),
		unary(VariantServiceName, "GetVariant", VariantServiceServer.GetVariant),
		unary(VariantServiceName, "UpdateVariant", VariantServiceServer.UpdateVariant),
		unary(VariantServiceName, "BulkUpdateVariants", VariantServiceServer.BulkUpdateVariants),
		unary(VariantServiceName, "SetVariantImage", VariantServiceServer.SetVariantImage),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/variant.proto",
}

func RegisterVariantServiceServer(s grpc.ServiceRegistrar, srv VariantServiceServer) {
	s.RegisterService(&VariantService_ServiceDesc, srv)
}

type VariantServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewVariantServiceClient(cc grpc.ClientConnInterface) *VariantServiceClient {
	return &VariantServiceClient{cc: cc}
}

func (c *VariantServiceClient) SyncVariants(ctx context.Context, in *SyncVariantsRequest, opts ...grpc.CallOption) (*MatrixResponse, error) {
	return invoke[MatrixResponse](ctx, c.cc, VariantServiceName, "SyncVariants", in, opts)
}

func (c *VariantServiceClient) ListVariants(ctx context.Context, in *ListVariantsRequest, opts ...grpc.CallOption) (*ListVariantsResponse, error) {
	return invoke[ListVariantsResponse](ctx, c.cc, VariantServiceName, "ListVariants", in, opts)
}

func (c *VariantServiceClient) GetVariant(ctx context.Context, in *GetVariantRequest, opts ...grpc.CallOption) (*VariantResponse, error) {
	return invoke[VariantResponse](ctx, c.cc, VariantServiceName, "GetVariant", in, opts)
}

func (c *VariantServiceClient) UpdateVariant(ctx context.Context, in *UpdateVariantRequest, opts ...grpc.CallOption) (*VariantResponse, error) {
	return invoke[VariantResponse](ctx, c.cc, VariantServiceName, "UpdateVariant", in, opts)
}

func (c *VariantServiceClient) BulkUpdateVariants(ctx context.Context, in *BulkUpdateVariantsRequest, opts ...grpc.CallOption) (*ListVariantsResponse, error) {
	return invoke[ListVariantsResponse](ctx, c.cc, VariantServiceName, "BulkUpdateVariants", in, opts)
}

func (c *VariantServiceClient) SetVariantImage(ctx context.Context, in *SetVariantImageRequest, opts ...grpc.CallOption) (*VariantResponse, error) {
	return invoke[VariantResponse](ctx, c.cc, VariantServiceName, "SetVariantImage", in, opts)
}
