package catalogv1

import (
	"context"

	"google.golang.org/grpc"
)

const ProductCategoryServiceName = "catalog.v1.ProductCategoryService"

type CreateProductCategoryRequest struct {
	ParentID    string `json:"parent_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	SortOrder   int32  `json:"sort_order,omitempty"`
}

type GetProductCategoryRequest struct {
	ID string `json:"id"`
}

type ProductCategoryResponse struct {
	Category *ProductCategory `json:"category"`
}

// ListProductCategoriesRequest lists root categories unless ParentID is
// set. IncludeChildren returns whole subtrees and ignores paging.
type ListProductCategoriesRequest struct {
	ParentID        string `json:"parent_id,omitempty"`
	ActiveOnly      bool   `json:"active_only,omitempty"`
	IncludeChildren bool   `json:"include_children,omitempty"`
	Page            int32  `json:"page,omitempty"`
	PageSize        int32  `json:"page_size,omitempty"`
}

type ListProductCategoriesResponse struct {
	Categories []*ProductCategory `json:"categories"`
	Total      int32              `json:"total"`
}

// UpdateProductCategoryRequest changes only the fields that are set. An
// empty ParentID moves the category to the root.
type UpdateProductCategoryRequest struct {
	ID          string  `json:"id"`
	ParentID    *string `json:"parent_id,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	SortOrder   *int32  `json:"sort_order,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type DeleteProductCategoryRequest struct {
	ID string `json:"id"`
}

type ProductCategoryServiceServer interface {
	CreateProductCategory(context.Context, *CreateProductCategoryRequest) (*ProductCategoryResponse, error)
	GetProductCategory(context.Context, *GetProductCategoryRequest) (*ProductCategoryResponse, error)
	ListProductCategories(context.Context, *ListProductCategoriesRequest) (*ListProductCategoriesResponse, error)
	UpdateProductCategory(context.Context, *UpdateProductCategoryRequest) (*ProductCategoryResponse, error)
	DeleteProductCategory(context.Context, *DeleteProductCategoryRequest) (*Empty, error)
}

var ProductCategoryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ProductCategoryServiceName,
	HandlerType: (*ProductCategoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ProductCategoryServiceName, "CreateProductCategory", ProductCategoryServiceServer.CreateProductCategory),
		unary(ProductCategoryServiceName, "GetProductCategory", ProductCategoryServiceServer.GetProductCategory),
		unary(ProductCategoryServiceName, "ListProductCategories", ProductCategoryServiceServer.ListProductCategories),
		unary(ProductCategoryServiceName, "UpdateProductCategory", ProductCategoryServiceServer.UpdateProductCategory),
		unary(ProductCategoryServiceName, "DeleteProductCategory", ProductCategoryServiceServer.DeleteProductCategory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/product_category.proto",
}

func RegisterProductCategoryServiceServer(s grpc.ServiceRegistrar, srv ProductCategoryServiceServer) {
	s.RegisterService(&ProductCategoryService_ServiceDesc, srv)
}

type ProductCategoryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProductCategoryServiceClient(cc grpc.ClientConnInterface) *ProductCategoryServiceClient {
	return &ProductCategoryServiceClient{cc: cc}
}

func (c *ProductCategoryServiceClient) CreateProductCategory(ctx context.Context, in *CreateProductCategoryRequest, opts ...grpc.CallOption) (*ProductCategoryResponse, error) {
	return invoke[ProductCategoryResponse](ctx, c.cc, ProductCategoryServiceName, "CreateProductCategory", in, opts)
}

func (c *ProductCategoryServiceClient) GetProductCategory(ctx context.Context, in *GetProductCategoryRequest, opts ...grpc.CallOption) (*ProductCategoryResponse, error) {
	return invoke[ProductCategoryResponse](ctx, c.cc, ProductCategoryServiceName, "GetProductCategory", in, opts)
}

func (c *ProductCategoryServiceClient) ListProductCategories(ctx context.Context, in *ListProductCategoriesRequest, opts ...grpc.CallOption) (*ListProductCategoriesResponse, error) {
	return invoke[ListProductCategoriesResponse](ctx, c.cc, ProductCategoryServiceName, "ListProductCategories", in, opts)
}

func (c *ProductCategoryServiceClient) UpdateProductCategory(ctx context.Context, in *UpdateProductCategoryRequest, opts ...grpc.CallOption) (*ProductCategoryResponse, error) {
	return invoke[ProductCategoryResponse](ctx, c.cc, ProductCategoryServiceName, "UpdateProductCategory", in, opts)
}

func (c *ProductCategoryServiceClient) DeleteProductCategory(ctx context.Context, in *DeleteProductCategoryRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, ProductCategoryServiceName, "DeleteProductCategory", in, opts)
}
