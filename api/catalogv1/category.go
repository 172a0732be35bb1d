package catalogv1

import (
	"context"

	"google.golang.org/grpc"
)

const CategoryServiceName = "catalog.v1.CategoryService"

type CategorySpec struct {
	Name       string   `json:"name"`
	Attributes []string `json:"attributes"`
}

type DefineMatrixRequest struct {
	ProductID    string          `json:"product_id"`
	Categories   []*CategorySpec `json:"categories"`
	DeletePolicy string          `json:"delete_policy,omitempty"`
	DryRun       bool            `json:"dry_run,omitempty"`
}

type AddCategoryRequest struct {
	ProductID    string        `json:"product_id"`
	Category     *CategorySpec `json:"category"`
	DeletePolicy string        `json:"delete_policy,omitempty"`
	DryRun       bool          `json:"dry_run,omitempty"`
}

// AttributeEdit renames attribute ID, or adds Value when ID is zero.
type AttributeEdit struct {
	ID    int64  `json:"id,omitempty"`
	Value string `json:"value"`
}

// UpdateCategoryRequest leaves attributes alone when the field is absent.
// A present list replaces them: values left out are removed.
type UpdateCategoryRequest struct {
	ProductID    string           `json:"product_id"`
	CategoryID   int64            `json:"category_id"`
	Name         *string          `json:"name,omitempty"`
	SortOrder    *int32           `json:"sort_order,omitempty"`
	Attributes   []*AttributeEdit `json:"attributes"`
	DeletePolicy string           `json:"delete_policy,omitempty"`
	DryRun       bool             `json:"dry_run,omitempty"`
}

type DeleteCategoryRequest struct {
	ProductID    string `json:"product_id"`
	CategoryID   int64  `json:"category_id"`
	DeletePolicy string `json:"delete_policy,omitempty"`
	DryRun       bool   `json:"dry_run,omitempty"`
}

type ListCategoriesRequest struct {
	ProductID string `json:"product_id"`
}

type ListCategoriesResponse struct {
	Categories []*Category `json:"categories"`
}

type CategoryServiceServer interface {
	DefineMatrix(context.Context, *DefineMatrixRequest) (*MatrixResponse, error)
	AddCategory(context.Context, *AddCategoryRequest) (*MatrixResponse, error)
	UpdateCategory(context.Context, *UpdateCategoryRequest) (*MatrixResponse, error)
	DeleteCategory(context.Context, *DeleteCategoryRequest) (*MatrixResponse, error)
	ListCategories(context.Context, *ListCategoriesRequest) (*ListCategoriesResponse, error)
}

var CategoryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: CategoryServiceName,
	HandlerType: (*CategoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(CategoryServiceName, "DefineMatrix", CategoryServiceServer.DefineMatrix),
		unary(CategoryServiceName, "AddCategory", CategoryServiceServer.AddCategory),
		unary(CategoryServiceName, "UpdateCategory", CategoryServiceServer.UpdateCategory),
		unary(CategoryServiceName, "DeleteCategory", CategoryServiceServer.DeleteCategory),
		unary(CategoryServiceName, "ListCategories", CategoryServiceServer.ListCategories),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/category.proto",
}

func RegisterCategoryServiceServer(s grpc.ServiceRegistrar, srv CategoryServiceServer) {
	s.RegisterService(&CategoryService_ServiceDesc, srv)
}

type CategoryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCategoryServiceClient(cc grpc.ClientConnInterface) *CategoryServiceClient {
	return &CategoryServiceClient{cc: cc}
}

func (c *CategoryServiceClient) DefineMatrix(ctx context.Context, in *DefineMatrixRequest, opts ...grpc.CallOption) (*MatrixResponse, error) {
	return invoke[MatrixResponse](ctx, c.cc, CategoryServiceName, "DefineMatrix", in, opts)
}

func (c *CategoryServiceClient) AddCategory(ctx context.Context, in *AddCategoryRequest, opts ...grpc.CallOption) (*MatrixResponse, error) {
	return invoke[MatrixResponse](ctx, c.cc, CategoryServiceName, "AddCategory", in, opts)
}

func (c *CategoryServiceClient) UpdateCategory(ctx context.Context, in *UpdateCategoryRequest, opts ...grpc.CallOption) (*MatrixResponse, error) {
	return invoke[MatrixResponse](ctx, c.cc, CategoryServiceName, "UpdateCategory", in, opts)
}

func (c *CategoryServiceClient) DeleteCategory(ctx context.Context, in *DeleteCategoryRequest, opts ...grpc.CallOption) (*MatrixResponse, error) {
	return invoke[MatrixResponse](ctx, c.cc, CategoryServiceName, "DeleteCategory", in, opts)
}

func (c *CategoryServiceClient) ListCategories(ctx context.Context, in *ListCategoriesRequest, opts ...grpc.CallOption) (*ListCategoriesResponse, error) {
	return invoke[ListCategoriesResponse](ctx, c.cc, CategoryServiceName, "ListCategories", in, opts)
}
