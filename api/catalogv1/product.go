package catalogv1

import (
	"context"

	"google.golang.org/grpc"
)

const ProductServiceName = "catalog.v1.ProductService"

type CreateProductRequest struct {
	CategoryID  string `json:"category_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BasePrice   string `json:"base_price"`
	Stock       int32  `json:"stock"`
	ImageURL    string `json:"image_url,omitempty"`
}

type GetProductRequest struct {
	ID string `json:"id"`
}

type ProductResponse struct {
	Product *Product `json:"product"`
}

type ListProductsRequest struct {
	Query      string `json:"query,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	ActiveOnly bool   `json:"active_only,omitempty"`
	Page       int32  `json:"page,omitempty"`
	PageSize   int32  `json:"page_size,omitempty"`
}

type ListProductsResponse struct {
	Products []*Product `json:"products"`
	Total    int32      `json:"total"`
}

// UpdateProductRequest changes only the fields that are set. An empty
// CategoryID clears the category.
type UpdateProductRequest struct {
	ID          string  `json:"id"`
	CategoryID  *string `json:"category_id,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	BasePrice   *string `json:"base_price,omitempty"`
	Stock       *int32  `json:"stock,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type DeleteProductRequest struct {
	ID string `json:"id"`
}

type SetProductImageRequest struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

type ImageFile struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

type AddProductImagesRequest struct {
	ProductID string       `json:"product_id"`
	Images    []*ImageFile `json:"images"`
}

type ListProductImagesRequest struct {
	ProductID string `json:"product_id"`
}

type ProductImagesResponse struct {
	Images []*Image `json:"images"`
}

type RemoveProductImageRequest struct {
	ProductID string `json:"product_id"`
	ImageID   string `json:"image_id"`
}

type ProductServiceServer interface {
	CreateProduct(context.Context, *CreateProductRequest) (*ProductResponse, error)
	GetProduct(context.Context, *GetProductRequest) (*ProductResponse, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	UpdateProduct(context.Context, *UpdateProductRequest) (*ProductResponse, error)
	DeleteProduct(context.Context, *DeleteProductRequest) (*Empty, error)
	SetProductImage(context.Context, *SetProductImageRequest) (*ProductResponse, error)
	AddProductImages(context.Context, *AddProductImagesRequest) (*ProductImagesResponse, error)
	ListProductImages(context.Context, *ListProductImagesRequest) (*ProductImagesResponse, error)
	RemoveProductImage(context.Context, *RemoveProductImageRequest) (*Empty, error)
}

var ProductService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ProductServiceName,
	HandlerType: (*ProductServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ProductServiceName, "CreateProduct", ProductServiceServer.CreateProduct),
		unary(ProductServiceName, "GetProduct", ProductServiceServer.GetProduct),
		unary(ProductServiceName, "ListProducts", ProductServiceServer.ListProducts),
		unary(ProductServiceName, "UpdateProduct", ProductServiceServer.UpdateProduct),
		unary(ProductServiceName, "DeleteProduct", ProductServiceServer.DeleteProduct),
		unary(ProductServiceName, "SetProductImage", ProductServiceServer.SetProductImage),
		unary(ProductServiceName, "AddProductImages", ProductServiceServer.AddProductImages),
		unary(ProductServiceName, "ListProductImages", ProductServiceServer.ListProductImages),
		unary(ProductServiceName, "RemoveProductImage", ProductServiceServer.RemoveProductImage),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/product.proto",
}

func RegisterProductServiceServer(s grpc.ServiceRegistrar, srv ProductServiceServer) {
	s.RegisterService(&ProductService_ServiceDesc, srv)
}

type ProductServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProductServiceClient(cc grpc.ClientConnInterface) *ProductServiceClient {
	return &ProductServiceClient{cc: cc}
}

func (c *ProductServiceClient) CreateProduct(ctx context.Context, in *CreateProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[ProductResponse](ctx, c.cc, ProductServiceName, "CreateProduct", in, opts)
}

func (c *ProductServiceClient) GetProduct(ctx context.Context, in *GetProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[ProductResponse](ctx, c.cc, ProductServiceName, "GetProduct", in, opts)
}

func (c *ProductServiceClient) ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error) {
	return invoke[ListProductsResponse](ctx, c.cc, ProductServiceName, "ListProducts", in, opts)
}

func (c *ProductServiceClient) UpdateProduct(ctx context.Context, in *UpdateProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[ProductResponse](ctx, c.cc, ProductServiceName, "UpdateProduct", in, opts)
}

func (c *ProductServiceClient) DeleteProduct(ctx context.Context, in *DeleteProductRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, ProductServiceName, "DeleteProduct", in, opts)
}

func (c *ProductServiceClient) SetProductImage(ctx context.Context, in *SetProductImageRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[ProductResponse](ctx, c.cc, ProductServiceName, "SetProductImage", in, opts)
}

func (c *ProductServiceClient) AddProductImages(ctx context.Context, in *AddProductImagesRequest, opts ...grpc.CallOption) (*ProductImagesResponse, error) {
	return invoke[ProductImagesResponse](ctx, c.cc, ProductServiceName, "AddProductImages", in, opts)
}

func (c *ProductServiceClient) ListProductImages(ctx context.Context, in *ListProductImagesRequest, opts ...grpc.CallOption) (*ProductImagesResponse, error) {
	return invoke[ProductImagesResponse](ctx, c.cc, ProductServiceName, "ListProductImages", in, opts)
}

func (c *ProductServiceClient) RemoveProductImage(ctx context.Context, in *RemoveProductImageRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, ProductServiceName, "RemoveProductImage", in, opts)
}
