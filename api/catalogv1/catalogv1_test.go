package catalogv1

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type inventoryServer struct {
	got    *AdjustStockRequest
	seller string
}

func (s *inventoryServer) AdjustStock(ctx context.Context, req *AdjustStockRequest) (*AdjustStockResponse, error) {
	s.got = req
	if md, ok := metadata.FromIncomingContext(ctx); ok && len(md.Get("x-seller-id")) > 0 {
		s.seller = md.Get("x-seller-id")[0]
	}
	if req.Delta == 0 {
		return nil, status.Error(codes.InvalidArgument, "delta must not be zero")
	}
	return &AdjustStockResponse{Movement: &StockMovement{
		ProductID: req.ProductID, QuantityChange: req.Delta, QuantityAfter: 10 + req.Delta,
	}}, nil
}

func (s *inventoryServer) ListMovements(context.Context, *ListMovementsRequest) (*ListMovementsResponse, error) {
	return &ListMovementsResponse{}, nil
}

func dial(t *testing.T, register func(*grpc.Server), opts ...grpc.ServerOption) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(opts...)
	register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestUnaryRoundTrip(t *testing.T) {
	impl := &inventoryServer{}
	var methods []string
	conn := dial(t, func(s *grpc.Server) { RegisterInventoryServiceServer(s, impl) },
		grpc.UnaryInterceptor(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			methods = append(methods, info.FullMethod)
			return handler(ctx, req)
		}))
	client := NewInventoryServiceClient(conn)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-seller-id", "seller-1")
	resp, err := client.AdjustStock(ctx, &AdjustStockRequest{ProductID: "p1", VariantID: "v1", Delta: -3})
	require.NoError(t, err)

	assert.Equal(t, int32(7), resp.Movement.QuantityAfter)
	assert.Equal(t, "v1", impl.got.VariantID)
	assert.Equal(t, "seller-1", impl.seller)
	assert.Equal(t, []string{"/catalog.v1.InventoryService/AdjustStock"}, methods)

	_, err = client.AdjustStock(ctx, &AdjustStockRequest{ProductID: "p1"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServiceDescriptors(t *testing.T) {
	for _, desc := range []grpc.ServiceDesc{
		CategoryService_ServiceDesc, VariantService_ServiceDesc, ProductService_ServiceDesc, InventoryService_ServiceDesc,
	} {
		seen := map[string]bool{}
		for _, m := range desc.Methods {
			assert.False(t, seen[m.MethodName], "%s.%s registered twice", desc.ServiceName, m.MethodName)
			seen[m.MethodName] = true
			assert.NotNil(t, m.Handler)
		}
	}
}

func TestCodec(t *testing.T) {
	c := jsonCodec{}
	data, err := c.Marshal(&UpdateCategoryRequest{ProductID: "p", CategoryID: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"product_id":"p","category_id":3,"attributes":null}`, string(data))

	var req UpdateCategoryRequest
	require.NoError(t, c.Unmarshal([]byte(`{"category_id":3,"attributes":[]}`), &req))
	assert.NotNil(t, req.Attributes)
	assert.Empty(t, req.Attributes)
}
