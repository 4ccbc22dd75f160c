package api

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"product-store-service/internal/domain"
	"product-store-service/internal/metrics"
	"product-store-service/internal/store"
)

// ProductServiceName is the fully qualified gRPC service name.
const ProductServiceName = "catalog.v1.ProductService"

// ProductServiceServer is the server API for the catalog.v1.ProductService service.
// Requests and responses are google.protobuf.Struct messages carrying the same JSON
// shapes as the HTTP API.
type ProductServiceServer interface {
	CreateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryMethod(name string, call func(ProductServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ProductServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ProductServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ProductServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ProductServiceDesc describes catalog.v1.ProductService for grpc.Server.RegisterService.
var ProductServiceDesc = grpc.ServiceDesc{
	ServiceName: ProductServiceName,
	HandlerType: (*ProductServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CreateProduct", ProductServiceServer.CreateProduct),
		unaryMethod("ListProducts", ProductServiceServer.ListProducts),
		unaryMethod("GetProduct", ProductServiceServer.GetProduct),
		unaryMethod("UpdateProduct", ProductServiceServer.UpdateProduct),
		unaryMethod("DeleteProduct", ProductServiceServer.DeleteProduct),
		unaryMethod("SearchProducts", ProductServiceServer.SearchProducts),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/product_service.proto",
}

// RegisterProductServiceServer registers srv with s.
func RegisterProductServiceServer(s grpc.ServiceRegistrar, srv ProductServiceServer) {
	s.RegisterService(&ProductServiceDesc, srv)
}

// UnaryServerInterceptor logs every RPC and counts it by method and status code.
func UnaryServerInterceptor(logger *log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		metrics.RPCTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
		if err != nil {
			logger.Printf("WARN: gRPC %s failed with %s after %s: %v", info.FullMethod, code, time.Since(start), err)
		} else {
			logger.Printf("INFO: gRPC %s completed in %s", info.FullMethod, time.Since(start))
		}
		return resp, err
	}
}

// GRPCHandler implements ProductServiceServer on top of the product store.
type GRPCHandler struct {
	productStore store.ProductStorer
	validate     *validator.Validate
}

var _ ProductServiceServer = (*GRPCHandler)(nil)

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(ps store.ProductStorer) *GRPCHandler {
	return &GRPCHandler{
		productStore: ps,
		validate:     validator.New(),
	}
}

// maxExactID is the largest id a google.protobuf.Value number carries exactly.
// Larger ids must be sent as decimal strings.
const maxExactID = 1<<53 - 1

type searchRequest struct {
	Keyword string `json:"keyword"`
}

type productList struct {
	Products []domain.Product `json:"products"`
}

func (s *GRPCHandler) CreateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := s.productInput(req)
	if err != nil {
		return nil, err
	}

	created, err := s.productStore.Create(ctx, input.toDomain())
	if err != nil {
		log.Printf("ERROR: gRPC CreateProduct store operation failed: %v", err)
		return nil, status.Errorf(codes.Internal, "Failed to create product")
	}
	return toStruct(created)
}

func (s *GRPCHandler) ListProducts(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	products, err := s.productStore.FindAll(ctx)
	if err != nil {
		log.Printf("ERROR: gRPC ListProducts store operation failed: %v", err)
		return nil, status.Errorf(codes.Internal, "Failed to list products")
	}
	return toProductList(products)
}

func (s *GRPCHandler) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requestID(req)
	if err != nil {
		return nil, err
	}

	product, err := s.productStore.FindByID(ctx, id)
	if err != nil {
		log.Printf("ERROR: gRPC GetProduct store operation for ID %d failed: %v", id, err)
		return nil, status.Errorf(codes.Internal, "Failed to retrieve product %d", id)
	}
	if product == nil {
		return nil, status.Errorf(codes.NotFound, "Product with ID %d not found", id)
	}
	return toStruct(product)
}

// UpdateProduct reports {"changes": n}; zero changes is a successful reply, not NotFound.
func (s *GRPCHandler) UpdateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requestID(req)
	if err != nil {
		return nil, err
	}
	input, err := s.productInput(req)
	if err != nil {
		return nil, err
	}

	changes, err := s.productStore.Update(ctx, id, input.toDomain())
	if err != nil {
		log.Printf("ERROR: gRPC UpdateProduct store operation for ID %d failed: %v", id, err)
		return nil, status.Errorf(codes.Internal, "Failed to update product %d", id)
	}
	return toStruct(changes)
}

func (s *GRPCHandler) DeleteProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requestID(req)
	if err != nil {
		return nil, err
	}

	changes, err := s.productStore.Delete(ctx, id)
	if err != nil {
		log.Printf("ERROR: gRPC DeleteProduct store operation for ID %d failed: %v", id, err)
		return nil, status.Errorf(codes.Internal, "Failed to delete product %d", id)
	}
	return toStruct(changes)
}

func (s *GRPCHandler) SearchProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in searchRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}

	products, err := s.productStore.Search(ctx, in.Keyword)
	if err != nil {
		log.Printf("ERROR: gRPC SearchProducts store operation for %q failed: %v", in.Keyword, err)
		return nil, status.Errorf(codes.Internal, "Failed to search products")
	}
	return toProductList(products)
}

// --- Helper Functions for Conversion ---

// productInput decodes the writable product fields. An "id" field is ignored here.
func (s *GRPCHandler) productInput(req *structpb.Struct) (ProductInput, error) {
	var in ProductInput
	if err := fromStruct(req, &in); err != nil {
		return ProductInput{}, err
	}
	if err := s.validate.Struct(in); err != nil {
		return ProductInput{}, status.Errorf(codes.InvalidArgument, "Validation failed: %v", err)
	}
	if err := validatePrice(in.Price); err != nil {
		return ProductInput{}, status.Errorf(codes.InvalidArgument, "Validation failed: %v", err)
	}
	return in, nil
}

// requestID reads the "id" field as a positive integer, from a number that is
// exact in a double or from a decimal string.
func requestID(req *structpb.Struct) (int64, error) {
	invalid := status.Errorf(codes.InvalidArgument,
		"Product ID must be a positive integer; ids above %d must be sent as strings", int64(maxExactID))

	var id int64
	switch v := req.GetFields()["id"].GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := v.NumberValue
		if n != math.Trunc(n) || n > maxExactID {
			return 0, invalid
		}
		id = int64(n)
	case *structpb.Value_StringValue:
		parsed, err := strconv.ParseInt(v.StringValue, 10, 64)
		if err != nil {
			return 0, invalid
		}
		id = parsed
	default:
		return 0, invalid
	}
	if id <= 0 {
		return 0, invalid
	}
	return id, nil
}

func toProductList(products []domain.Product) (*structpb.Struct, error) {
	if products == nil {
		products = []domain.Product{}
	}
	return toStruct(productList{Products: products})
}

// toStruct converts v through its JSON form, so the gRPC payload matches the HTTP body.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("ERROR: Failed to encode gRPC response: %v", err)
		return nil, status.Errorf(codes.Internal, "Failed to encode response")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		log.Printf("ERROR: Failed to convert gRPC response to Struct: %v", err)
		return nil, status.Errorf(codes.Internal, "Failed to encode response")
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v interface{}) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "Invalid request payload: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "Invalid request payload: %v", err)
	}
	return nil
}
