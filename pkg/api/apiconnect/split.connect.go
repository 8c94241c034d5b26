package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/pkg/api"
)

const (
	// SplitServiceName is the fully-qualified name of the SplitService service.
	SplitServiceName = "fintrack.v1.SplitService"
)

// SplitService procedures.
const (
	SplitServiceCreateSplitProcedure    = "/fintrack.v1.SplitService/CreateSplit"
	SplitServiceGetSplitProcedure       = "/fintrack.v1.SplitService/GetSplit"
	SplitServiceListSplitsProcedure     = "/fintrack.v1.SplitService/ListSplits"
	SplitServiceRespondToSplitProcedure = "/fintrack.v1.SplitService/RespondToSplit"
	SplitServiceResolveSplitProcedure   = "/fintrack.v1.SplitService/ResolveSplit"
	SplitServiceCancelSplitProcedure    = "/fintrack.v1.SplitService/CancelSplit"
)

// SplitServiceHandler is implemented by the server side of fintrack.v1.SplitService.
type SplitServiceHandler interface {
	CreateSplit(context.Context, *connect.Request[api.CreateSplitRequest]) (*connect.Response[api.SplitResponse], error)
	GetSplit(context.Context, *connect.Request[api.GetSplitRequest]) (*connect.Response[api.SplitResponse], error)
	ListSplits(context.Context, *connect.Request[api.ListSplitsRequest]) (*connect.Response[api.ListSplitsResponse], error)
	RespondToSplit(context.Context, *connect.Request[api.RespondToSplitRequest]) (*connect.Response[api.SplitResponse], error)
	ResolveSplit(context.Context, *connect.Request[api.ResolveSplitRequest]) (*connect.Response[api.SplitResponse], error)
	CancelSplit(context.Context, *connect.Request[api.CancelSplitRequest]) (*connect.Response[api.SplitResponse], error)
}

// NewSplitServiceHandler builds an HTTP handler for svc. It returns the path
// to mount the handler on and the handler itself.
func NewSplitServiceHandler(svc SplitServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)

	handlers := map[string]http.Handler{
		SplitServiceCreateSplitProcedure:    connect.NewUnaryHandler(SplitServiceCreateSplitProcedure, svc.CreateSplit, opts...),
		SplitServiceGetSplitProcedure:       connect.NewUnaryHandler(SplitServiceGetSplitProcedure, svc.GetSplit, opts...),
		SplitServiceListSplitsProcedure:     connect.NewUnaryHandler(SplitServiceListSplitsProcedure, svc.ListSplits, opts...),
		SplitServiceRespondToSplitProcedure: connect.NewUnaryHandler(SplitServiceRespondToSplitProcedure, svc.RespondToSplit, opts...),
		SplitServiceResolveSplitProcedure:   connect.NewUnaryHandler(SplitServiceResolveSplitProcedure, svc.ResolveSplit, opts...),
		SplitServiceCancelSplitProcedure:    connect.NewUnaryHandler(SplitServiceCancelSplitProcedure, svc.CancelSplit, opts...),
	}
	return "/" + SplitServiceName + "/", route(handlers)
}

// SplitServiceClient is a client for the fintrack.v1.SplitService service.
type SplitServiceClient interface {
	CreateSplit(context.Context, *connect.Request[api.CreateSplitRequest]) (*connect.Response[api.SplitResponse], error)
	GetSplit(context.Context, *connect.Request[api.GetSplitRequest]) (*connect.Response[api.SplitResponse], error)
	ListSplits(context.Context, *connect.Request[api.ListSplitsRequest]) (*connect.Response[api.ListSplitsResponse], error)
	RespondToSplit(context.Context, *connect.Request[api.RespondToSplitRequest]) (*connect.Response[api.SplitResponse], error)
	ResolveSplit(context.Context, *connect.Request[api.ResolveSplitRequest]) (*connect.Response[api.SplitResponse], error)
	CancelSplit(context.Context, *connect.Request[api.CancelSplitRequest]) (*connect.Response[api.SplitResponse], error)
}

// NewSplitServiceClient constructs a client for fintrack.v1.SplitService at baseURL.
func NewSplitServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SplitServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &splitServiceClient{
		createSplit:    connect.NewClient[api.CreateSplitRequest, api.SplitResponse](httpClient, baseURL+SplitServiceCreateSplitProcedure, opts...),
		getSplit:       connect.NewClient[api.GetSplitRequest, api.SplitResponse](httpClient, baseURL+SplitServiceGetSplitProcedure, opts...),
		listSplits:     connect.NewClient[api.ListSplitsRequest, api.ListSplitsResponse](httpClient, baseURL+SplitServiceListSplitsProcedure, opts...),
		respondToSplit: connect.NewClient[api.RespondToSplitRequest, api.SplitResponse](httpClient, baseURL+SplitServiceRespondToSplitProcedure, opts...),
		resolveSplit:   connect.NewClient[api.ResolveSplitRequest, api.SplitResponse](httpClient, baseURL+SplitServiceResolveSplitProcedure, opts...),
		cancelSplit:    connect.NewClient[api.CancelSplitRequest, api.SplitResponse](httpClient, baseURL+SplitServiceCancelSplitProcedure, opts...),
	}
}

type splitServiceClient struct {
	createSplit    *connect.Client[api.CreateSplitRequest, api.SplitResponse]
	getSplit       *connect.Client[api.GetSplitRequest, api.SplitResponse]
	listSplits     *connect.Client[api.ListSplitsRequest, api.ListSplitsResponse]
	respondToSplit *connect.Client[api.RespondToSplitRequest, api.SplitResponse]
	resolveSplit   *connect.Client[api.ResolveSplitRequest, api.SplitResponse]
	cancelSplit    *connect.Client[api.CancelSplitRequest, api.SplitResponse]
}

func (c *splitServiceClient) CreateSplit(ctx context.Context, req *connect.Request[api.CreateSplitRequest]) (*connect.Response[api.SplitResponse], error) {
	return c.createSplit.CallUnary(ctx, req)
}

func (c *splitServiceClient) GetSplit(ctx context.Context, req *connect.Request[api.GetSplitRequest]) (*connect.Response[api.SplitResponse], error) {
	return c.getSplit.CallUnary(ctx, req)
}

func (c *splitServiceClient) ListSplits(ctx context.Context, req *connect.Request[api.ListSplitsRequest]) (*connect.Response[api.ListSplitsResponse], error) {
	return c.listSplits.CallUnary(ctx, req)
}

func (c *splitServiceClient) RespondToSplit(ctx context.Context, req *connect.Request[api.RespondToSplitRequest]) (*connect.Response[api.SplitResponse], error) {
	return c.respondToSplit.CallUnary(ctx, req)
}

func (c *splitServiceClient) ResolveSplit(ctx context.Context, req *connect.Request[api.ResolveSplitRequest]) (*connect.Response[api.SplitResponse], error) {
	return c.resolveSplit.CallUnary(ctx, req)
}

func (c *splitServiceClient) CancelSplit(ctx context.Context, req *connect.Request[api.CancelSplitRequest]) (*connect.Response[api.SplitResponse], error) {
	return c.cancelSplit.CallUnary(ctx, req)
}
