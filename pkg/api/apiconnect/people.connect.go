package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/mypeeps/pkg/api"
)

// PeopleServiceName is the fully-qualified name of the PeopleService service.
const PeopleServiceName = "mypeeps.v1.PeopleService"

// Procedure paths of PeopleService.
const (
	PeopleServiceListPersonsProcedure  = "/mypeeps.v1.PeopleService/ListPersons"
	PeopleServiceGetPersonProcedure    = "/mypeeps.v1.PeopleService/GetPerson"
	PeopleServiceCreatePersonProcedure = "/mypeeps.v1.PeopleService/CreatePerson"
	PeopleServiceUpdatePersonProcedure = "/mypeeps.v1.PeopleService/UpdatePerson"
	PeopleServiceDeletePersonProcedure = "/mypeeps.v1.PeopleService/DeletePerson"
	PeopleServiceGetDashboardProcedure = "/mypeeps.v1.PeopleService/GetDashboard"
)

// PeopleServiceClient is a client for the mypeeps.v1.PeopleService service.
type PeopleServiceClient interface {
	ListPersons(context.Context, *connect.Request[api.ListPersonsRequest]) (*connect.Response[api.ListPersonsResponse], error)
	GetPerson(context.Context, *connect.Request[api.GetPersonRequest]) (*connect.Response[api.GetPersonResponse], error)
	CreatePerson(context.Context, *connect.Request[api.CreatePersonRequest]) (*connect.Response[api.CreatePersonResponse], error)
	UpdatePerson(context.Context, *connect.Request[api.UpdatePersonRequest]) (*connect.Response[api.UpdatePersonResponse], error)
	DeletePerson(context.Context, *connect.Request[api.DeletePersonRequest]) (*connect.Response[api.DeletePersonResponse], error)
	GetDashboard(context.Context, *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.GetDashboardResponse], error)
}

// NewPeopleServiceClient constructs a client for the mypeeps.v1.PeopleService service. baseURL is
// the server origin, e.g. http://localhost:8080. The JSON codec is installed
// ahead of opts.
func NewPeopleServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PeopleServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &peopleServiceClient{
		listPersons: connect.NewClient[api.ListPersonsRequest, api.ListPersonsResponse](
			httpClient,
			baseURL+PeopleServiceListPersonsProcedure,
			opts...,
		),
		getPerson: connect.NewClient[api.GetPersonRequest, api.GetPersonResponse](
			httpClient,
			baseURL+PeopleServiceGetPersonProcedure,
			opts...,
		),
		createPerson: connect.NewClient[api.CreatePersonRequest, api.CreatePersonResponse](
			httpClient,
			baseURL+PeopleServiceCreatePersonProcedure,
			opts...,
		),
		updatePerson: connect.NewClient[api.UpdatePersonRequest, api.UpdatePersonResponse](
			httpClient,
			baseURL+PeopleServiceUpdatePersonProcedure,
			opts...,
		),
		deletePerson: connect.NewClient[api.DeletePersonRequest, api.DeletePersonResponse](
			httpClient,
			baseURL+PeopleServiceDeletePersonProcedure,
			opts...,
		),
		getDashboard: connect.NewClient[api.GetDashboardRequest, api.GetDashboardResponse](
			httpClient,
			baseURL+PeopleServiceGetDashboardProcedure,
			opts...,
		),
	}
}

type peopleServiceClient struct {
	listPersons  *connect.Client[api.ListPersonsRequest, api.ListPersonsResponse]
	getPerson    *connect.Client[api.GetPersonRequest, api.GetPersonResponse]
	createPerson *connect.Client[api.CreatePersonRequest, api.CreatePersonResponse]
	updatePerson *connect.Client[api.UpdatePersonRequest, api.UpdatePersonResponse]
	deletePerson *connect.Client[api.DeletePersonRequest, api.DeletePersonResponse]
	getDashboard *connect.Client[api.GetDashboardRequest, api.GetDashboardResponse]
}

func (c *peopleServiceClient) ListPersons(ctx context.Context, req *connect.Request[api.ListPersonsRequest]) (*connect.Response[api.ListPersonsResponse], error) {
	return c.listPersons.CallUnary(ctx, req)
}

func (c *peopleServiceClient) GetPerson(ctx context.Context, req *connect.Request[api.GetPersonRequest]) (*connect.Response[api.GetPersonResponse], error) {
	return c.getPerson.CallUnary(ctx, req)
}

func (c *peopleServiceClient) CreatePerson(ctx context.Context, req *connect.Request[api.CreatePersonRequest]) (*connect.Response[api.CreatePersonResponse], error) {
	return c.createPerson.CallUnary(ctx, req)
}

func (c *peopleServiceClient) UpdatePerson(ctx context.Context, req *connect.Request[api.UpdatePersonRequest]) (*connect.Response[api.UpdatePersonResponse], error) {
	return c.updatePerson.CallUnary(ctx, req)
}

func (c *peopleServiceClient) DeletePerson(ctx context.Context, req *connect.Request[api.DeletePersonRequest]) (*connect.Response[api.DeletePersonResponse], error) {
	return c.deletePerson.CallUnary(ctx, req)
}

func (c *peopleServiceClient) GetDashboard(ctx context.Context, req *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.GetDashboardResponse], error) {
	return c.getDashboard.CallUnary(ctx, req)
}

// PeopleServiceHandler is implemented by the server side of mypeeps.v1.PeopleService.
type PeopleServiceHandler interface {
	// ListPersons returns the caller's people in name order.
	ListPersons(context.Context, *connect.Request[api.ListPersonsRequest]) (*connect.Response[api.ListPersonsResponse], error)
	GetPerson(context.Context, *connect.Request[api.GetPersonRequest]) (*connect.Response[api.GetPersonResponse], error)
	// CreatePerson uploads the optional photo before storing the person.
	CreatePerson(context.Context, *connect.Request[api.CreatePersonRequest]) (*connect.Response[api.CreatePersonResponse], error)
	UpdatePerson(context.Context, *connect.Request[api.UpdatePersonRequest]) (*connect.Response[api.UpdatePersonResponse], error)
	// DeletePerson succeeds for IDs that do not exist.
	DeletePerson(context.Context, *connect.Request[api.DeletePersonRequest]) (*connect.Response[api.DeletePersonResponse], error)
	// GetDashboard returns the caller's people and groups in one call.
	GetDashboard(context.Context, *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.GetDashboardResponse], error)
}

// NewPeopleServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewPeopleServiceHandler(svc PeopleServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	listPersonsHandler := connect.NewUnaryHandler(
		PeopleServiceListPersonsProcedure,
		svc.ListPersons,
		opts...,
	)
	getPersonHandler := connect.NewUnaryHandler(
		PeopleServiceGetPersonProcedure,
		svc.GetPerson,
		opts...,
	)
	createPersonHandler := connect.NewUnaryHandler(
		PeopleServiceCreatePersonProcedure,
		svc.CreatePerson,
		opts...,
	)
	updatePersonHandler := connect.NewUnaryHandler(
		PeopleServiceUpdatePersonProcedure,
		svc.UpdatePerson,
		opts...,
	)
	deletePersonHandler := connect.NewUnaryHandler(
		PeopleServiceDeletePersonProcedure,
		svc.DeletePerson,
		opts...,
	)
	getDashboardHandler := connect.NewUnaryHandler(
		PeopleServiceGetDashboardProcedure,
		svc.GetDashboard,
		opts...,
	)
	return "/mypeeps.v1.PeopleService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PeopleServiceListPersonsProcedure:
			listPersonsHandler.ServeHTTP(w, r)
		case PeopleServiceGetPersonProcedure:
			getPersonHandler.ServeHTTP(w, r)
		case PeopleServiceCreatePersonProcedure:
			createPersonHandler.ServeHTTP(w, r)
		case PeopleServiceUpdatePersonProcedure:
			updatePersonHandler.ServeHTTP(w, r)
		case PeopleServiceDeletePersonProcedure:
			deletePersonHandler.ServeHTTP(w, r)
		case PeopleServiceGetDashboardProcedure:
			getDashboardHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedPeopleServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedPeopleServiceHandler struct{}

func (UnimplementedPeopleServiceHandler) ListPersons(context.Context, *connect.Request[api.ListPersonsRequest]) (*connect.Response[api.ListPersonsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("mypeeps.v1.PeopleService.ListPersons is not implemented"))
}

func (UnimplementedPeopleServiceHandler) GetPerson(context.Context, *connect.Request[api.GetPersonRequest]) (*connect.Response[api.GetPersonResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("mypeeps.v1.PeopleService.GetPerson is not implemented"))
}

func (UnimplementedPeopleServiceHandler) CreatePerson(context.Context, *connect.Request[api.CreatePersonRequest]) (*connect.Response[api.CreatePersonResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("mypeeps.v1.PeopleService.CreatePerson is not implemented"))
}

func (UnimplementedPeopleServiceHandler) UpdatePerson(context.Context, *connect.Request[api.UpdatePersonRequest]) (*connect.Response[api.UpdatePersonResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("mypeeps.v1.PeopleService.UpdatePerson is not implemented"))
}

func (UnimplementedPeopleServiceHandler) DeletePerson(context.Context, *connect.Request[api.DeletePersonRequest]) (*connect.Response[api.DeletePersonResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("mypeeps.v1.PeopleService.DeletePerson is not implemented"))
}

func (UnimplementedPeopleServiceHandler) GetDashboard(context.Context, *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.GetDashboardResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("mypeeps.v1.PeopleService.GetDashboard is not implemented"))
}
