package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/mypeeps/internal/catalog"
	"github.com/mmynk/mypeeps/pkg/api"
	"github.com/mmynk/mypeeps/pkg/api/apiconnect"
)

// PeopleService implements the Connect PeopleService
type PeopleService struct {
	apiconnect.UnimplementedPeopleServiceHandler
	catalog *catalog.Catalog
}

// NewPeopleService creates a new PeopleService backed by the given catalog.
func NewPeopleService(c *catalog.Catalog) *PeopleService {
	return &PeopleService{catalog: c}
}

// ListPersons returns the caller's people.
func (s *PeopleService) ListPersons(ctx context.Context, req *connect.Request[api.ListPersonsRequest]) (*connect.Response[api.ListPersonsResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListPersons request received", "user_id", ownerID)

	persons, err := s.catalog.ListPersons(ctx, ownerID)
	if err != nil {
		slog.Error("ListPersons failed", "user_id", ownerID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("ListPersons successful", "user_id", ownerID, "count", len(persons))
	return connect.NewResponse(&api.ListPersonsResponse{
		Persons: toAPIPersons(persons),
	}), nil
}

// GetPerson returns one of the caller's people.
func (s *PeopleService) GetPerson(ctx context.Context, req *connect.Request[api.GetPersonRequest]) (*connect.Response[api.GetPersonResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetPerson request received", "user_id", ownerID, "person_id", req.Msg.Id)

	person, err := s.catalog.GetPerson(ctx, ownerID, req.Msg.Id)
	if err != nil {
		slog.Error("GetPerson failed", "person_id", req.Msg.Id, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetPersonResponse{
		Person: toAPIPerson(person),
	}), nil
}

// CreatePerson stores a new person, uploading the photo first if one is attached.
func (s *PeopleService) CreatePerson(ctx context.Context, req *connect.Request[api.CreatePersonRequest]) (*connect.Response[api.CreatePersonResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreatePerson request received",
		"user_id", ownerID,
		"name", req.Msg.Name,
		"has_image", req.Msg.Image != nil,
	)

	image, err := toBlob(req.Msg.Image)
	if err != nil {
		return nil, err
	}

	person, err := s.catalog.CreatePerson(ctx, ownerID, catalog.PersonInput{
		Name:  req.Msg.Name,
		Notes: req.Msg.Notes,
		Image: image,
	})
	if err != nil {
		slog.Error("CreatePerson failed", "user_id", ownerID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Person created", "person_id", person.ID)
	return connect.NewResponse(&api.CreatePersonResponse{
		Person: toAPIPerson(person),
	}), nil
}

// UpdatePerson edits name, notes and optionally the photo.
func (s *PeopleService) UpdatePerson(ctx context.Context, req *connect.Request[api.UpdatePersonRequest]) (*connect.Response[api.UpdatePersonResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("UpdatePerson request received",
		"user_id", ownerID,
		"person_id", req.Msg.Id,
		"has_image", req.Msg.Image != nil,
	)

	image, err := toBlob(req.Msg.Image)
	if err != nil {
		return nil, err
	}

	person, err := s.catalog.UpdatePerson(ctx, ownerID, req.Msg.Id, catalog.PersonInput{
		Name:  req.Msg.Name,
		Notes: req.Msg.Notes,
		Image: image,
	})
	if err != nil {
		slog.Error("UpdatePerson failed", "person_id", req.Msg.Id, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Person updated", "person_id", person.ID)
	return connect.NewResponse(&api.UpdatePersonResponse{
		Person: toAPIPerson(person),
	}), nil
}

// DeletePerson removes a person. Group memberships are left as they are.
func (s *PeopleService) DeletePerson(ctx context.Context, req *connect.Request[api.DeletePersonRequest]) (*connect.Response[api.DeletePersonResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeletePerson request received", "user_id", ownerID, "person_id", req.Msg.Id)

	if err := s.catalog.DeletePerson(ctx, ownerID, req.Msg.Id); err != nil {
		slog.Error("DeletePerson failed", "person_id", req.Msg.Id, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Person deleted", "person_id", req.Msg.Id)
	return connect.NewResponse(&api.DeletePersonResponse{}), nil
}

// GetDashboard loads a fresh session snapshot of the caller's people and groups.
func (s *PeopleService) GetDashboard(ctx context.Context, req *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.GetDashboardResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetDashboard request received", "user_id", ownerID)

	session := s.catalog.NewSession(ownerID)
	if err := session.Refresh(ctx); err != nil {
		slog.Error("GetDashboard failed", "user_id", ownerID, "error", err)
		return nil, toConnectError(err)
	}

	persons, groups := session.Persons(), session.Groups()
	slog.Info("GetDashboard successful", "user_id", ownerID, "persons", len(persons), "groups", len(groups))
	return connect.NewResponse(&api.GetDashboardResponse{
		Persons: toAPIPersons(persons),
		Groups:  toAPIGroups(groups),
	}), nil
}
