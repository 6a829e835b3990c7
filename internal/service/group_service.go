package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/mypeeps/internal/catalog"
	"github.com/mmynk/mypeeps/pkg/api"
	"github.com/mmynk/mypeeps/pkg/api/apiconnect"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	apiconnect.UnimplementedGroupServiceHandler
	catalog *catalog.Catalog
}

// NewGroupService creates a new GroupService backed by the given catalog.
func NewGroupService(c *catalog.Catalog) *GroupService {
	return &GroupService{catalog: c}
}

// CreateGroup creates a new group with no members.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received", "user_id", ownerID, "name", req.Msg.Name)

	group, err := s.catalog.CreateGroup(ctx, ownerID, req.Msg.Name)
	if err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{
		Group: toAPIGroup(group),
	}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupId)

	group, err := s.catalog.GetGroup(ctx, ownerID, req.Msg.GroupId)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupId, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "name", group.Name)
	return connect.NewResponse(&api.GetGroupResponse{
		Group: toAPIGroup(group),
	}), nil
}

// ListGroups retrieves the caller's groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListGroups request received", "user_id", ownerID)

	groups, err := s.catalog.ListGroups(ctx, ownerID)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("ListGroups successful", "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{
		Groups: toAPIGroups(groups),
	}), nil
}

// UpdateGroup renames a group. Members are not affected.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("UpdateGroup request received",
		"group_id", req.Msg.GroupId,
		"name", req.Msg.Name,
	)

	group, err := s.catalog.UpdateGroup(ctx, ownerID, req.Msg.GroupId, req.Msg.Name)
	if err != nil {
		slog.Error("UpdateGroup failed", "group_id", req.Msg.GroupId, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group updated", "group_id", group.ID)
	return connect.NewResponse(&api.UpdateGroupResponse{
		Group: toAPIGroup(group),
	}), nil
}

// DeleteGroup deletes a group. The people in it are kept.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupId)

	if err := s.catalog.DeleteGroup(ctx, ownerID, req.Msg.GroupId); err != nil {
		slog.Error("DeleteGroup failed", "group_id", req.Msg.GroupId, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupId)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// AddMember adds a person to a group.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddMember request received", "group_id", req.Msg.GroupId, "person_id", req.Msg.PersonId)

	group, err := s.catalog.AddMember(ctx, ownerID, req.Msg.GroupId, req.Msg.PersonId)
	if err != nil {
		slog.Error("AddMember failed", "group_id", req.Msg.GroupId, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("AddMember successful", "group_id", group.ID, "members_count", len(group.MemberIDs))
	return connect.NewResponse(&api.AddMemberResponse{
		Group: toAPIGroup(group),
	}), nil
}

// RemoveMember removes a person from a group.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("RemoveMember request received", "group_id", req.Msg.GroupId, "person_id", req.Msg.PersonId)

	group, err := s.catalog.RemoveMember(ctx, ownerID, req.Msg.GroupId, req.Msg.PersonId)
	if err != nil {
		slog.Error("RemoveMember failed", "group_id", req.Msg.GroupId, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("RemoveMember successful", "group_id", group.ID, "members_count", len(group.MemberIDs))
	return connect.NewResponse(&api.RemoveMemberResponse{
		Group: toAPIGroup(group),
	}), nil
}

// GetGroupPage returns a group with its resolved members and the people
// that can still be added to it.
func (s *GroupService) GetGroupPage(ctx context.Context, req *connect.Request[api.GetGroupPageRequest]) (*connect.Response[api.GetGroupPageResponse], error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetGroupPage request received", "group_id", req.Msg.GroupId)

	group, err := s.catalog.GetGroup(ctx, ownerID, req.Msg.GroupId)
	if err != nil {
		slog.Error("GetGroupPage failed", "group_id", req.Msg.GroupId, "error", err)
		return nil, toConnectError(err)
	}

	members, err := s.catalog.MaterializeMembers(ctx, ownerID, group)
	if err != nil {
		slog.Error("Failed to resolve group members", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	persons, err := s.catalog.ListPersons(ctx, ownerID)
	if err != nil {
		slog.Error("Failed to list persons", "user_id", ownerID, "error", err)
		return nil, toConnectError(err)
	}
	available := catalog.AvailablePersons(persons, group)

	slog.Info("GetGroupPage successful",
		"group_id", group.ID,
		"members", len(members),
		"dangling", len(group.MemberIDs)-len(members),
		"available", len(available),
	)
	return connect.NewResponse(&api.GetGroupPageResponse{
		Group:            toAPIGroup(group),
		Members:          toAPIPersons(members),
		AvailablePersons: toAPIPersons(available),
	}), nil
}
