// Package api defines the request and response messages of the mypeeps.v1
// RPC services. Messages travel as JSON with camelCase field names; binary
// image data is base64 encoded.
package api

// Person is a contact as returned to clients.
type Person struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	Notes     string `json:"notes"`
	ImageUrl  string `json:"imageUrl,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Group is a named list of person IDs. MemberIds may contain IDs of deleted
// people; use GetGroupPage for resolved members.
type Group struct {
	Id        string   `json:"id"`
	Name      string   `json:"name"`
	MemberIds []string `json:"memberIds"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
}

// Image is an uploaded photo.
type Image struct {
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"data"`
}

type ListPersonsRequest struct{}

type ListPersonsResponse struct {
	Persons []*Person `json:"persons"`
}

type GetPersonRequest struct {
	Id string `json:"id"`
}

type GetPersonResponse struct {
	Person *Person `json:"person"`
}

type CreatePersonRequest struct {
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
	Image *Image `json:"image,omitempty"`
}

type CreatePersonResponse struct {
	Person *Person `json:"person"`
}

// UpdatePersonRequest replaces name and notes. Without Image the current
// photo is kept.
type UpdatePersonRequest struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
	Image *Image `json:"image,omitempty"`
}

type UpdatePersonResponse struct {
	Person *Person `json:"person"`
}

type DeletePersonRequest struct {
	Id string `json:"id"`
}

type DeletePersonResponse struct{}

type GetDashboardRequest struct{}

// GetDashboardResponse is everything the dashboard renders.
type GetDashboardResponse struct {
	Persons []*Person `json:"persons"`
	Groups  []*Group  `json:"groups"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type GetGroupRequest struct {
	GroupId string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type UpdateGroupRequest struct {
	GroupId string `json:"groupId"`
	Name    string `json:"name"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupId string `json:"groupId"`
}

type DeleteGroupResponse struct{}

type AddMemberRequest struct {
	GroupId  string `json:"groupId"`
	PersonId string `json:"personId"`
}

type AddMemberResponse struct {
	Group *Group `json:"group"`
}

type RemoveMemberRequest struct {
	GroupId  string `json:"groupId"`
	PersonId string `json:"personId"`
}

type RemoveMemberResponse struct {
	Group *Group `json:"group"`
}

type GetGroupPageRequest struct {
	GroupId string `json:"groupId"`
}

// GetGroupPageResponse is everything the group page renders: the group, its
// resolvable members in member order and the people that can still be added.
type GetGroupPageResponse struct {
	Group            *Group    `json:"group"`
	Members          []*Person `json:"members"`
	AvailablePersons []*Person `json:"availablePersons"`
}
