package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/mypeeps/internal/catalog"
	"github.com/mmynk/mypeeps/internal/media"
	"github.com/mmynk/mypeeps/internal/middleware"
	"github.com/mmynk/mypeeps/internal/models"
	"github.com/mmynk/mypeeps/pkg/api"
)

var errNoUser = errors.New("request carries no authenticated user")

// ownerFrom returns the authenticated user of the request.
func ownerFrom(ctx context.Context) (string, error) {
	ownerID := middleware.GetUserID(ctx)
	if ownerID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errNoUser)
	}
	return ownerID, nil
}

// toConnectError maps catalog error kinds to Connect codes.
func toConnectError(err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, catalog.ErrValidation):
		code = connect.CodeInvalidArgument
	case errors.Is(err, catalog.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, catalog.ErrUpload):
		code = connect.CodeAborted
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, catalog.ErrRemoteUnavailable):
		code = connect.CodeUnavailable
	default:
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}

func toBlob(img *api.Image) (*media.Blob, error) {
	if img == nil {
		return nil, nil
	}
	if len(img.Data) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("image data is empty"))
	}
	return &media.Blob{
		Filename:    img.Filename,
		ContentType: img.ContentType,
		Data:        img.Data,
	}, nil
}

func toAPIPerson(p *models.Person) *api.Person {
	out := &api.Person{
		Id:        p.ID,
		Name:      p.Name,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.HasImage() {
		out.ImageUrl = *p.ImageURL
	}
	return out
}

func toAPIPersons(persons []*models.Person) []*api.Person {
	out := make([]*api.Person, len(persons))
	for i, p := range persons {
		out[i] = toAPIPerson(p)
	}
	return out
}

func toAPIGroup(g *models.Group) *api.Group {
	memberIDs := g.MemberIDs
	if memberIDs == nil {
		memberIDs = []string{}
	}
	return &api.Group{
		Id:        g.ID,
		Name:      g.Name,
		MemberIds: memberIDs,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func toAPIGroups(groups []*models.Group) []*api.Group {
	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g)
	}
	return out
}
