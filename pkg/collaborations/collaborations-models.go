package collaborations

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hazemadel/vitrine/pkg/ntime"
)

type InviteStatus string

const (
	StatusPending  InviteStatus = "pending"
	StatusAccepted InviteStatus = "accepted"
	StatusDeclined InviteStatus = "declined"
)

type CollaboratorRole string

const (
	RoleOwner        CollaboratorRole = "owner"
	RoleCollaborator CollaboratorRole = "collaborator"
)

// invitees need a plausible address, not a registered account; a light shape check
// (non-empty local part, an @, a dotted domain) suffices at creation time
var inviteeEmailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type InviteData struct {
	InviteeEmail string
}

func (data InviteData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.InviteeEmail,
			validation.Required,
			validation.Match(inviteeEmailPattern).Error("must be a valid email address"),
		),
	)
}

type Invite struct {
	Id           string
	ProjectId    string
	InviterId    string
	InviteeEmail string
	Status       InviteStatus
	Created      ntime.NTime
}

// UserInvite decorates a pending invite with the target project's display details.
type UserInvite struct {
	Invite
	ProjectTitle string
	CreatorName  string
}

type Collaborator struct {
	Id        string
	ProjectId string
	UserId    string
	FullName  string
	Role      CollaboratorRole
	Added     ntime.NTime
}
