package model

// Invite is the client-facing summary of a collaborator invitation,
// trimmed to the fields the frontend renders.
type Invite struct {
	ID         int64      `json:"id"`
	Repository InviteRepo `json:"repository"`
}

// InviteRepo is the repository summary embedded in an Invite.
type InviteRepo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
}
