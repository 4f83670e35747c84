package github

// Profile is the portion of the GitHub /user response we care about.
// GitHub returns a much larger object — we only unmarshal the fields we need.
//
// GitHub API docs: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type Profile struct {
	ID        int64  `json:"id"`    // GitHub's numeric user ID — stable, never changes
	Login     string `json:"login"` // GitHub username, e.g. "alice"
	Name      string `json:"name"`
	HTMLURL   string `json:"html_url"`
	AvatarURL string `json:"avatar_url"`
	Location  string `json:"location"`
	Company   string `json:"company"`
	Blog      string `json:"blog"`
	Email     string `json:"email"` // Primary email (empty if hidden in GitHub settings)
	Hireable  bool   `json:"hireable"`
	Bio       string `json:"bio"`
}

// Repo is a repository summary as returned by the repos endpoints.
type Repo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Private     bool   `json:"private"`
}

// Invitation is a pending collaborator invitation. GitHub returns it both
// from the add-collaborator call (for the inviter) and from the
// repository_invitations listing (for the invitee).
type Invitation struct {
	ID         int64 `json:"id"`
	Repository Repo  `json:"repository"`
}

// Content is a file fetched through the repository contents endpoint.
// Content is base64 when Encoding says so; we pass both through untouched.
type Content struct {
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
	Content     string `json:"content"`
	Encoding    string `json:"encoding"`
}

// CreateRepoRequest is the body for creating a repository on the
// authenticated account.
type CreateRepoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
}

// ReviewRequirements configures pull-request review enforcement inside a
// branch protection rule.
type ReviewRequirements struct {
	RequireCodeOwnerReviews      bool `json:"require_code_owner_reviews"`
	DismissStaleReviews          bool `json:"dismiss_stale_reviews"`
	RequiredApprovingReviewCount int  `json:"required_approving_review_count"`
}

// ProtectionRules is the branch protection update body. The nil-able fields
// intentionally lack omitempty: GitHub requires explicit JSON nulls for
// required_status_checks, enforce_admins and restrictions when they are
// unset.
type ProtectionRules struct {
	RequiredPullRequestReviews *ReviewRequirements `json:"required_pull_request_reviews"`
	RequiredStatusChecks       *struct{}           `json:"required_status_checks"`
	EnforceAdmins              *bool               `json:"enforce_admins"`
	Restrictions               *struct{}           `json:"restrictions"`
}

// ImportStatusComplete is the terminal status reported by the source import
// endpoint once history migration has finished.
const ImportStatusComplete = "complete"
