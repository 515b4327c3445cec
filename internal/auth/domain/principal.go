package domain

// Principal is the caller identity carried in an access token. Every protected
// operation is scoped to OrgID.
type Principal struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}
