package domain

// Plan describes the quotas attached to a pricing tier.
type Plan struct {
	Name                 string `json:"name"`
	ConnectedLimit       int64  `json:"connected_limit"`
	MonthlyEmails        int64  `json:"monthly_emails"`
	MonthlyTokens        int64  `json:"monthly_tokens"`
	Links                int64  `json:"links"`
	CharactersPerChatbot int64  `json:"characters_per_chatbot"`
}

const (
	PlanFree      = "free"
	PlanStarter   = "starter"
	PlanHobby     = "hobby"
	PlanStandard  = "standard"
	PlanUnlimited = "unlimited"
)

var plans = map[string]Plan{
	PlanFree:      {Name: PlanFree, ConnectedLimit: 1, MonthlyEmails: 10, MonthlyTokens: 200_000, Links: 10, CharactersPerChatbot: 400_000},
	PlanStarter:   {Name: PlanStarter, ConnectedLimit: 2, MonthlyEmails: 100, MonthlyTokens: 1_000_000, Links: 30, CharactersPerChatbot: 2_500_000},
	PlanHobby:     {Name: PlanHobby, ConnectedLimit: 2, MonthlyEmails: 200, MonthlyTokens: 2_000_000, Links: 100, CharactersPerChatbot: 5_000_000},
	PlanStandard:  {Name: PlanStandard, ConnectedLimit: 10, MonthlyEmails: 1000, MonthlyTokens: 10_000_000, Links: 1000, CharactersPerChatbot: 11_000_000},
	PlanUnlimited: {Name: PlanUnlimited, ConnectedLimit: 50, MonthlyEmails: 5000, MonthlyTokens: 400_000_000, Links: 1000, CharactersPerChatbot: 20_000_000},
}

// PlanByName returns the named plan, or the free plan for unknown names.
func PlanByName(name string) Plan {
	if p, ok := plans[name]; ok {
		return p
	}
	return plans[PlanFree]
}

// PriceCatalog maps Stripe price ids to plan names.
type PriceCatalog map[string]string

// Plan resolves a price id. Unknown or empty ids fall back to free.
func (c PriceCatalog) Plan(priceID string) Plan {
	if priceID == "" {
		return PlanByName(PlanFree)
	}
	return PlanByName(c[priceID])
}
