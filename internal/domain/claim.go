package domain

// Claim is a business record under review. Lookup is a collaborator concern;
// the record only feeds notification content.
type Claim struct {
	ID             string  `json:"claim_id"`
	Status         string  `json:"status"`
	ClaimType      string  `json:"claim_type"`
	ClaimAmount    float64 `json:"claim_amount"`
	ApprovedAmount float64 `json:"approved_amount"`
	FiledDate      string  `json:"filed_date"`
	UpdatedDate    string  `json:"updated_date"`
}

// Policy is an insurance policy record.
type Policy struct {
	Number           string  `json:"policy_number"`
	PolicyType       string  `json:"policy_type"`
	Status           string  `json:"status"`
	Premium          float64 `json:"premium"`
	CoverageAmount   float64 `json:"coverage_amount"`
	StartDate        string  `json:"start_date"`
	RenewalDate      string  `json:"renewal_date"`
	DaysUntilRenewal int     `json:"days_until_renewal"`
}
