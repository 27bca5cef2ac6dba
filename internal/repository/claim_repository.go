package repository

import (
	"context"

	"github.com/spec-kit/approval-service/internal/domain"
)

// ClaimRepository exposes business-record lookup. Claims and policies are an
// external collaborator; the seeded in-memory implementation stands in for
// the upstream claims system and only feeds notification content.
type ClaimRepository interface {
	GetClaim(ctx context.Context, id string) (*domain.Claim, error)
	GetPolicy(ctx context.Context, number string) (*domain.Policy, error)
}

type seededClaimRepository struct {
	claims   map[string]domain.Claim
	policies map[string]domain.Policy
}

// NewSeededClaimRepository returns a repository preloaded with demo records.
func NewSeededClaimRepository() ClaimRepository {
	return &seededClaimRepository{
		claims: map[string]domain.Claim{
			"CLM-001": {
				ID:             "CLM-001",
				Status:         "approved",
				ClaimType:      "auto_accident",
				ClaimAmount:    5000.00,
				ApprovedAmount: 4500.00,
				FiledDate:      "2025-10-15",
				UpdatedDate:    "2025-10-25",
			},
			"CLM-002": {
				ID:          "CLM-002",
				Status:      "pending_review",
				ClaimType:   "property_damage",
				ClaimAmount: 12000.00,
				FiledDate:   "2025-10-20",
				UpdatedDate: "2025-10-20",
			},
		},
		policies: map[string]domain.Policy{
			"POL-12345": {
				Number:           "POL-12345",
				PolicyType:       "auto_insurance",
				Status:           "active",
				Premium:          1200.00,
				CoverageAmount:   100000.00,
				StartDate:        "2025-01-01",
				RenewalDate:      "2026-01-01",
				DaysUntilRenewal: 65,
			},
			"POL-67890": {
				Number:           "POL-67890",
				PolicyType:       "home_insurance",
				Status:           "pending_renewal",
				Premium:          1800.00,
				CoverageAmount:   500000.00,
				StartDate:        "2024-11-01",
				RenewalDate:      "2025-11-01",
				DaysUntilRenewal: 4,
			},
		},
	}
}

func (r *seededClaimRepository) GetClaim(ctx context.Context, id string) (*domain.Claim, error) {
	claim, ok := r.claims[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &claim, nil
}

func (r *seededClaimRepository) GetPolicy(ctx context.Context, number string) (*domain.Policy, error) {
	policy, ok := r.policies[number]
	if !ok {
		return nil, ErrNotFound
	}
	return &policy, nil
}
