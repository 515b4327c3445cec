package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"inboxpilot-backend/internal/organization/domain"
	"inboxpilot-backend/internal/organization/repository"
	"inboxpilot-backend/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// OrganizationUsecase owns organizations and their reply configuration.
//
// List mutations read the whole array, scan it and write it back. Two
// concurrent writers on the same organization race and the last write wins.
type OrganizationUsecase interface {
	CreateOrganization(ctx context.Context, name, email, ownerID string, maxTokens int) (*domain.Organization, error)
	GetOrganization(ctx context.Context, orgID string) (*domain.Organization, error)
	GetConfiguration(ctx context.Context, orgID string) (*domain.Configuration, error)

	AddToList(ctx context.Context, orgID string, list domain.ListName, value string) (domain.StringArray, error)
	RemoveFromList(ctx context.Context, orgID string, list domain.ListName, value string) (domain.StringArray, error)

	AddBlacklistEmail(ctx context.Context, orgID, email string) error
	RemoveBlacklistEmail(ctx context.Context, orgID, email string) error
	AddBlacklistDomain(ctx context.Context, orgID, domainName string) error
	RemoveBlacklistDomain(ctx context.Context, orgID, domainName string) error
	AddNotificationEmail(ctx context.Context, orgID, email string) error
	RemoveNotificationEmail(ctx context.Context, orgID, email string) error
}

type organizationUsecase struct {
	repo     repository.OrganizationRepository
	validate *validator.Validate
}

func NewOrganizationUsecase(repo repository.OrganizationRepository) OrganizationUsecase {
	return &organizationUsecase{
		repo:     repo,
		validate: validator.New(),
	}
}

func (u *organizationUsecase) CreateOrganization(ctx context.Context, name, email, ownerID string, maxTokens int) (*domain.Organization, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 || len(name) > 50 {
		return nil, apperror.Validation("name must be between 3 and 50 characters")
	}
	if err := u.validate.Var(email, "required,email"); err != nil {
		return nil, apperror.Validation("a valid organization email is required")
	}
	if ownerID == "" {
		return nil, apperror.Validation("owner is required")
	}

	org := &domain.Organization{
		ID:                 uuid.New().String(),
		Name:               name,
		Email:              email,
		OwnerID:            ownerID,
		MaxTokens:          maxTokens,
		BlacklistEmails:    domain.StringArray{},
		BlacklistDomains:   domain.StringArray{},
		NotificationEmails: domain.StringArray{},
	}
	if err := u.repo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}
	return org, nil
}

func (u *organizationUsecase) GetOrganization(ctx context.Context, orgID string) (*domain.Organization, error) {
	org, err := u.repo.FindByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	if org == nil {
		return nil, apperror.NotFound("organization not found")
	}
	return org, nil
}

func (u *organizationUsecase) GetConfiguration(ctx context.Context, orgID string) (*domain.Configuration, error) {
	org, err := u.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return &domain.Configuration{
		BlacklistEmails:    org.List(domain.ListBlacklistEmails),
		BlacklistDomains:   org.List(domain.ListBlacklistDomains),
		NotificationEmails: org.List(domain.ListNotificationEmails),
	}, nil
}

func (u *organizationUsecase) validateValue(list domain.ListName, value string) error {
	if !list.Valid() {
		return apperror.Validation(fmt.Sprintf("unknown list %q", list))
	}
	if value == "" {
		return apperror.Validation("value is required")
	}
	switch list {
	case domain.ListBlacklistDomains:
		if err := u.validate.Var(value, "fqdn"); err != nil {
			return apperror.Validation(fmt.Sprintf("%q is not a valid domain", value))
		}
	default:
		if err := u.validate.Var(value, "email"); err != nil {
			return apperror.Validation(fmt.Sprintf("%q is not a valid email address", value))
		}
	}
	return nil
}

// AddToList appends value unless it is already present. A present value is a
// no-op and nothing is written.
func (u *organizationUsecase) AddToList(ctx context.Context, orgID string, list domain.ListName, value string) (domain.StringArray, error) {
	value = strings.TrimSpace(value)
	if err := u.validateValue(list, value); err != nil {
		return nil, err
	}
	org, err := u.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	current := org.List(list)
	if current.Contains(value) {
		return current, nil
	}
	updated := make(domain.StringArray, 0, len(current)+1)
	updated = append(updated, current...)
	updated = append(updated, value)

	if err := u.repo.SetList(ctx, orgID, list, updated); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", list, err)
	}
	log.Printf("[Config] Added %s to %s for org %s", value, list, orgID)
	return updated, nil
}

// RemoveFromList drops every occurrence of value. An absent value is a no-op
// and nothing is written.
func (u *organizationUsecase) RemoveFromList(ctx context.Context, orgID string, list domain.ListName, value string) (domain.StringArray, error) {
	if !list.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("unknown list %q", list))
	}
	value = strings.TrimSpace(value)
	org, err := u.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	current := org.List(list)
	if !current.Contains(value) {
		return current, nil
	}
	updated := make(domain.StringArray, 0, len(current))
	for _, v := range current {
		if v != value {
			updated = append(updated, v)
		}
	}

	if err := u.repo.SetList(ctx, orgID, list, updated); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", list, err)
	}
	log.Printf("[Config] Removed %s from %s for org %s", value, list, orgID)
	return updated, nil
}

func (u *organizationUsecase) AddBlacklistEmail(ctx context.Context, orgID, email string) error {
	_, err := u.AddToList(ctx, orgID, domain.ListBlacklistEmails, email)
	return err
}

func (u *organizationUsecase) RemoveBlacklistEmail(ctx context.Context, orgID, email string) error {
	_, err := u.RemoveFromList(ctx, orgID, domain.ListBlacklistEmails, email)
	return err
}

func (u *organizationUsecase) AddBlacklistDomain(ctx context.Context, orgID, domainName string) error {
	_, err := u.AddToList(ctx, orgID, domain.ListBlacklistDomains, domainName)
	return err
}

func (u *organizationUsecase) RemoveBlacklistDomain(ctx context.Context, orgID, domainName string) error {
	_, err := u.RemoveFromList(ctx, orgID, domain.ListBlacklistDomains, domainName)
	return err
}

func (u *organizationUsecase) AddNotificationEmail(ctx context.Context, orgID, email string) error {
	_, err := u.AddToList(ctx, orgID, domain.ListNotificationEmails, email)
	return err
}

func (u *organizationUsecase) RemoveNotificationEmail(ctx context.Context, orgID, email string) error {
	_, err := u.RemoveFromList(ctx, orgID, domain.ListNotificationEmails, email)
	return err
}
