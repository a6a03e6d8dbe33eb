//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/arunprabus/health-api/internal/model"
	"github.com/arunprabus/health-api/internal/repository"
	"github.com/arunprabus/health-api/internal/storage"
	"github.com/arunprabus/health-api/pkg/logger"
	"github.com/arunprabus/health-api/pkg/sanitizer"
)

var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// ProfileInput is the client-supplied profile. A nil PDFURL on update keeps the
// stored document link; an empty string clears it.
type ProfileInput struct {
	Name              string
	BloodGroup        string
	InsuranceProvider *string
	InsuranceNumber   *string
	PDFURL            *string
	Notes             *string
}

type ProfileService interface {
	Create(ctx context.Context, userID string, input ProfileInput) (*model.Profile, error)
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Update(ctx context.Context, userID string, input ProfileInput) (*model.Profile, error)
	Delete(ctx context.Context, userID string) error
}

type profileService struct {
	profiles repository.ProfileRepository
	store    storage.ObjectStore
}

// NewProfileService builds the service. store may be nil, in which case
// deleting a profile leaves its document object in place.
func NewProfileService(profiles repository.ProfileRepository, store storage.ObjectStore) ProfileService {
	return &profileService{profiles: profiles, store: store}
}

func (s *profileService) Create(ctx context.Context, userID string, input ProfileInput) (*model.Profile, error) {
	clean, err := cleanProfileInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.checkDocumentURL(userID, clean.PDFURL); err != nil {
		return nil, err
	}

	existing, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if existing != nil {
		return nil, ErrProfileExists
	}

	now := time.Now().UTC()
	profile := model.Profile{
		ID:                userID,
		Name:              clean.Name,
		BloodGroup:        clean.BloodGroup,
		InsuranceProvider: clean.InsuranceProvider,
		InsuranceNumber:   clean.InsuranceNumber,
		PDFURL:            emptyToNil(clean.PDFURL),
		Notes:             clean.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrProfileExists
		case errors.Is(err, repository.ErrMissingParent):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	logger.Info("profile created", "module", "service", "action", "create", "resource", "profile", "result", "ok", "user_id", userID)
	return &profile, nil
}

func (s *profileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *profileService) Update(ctx context.Context, userID string, input ProfileInput) (*model.Profile, error) {
	clean, err := cleanProfileInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.checkDocumentURL(userID, clean.PDFURL); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Name = clean.Name
	updated.BloodGroup = clean.BloodGroup
	updated.InsuranceProvider = clean.InsuranceProvider
	updated.InsuranceNumber = clean.InsuranceNumber
	updated.Notes = clean.Notes
	if clean.PDFURL != nil {
		updated.PDFURL = emptyToNil(clean.PDFURL)
	}
	updated.UpdatedAt = time.Now().UTC()

	if err := s.profiles.Update(ctx, updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &updated, nil
}

func (s *profileService) Delete(ctx context.Context, userID string) error {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.profiles.Delete(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("delete profile: %w", err)
	}

	if s.store != nil && current.PDFURL != nil {
		if key, ok := ownedKey(s.store, userID, *current.PDFURL); ok {
			if err := s.store.Delete(ctx, key); err != nil {
				logger.Warn("delete profile document", "module", "service", "action", "delete", "resource", "document", "result", "failed", "user_id", userID, "error", err)
			}
		}
	}
	logger.Info("profile deleted", "module", "service", "action", "delete", "resource", "profile", "result", "ok", "user_id", userID)
	return nil
}

// checkDocumentURL rejects links into the document store that name another user's object.
func (s *profileService) checkDocumentURL(userID string, docURL *string) error {
	if s.store == nil || docURL == nil || *docURL == "" {
		return nil
	}
	if _, ok := s.store.KeyFromURL(*docURL); !ok {
		return nil
	}
	if _, ok := ownedKey(s.store, userID, *docURL); !ok {
		return fieldInvalid("pdfUrl", "must reference your own document")
	}
	return nil
}

func cleanProfileInput(in ProfileInput) (ProfileInput, error) {
	out := ProfileInput{
		Name:              sanitizer.PlainText(in.Name),
		BloodGroup:        strings.ToUpper(strings.TrimSpace(in.BloodGroup)),
		InsuranceProvider: cleanOptional(in.InsuranceProvider, sanitizer.PlainText),
		InsuranceNumber:   cleanOptional(in.InsuranceNumber, sanitizer.PlainText),
		Notes:             cleanOptional(in.Notes, sanitizer.Notes),
	}
	if in.PDFURL != nil {
		trimmed := strings.TrimSpace(*in.PDFURL)
		out.PDFURL = &trimmed
	}

	if out.Name == "" {
		return ProfileInput{}, fieldRequired("name")
	}
	if out.BloodGroup == "" {
		return ProfileInput{}, fieldRequired("bloodGroup")
	}
	if !isBloodGroup(out.BloodGroup) {
		return ProfileInput{}, fieldInvalid("bloodGroup", "must be one of [%s]", strings.Join(BloodGroups, ", "))
	}
	if out.PDFURL != nil && *out.PDFURL != "" && !isHTTPURL(*out.PDFURL) {
		return ProfileInput{}, fieldInvalid("pdfUrl", "must be a valid uri")
	}
	return out, nil
}

func cleanOptional(value *string, clean func(string) string) *string {
	if value == nil {
		return nil
	}
	cleaned := clean(*value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func emptyToNil(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}

func isBloodGroup(value string) bool {
	for _, g := range BloodGroups {
		if g == value {
			return true
		}
	}
	return false
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
