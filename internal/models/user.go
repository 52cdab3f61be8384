package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/desertthunder/contentforge/internal/shared"
)

// Plan is a subscription tier. Only the usage limit is enforced here.
type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanCreator Plan = "CREATOR"
	PlanPro     Plan = "PRO"
	PlanTeam    Plan = "TEAM"
)

// Unlimited is the limit reported for plans without a project cap.
const Unlimited = math.MaxInt32

// Limit returns the number of projects the plan may create. Unknown plans get the free limit.
func (p Plan) Limit() int {
	switch p {
	case PlanCreator:
		return 30
	case PlanPro, PlanTeam:
		return Unlimited
	}
	return 3
}

// Label is the display name of the plan.
func (p Plan) Label() string {
	switch p {
	case PlanCreator:
		return "Creator"
	case PlanPro:
		return "Pro"
	case PlanTeam:
		return "Team"
	}
	return "Free"
}

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanCreator, PlanPro, PlanTeam:
		return true
	}
	return false
}

// MaxOnboardingStep is the last onboarding step index.
const MaxOnboardingStep = 3

// User is an account that owns projects.
type User struct {
	ID                  string  `json:"id"`
	Email               string  `json:"email"`
	Name                string  `json:"name"`
	Plan                Plan    `json:"plan"`
	UsageCount          int     `json:"usageCount"`
	OnboardingStep      int     `json:"onboardingStep"`
	OnboardingCompleted bool    `json:"onboardingCompleted"`
	BrandVoice          *string `json:"brandVoice"`
	Timestamps
}

// NewUser creates a user on the given plan.
func NewUser(email, name string, plan Plan) *User {
	return &User{Email: strings.TrimSpace(email), Name: strings.TrimSpace(name), Plan: plan}
}

func (u *User) Key() string { return u.ID }

// Validate checks the required fields.
func (u *User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: invalid email %q", shared.ErrInvalidInput, u.Email)
	}
	if !u.Plan.Valid() {
		return fmt.Errorf("%w: unknown plan %q", shared.ErrInvalidInput, u.Plan)
	}
	if u.OnboardingStep < 0 || u.OnboardingStep > MaxOnboardingStep {
		return fmt.Errorf("%w: onboarding step must be between 0 and %d", shared.ErrInvalidInput, MaxOnboardingStep)
	}
	return nil
}

// CanCreateProject reports whether the user is below the plan's project limit.
func (u *User) CanCreateProject() bool {
	return u.UsageCount < u.Plan.Limit()
}

// Settings is a partial update of the user's profile preferences.
type Settings struct {
	Name       *string `json:"name"`
	BrandVoice *string `json:"brandVoice"`
}

// Normalize trims the provided fields and rejects an update that changes nothing.
func (s *Settings) Normalize() error {
	if s.Name == nil && s.BrandVoice == nil {
		return fmt.Errorf("%w: no fields to update", shared.ErrInvalidInput)
	}
	if s.Name != nil {
		v := strings.TrimSpace(*s.Name)
		s.Name = &v
	}
	if s.BrandVoice != nil {
		v := strings.TrimSpace(*s.BrandVoice)
		s.BrandVoice = &v
	}
	return nil
}

// Onboarding is a partial update of onboarding progress.
type Onboarding struct {
	Step      *int  `json:"step"`
	Completed *bool `json:"completed"`
}

// Validate rejects out-of-range steps and empty updates.
func (o Onboarding) Validate() error {
	if o.Step == nil && o.Completed == nil {
		return fmt.Errorf("%w: no fields to update", shared.ErrInvalidInput)
	}
	if o.Step != nil && (*o.Step < 0 || *o.Step > MaxOnboardingStep) {
		return fmt.Errorf("%w: step must be between 0 and %d", shared.ErrInvalidInput, MaxOnboardingStep)
	}
	return nil
}
