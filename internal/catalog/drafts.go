package catalog

import (
	"context"
	"strings"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
)

// GenerateDraft asks the API for a plan built from the patient's stored
// assessment. The API keeps the result as a new draft; its id comes back on
// the Draft so later edits overwrite it.
func (s *Service) GenerateDraft(ctx context.Context, user session.User, patientID string) (*Draft, error) {
	patientID, err := s.ownPatient(ctx, user, "generate draft", patientID)
	if err != nil {
		return nil, err
	}
	gen, err := s.gw.GenerateDiet(ctx, patientID)
	if err != nil {
		s.logger.Error("failed to generate draft", "error", err, "patient_id", patientID, "doctor_id", user.UID)
		return nil, err
	}
	s.logger.Info("draft generated", "plan_id", gen.PlanID, "patient_id", patientID, "doctor_id", user.UID)
	return &Draft{PlanID: gen.PlanID, PatientID: patientID, Content: gen.Plan}, nil
}

// SaveDraft stores a practitioner's edit of a plan and returns it with the
// id the API assigned.
func (s *Service) SaveDraft(ctx context.Context, user session.User, draft Draft) (*Draft, error) {
	patientID, err := s.ownPatient(ctx, user, "save draft", draft.PatientID)
	if err != nil {
		return nil, err
	}
	content, err := normalizeDraft(draft.Content)
	if err != nil {
		return nil, err
	}
	draft = Draft{PlanID: strings.TrimSpace(draft.PlanID), PatientID: patientID, Content: content}

	id, err := s.gw.SaveDietDraft(ctx, draft)
	if err != nil {
		s.logger.Error("failed to save draft", "error", err, "plan_id", draft.PlanID, "patient_id", patientID)
		return nil, err
	}
	if id != "" {
		draft.PlanID = id
	}
	s.logger.Info("draft saved", "plan_id", draft.PlanID, "patient_id", patientID, "doctor_id", user.UID)
	return &draft, nil
}

// ownPatient checks that patientID is one of the doctor's patients, taken
// from the same list the practitioner's patient picker shows.
func (s *Service) ownPatient(ctx context.Context, user session.User, op, patientID string) (string, error) {
	if user.Role != session.RoleDoctor {
		return "", apperr.New(apperr.ErrForbidden, op, "Only practitioners can author diet plans.")
	}
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return "", apperr.Validation(op, "Please select a patient.")
	}
	patients, err := s.gw.ListDoctorPatients(ctx)
	if err != nil {
		s.logger.Error("failed to list doctor patients", "error", err, "doctor_id", user.UID)
		return "", err
	}
	for _, p := range patients {
		if p.Key() == patientID {
			return patientID, nil
		}
	}
	return "", apperr.New(apperr.ErrForbidden, op, "This patient has no appointments with you.")
}

// normalizeDraft trims the edited plan and drops blank entries left by the
// editor. Days and meals must stay labelled.
func normalizeDraft(plan DietPlan) (DietPlan, error) {
	const op = "save draft"
	plan.DoshaImbalance = strings.TrimSpace(plan.DoshaImbalance)
	plan.Prakriti = strings.TrimSpace(plan.Prakriti)
	plan.Rationale = strings.TrimSpace(plan.Rationale)
	plan.RecommendedFoods = compact(plan.RecommendedFoods)
	plan.AvoidFoods = compact(plan.AvoidFoods)
	plan.Guidelines = compact(plan.Guidelines)

	days := make([]DayPlan, 0, len(plan.MealPlan))
	for _, day := range plan.MealPlan {
		day.Day = strings.TrimSpace(day.Day)
		if day.Day == "" {
			return plan, apperr.Validation(op, "Each day of the meal plan needs a name.")
		}
		meals := make([]Meal, 0, len(day.Meals))
		for _, meal := range day.Meals {
			meal.Type = strings.TrimSpace(meal.Type)
			meal.Time = strings.TrimSpace(meal.Time)
			meal.Items = compact(meal.Items)
			if meal.Type == "" {
				return plan, apperr.Validation(op, "Each meal needs a type.")
			}
			if len(meal.Items) == 0 {
				continue
			}
			meals = append(meals, meal)
		}
		day.Meals = meals
		days = append(days, day)
	}
	plan.MealPlan = days

	hasMeal := false
	for _, day := range days {
		if len(day.Meals) > 0 {
			hasMeal = true
			break
		}
	}
	if !hasMeal && len(plan.RecommendedFoods) == 0 {
		return plan, apperr.Validation(op, "The plan has no meals or recommended foods.")
	}
	return plan, nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
