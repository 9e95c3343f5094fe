package apiclient

import (
	"context"
	"fmt"

	"github.com/wolfman30/ayurdiet-portal/internal/catalog"
)

// ListPatients lists the patients visible to the caller.
func (c *Client) ListPatients(ctx context.Context) ([]catalog.Patient, error) {
	var patients []catalog.Patient
	if err := c.doJSON(ctx, epPatients.at(), nil, &patients); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

// ListDoctorPatients lists the patients who booked with the calling doctor.
func (c *Client) ListDoctorPatients(ctx context.Context) ([]catalog.Patient, error) {
	var patients []catalog.Patient
	if err := c.doJSON(ctx, epDoctorPatients.at(), nil, &patients); err != nil {
		return nil, fmt.Errorf("list doctor patients: %w", err)
	}
	return patients, nil
}

// GetPatient fetches one patient.
func (c *Client) GetPatient(ctx context.Context, patientID string) (*catalog.Patient, error) {
	var patient catalog.Patient
	if err := c.doJSON(ctx, epPatient.at(patientID), nil, &patient); err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &patient, nil
}

// UpdatePatient applies a partial update to a patient.
func (c *Client) UpdatePatient(ctx context.Context, patientID string, update catalog.PatientUpdate) error {
	if err := c.doJSON(ctx, epUpdatePatient.at(patientID), update, nil); err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	return nil
}

// UpdateAssessment stores the questionnaire answers on the patient.
func (c *Client) UpdateAssessment(ctx context.Context, patientID string, assessment catalog.Assessment) error {
	return c.UpdatePatient(ctx, patientID, catalog.PatientUpdate{Assessment: &assessment})
}

// ListFoods lists the food database.
func (c *Client) ListFoods(ctx context.Context) ([]catalog.FoodItem, error) {
	var foods []catalog.FoodItem
	if err := c.doJSON(ctx, epFoods.at(), nil, &foods); err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	return foods, nil
}

// CreateFood adds a food to the database.
func (c *Client) CreateFood(ctx context.Context, food catalog.FoodItem) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, epCreateFood.at(), food, &resp); err != nil {
		return "", fmt.Errorf("create food: %w", err)
	}
	return resp.ID, nil
}

// ListDietPlans lists every stored plan, most recently modified first.
func (c *Client) ListDietPlans(ctx context.Context) ([]catalog.PlanRecord, error) {
	var plans []catalog.PlanRecord
	if err := c.doJSON(ctx, epDietPlans.at(), nil, &plans); err != nil {
		return nil, fmt.Errorf("list diet plans: %w", err)
	}
	return plans, nil
}

// PatientDietPlans lists the plans of one patient. Patients only receive published plans.
func (c *Client) PatientDietPlans(ctx context.Context, patientID string) ([]catalog.PatientPlan, error) {
	var plans []catalog.PatientPlan
	if err := c.doJSON(ctx, epPatientPlans.at(patientID), nil, &plans); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("patient diet plans: %w", err)
	}
	return plans, nil
}

// SetDietPlanStatus changes the status of a stored plan.
func (c *Client) SetDietPlanStatus(ctx context.Context, planID string, status catalog.PlanStatus) error {
	body := map[string]string{"status": string(status)}
	if err := c.doJSON(ctx, epPlanStatus.at(planID), body, nil); err != nil {
		return fmt.Errorf("set diet plan status: %w", err)
	}
	return nil
}

// GenerateDiet asks the API to generate a plan from the patient's stored assessment.
func (c *Client) GenerateDiet(ctx context.Context, patientID string) (*catalog.GeneratedPlan, error) {
	body := map[string]string{"patient_id": patientID}
	var resp catalog.GeneratedPlan
	if err := c.doJSON(ctx, epGenerateDiet.at(), body, &resp); err != nil {
		return nil, fmt.Errorf("generate diet: %w", err)
	}
	return &resp, nil
}

// SaveDietDraft creates or overwrites a draft plan and returns its id.
func (c *Client) SaveDietDraft(ctx context.Context, draft catalog.Draft) (string, error) {
	var resp struct {
		PlanID string `json:"plan_id"`
	}
	if err := c.doJSON(ctx, epSaveDraft.at(), draft, &resp); err != nil {
		return "", fmt.Errorf("save diet draft: %w", err)
	}
	return resp.PlanID, nil
}

// PractitionerProfile fetches the calling doctor's profile.
func (c *Client) PractitionerProfile(ctx context.Context) (*catalog.PractitionerProfile, error) {
	var profile catalog.PractitionerProfile
	if err := c.doJSON(ctx, epPractitionerProfile.at(), nil, &profile); err != nil {
		return nil, fmt.Errorf("practitioner profile: %w", err)
	}
	return &profile, nil
}

// UpdatePractitionerProfile applies a partial update to the calling doctor's profile.
func (c *Client) UpdatePractitionerProfile(ctx context.Context, update catalog.ProfileUpdate) error {
	if err := c.doJSON(ctx, epUpdatePractitionerProfile.at(), update, nil); err != nil {
		return fmt.Errorf("update practitioner profile: %w", err)
	}
	return nil
}

// ListProgress lists the tracking logs of a patient, newest first.
func (c *Client) ListProgress(ctx context.Context, patientID string) ([]catalog.ProgressEntry, error) {
	var entries []catalog.ProgressEntry
	if err := c.doJSON(ctx, epProgress.at(patientID), nil, &entries); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return entries, nil
}

// LogProgress records a tracking entry.
func (c *Client) LogProgress(ctx context.Context, entry catalog.ProgressEntry) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, epLogProgress.at(), entry, &resp); err != nil {
		return "", fmt.Errorf("log progress: %w", err)
	}
	return resp.ID, nil
}

// AdminStats fetches system wide counts for the admin dashboard.
func (c *Client) AdminStats(ctx context.Context) (*catalog.AdminStats, error) {
	var stats catalog.AdminStats
	if err := c.doJSON(ctx, epAdminStats.at(), nil, &stats); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	return &stats, nil
}
