package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wolfman30/ayurdiet-portal/internal/appointment"
)

// Assessment is the constitution questionnaire stored on a patient.
type Assessment struct {
	Age      int    `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Prakriti string `json:"prakriti,omitempty"`
	Vikriti  string `json:"vikriti,omitempty"`
}

// Patient is a patient record as listed for practitioners and admins.
type Patient struct {
	ID                   string      `json:"id,omitempty"`
	PatientID            string      `json:"patientId"`
	Name                 string      `json:"name"`
	Email                string      `json:"email,omitempty"`
	Phone                string      `json:"phone,omitempty"`
	AssignedDoctorID     string      `json:"assignedDoctorId,omitempty"`
	HealthHistory        string      `json:"healthHistory,omitempty"`
	Assessment           *Assessment `json:"assessment,omitempty"`
	AssessmentDoctorName string      `json:"assessmentDoctorName,omitempty"`
}

// Key is the identifier used for lookups; some endpoints only return patientId.
func (p Patient) Key() string {
	if p.PatientID != "" {
		return p.PatientID
	}
	return p.ID
}

// PatientUpdate is the body of PUT /patients/{id}. Nil fields are left untouched.
type PatientUpdate struct {
	Assessment    *Assessment `json:"assessment,omitempty"`
	HealthHistory *string     `json:"healthHistory,omitempty"`
}

// List is a string list that also accepts the comma separated form some
// records store, e.g. "Sweet, Astringent".
type List []string

func (l *List) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		var out List
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		*l = out
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("catalog: list: %w", err)
	}
	*l = items
	return nil
}

// FoodItem is an entry of the Ayurvedic food database.
type FoodItem struct {
	ID            string         `json:"id,omitempty"`
	Name          string         `json:"name"`
	Category      string         `json:"category,omitempty"`
	Rasa          List           `json:"rasa,omitempty"`
	Virya         string         `json:"virya,omitempty"`
	Vipaka        string         `json:"vipaka,omitempty"`
	DoshaPacified List           `json:"dosha_pacified,omitempty"`
	DoshaEffect   map[string]int `json:"dosha_effect,omitempty"`
	Calories      int            `json:"calories,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
}

// Rasas are the six tastes.
var Rasas = []string{"Sweet", "Sour", "Salty", "Pungent", "Bitter", "Astringent"}

// Viryas are the two potencies.
var Viryas = []string{"Heating", "Cooling"}

// Vipakas are the post-digestive effects.
var Vipakas = []string{"Sweet", "Sour", "Pungent"}

// Doshas are the three constitutional energies.
var Doshas = []string{"Vata", "Pitta", "Kapha"}

// Meal is one meal of a plan day.
type Meal struct {
	Type  string   `json:"type"`
	Time  string   `json:"time,omitempty"`
	Items []string `json:"items"`
}

// DayPlan is one day of the weekly meal plan.
type DayPlan struct {
	Day   string `json:"day"`
	Meals []Meal `json:"meals"`
}

// PlanSummary carries aggregate figures some generators add.
type PlanSummary struct {
	TotalCalories int `json:"totalCalories,omitempty"`
}

// DietPlan is a generated plan. Patients see it as received; practitioners
// edit it as a Draft before publishing.
type DietPlan struct {
	DoshaImbalance   string       `json:"doshaImbalance"`
	Prakriti         string       `json:"prakriti,omitempty"`
	RecommendedFoods []string     `json:"recommendedFoods"`
	AvoidFoods       []string     `json:"avoidFoods"`
	Rationale        string       `json:"rationale"`
	Guidelines       []string     `json:"guidelines,omitempty"`
	MealPlan         []DayPlan    `json:"mealPlan"`
	Summary          *PlanSummary `json:"summary,omitempty"`
}

// GeneratedPlan is the answer of POST /generate-diet.
type GeneratedPlan struct {
	Message string   `json:"message,omitempty"`
	Plan    DietPlan `json:"diet_plan"`
	PlanID  string   `json:"plan_id,omitempty"`
}

// Draft is a practitioner's working copy of a plan. An empty PlanID stores a
// new draft; otherwise the stored draft is overwritten.
type Draft struct {
	PlanID    string   `json:"plan_id,omitempty"`
	PatientID string   `json:"patient_id"`
	Content   DietPlan `json:"content"`
}

// PlanStatus is the publication state of a stored plan.
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanPublished PlanStatus = "published"
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

// Normalize lower-cases and trims a status value from the API.
func (s PlanStatus) Normalize() PlanStatus {
	return PlanStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

// Settable reports whether the status dropdown may request s.
func (s PlanStatus) Settable() bool {
	switch s.Normalize() {
	case PlanActive, PlanCompleted, PlanCancelled:
		return true
	}
	return false
}

// PlanRecord is one row of the diet plan list.
type PlanRecord struct {
	ID           string     `json:"id"`
	PatientID    string     `json:"patientId"`
	PatientName  string     `json:"patientName"`
	GeneratedAt  string     `json:"generatedAt,omitempty"`
	LastModified string     `json:"lastModified,omitempty"`
	Status       PlanStatus `json:"status"`
	Calories     int        `json:"calories,omitempty"`
}

// PatientPlan is a stored plan returned by GET /diet-plans/{patientId}.
type PatientPlan struct {
	ID           string     `json:"id,omitempty"`
	PatientID    string     `json:"patientId,omitempty"`
	Status       PlanStatus `json:"status,omitempty"`
	Published    bool       `json:"published,omitempty"`
	CreatedBy    string     `json:"createdBy,omitempty"`
	GeneratedAt  string     `json:"generatedAt,omitempty"`
	PublishedAt  string     `json:"publishedAt,omitempty"`
	LastModified string     `json:"lastModified,omitempty"`
	Content      DietPlan   `json:"content"`
}

// ProgressEntry is one daily tracking log of a patient.
type ProgressEntry struct {
	ID            string   `json:"id,omitempty"`
	PatientID     string   `json:"patientId"`
	Date          string   `json:"date,omitempty"`
	WaterIntake   int      `json:"waterIntake"`
	BowelMovement string   `json:"bowelMovement,omitempty"`
	Symptoms      string   `json:"symptoms,omitempty"`
	MealAdherence int      `json:"mealAdherence"`
	Weight        *float64 `json:"weight,omitempty"`
	SleepHours    *float64 `json:"sleepHours,omitempty"`
	Mood          string   `json:"mood,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// AdminStats is the answer of GET /admin/stats.
type AdminStats struct {
	TotalPatients     int `json:"totalPatients"`
	TotalDoctors      int `json:"totalDoctors"`
	VerifiedDoctors   int `json:"verifiedDoctors"`
	PendingDoctors    int `json:"pendingDoctors"`
	TotalAppointments int `json:"totalAppointments"`
}

// PractitionerProfile is the signed-in doctor's record from GET /practitioner/profile.
type PractitionerProfile struct {
	DoctorID         string                    `json:"doctorId"`
	Name             string                    `json:"name"`
	Specialization   string                    `json:"specialization,omitempty"`
	ClinicHours      []appointment.ClinicHours `json:"clinicHours,omitempty"`
	Status           string                    `json:"status,omitempty"`
	PersonalInfo     map[string]any            `json:"personalInfo,omitempty"`
	ProfessionalInfo map[string]any            `json:"professionalInfo,omitempty"`
	ClinicInfo       map[string]any            `json:"clinicInfo,omitempty"`
	CreatedAt        string                    `json:"createdAt,omitempty"`
}

// ProfileUpdate is the body of PUT /practitioner/profile. Nil fields are left untouched.
type ProfileUpdate struct {
	Specialization   *string                   `json:"specialization,omitempty"`
	ClinicHours      []appointment.ClinicHours `json:"clinicHours,omitempty"`
	PersonalInfo     map[string]any            `json:"personalInfo,omitempty"`
	ProfessionalInfo map[string]any            `json:"professionalInfo,omitempty"`
	ClinicInfo       map[string]any            `json:"clinicInfo,omitempty"`
}

func (u ProfileUpdate) empty() bool {
	return u.Specialization == nil && u.ClinicHours == nil && u.PersonalInfo == nil &&
		u.ProfessionalInfo == nil && u.ClinicInfo == nil
}
