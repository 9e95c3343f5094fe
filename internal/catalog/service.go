package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// Gateway is the REST API surface behind the list and detail views.
type Gateway interface {
	ListPatients(ctx context.Context) ([]Patient, error)
	ListDoctorPatients(ctx context.Context) ([]Patient, error)
	GetPatient(ctx context.Context, patientID string) (*Patient, error)
	UpdatePatient(ctx context.Context, patientID string, update PatientUpdate) error
	ListFoods(ctx context.Context) ([]FoodItem, error)
	CreateFood(ctx context.Context, food FoodItem) (string, error)
	PatientDietPlans(ctx context.Context, patientID string) ([]PatientPlan, error)
	GenerateDiet(ctx context.Context, patientID string) (*GeneratedPlan, error)
	SaveDietDraft(ctx context.Context, draft Draft) (string, error)
	PractitionerProfile(ctx context.Context) (*PractitionerProfile, error)
	UpdatePractitionerProfile(ctx context.Context, update ProfileUpdate) error
	ListProgress(ctx context.Context, patientID string) ([]ProgressEntry, error)
	LogProgress(ctx context.Context, entry ProgressEntry) (string, error)
	AdminStats(ctx context.Context) (*AdminStats, error)
}

// Service serves the list views. Every call fetches in full; nothing is cached.
type Service struct {
	gw     Gateway
	logger *logging.Logger
	now    func() time.Time
	loc    *time.Location
}

func NewService(gw Gateway, logger *logging.Logger, loc *time.Location) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{gw: gw, logger: logger, now: time.Now, loc: loc}
}

// Patients lists the patients visible to user filtered by query. Doctors see
// their own patients, admins see everyone.
func (s *Service) Patients(ctx context.Context, user session.User, query string) ([]Patient, error) {
	var (
		patients []Patient
		err      error
	)
	switch user.Role {
	case session.RoleAdmin:
		patients, err = s.gw.ListPatients(ctx)
	case session.RoleDoctor:
		patients, err = s.gw.ListDoctorPatients(ctx)
	default:
		return nil, apperr.New(apperr.ErrForbidden, "list patients", "Only practitioners can browse patients.")
	}
	if err != nil {
		s.logger.Error("failed to list patients", "error", err, "role", user.Role)
		return nil, err
	}
	return FilterPatients(patients, query), nil
}

// Patient returns one patient. Patients may only read their own record.
func (s *Service) Patient(ctx context.Context, user session.User, patientID string) (*Patient, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, apperr.Validation("get patient", "patient id is required")
	}
	if user.Role == session.RolePatient && user.UID != patientID {
		return nil, apperr.New(apperr.ErrForbidden, "get patient", "You can only view your own profile.")
	}
	p, err := s.gw.GetPatient(ctx, patientID)
	if err != nil {
		s.logger.Error("failed to load patient", "error", err, "patient_id", patientID)
		return nil, err
	}
	return p, nil
}

// UpdatePatient stores a practitioner's edit of the health history or
// assessment and returns the re-fetched record.
func (s *Service) UpdatePatient(ctx context.Context, user session.User, patientID string, update PatientUpdate) (*Patient, error) {
	if user.Role != session.RoleDoctor && user.Role != session.RoleAdmin {
		return nil, apperr.New(apperr.ErrForbidden, "update patient", "Only practitioners can edit patient records.")
	}
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, apperr.Validation("update patient", "patient id is required")
	}
	if update.Assessment == nil && update.HealthHistory == nil {
		return nil, apperr.Validation("update patient", "Nothing to update.")
	}
	if err := s.gw.UpdatePatient(ctx, patientID, update); err != nil {
		s.logger.Error("failed to update patient", "error", err, "patient_id", patientID)
		return nil, err
	}
	return s.Patient(ctx, user, patientID)
}

func (s *Service) Foods(ctx context.Context, query string) ([]FoodItem, error) {
	foods, err := s.gw.ListFoods(ctx)
	if err != nil {
		s.logger.Error("failed to list foods", "error", err)
		return nil, err
	}
	return FilterFoods(foods, query), nil
}

// CreateFood validates and stores a food item, then returns the re-fetched list.
func (s *Service) CreateFood(ctx context.Context, user session.User, food FoodItem) ([]FoodItem, error) {
	if user.Role != session.RoleAdmin {
		return nil, apperr.New(apperr.ErrForbidden, "create food", "Only admins can add foods.")
	}
	food, err := normalizeFood(food)
	if err != nil {
		return nil, err
	}
	id, err := s.gw.CreateFood(ctx, food)
	if err != nil {
		s.logger.Error("failed to create food", "error", err, "name", food.Name)
		return nil, err
	}
	s.logger.Info("food created", "food_id", id, "name", food.Name)
	return s.Foods(ctx, "")
}

func normalizeFood(food FoodItem) (FoodItem, error) {
	food.Name = strings.TrimSpace(food.Name)
	food.Category = strings.TrimSpace(food.Category)
	if food.Name == "" {
		return food, apperr.Validation("create food", "Food name is required.")
	}
	if food.Category == "" {
		return food, apperr.Validation("create food", "Category is required.")
	}
	if food.Calories < 0 {
		return food, apperr.Validation("create food", "Calories cannot be negative.")
	}
	var ok bool
	if food.Rasa, ok = canonical(food.Rasa, Rasas); !ok {
		return food, apperr.Validation("create food", "Rasa must be one of "+strings.Join(Rasas, ", ")+".")
	}
	if food.DoshaPacified, ok = canonical(food.DoshaPacified, Doshas); !ok {
		return food, apperr.Validation("create food", "Doshas must be Vata, Pitta or Kapha.")
	}
	if food.Virya != "" {
		v, ok := canonical([]string{food.Virya}, Viryas)
		if !ok {
			return food, apperr.Validation("create food", "Virya must be Heating or Cooling.")
		}
		food.Virya = v[0]
	}
	if food.Vipaka != "" {
		v, ok := canonical([]string{food.Vipaka}, Vipakas)
		if !ok {
			return food, apperr.Validation("create food", "Vipaka must be Sweet, Sour or Pungent.")
		}
		food.Vipaka = v[0]
	}
	return food, nil
}

// canonical maps each value onto its allowed spelling.
func canonical(values []string, allowed []string) ([]string, bool) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		found := false
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(v), a) {
				out = append(out, a)
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return out, true
}

// MyPlans returns the plans stored for the signed-in patient.
func (s *Service) MyPlans(ctx context.Context, user session.User) ([]PatientPlan, error) {
	if user.Role != session.RolePatient {
		return nil, apperr.New(apperr.ErrForbidden, "my diet plans", "Only patients have diet plans.")
	}
	plans, err := s.gw.PatientDietPlans(ctx, user.UID)
	if err != nil {
		s.logger.Error("failed to load patient diet plans", "error", err, "patient_id", user.UID)
		return nil, err
	}
	return plans, nil
}

// Progress lists the signed-in patient's tracking entries.
func (s *Service) Progress(ctx context.Context, user session.User) ([]ProgressEntry, error) {
	if user.Role != session.RolePatient {
		return nil, apperr.New(apperr.ErrForbidden, "list progress", "Only patients track progress.")
	}
	entries, err := s.gw.ListProgress(ctx, user.UID)
	if err != nil {
		s.logger.Error("failed to list progress", "error", err, "patient_id", user.UID)
		return nil, err
	}
	return entries, nil
}

// LogProgress stores today's entry (unless dated) and returns the re-fetched list.
func (s *Service) LogProgress(ctx context.Context, user session.User, entry ProgressEntry) ([]ProgressEntry, error) {
	if user.Role != session.RolePatient {
		return nil, apperr.New(apperr.ErrForbidden, "log progress", "Only patients track progress.")
	}
	entry.PatientID = user.UID
	entry.Date = strings.TrimSpace(entry.Date)
	if entry.Date == "" {
		entry.Date = s.now().In(s.loc).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", entry.Date); err != nil {
		return nil, apperr.Validation("log progress", "Date must be YYYY-MM-DD.")
	}
	switch {
	case entry.WaterIntake < 0:
		return nil, apperr.Validation("log progress", "Water intake cannot be negative.")
	case entry.MealAdherence < 0 || entry.MealAdherence > 100:
		return nil, apperr.Validation("log progress", "Meal adherence must be between 0 and 100.")
	case entry.SleepHours != nil && (*entry.SleepHours < 0 || *entry.SleepHours > 24):
		return nil, apperr.Validation("log progress", "Sleep hours must be between 0 and 24.")
	case entry.Weight != nil && *entry.Weight <= 0:
		return nil, apperr.Validation("log progress", "Weight must be positive.")
	}
	if _, err := s.gw.LogProgress(ctx, entry); err != nil {
		s.logger.Error("failed to log progress", "error", err, "patient_id", user.UID)
		return nil, err
	}
	return s.Progress(ctx, user)
}

// AdminStats returns the platform counters for the admin dashboard.
func (s *Service) AdminStats(ctx context.Context, user session.User) (*AdminStats, error) {
	if user.Role != session.RoleAdmin {
		return nil, apperr.New(apperr.ErrForbidden, "admin stats", "Admins only.")
	}
	stats, err := s.gw.AdminStats(ctx)
	if err != nil {
		s.logger.Error("failed to load admin stats", "error", err)
		return nil, err
	}
	return stats, nil
}
