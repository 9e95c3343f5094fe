package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/appointment"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
)

// Profile returns the signed-in practitioner's profile.
func (s *Service) Profile(ctx context.Context, user session.User) (*PractitionerProfile, error) {
	if user.Role != session.RoleDoctor {
		return nil, apperr.New(apperr.ErrForbidden, "practitioner profile", "Only practitioners have a practice profile.")
	}
	profile, err := s.gw.PractitionerProfile(ctx)
	if err != nil {
		s.logger.Error("failed to load practitioner profile", "error", err, "doctor_id", user.UID)
		return nil, err
	}
	return profile, nil
}

// UpdateProfile stores the practitioner's edit and returns the re-fetched profile.
func (s *Service) UpdateProfile(ctx context.Context, user session.User, update ProfileUpdate) (*PractitionerProfile, error) {
	const op = "update practitioner profile"
	if user.Role != session.RoleDoctor {
		return nil, apperr.New(apperr.ErrForbidden, op, "Only practitioners have a practice profile.")
	}
	if update.empty() {
		return nil, apperr.Validation(op, "Nothing to update.")
	}
	if update.Specialization != nil {
		trimmed := strings.TrimSpace(*update.Specialization)
		update.Specialization = &trimmed
	}
	if update.ClinicHours != nil {
		hours, err := normalizeHours(update.ClinicHours)
		if err != nil {
			return nil, err
		}
		update.ClinicHours = hours
	}
	if err := s.gw.UpdatePractitionerProfile(ctx, update); err != nil {
		s.logger.Error("failed to update practitioner profile", "error", err, "doctor_id", user.UID)
		return nil, err
	}
	s.logger.Info("practitioner profile updated", "doctor_id", user.UID)
	return s.Profile(ctx, user)
}

// normalizeHours canonicalizes day names and checks every window opens
// before it closes, so the booking calendar can read them back.
func normalizeHours(hours []appointment.ClinicHours) ([]appointment.ClinicHours, error) {
	const op = "update practitioner profile"
	out := make([]appointment.ClinicHours, 0, len(hours))
	for _, h := range hours {
		day, ok := weekdayName(h.Day)
		if !ok {
			return nil, apperr.Validation(op, "Clinic day must be a weekday name such as Monday.")
		}
		from, err := time.Parse("15:04", strings.TrimSpace(h.From))
		if err != nil {
			return nil, apperr.Validation(op, "Clinic hours must use HH:MM.")
		}
		to, err := time.Parse("15:04", strings.TrimSpace(h.To))
		if err != nil {
			return nil, apperr.Validation(op, "Clinic hours must use HH:MM.")
		}
		if !from.Before(to) {
			return nil, apperr.Validation(op, "Clinic hours must open before they close.")
		}
		out = append(out, appointment.ClinicHours{Day: day, From: from.Format("15:04"), To: to.Format("15:04")})
	}
	return out, nil
}

func weekdayName(raw string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if len(name) < 3 {
		return "", false
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := wd.String()
		if name == strings.ToLower(full) || name == strings.ToLower(full[:3]) {
			return full, true
		}
	}
	return "", false
}
