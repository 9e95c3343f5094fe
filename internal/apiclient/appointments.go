package apiclient

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/ayurdiet-portal/internal/appointment"
)

// ListDoctors lists verified doctors with their clinic hours.
func (c *Client) ListDoctors(ctx context.Context) ([]appointment.Doctor, error) {
	var doctors []appointment.Doctor
	if err := c.doJSON(ctx, epDoctors.at(), nil, &doctors); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// ListAppointments lists every appointment the caller may see.
func (c *Client) ListAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	var appts []appointment.Appointment
	if err := c.doJSON(ctx, epAppointments.at(), nil, &appts); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// MyAppointments lists the caller's own bookings (patient) or schedule (doctor).
func (c *Client) MyAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	var appts []appointment.Appointment
	if err := c.doJSON(ctx, epMyAppointments.at(), nil, &appts); err != nil {
		return nil, fmt.Errorf("my appointments: %w", err)
	}
	return appts, nil
}

// BookedSlots fetches the upcoming occupied slots of a doctor.
func (c *Client) BookedSlots(ctx context.Context, doctorID string) ([]appointment.BookedSlot, error) {
	var slots []appointment.BookedSlot
	if err := c.doJSON(ctx, epUpcoming.at(doctorID), nil, &slots); err != nil {
		return nil, fmt.Errorf("booked slots: %w", err)
	}
	return slots, nil
}

// wireTime renders an outgoing start as a UTC RFC 3339 instant, the form the
// API stores. Incoming naive values are read in the clinic timezone instead.
func wireTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

type bookRequest struct {
	DoctorID       string `json:"doctor_id"`
	StartTimestamp string `json:"startTimestamp"`
	Notes          string `json:"notes,omitempty"`
}

// BookAppointment creates a pending appointment.
func (c *Client) BookAppointment(ctx context.Context, req appointment.BookingRequest) (*appointment.BookingResult, error) {
	body := bookRequest{
		DoctorID:       req.DoctorID,
		StartTimestamp: wireTime(req.Start),
		Notes:          req.Notes,
	}
	var resp struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, epBook.at(), body, &resp); err != nil {
		return nil, fmt.Errorf("book appointment: %w", err)
	}
	result := &appointment.BookingResult{ID: resp.ID, Message: resp.Message}
	if status, err := appointment.Parse(resp.Status); err == nil {
		result.Status = status
	}
	return result, nil
}

// ConfirmAppointment moves a pending appointment to confirmed.
func (c *Client) ConfirmAppointment(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, epConfirm.at(id), nil, nil); err != nil {
		return fmt.Errorf("confirm appointment: %w", err)
	}
	return nil
}

// CancelAppointment cancels an appointment with an optional reason.
func (c *Client) CancelAppointment(ctx context.Context, id, reason string) error {
	body := map[string]string{}
	if reason != "" {
		body["reason"] = reason
	}
	if err := c.doJSON(ctx, epCancel.at(id), body, nil); err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	return nil
}

// RescheduleAsPatient proposes a new start on behalf of the patient.
func (c *Client) RescheduleAsPatient(ctx context.Context, id string, newStart time.Time) error {
	body := map[string]string{"newStartTimestamp": wireTime(newStart)}
	if err := c.doJSON(ctx, epReschedulePatient.at(id), body, nil); err != nil {
		return fmt.Errorf("reschedule as patient: %w", err)
	}
	return nil
}

// RescheduleAsDoctor proposes a new start on behalf of the doctor.
func (c *Client) RescheduleAsDoctor(ctx context.Context, id string, newStart time.Time, reason string) error {
	body := map[string]string{"newStartTimestamp": wireTime(newStart)}
	if reason != "" {
		body["reason"] = reason
	}
	if err := c.doJSON(ctx, epRescheduleDoctor.at(id), body, nil); err != nil {
		return fmt.Errorf("reschedule as doctor: %w", err)
	}
	return nil
}

// AcceptDoctorReschedule commits a doctor's proposal.
func (c *Client) AcceptDoctorReschedule(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, epAcceptDoctorReschedule.at(id), nil, nil); err != nil {
		return fmt.Errorf("accept reschedule: %w", err)
	}
	return nil
}

// RejectDoctorReschedule discards a doctor's proposal.
func (c *Client) RejectDoctorReschedule(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, epRejectDoctorReschedule.at(id), nil, nil); err != nil {
		return fmt.Errorf("reject reschedule: %w", err)
	}
	return nil
}

var _ appointment.Gateway = (*Client)(nil)
