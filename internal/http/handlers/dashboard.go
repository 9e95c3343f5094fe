package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/ayurdiet-portal/internal/appointment"
	"github.com/wolfman30/ayurdiet-portal/internal/catalog"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// DashboardHandler assembles the role-specific landing page.
type DashboardHandler struct {
	appts   *appointment.Service
	catalog *catalog.Service
	board   *catalog.PlanBoard
	logger  *logging.Logger
	now     func() time.Time
}

func NewDashboardHandler(appts *appointment.Service, svc *catalog.Service, board *catalog.PlanBoard, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{appts: appts, catalog: svc, board: board, logger: logger, now: time.Now}
}

// PatientDashboard is the patient landing page.
type PatientDashboard struct {
	Upcoming           []AppointmentView `json:"upcoming"`
	PendingReschedules []AppointmentView `json:"pendingReschedules"`
	ActivePlans        int               `json:"activePlans"`
}

// DoctorDashboard is the practitioner landing page.
type DoctorDashboard struct {
	PendingConfirmations []AppointmentView `json:"pendingConfirmations"`
	Today                []AppointmentView `json:"today"`
	PatientCount         int               `json:"patientCount"`
}

// AdminDashboard is the admin landing page.
type AdminDashboard struct {
	FoodCount int                 `json:"foodCount"`
	Plans     catalog.PlanStats   `json:"plans"`
	Platform  *catalog.AdminStats `json:"platform,omitempty"`
}

type dashboardResponse struct {
	Role    session.Role      `json:"role"`
	Patient *PatientDashboard `json:"patient,omitempty"`
	Doctor  *DoctorDashboard  `json:"doctor,omitempty"`
	Admin   *AdminDashboard   `json:"admin,omitempty"`
}

// Show handles GET /dashboard.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := dashboardResponse{Role: user.Role}
	switch user.Role {
	case session.RolePatient:
		resp.Patient, err = h.patient(r.Context(), user)
	case session.RoleDoctor:
		resp.Doctor, err = h.doctor(r.Context(), user)
	case session.RoleAdmin:
		resp.Admin, err = h.admin(r.Context(), user)
	}
	if err != nil {
		h.logger.Error("failed to build dashboard", "error", err, "uid", user.UID, "role", user.Role)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *DashboardHandler) patient(ctx context.Context, user session.User) (*PatientDashboard, error) {
	var (
		appts []appointment.Appointment
		plans []catalog.PatientPlan
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		appts, err = h.appts.List(ctx, user)
		return err
	})
	g.Go(func() (err error) {
		plans, err = h.catalog.MyPlans(ctx, user)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	loc := h.appts.Location()
	now := h.now()
	out := &PatientDashboard{Upcoming: []AppointmentView{}, PendingReschedules: []AppointmentView{}}
	for _, appt := range sortByStart(appts, loc) {
		switch {
		case appt.Status == appointment.StatusDoctorReschedulePending:
			out.PendingReschedules = append(out.PendingReschedules, newAppointmentView(appt, user, loc))
		case !appt.Status.Terminal() && appt.StartTimestamp.In(loc).After(now):
			out.Upcoming = append(out.Upcoming, newAppointmentView(appt, user, loc))
		}
	}
	for _, p := range plans {
		if s := p.Status.Normalize(); s == catalog.PlanActive || s == catalog.PlanPublished {
			out.ActivePlans++
		}
	}
	return out, nil
}

func (h *DashboardHandler) doctor(ctx context.Context, user session.User) (*DoctorDashboard, error) {
	var (
		appts    []appointment.Appointment
		patients []catalog.Patient
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		appts, err = h.appts.List(ctx, user)
		return err
	})
	g.Go(func() (err error) {
		patients, err = h.catalog.Patients(ctx, user, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	loc := h.appts.Location()
	today := h.now().In(loc).Format("2006-01-02")
	out := &DoctorDashboard{
		PendingConfirmations: []AppointmentView{},
		Today:                []AppointmentView{},
		PatientCount:         len(patients),
	}
	for _, appt := range sortByStart(appts, loc) {
		if appt.Status == appointment.StatusPending {
			out.PendingConfirmations = append(out.PendingConfirmations, newAppointmentView(appt, user, loc))
		}
		if appt.Status != appointment.StatusCancelled && appt.StartTimestamp.In(loc).Format("2006-01-02") == today {
			out.Today = append(out.Today, newAppointmentView(appt, user, loc))
		}
	}
	return out, nil
}

func (h *DashboardHandler) admin(ctx context.Context, user session.User) (*AdminDashboard, error) {
	out := &AdminDashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		foods, err := h.catalog.Foods(gctx, "")
		out.FoodCount = len(foods)
		return err
	})
	g.Go(func() error {
		rows, err := h.board.Refresh(gctx)
		out.Plans = catalog.Stats(rows)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Platform counters are an optional endpoint; the page renders without them.
	stats, err := h.catalog.AdminStats(ctx, user)
	if err != nil {
		h.logger.Warn("admin stats unavailable", "error", err)
	} else {
		out.Platform = stats
	}
	return out, nil
}

func sortByStart(appts []appointment.Appointment, loc *time.Location) []appointment.Appointment {
	out := append([]appointment.Appointment(nil), appts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTimestamp.In(loc).Before(out[j].StartTimestamp.In(loc))
	})
	return out
}
