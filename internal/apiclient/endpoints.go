package apiclient

import "net/http"

var (
	epHealth = endpoint{http.MethodGet, "/health"}
	epLogin  = endpoint{http.MethodPost, "/auth/login"}

	epDoctors = endpoint{http.MethodGet, "/doctors"}

	epAppointments           = endpoint{http.MethodGet, "/appointments/"}
	epMyAppointments         = endpoint{http.MethodGet, "/appointments/me"}
	epBook                   = endpoint{http.MethodPost, "/appointments/book"}
	epUpcoming               = endpoint{http.MethodGet, "/appointments/doctor/{id}/upcoming"}
	epDoctorPatients         = endpoint{http.MethodGet, "/appointments/doctor/patients"}
	epConfirm                = endpoint{http.MethodPost, "/appointments/{id}/confirm"}
	epCancel                 = endpoint{http.MethodPost, "/appointments/{id}/cancel"}
	epReschedulePatient      = endpoint{http.MethodPost, "/appointments/{id}/reschedule/patient"}
	epRescheduleDoctor       = endpoint{http.MethodPost, "/appointments/{id}/reschedule/doctor"}
	epAcceptDoctorReschedule = endpoint{http.MethodPost, "/appointments/{id}/reschedule/patient/accept"}
	epRejectDoctorReschedule = endpoint{http.MethodPost, "/appointments/{id}/reschedule/patient/reject"}

	epPatients      = endpoint{http.MethodGet, "/patients"}
	epPatient       = endpoint{http.MethodGet, "/patients/{id}"}
	epUpdatePatient = endpoint{http.MethodPut, "/patients/{id}"}

	epFoods      = endpoint{http.MethodGet, "/foods"}
	epCreateFood = endpoint{http.MethodPost, "/foods"}

	epDietPlans    = endpoint{http.MethodGet, "/diet-plans"}
	epPatientPlans = endpoint{http.MethodGet, "/diet-plans/{patientId}"}
	epPlanStatus   = endpoint{http.MethodPut, "/diet-plans/{id}/status"}
	epGenerateDiet = endpoint{http.MethodPost, "/generate-diet"}
	epSaveDraft    = endpoint{http.MethodPost, "/diet-plans/save-draft"}
	epProgress     = endpoint{http.MethodGet, "/progress/{patientId}"}
	epLogProgress  = endpoint{http.MethodPost, "/progress"}
	epAdminStats   = endpoint{http.MethodGet, "/admin/stats"}

	epPractitionerProfile       = endpoint{http.MethodGet, "/practitioner/profile"}
	epUpdatePractitionerProfile = endpoint{http.MethodPut, "/practitioner/profile"}
)
