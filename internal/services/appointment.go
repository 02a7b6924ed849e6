package services

import "github.com/otcheredev/hms-web/internal/models"

var statusEditors = models.RolesOf(models.RoleAdmin, models.RoleDoctor)

// Transitions lists the statuses role may move an appointment to from status
func Transitions(role models.Role, status models.AppointmentStatus) []models.AppointmentStatus {
	if status != models.StatusBooked || !statusEditors.Has(role) {
		return nil
	}
	return []models.AppointmentStatus{models.StatusCompleted, models.StatusCancelled}
}

// CanTransition reports whether role may move an appointment from one status to another
func CanTransition(role models.Role, from, to models.AppointmentStatus) bool {
	for _, s := range Transitions(role, from) {
		if s == to {
			return true
		}
	}
	return false
}

// CanCreateAppointment reports whether role may book appointments
func CanCreateAppointment(role models.Role) bool {
	return models.RolesOf(models.RoleAdmin, models.RoleStaff).Has(role)
}

// CanEditAppointment reports whether role may open the appointment form
func CanEditAppointment(role models.Role) bool {
	return models.RolesOf(models.RoleAdmin, models.RoleStaff, models.RoleDoctor).Has(role)
}

// DateTimeLocal trims a backend timestamp to the datetime-local input format
func DateTimeLocal(s string) string {
	if len(s) > 16 {
		return s[:16]
	}
	return s
}

// ResolveNames copies the doctor and patient names onto appt from the fetched lists
func ResolveNames(appt *models.Appointment, doctors []models.Doctor, patients []models.Patient) {
	for _, d := range doctors {
		if d.ID == appt.DoctorID {
			appt.DoctorName = d.Name
			break
		}
	}
	for _, p := range patients {
		if p.ID == appt.PatientID {
			appt.PatientName = p.Name
			break
		}
	}
}

// CountByStatus tallies appointments per status
func CountByStatus(appts []models.Appointment) map[models.AppointmentStatus]int {
	counts := make(map[models.AppointmentStatus]int, len(models.AppointmentStatuses))
	for _, a := range appts {
		counts[a.Status]++
	}
	return counts
}
