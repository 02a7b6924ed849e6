package services

import "github.com/otcheredev/hms-web/internal/models"

// NewMedicineLine is the blank row added to a prescription
func NewMedicineLine() models.PrescribedMedicine {
	return models.PrescribedMedicine{Quantity: 1}
}

// AddMedicineLine appends a blank medicine row, creating the prescription if needed
func AddMedicineLine(appt *models.Appointment) {
	if appt.Prescription == nil {
		appt.Prescription = &models.Prescription{}
	}
	appt.Prescription.Medicines = append(appt.Prescription.Medicines, NewMedicineLine())
}

// RemoveMedicineLine deletes the row at index, keeping the order of the rest.
// Out of range indexes leave the list as it is.
func RemoveMedicineLine(appt *models.Appointment, index int) {
	p := appt.Prescription
	if p == nil || index < 0 || index >= len(p.Medicines) {
		return
	}
	meds := make([]models.PrescribedMedicine, 0, len(p.Medicines)-1)
	meds = append(meds, p.Medicines[:index]...)
	meds = append(meds, p.Medicines[index+1:]...)
	p.Medicines = meds
}

// NormalizePrescription drops an untouched prescription so the backend does not store an empty one
func NormalizePrescription(appt *models.Appointment) {
	p := appt.Prescription
	if p == nil {
		return
	}
	if p.Medicines == nil {
		p.Medicines = []models.PrescribedMedicine{}
	}
	if p.Diagnosis == "" && p.Advice == "" && len(p.Medicines) == 0 {
		appt.Prescription = nil
	}
}
