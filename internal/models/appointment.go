package models

// AppointmentStatus is the lifecycle state of an appointment
type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "BOOKED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

// AppointmentStatuses lists statuses in display order
var AppointmentStatuses = []AppointmentStatus{StatusBooked, StatusCompleted, StatusCancelled}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusBooked, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Appointment struct {
	ID           int64             `json:"id,omitempty"`
	CID          string            `json:"cid"`
	DoctorID     int64             `json:"doctorId"`
	PatientID    int64             `json:"patientId"`
	DateTime     string            `json:"dateTime,omitempty"`
	Status       AppointmentStatus `json:"status"`
	Notes        string            `json:"notes"`
	ImageURL1    string            `json:"imageUrl1,omitempty"`
	ImageURL2    string            `json:"imageUrl2,omitempty"`
	DoctorName   string            `json:"doctorName"`
	PatientName  string            `json:"patientName"`
	Prescription *Prescription     `json:"prescription,omitempty"`
}

// Prescription is owned by an appointment; Medicines keeps insertion order
type Prescription struct {
	ID            int64                `json:"id,omitempty"`
	AppointmentID int64                `json:"appointmentId,omitempty"`
	Diagnosis     string               `json:"diagnosis"`
	Advice        string               `json:"advice"`
	Medicines     []PrescribedMedicine `json:"medicines"`
}

type PrescribedMedicine struct {
	MedicineName string `json:"medicineName"`
	Quantity     int    `json:"quantity"`
	Dosage       string `json:"dosage"`
}

// AppointmentStats is the appointment service's aggregate view of a tenant
type AppointmentStats struct {
	TotalAppointments  int64 `json:"totalAppointments"`
	TodaysAppointments int64 `json:"todaysAppointments"`
}
