package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/otcheredev/hms-web/internal/gateway"
	"github.com/otcheredev/hms-web/internal/models"
	"github.com/otcheredev/hms-web/internal/navigation"
	"github.com/otcheredev/hms-web/internal/services"
)

var superAdminOnly = models.RolesOf(models.RoleSuperAdmin)

func formString(form url.Values, key string) string {
	return strings.TrimSpace(form.Get(key))
}

func optionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// HospitalResource defines the Hospitals screen. The cid identifies the
// tenant, so it is entered on create and fixed afterwards.
func HospitalResource(clients *gateway.ClientSet) ResourceDef[models.Hospital] {
	return ResourceDef[models.Hospital]{
		Name:     "hospital",
		Singular: "Hospital",
		Title:    "Hospitals",
		Path:     navigation.PathHospitals,
		Items:    clients.Hospital.Hospitals,
		Columns: []Column[models.Hospital]{
			{Header: "Hospital ID", Text: func(h models.Hospital) string { return h.CID }},
			{Header: "Name", Text: func(h models.Hospital) string { return h.Name }},
			{Header: "Address", Text: func(h models.Hospital) string { return h.Address }},
			{Header: "Contact", Text: func(h models.Hospital) string { return h.Contact }},
		},
		Fields: []Field{
			{Name: "cid", Label: "Hospital ID", Type: "text", Required: true, ReadOnlyOnEdit: true},
			{Name: "name", Label: "Name", Type: "text", Required: true},
			{Name: "address", Label: "Address", Type: "text"},
			{Name: "contact", Label: "Contact", Type: "text"},
		},
		Search: func(h models.Hospital) string { return h.Name },
		ID:     func(h models.Hospital) int64 { return h.ID },
		CID:    func(h models.Hospital) string { return h.CID },
		SetCID: func(h *models.Hospital, cid string) { h.CID = cid },
		Values: func(h models.Hospital) map[string]string {
			return map[string]string{"cid": h.CID, "name": h.Name, "address": h.Address, "contact": h.Contact}
		},
		Bind: func(f url.Values, h *models.Hospital) {
			h.CID = formString(f, "cid")
			h.Name = formString(f, "name")
			h.Address = formString(f, "address")
			h.Contact = formString(f, "contact")
		},
		CreateRoles: superAdminOnly,
		DeleteRoles: superAdminOnly,
	}
}

func DoctorResource(clients *gateway.ClientSet) ResourceDef[models.Doctor] {
	return ResourceDef[models.Doctor]{
		Name:     "doctor",
		Singular: "Doctor",
		Title:    "Doctors",
		Path:     navigation.PathDoctors,
		Items:    clients.Hospital.Doctors,
		Columns: []Column[models.Doctor]{
			{Header: "Name", Text: func(d models.Doctor) string { return d.Name }},
			{Header: "Specialization", Text: func(d models.Doctor) string { return d.Specialization }},
			{Header: "Contact", Text: func(d models.Doctor) string { return d.Contact }},
			{Header: "Availability", Text: func(d models.Doctor) string { return d.Availability }},
			{Header: "Hospital", Text: func(d models.Doctor) string { return d.CID }},
		},
		Fields: []Field{
			{Name: "name", Label: "Name", Type: "text", Required: true},
			{Name: "specialization", Label: "Specialization", Type: "text"},
			{Name: "contact", Label: "Contact", Type: "text"},
			{Name: "availability", Label: "Availability", Type: "text"},
		},
		Search: func(d models.Doctor) string { return d.Name },
		ID:     func(d models.Doctor) int64 { return d.ID },
		CID:    func(d models.Doctor) string { return d.CID },
		SetCID: func(d *models.Doctor, cid string) { d.CID = cid },
		Values: func(d models.Doctor) map[string]string {
			return map[string]string{
				"cid":            d.CID,
				"name":           d.Name,
				"specialization": d.Specialization,
				"contact":        d.Contact,
				"availability":   d.Availability,
			}
		},
		Bind: func(f url.Values, d *models.Doctor) {
			d.Name = formString(f, "name")
			d.Specialization = formString(f, "specialization")
			d.Contact = formString(f, "contact")
			d.Availability = formString(f, "availability")
		},
		Tenanted: true,
	}
}

func PatientResource(clients *gateway.ClientSet) ResourceDef[models.Patient] {
	return ResourceDef[models.Patient]{
		Name:     "patient",
		Singular: "Patient",
		Title:    "Patients",
		Path:     navigation.PathPatients,
		Items:    clients.Hospital.Patients,
		Columns: []Column[models.Patient]{
			{Header: "Name", Text: func(p models.Patient) string { return p.Name }},
			{Header: "Age", Text: func(p models.Patient) string { return strconv.Itoa(p.Age) }},
			{Header: "Gender", Text: func(p models.Patient) string { return p.Gender }},
			{Header: "Contact", Text: func(p models.Patient) string { return p.Contact }},
			{Header: "Medical History", Text: func(p models.Patient) string { return p.MedicalHistory }},
		},
		Fields: []Field{
			{Name: "name", Label: "Name", Type: "text", Required: true},
			{Name: "age", Label: "Age", Type: "number"},
			{Name: "gender", Label: "Gender", Type: "text"},
			{Name: "contact", Label: "Contact", Type: "text"},
			{Name: "medicalHistory", Label: "Medical History", Type: "textarea"},
			{Name: "hospitalId", Label: "Hospital Record ID", Type: "number"},
		},
		Search: func(p models.Patient) string { return p.Name },
		ID:     func(p models.Patient) int64 { return p.ID },
		CID:    func(p models.Patient) string { return p.CID },
		SetCID: func(p *models.Patient, cid string) { p.CID = cid },
		Values: func(p models.Patient) map[string]string {
			return map[string]string{
				"cid":            p.CID,
				"name":           p.Name,
				"age":            strconv.Itoa(p.Age),
				"gender":         p.Gender,
				"contact":        p.Contact,
				"medicalHistory": p.MedicalHistory,
				"hospitalId":     optionalID(p.HospitalID),
			}
		},
		Bind: func(f url.Values, p *models.Patient) {
			p.Name = formString(f, "name")
			p.Age = services.ParseIntOrZero(f.Get("age"))
			p.Gender = formString(f, "gender")
			p.Contact = formString(f, "contact")
			p.MedicalHistory = formString(f, "medicalHistory")
			p.HospitalID = services.ParseOptionalID(f.Get("hospitalId"))
		},
		Tenanted: true,
	}
}

func StaffResource(clients *gateway.ClientSet) ResourceDef[models.Staff] {
	return ResourceDef[models.Staff]{
		Name:     "staff",
		Singular: "Staff Member",
		Title:    "Staff",
		Path:     navigation.PathStaff,
		Items:    clients.Hospital.Staff,
		Columns: []Column[models.Staff]{
			{Header: "Name", Text: func(s models.Staff) string { return s.Name }},
			{Header: "Role", Text: func(s models.Staff) string { return s.Role }},
			{Header: "Contact", Text: func(s models.Staff) string { return s.Contact }},
			{Header: "Hospital", Text: func(s models.Staff) string { return s.CID }},
		},
		Fields: []Field{
			{Name: "name", Label: "Name", Type: "text", Required: true},
			{Name: "role", Label: "Role", Type: "text"},
			{Name: "contact", Label: "Contact", Type: "text"},
		},
		Search: func(s models.Staff) string { return s.Name },
		ID:     func(s models.Staff) int64 { return s.ID },
		CID:    func(s models.Staff) string { return s.CID },
		SetCID: func(s *models.Staff, cid string) { s.CID = cid },
		Values: func(s models.Staff) map[string]string {
			return map[string]string{"cid": s.CID, "name": s.Name, "role": s.Role, "contact": s.Contact}
		},
		Bind: func(f url.Values, s *models.Staff) {
			s.Name = formString(f, "name")
			s.Role = formString(f, "role")
			s.Contact = formString(f, "contact")
		},
		Tenanted: true,
	}
}

func MedicineResource(clients *gateway.ClientSet) ResourceDef[models.Medicine] {
	return ResourceDef[models.Medicine]{
		Name:     "medicine",
		Singular: "Medicine",
		Title:    "Medicine Stock",
		Path:     navigation.PathMedicines,
		Items:    clients.Hospital.Medicines,
		Columns: []Column[models.Medicine]{
			{Header: "Medicine", Text: func(m models.Medicine) string { return m.MedicineName }},
			{
				Header: "Quantity",
				Text:   func(m models.Medicine) string { return strconv.Itoa(m.Quantity) },
				Class:  func(m models.Medicine) string { return services.StockLevel(m.Quantity) },
			},
			{Header: "Expiry Date", Text: func(m models.Medicine) string { return m.ExpiryDate }},
			{Header: "Supplier", Text: func(m models.Medicine) string { return m.Supplier }},
		},
		Fields: []Field{
			{Name: "medicineName", Label: "Medicine Name", Type: "text", Required: true},
			{Name: "quantity", Label: "Quantity", Type: "number", Required: true},
			{Name: "expiryDate", Label: "Expiry Date", Type: "date"},
			{Name: "supplier", Label: "Supplier", Type: "text"},
		},
		Search: func(m models.Medicine) string { return m.MedicineName },
		ID:     func(m models.Medicine) int64 { return m.ID },
		CID:    func(m models.Medicine) string { return m.CID },
		SetCID: func(m *models.Medicine, cid string) { m.CID = cid },
		Values: func(m models.Medicine) map[string]string {
			return map[string]string{
				"cid":          m.CID,
				"medicineName": m.MedicineName,
				"quantity":     strconv.Itoa(m.Quantity),
				"expiryDate":   m.ExpiryDate,
				"supplier":     m.Supplier,
			}
		},
		Bind: func(f url.Values, m *models.Medicine) {
			m.MedicineName = formString(f, "medicineName")
			m.Quantity = services.ParseIntOrZero(f.Get("quantity"))
			m.ExpiryDate = formString(f, "expiryDate")
			m.Supplier = formString(f, "supplier")
		},
		Tenanted: true,
	}
}
