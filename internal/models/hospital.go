package models

// Hospital defines a tenant; its CID scopes all other hospital-domain data
type Hospital struct {
	ID      int64  `json:"id,omitempty"`
	CID     string `json:"cid"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

type Doctor struct {
	ID             int64  `json:"id,omitempty"`
	CID            string `json:"cid"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Contact        string `json:"contact"`
	Availability   string `json:"availability"`
	HospitalID     *int64 `json:"hospitalId,omitempty"`
}

type Patient struct {
	ID             int64  `json:"id,omitempty"`
	CID            string `json:"cid"`
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	Contact        string `json:"contact"`
	MedicalHistory string `json:"medicalHistory"`
	HospitalID     *int64 `json:"hospitalId,omitempty"`
}

type Staff struct {
	ID      int64  `json:"id,omitempty"`
	CID     string `json:"cid"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Contact string `json:"contact"`
}

// Medicine is one line of a tenant's medicine inventory
type Medicine struct {
	ID           int64  `json:"id,omitempty"`
	CID          string `json:"cid"`
	MedicineName string `json:"medicineName"`
	Quantity     int    `json:"quantity"`
	ExpiryDate   string `json:"expiryDate,omitempty"`
	Supplier     string `json:"supplier"`
}

// User is an account managed by the auth service
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	CID      string `json:"cid"`
	Enabled  bool   `json:"enabled"`
	Theme    string `json:"theme,omitempty"`
}

// RegisterRequest creates a user through the auth service
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	CID      string `json:"cid"`
}

// DashboardStats is the hospital service's aggregate view of a tenant
type DashboardStats struct {
	TotalPatients      int64 `json:"totalPatients"`
	TotalDoctors       int64 `json:"totalDoctors"`
	TotalAppointments  int64 `json:"totalAppointments"`
	TodaysAppointments int64 `json:"todaysAppointments"`
	LowStockMedicines  int64 `json:"lowStockMedicines"`
}
