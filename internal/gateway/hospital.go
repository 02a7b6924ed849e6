package gateway

import (
	"context"
	"net/url"
	"strconv"

	"github.com/otcheredev/hms-web/internal/models"
)

// HospitalAPI is the hospital-domain service's REST surface
type HospitalAPI struct {
	client *Client

	Hospitals Collection[models.Hospital]
	Doctors   Collection[models.Doctor]
	Patients  Collection[models.Patient]
	Staff     Collection[models.Staff]
	Medicines Collection[models.Medicine]
}

func NewHospitalAPI(c *Client) *HospitalAPI {
	return &HospitalAPI{
		client:    c,
		Hospitals: newCollection[models.Hospital](c, "/api/hospitals"),
		Doctors:   newCollection[models.Doctor](c, "/api/doctors"),
		Patients:  newCollection[models.Patient](c, "/api/patients"),
		Staff:     newCollection[models.Staff](c, "/api/staff"),
		Medicines: newCollection[models.Medicine](c, "/api/medicines"),
	}
}

// LowStock lists the tenant's medicines whose quantity is below threshold
func (h *HospitalAPI) LowStock(ctx context.Context, cid string, threshold int) ([]models.Medicine, error) {
	query := url.Values{"threshold": []string{strconv.Itoa(threshold)}}
	if cid != "" {
		query.Set("cid", cid)
	}
	meds := []models.Medicine{}
	if err := h.client.get(ctx, "/api/medicines/low-stock", query, &meds); err != nil {
		return nil, err
	}
	return meds, nil
}

// Dashboard fetches the tenant's aggregate counters
func (h *HospitalAPI) Dashboard(ctx context.Context, cid string) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := h.client.get(ctx, "/api/dashboard", cidQuery(cid), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
