package gateway

import (
	"context"
	"fmt"

	"github.com/otcheredev/hms-web/internal/models"
)

// AppointmentAPI is the appointment-domain service's REST surface
type AppointmentAPI struct {
	client *Client

	Appointments Collection[models.Appointment]
}

func NewAppointmentAPI(c *Client) *AppointmentAPI {
	return &AppointmentAPI{
		client:       c,
		Appointments: newCollection[models.Appointment](c, "/api/appointments"),
	}
}

// ByDoctor lists one doctor's appointments within a tenant
func (a *AppointmentAPI) ByDoctor(ctx context.Context, cid string, doctorID int64) ([]models.Appointment, error) {
	appts := []models.Appointment{}
	path := fmt.Sprintf("/api/appointments/doctor/%d", doctorID)
	if err := a.client.get(ctx, path, cidQuery(cid), &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

// UpdateStatus moves an appointment to a new status
func (a *AppointmentAPI) UpdateStatus(ctx context.Context, id int64, status models.AppointmentStatus) error {
	path := fmt.Sprintf("/api/appointments/%d/status", id)
	return a.client.put(ctx, path, map[string]string{"status": string(status)}, nil)
}

// Stats fetches the tenant's appointment counters
func (a *AppointmentAPI) Stats(ctx context.Context, cid string) (*models.AppointmentStats, error) {
	var stats models.AppointmentStats
	if err := a.client.get(ctx, "/api/appointments/stats", cidQuery(cid), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
