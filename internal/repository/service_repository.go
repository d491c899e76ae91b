package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iliyamo/event-service-booking/internal/model"
)

// ServiceRepo provides access to provider service listings. The
// seasonal and special-date pricing tables are stored as JSON columns
// and decoded into the model's rate slices on read.
type ServiceRepo struct{ db *sql.DB }

// NewServiceRepo returns a new ServiceRepo bound to the given database.
func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

const serviceColumns = `id, provider_id, category, subcategory, name, description,
       base_price, duration_hours, extra_hour_price, service_area_km, distance_fee_per_km,
       child_min, child_max, child_price, alcohol_available, alcohol_price_per_person,
       seasonal_pricing, special_dates, latitude, longitude, active, created_at`

// Create inserts a service and populates the generated ID.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
	seasonal, err := json.Marshal(s.SeasonalPricing)
	if err != nil {
		return err
	}
	special, err := json.Marshal(s.SpecialDates)
	if err != nil {
		return err
	}
	const q = `INSERT INTO services
        (provider_id, category, subcategory, name, description,
         base_price, duration_hours, extra_hour_price, service_area_km, distance_fee_per_km,
         child_min, child_max, child_price, alcohol_available, alcohol_price_per_person,
         seasonal_pricing, special_dates, latitude, longitude, active)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		s.ProviderID, s.Category, s.Subcategory, s.Name, s.Description,
		s.BasePrice, s.DurationHours, s.ExtraHourPrice, s.ServiceAreaKm, s.DistanceFeePerKm,
		s.AgeGroups.ChildMin, s.AgeGroups.ChildMax, s.AgeGroups.ChildPrice,
		s.Alcohol.Available, s.Alcohol.PricePerPerson,
		seasonal, special, s.Location.Latitude, s.Location.Longitude, s.Active)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID loads a single service. ErrNotFound is returned when it
// does not exist.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (*model.Service, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id)
	return scanService(row)
}

// ListByProvider returns a provider's services, newest first.
func (r *ServiceRepo) ListByProvider(ctx context.Context, providerID uint64) ([]model.Service, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE provider_id = ? ORDER BY created_at DESC`,
		providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]model.Service, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, *s)
	}
	return services, rows.Err()
}

func scanService(s scanner) (*model.Service, error) {
	var svc model.Service
	var seasonal, special []byte
	var lat, lon sql.NullFloat64
	err := s.Scan(
		&svc.ID, &svc.ProviderID, &svc.Category, &svc.Subcategory, &svc.Name, &svc.Description,
		&svc.BasePrice, &svc.DurationHours, &svc.ExtraHourPrice, &svc.ServiceAreaKm, &svc.DistanceFeePerKm,
		&svc.AgeGroups.ChildMin, &svc.AgeGroups.ChildMax, &svc.AgeGroups.ChildPrice,
		&svc.Alcohol.Available, &svc.Alcohol.PricePerPerson,
		&seasonal, &special, &lat, &lon, &svc.Active, &svc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(seasonal) > 0 {
		if err := json.Unmarshal(seasonal, &svc.SeasonalPricing); err != nil {
			return nil, err
		}
	}
	if len(special) > 0 {
		if err := json.Unmarshal(special, &svc.SpecialDates); err != nil {
			return nil, err
		}
	}
	if lat.Valid {
		v := lat.Float64
		svc.Location.Latitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		svc.Location.Longitude = &v
	}
	return &svc, nil
}
