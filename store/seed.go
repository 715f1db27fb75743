package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ridelink/models"
	"ridelink/utils"
)

// DemoPassword is the login for every seeded account.
const DemoPassword = "Demo1234"

// SeedDemo inserts a small set of verified accounts and upcoming rides for
// local development. Accounts already present (by email) are left alone, so
// running it twice is harmless. Departures are tomorrow morning in loc.
// It returns how many rows were created.
func SeedDemo(ctx context.Context, db *gorm.DB, now time.Time, loc *time.Location) (int, error) {
	hash, err := utils.HashPassword(DemoPassword)
	if err != nil {
		return 0, err
	}

	users := []models.User{
		{
			Name: "Ayesha Khan", Email: "ayesha@lums.edu.pk", Phone: "+923001112233",
			Role: models.RoleDriver, University: "LUMS", HomeArea: "DHA Phase 5",
			Vehicle: models.Vehicle{Make: "Suzuki", Model: "Cultus", Color: "White", LicensePlate: "LEA-1234", Year: 2019},
		},
		{
			Name: "Bilal Ahmed", Email: "bilal@nust.edu.pk", Phone: "+923002223344",
			Role: models.RoleBoth, University: "NUST", HomeArea: "F-10",
			Vehicle: models.Vehicle{Make: "Toyota", Model: "Corolla", Color: "Grey", LicensePlate: "ICT-5678", Year: 2017},
		},
		{
			Name: "Sana Malik", Email: "sana@lums.edu.pk", Phone: "+923003334455",
			Role: models.RolePassenger, University: "LUMS", HomeArea: "Gulberg",
		},
	}

	created := 0
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range users {
			u := &users[i]
			var existing models.User
			err := tx.Where("email = ?", u.Email).First(&existing).Error
			if err == nil {
				*u = existing
				continue
			}
			if !IsNotFound(err) {
				return err
			}
			u.Password = hash
			u.EmailVerified = true
			u.PhoneVerified = true
			u.Status = models.UserActive
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", u.Email, err)
			}
			created++
		}

		day := now.In(loc).AddDate(0, 0, 1)
		rides := []models.Ride{
			{DriverID: users[0].ID, Origin: "DHA Phase 5", Destination: "LUMS", TotalSeats: 3, Price: 250},
			{DriverID: users[0].ID, Origin: "LUMS", Destination: "Gulberg", TotalSeats: 2, Price: 300},
			{DriverID: users[1].ID, Origin: "F-10", Destination: "NUST H-12", TotalSeats: 4, Price: 200},
		}
		for i := range rides {
			r := &rides[i]
			var n int64
			if err := tx.Model(&models.Ride{}).
				Where("driver_id = ? AND origin = ? AND destination = ? AND status = ?", r.DriverID, r.Origin, r.Destination, models.RideScheduled).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			local := time.Date(day.Year(), day.Month(), day.Day(), 8+i, 30, 0, 0, loc)
			r.Date = local.Format("2006-01-02")
			r.Time = local.Format("15:04")
			r.DepartureAt = local.UTC()
			r.AvailableSeats = r.TotalSeats
			r.Preferences = models.DefaultPreferences()
			r.Status = models.RideScheduled
			if err := tx.Create(r).Error; err != nil {
				return fmt.Errorf("seed ride %s -> %s: %w", r.Origin, r.Destination, err)
			}
			created++
		}
		return nil
	})
	return created, err
}
