package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hamzarao/carsaaz/internal/database/testutil"
	"github.com/hamzarao/carsaaz/internal/models"
	apperrors "github.com/hamzarao/carsaaz/pkg/errors"
)

func seedBookingWorld(t *testing.T, db *gorm.DB) (models.Car, models.User, models.User) {
	t.Helper()

	dealership := models.Dealership{BaseModel: models.BaseModel{ID: "dealership-1"}, Name: "Khan Motors"}
	require.NoError(t, db.Create(&dealership).Error)

	car := models.Car{
		BaseModel:    models.BaseModel{ID: "car-1"},
		DealershipID: dealership.ID,
		Make:         "Toyota",
		Model:        "Corolla",
		IsAvailable:  true,
	}
	require.NoError(t, db.Create(&car).Error)

	customer := models.User{ID: "customer-1", Name: "Ahmed", Email: "ahmed@example.com", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&customer).Error)

	dealer := models.User{
		ID: "dealer-1", Name: "Dealer", Email: "dealer@khanmotors.pk",
		Role: models.RoleDealer, DealershipID: &dealership.ID,
	}
	require.NoError(t, db.Create(&dealer).Error)

	return car, customer, dealer
}

func TestBookingServiceCreate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	car, customer, _ := seedBookingWorld(t, db)

	svc, err := NewBookingService(db)
	require.NoError(t, err)

	ctx := context.Background()
	booking, err := svc.Create(ctx, CreateBookingInput{
		CarID:         car.ID,
		CustomerID:    customer.ID,
		StartDate:     time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC),
		CustomerPhone: "03001234567",
	})
	require.NoError(t, err)
	require.NotEmpty(t, booking.ID)
	require.Equal(t, models.BookingPending, booking.Status)
	require.Equal(t, car.DealershipID, booking.DealershipID)
	require.False(t, booking.DealershipNotified)
}

func TestBookingServiceCreateValidation(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	car, customer, _ := seedBookingWorld(t, db)

	svc, err := NewBookingService(db)
	require.NoError(t, err)

	ctx := context.Background()
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	_, err = svc.Create(ctx, CreateBookingInput{
		CarID: car.ID, CustomerID: customer.ID,
		StartDate: start, EndDate: start,
	})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateBookingInput{
		CarID: "missing", CustomerID: customer.ID,
		StartDate: start, EndDate: start.AddDate(0, 0, 2),
	})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, db.Model(&models.Car{}).Where("id = ?", car.ID).Update("is_available", false).Error)
	_, err = svc.Create(ctx, CreateBookingInput{
		CarID: car.ID, CustomerID: customer.ID,
		StartDate: start, EndDate: start.AddDate(0, 0, 2),
	})
	require.Error(t, err)
}

func TestBookingServiceConfirm(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	car, customer, dealer := seedBookingWorld(t, db)

	svc, err := NewBookingService(db)
	require.NoError(t, err)

	ctx := context.Background()
	booking, err := svc.Create(ctx, CreateBookingInput{
		CarID: car.ID, CustomerID: customer.ID,
		StartDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// A customer cannot confirm.
	_, err = svc.Confirm(ctx, booking.ID, customer.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	confirmed, err := svc.Confirm(ctx, booking.ID, dealer.ID)
	require.NoError(t, err)
	require.Equal(t, models.BookingConfirmed, confirmed.Status)

	// Confirming twice is rejected.
	_, err = svc.Confirm(ctx, booking.ID, dealer.ID)
	require.Error(t, err)
}

func TestBookingServiceConfirmWrongDealership(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	car, customer, _ := seedBookingWorld(t, db)

	other := models.Dealership{BaseModel: models.BaseModel{ID: "dealership-2"}, Name: "City Cars"}
	require.NoError(t, db.Create(&other).Error)
	outsider := models.User{
		ID: "dealer-2", Name: "Outsider", Email: "x@citycars.pk",
		Role: models.RoleDealer, DealershipID: &other.ID,
	}
	require.NoError(t, db.Create(&outsider).Error)

	svc, err := NewBookingService(db)
	require.NoError(t, err)

	ctx := context.Background()
	booking, err := svc.Create(ctx, CreateBookingInput{
		CarID: car.ID, CustomerID: customer.ID,
		StartDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, booking.ID, outsider.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestBookingServiceExpirePendingOlderThan(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	car, customer, dealer := seedBookingWorld(t, db)

	svc, err := NewBookingService(db)
	require.NoError(t, err)

	ctx := context.Background()
	stale, err := svc.Create(ctx, CreateBookingInput{
		CarID: car.ID, CustomerID: customer.ID,
		StartDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	fresh, err := svc.Create(ctx, CreateBookingInput{
		CarID: car.ID, CustomerID: customer.ID,
		StartDate: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	confirmed, err := svc.Create(ctx, CreateBookingInput{
		CarID: car.ID, CustomerID: customer.ID,
		StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, confirmed.ID, dealer.ID)
	require.NoError(t, err)

	past := time.Now().Add(-72 * time.Hour)
	require.NoError(t, db.Model(&models.BookingRequest{}).
		Where("id IN ?", []string{stale.ID, confirmed.ID}).
		Update("created_at", past).Error)

	expired, err := svc.ExpirePendingOlderThan(ctx, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, stale.ID, expired[0].ID)
	require.Equal(t, models.BookingExpired, expired[0].Status)
	require.NotNil(t, expired[0].Car)

	var freshRow models.BookingRequest
	require.NoError(t, db.First(&freshRow, "id = ?", fresh.ID).Error)
	require.Equal(t, models.BookingPending, freshRow.Status)

	var confirmedRow models.BookingRequest
	require.NoError(t, db.First(&confirmedRow, "id = ?", confirmed.ID).Error)
	require.Equal(t, models.BookingConfirmed, confirmedRow.Status)

	// Idempotent: a second sweep finds nothing.
	again, err := svc.ExpirePendingOlderThan(ctx, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	require.Empty(t, again)
}
