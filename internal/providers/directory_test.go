package providers

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/voicebridge/lead-marketplace/internal/geo"
)

func chicagoProvider(id string, specialties ...string) *Profile {
	return &Profile{
		ID:              id,
		Name:            "Provider " + id,
		Email:           id + "@clinic.example",
		Specialties:     specialties,
		Location:        geo.Point{Lat: 41.88, Lng: -87.63},
		ServiceRadiusMi: 25,
		ExperienceYears: 8,
		Rating:          4.5,
	}
}

func TestStaticDirectoryFindBySpecialties(t *testing.T) {
	dir := NewStaticDirectory(
		chicagoProvider("p1", "AAC", "Autism Spectrum Disorders"),
		chicagoProvider("p2", "Fluency"),
		chicagoProvider("p3", "Social Communication"),
	)

	got, err := dir.FindBySpecialties(context.Background(), []string{"AAC", "Social Communication"})
	if err != nil {
		t.Fatalf("FindBySpecialties: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d providers, want 2", len(got))
	}
}

func TestStaticDirectoryGetByIDMissing(t *testing.T) {
	dir := NewStaticDirectory()
	if _, err := dir.GetByID(context.Background(), "ghost"); err != ErrProviderNotFound {
		t.Errorf("err = %v, want ErrProviderNotFound", err)
	}
}

func TestCovers(t *testing.T) {
	p := chicagoProvider("p1", "AAC")

	inRange := geo.Point{Lat: 41.89, Lng: -87.62}
	farAway := geo.Point{Lat: 34.05, Lng: -118.24}

	if !p.Covers(inRange) {
		t.Error("nearby point should be covered")
	}
	if p.Covers(farAway) {
		t.Error("cross-country point should not be covered")
	}

	p.ServiceRadiusMi = 0
	if p.Covers(inRange) {
		t.Error("zero radius covers nothing")
	}
}

func TestPostgresDirectoryGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows([]string{
		"id", "name", "email", "subscription_tier", "specialties",
		"lat", "lng", "service_radius_miles", "experience_years", "rating",
	}).AddRow(
		"p1", "Lakeview Speech", "hello@lakeview.example", "pro", []string{"AAC"},
		41.88, -87.63, 25.0, 12, 4.8,
	)

	mock.ExpectQuery(`SELECT (.+) FROM providers WHERE id = \$1`).
		WithArgs("p1").
		WillReturnRows(rows)

	dir := NewPostgresDirectoryWithDB(mock)
	p, err := dir.GetByID(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if p.SubscriptionTier != "pro" || p.ExperienceYears != 12 {
		t.Errorf("unexpected profile: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
