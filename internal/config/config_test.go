package config

import (
	"os"
	"path/filepath"
	"testing"

	"kortovik/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: "kortovik"
  environment: "test"
database:
  path: "test.db"
booking:
  deposit_rate: 0.3
  cancellation_notice_hours: 24
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "kortovik" {
		t.Errorf("expected app name kortovik, got %s", cfg.App.Name)
	}
	if cfg.Database.Path != "test.db" {
		t.Errorf("expected database path test.db, got %s", cfg.Database.Path)
	}
	if cfg.Booking.DepositRate != 0.3 {
		t.Errorf("expected deposit rate 0.3, got %v", cfg.Booking.DepositRate)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{DepositRate: 0.3},
			},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "deposit rate above 1",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{DepositRate: 1.5},
			},
			wantErr: true,
		},
		{
			name: "auth enabled without keys",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				API:      APIConfig{Auth: APIAuthConfig{Enabled: true}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.Booking.DepositRate != models.DefaultDepositRate {
		t.Errorf("expected default deposit rate %v, got %v", models.DefaultDepositRate, cfg.Booking.DepositRate)
	}
	if cfg.Booking.CancellationNoticeHours != models.CancellationNoticeHours {
		t.Errorf("expected default cancellation notice %d, got %d", models.CancellationNoticeHours, cfg.Booking.CancellationNoticeHours)
	}
	if cfg.Booking.Timezone != "Europe/Moscow" {
		t.Errorf("expected default timezone Europe/Moscow, got %s", cfg.Booking.Timezone)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header x-api-key, got %s", cfg.API.Auth.HeaderAPIKey)
	}
}

func TestValidateCourts(t *testing.T) {
	valid := models.Court{
		ID:              1,
		Name:            "Центральный корт",
		OpeningTime:     models.MustClock("08:00"),
		ClosingTime:     models.MustClock("22:00"),
		MinBookingHours: 1,
		MaxBookingHours: 3,
	}

	tests := []struct {
		name    string
		mutate  func(c models.Court) models.Court
		wantErr bool
	}{
		{name: "valid court", mutate: func(c models.Court) models.Court { return c }, wantErr: false},
		{name: "zero id", mutate: func(c models.Court) models.Court { c.ID = 0; return c }, wantErr: true},
		{
			name: "opening after closing",
			mutate: func(c models.Court) models.Court {
				c.OpeningTime = models.MustClock("23:00")
				return c
			},
			wantErr: true,
		},
		{
			name: "min hours above max",
			mutate: func(c models.Court) models.Court {
				c.MinBookingHours = 5
				return c
			},
			wantErr: true,
		},
		{
			name: "negative advance days",
			mutate: func(c models.Court) models.Court {
				c.AdvanceBookingDays = -1
				return c
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCourts([]models.Court{tt.mutate(valid)})
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCourts() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("duplicate ids", func(t *testing.T) {
		if err := ValidateCourts([]models.Court{valid, valid}); err == nil {
			t.Error("expected error for duplicate court IDs")
		}
	})
}
