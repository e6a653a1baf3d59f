package google

import (
	"context"
	"fmt"
	"os"
	"time"

	"washboard/internal/models"
	"washboard/internal/pipeline"
	"washboard/internal/schedule"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsService mirrors the day's pipeline snapshot into a Google Sheet so
// managers can watch the board without dashboard access.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewSheetsService(credentialsFile, spreadsheetID string) (*SheetsService, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
	}, nil
}

// TestConnection проверяет доступ к таблице.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to access spreadsheet: %w", err)
	}
	return nil
}

// UpdateScheduleSheet replaces the sheet contents with the current snapshot:
// one row per booking, grouped by stage in board order.
func (s *SheetsService) UpdateScheduleSheet(ctx context.Context, date time.Time, lists map[string][]models.Booking) error {
	values := [][]interface{}{
		{fmt.Sprintf("Смена %s", date.Format(schedule.DayFormat))},
		{"Этап", "Клиент", "Машина", "Номер", "Услуга", "Обновлено"},
	}

	for _, status := range pipeline.AllStatuses {
		for _, booking := range lists[status] {
			values = append(values, []interface{}{
				status,
				booking.Customer.Name,
				booking.Car.Model,
				booking.Car.Plate,
				booking.Service.Name,
				booking.UpdatedAt.Format("15:04:05"),
			})
		}
	}

	clearCall := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, "A1:Z10000", &sheets.ClearValuesRequest{})
	if _, err := clearCall.Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to clear schedule sheet: %w", err)
	}

	body := &sheets.ValueRange{Values: values}
	updateCall := s.service.Spreadsheets.Values.Update(s.spreadsheetID, "A1", body).ValueInputOption("RAW")
	if _, err := updateCall.Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to update schedule sheet: %w", err)
	}

	return nil
}
