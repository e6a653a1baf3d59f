package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"washboard/internal/models"
	"washboard/internal/pipeline"
	"washboard/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

var stageTitles = map[string]string{
	models.StatusScheduled:  "Записаны",
	models.StatusStageOne:   "Этап 1",
	models.StatusStageTwo:   "Этап 2",
	models.StatusStageThree: "Этап 3",
	models.StatusCompleted:  "Завершены",
	models.StatusCancelled:  "Отменены",
}

// Exporter пишет сменный отчет в Excel файл.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// DailyReport writes one business day: per-stage counts, completed bookings
// with customer/car/service columns, and journaled outcome totals.
func (e *Exporter) DailyReport(date time.Time, lists map[string][]models.Booking, outcomes map[string]int) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Отчет"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Смена: %s", date.Format("02.01.2006")))

	// Счетчики по колонкам
	row := 3
	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Этап")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), "Машин")
	for _, status := range pipeline.AllStatuses {
		row++
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), stageTitles[status])
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), len(lists[status]))
	}

	// Итоги журнала переходов
	row += 2
	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Переходы")
	for outcome, count := range outcomes {
		row++
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), outcome)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), count)
	}

	// Завершенные заявки
	row += 2
	headers := []string{"Клиент", "Машина", "Номер", "Услуга", "Примечание"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	for _, booking := range lists[models.StatusCompleted] {
		row++
		values := []interface{}{
			booking.Customer.Name,
			booking.Car.Model,
			booking.Car.Plate,
			booking.Service.Name,
			booking.Notes,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "E", 22)

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)
	_ = f.MergeCell(sheetName, "A1", "E1")

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("shift_%s.xlsx", date.Format(schedule.DayFormat))
	filePath := filepath.Join(e.dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("shift report created")
	return filePath, nil
}
