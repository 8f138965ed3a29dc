package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"clubly/internal/controller"
	"clubly/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

type exportSheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]interface{}
}

func founderSheets(d *models.Dashboard) []exportSheet {
	events := exportSheet{
		name:    "Eventi",
		headers: []string{"ID", "Nome", "Data", "Inizio", "Fine", "Locale", "Organizzazione", "Tavoli totali", "Tavoli disponibili", "Max persone"},
		widths:  []float64{12, 30, 12, 8, 8, 25, 25, 14, 18, 12},
	}
	for _, e := range d.Events {
		events.rows = append(events.rows, []interface{}{
			e.ID, e.Name, formatDate(e.Date), e.StartTime, e.EndTime, e.Location, e.Organization,
			e.TotalTables, e.TablesAvailable, e.PartyLimit(),
		})
	}

	orgs := exportSheet{
		name:    "Organizzazioni",
		headers: []string{"ID", "Nome", "Località", "Capo promoter", "Membri"},
		widths:  []float64{12, 30, 25, 25, 10},
	}
	for _, o := range d.Organizations {
		capo := ""
		if o.CapoPromoter != nil {
			capo = o.CapoPromoter.DisplayName()
		}
		members := len(o.Members)
		if members == 0 {
			members = len(o.MemberIDs)
		}
		orgs.rows = append(orgs.rows, []interface{}{o.ID, o.Name, o.Location, capo, members})
	}

	users := exportSheet{
		name:    "Utenti",
		headers: []string{"ID", "Nome", "Cognome", "Username", "Email", "Ruolo", "Città", "Organizzazione", "Registrato il"},
		widths:  []float64{12, 15, 15, 20, 30, 16, 15, 25, 20},
	}
	for _, u := range d.Users {
		users.rows = append(users.rows, []interface{}{
			u.ID, u.Nome, u.Cognome, u.Username, u.Email, u.Ruolo.Label(), u.Citta, u.Organization, u.CreatedAt,
		})
	}

	stats := exportSheet{
		name:    "Statistiche",
		headers: []string{"Metrica", "Valore"},
		widths:  []float64{35, 12},
	}
	keys := make([]string, 0, len(d.Stats))
	for k := range d.Stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stats.rows = append(stats.rows, []interface{}{strings.ReplaceAll(k, "_", " "), d.Stats[k]})
	}

	return []exportSheet{events, orgs, users, stats}
}

// exportToExcel writes the founder dashboard to an xlsx file
func (b *Bot) exportToExcel(d *models.Dashboard, now time.Time) (string, error) {
	// create the export directory if missing
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return "", fmt.Errorf("error creating header style: %w", err)
	}

	for i, sheet := range founderSheets(d) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return "", fmt.Errorf("error renaming sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return "", fmt.Errorf("error creating sheet %s: %w", sheet.name, err)
		}

		for col, header := range sheet.headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			_ = f.SetCellValue(sheet.name, cell, header)
		}
		last, _ := excelize.CoordinatesToCellName(len(sheet.headers), 1)
		_ = f.SetCellStyle(sheet.name, "A1", last, headerStyle)

		for r, values := range sheet.rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sheet.name, cell, &values); err != nil {
				return "", fmt.Errorf("error writing row: %w", err)
			}
		}

		// column widths
		for col, width := range sheet.widths {
			name, _ := excelize.ColumnNumberToName(col + 1)
			_ = f.SetColWidth(sheet.name, name, name, width)
		}
	}
	f.SetActiveSheet(0)

	fileName := fmt.Sprintf("clubly_export_%s.xlsx", now.Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(b.config.Exports.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	b.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}

// handleExport sends the founder dashboard as an .xlsx document.
func (b *Bot) handleExport(ctx context.Context, chatID int64, app *controller.App) {
	if !b.requireSession(chatID, app) {
		return
	}
	if !isFounder(app.User()) {
		b.sendMessage(chatID, forbiddenText)
		return
	}
	l := zerolog.Ctx(ctx)

	// reload the founder dashboard before exporting
	if err := app.SetView(ctx, models.ViewClublyFounder); err != nil {
		b.sendError(chatID, err)
		return
	}
	state := app.Dashboard()
	if state.Data == nil {
		b.sendMessage(chatID, "⚠️ Nessun dato da esportare.")
		return
	}

	filePath, err := b.exportToExcel(state.Data, time.Now().In(b.config.Location()))
	if err != nil {
		l.Error().Err(err).Msg("Error exporting dashboard to Excel")
		b.sendMessage(chatID, "❌ Errore durante la creazione del file di esportazione.")
		return
	}

	// send the file
	file, err := os.Open(filePath)
	if err != nil {
		l.Error().Err(err).Str("file_path", filePath).Msg("Error opening file")
		b.sendMessage(chatID, "❌ Errore durante l'apertura del file.")
		return
	}
	defer file.Close()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{
		Name:   filepath.Base(filePath),
		Reader: file,
	})
	doc.Caption = "📥 Esportazione della dashboard Clubly"

	if _, err := b.tgService.Send(doc); err != nil {
		l.Error().Err(err).Msg("Error sending document")
		b.sendMessage(chatID, "❌ Errore durante l'invio del file.")
	}
}
