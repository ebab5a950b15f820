package backup

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/loo7/core"
)

// Sheet names of the workbook.
const (
	StudentsSheet = "Students"
	Loo7Sheet     = "Loo7"
)

var (
	studentHeader = []string{"ID", "Name", "Age", "Contact", "Notes", "Created"}
	loo7Header    = []string{
		"ID", "Student", "Type", "Date", "Surah", "Surah name", "From aya", "To aya",
		"Status", "Score", "Notes", "Completed", "Repeat of",
	}
)

// Workbook renders the snapshot as a spreadsheet, one sheet per record kind.
// Loo7 rows name their student; timestamps are shown in loc.
func (snap Snapshot) Workbook(loc *time.Location) (*excelize.File, error) {
	names := make(map[string]string, len(snap.Students))
	studentRows := make([][]string, 0, len(snap.Students))
	for _, s := range snap.Students {
		names[s.ID] = s.Name
		studentRows = append(studentRows, []string{
			s.ID, s.Name, optInt(s.Age), opt(s.Contact), opt(s.Notes), s.CreatedAt.In(loc).Format(time.DateTime),
		})
	}

	loo7Rows := make([][]string, 0, len(snap.Loo7s))
	for _, l := range snap.Loo7s {
		var score, completed string
		if l.Score != nil {
			score = string(*l.Score)
		}
		if l.CompletedAt != nil {
			completed = l.CompletedAt.In(loc).Format(time.DateTime)
		}
		loo7Rows = append(loo7Rows, []string{
			l.ID, names[l.StudentID], string(l.Type), l.RecitationDate,
			strconv.Itoa(l.SurahNumber), l.SurahName, strconv.Itoa(l.StartAyaNumber), strconv.Itoa(l.EndAyaNumber),
			string(l.Status), score, opt(l.ScoreNotes), completed, opt(l.RepeatOf),
		})
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", StudentsSheet); err != nil {
		return nil, errors.Wrap(err, "renaming default sheet")
	}
	if _, err := f.NewSheet(Loo7Sheet); err != nil {
		return nil, errors.Wrap(err, "creating loo7 sheet")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}
	for _, sh := range []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{StudentsSheet, studentHeader, studentRows},
		{Loo7Sheet, loo7Header, loo7Rows},
	} {
		if err = writeSheet(f, sh.name, sh.header, sh.rows, bold); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int) error {
	for r, row := range append([][]string{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return errors.Wrap(err, "naming cell")
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err = f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, r+1)
		}
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return errors.Wrap(err, "naming column")
	}
	_ = f.SetCellStyle(sheet, "A1", last+"1", headerStyle)
	_ = f.AutoFilter(sheet, "A1:"+last+"1", nil)
	_ = f.SetColWidth(sheet, "A", last, 18)
	return nil
}

func opt(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

// Filename is the suggested download name of the snapshot, without extension.
func (snap Snapshot) Filename() string {
	return "loo7-backup-" + snap.ExportedAt.Format(core.DateLayout)
}
