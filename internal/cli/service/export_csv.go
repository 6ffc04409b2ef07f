package service

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"BizCard/internal/cli/model"
)

// CSVHeader — колонки CSV-экспорта.
var CSVHeader = []string{"ID", "Name", "Company", "Title", "Country", "Email", "Phone", "Website", "Address", "Note", "Tags", "CreatedAt"}

// TagsDelimiter разделяет теги внутри одной ячейки.
const TagsDelimiter = "; "

const csvTimeLayout = "2006/01/02 15:04:05"

var bom = []byte{0xEF, 0xBB, 0xBF}

// ExportCSV пишет визитки в w: BOM, строка заголовка, по строке на визитку.
// Каждое поле в кавычках, кавычки внутри удваиваются, строки разделены '\n'.
// Пустая коллекция — model.ErrNothingToExport, в w ничего не пишется.
func ExportCSV(w io.Writer, cards []model.Card, loc *time.Location) error {
	if len(cards) == 0 {
		return model.ErrNothingToExport
	}
	if loc == nil {
		loc = time.Local
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(bom); err != nil {
		return err
	}
	writeCSVRow(bw, CSVHeader)
	for _, c := range cards {
		bw.WriteByte('\n')
		writeCSVRow(bw, csvRecord(c, loc))
	}
	return bw.Flush()
}

func csvRecord(c model.Card, loc *time.Location) []string {
	return []string{
		c.ID,
		c.Name,
		c.Company,
		c.Title,
		c.Country,
		c.Email,
		c.Phone,
		c.Website,
		c.Address,
		c.Note,
		strings.Join(c.Tags, TagsDelimiter),
		time.UnixMilli(c.CreatedAt).In(loc).Format(csvTimeLayout),
	}
}

// writeCSVRow ошибки не возвращает: bufio.Writer запоминает первую и отдаёт её во Flush.
func writeCSVRow(bw *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteString(QuoteCSV(f))
	}
}

// QuoteCSV заключает значение в кавычки, удваивая кавычки внутри.
func QuoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// CSVFileName — имя файла экспорта с датой: bizcards_YYYY-MM-DD.csv.
func CSVFileName(now time.Time) string {
	return "bizcards_" + now.Format("2006-01-02") + ".csv"
}

// BundleFileName — имя файла полного бэкапа.
func BundleFileName(now time.Time) string {
	return "bizcards_backup_" + now.Format("2006-01-02") + "_" + strconv.FormatInt(now.Unix(), 10) + ".json"
}
