package digest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/followup"
	"github.com/suanview/orchard/internal/thaidate"
)

// utf8BOM lets spreadsheet apps detect UTF-8 so Thai text opens correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var boardHeader = []string{
	"bucket",
	"tree_code",
	"zone",
	"activity",
	"product",
	"formulation",
	"follow_up_date",
	"follow_up_date_th",
	"relative",
	"days_until",
}

var labelHeader = []string{
	"tree_id",
	"code",
	"qr_payload",
	"variety",
	"zone",
	"status",
	"status_label",
	"planted_at",
	"planted_at_th",
}

// EncodeBoard renders a follow-up board as CSV.
// Rows are ordered overdue, today, upcoming, keeping the order within each bucket.
func EncodeBoard(board *orchard.FollowUpBoard) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(boardHeader); err != nil {
		return nil, err
	}

	buckets := []struct {
		name  followup.Classification
		items []domain.FollowUpItem
	}{
		{followup.Overdue, board.Groups.Overdue},
		{followup.Today, board.Groups.Today},
		{followup.Upcoming, board.Groups.Upcoming},
	}

	for _, b := range buckets {
		for _, item := range b.items {
			date := item.FollowUp()
			days, err := followup.DaysUntil(date, board.Date)
			if err != nil {
				return nil, fmt.Errorf("follow-up %s: %w", item.Activity.ID, err)
			}
			row := []string{
				string(b.name),
				item.TreeCode,
				item.ZoneName,
				item.Activity.Type.Label(),
				item.Activity.Product,
				string(item.Activity.Formulation),
				date,
				thaidate.FormatLocalizedFullIn(date, board.Date.Location()),
				followup.RelativeLabel(date, board.Date),
				strconv.Itoa(days),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeLabels renders a label sheet as CSV for mail-merge label printing.
func EncodeLabels(labels []domain.TreeLabel) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(labelHeader); err != nil {
		return nil, err
	}
	for _, l := range labels {
		row := []string{
			l.TreeID,
			l.Code,
			l.QRPayload,
			l.Variety,
			l.ZoneName,
			string(l.Status),
			l.StatusLabel,
			l.PlantedAt,
			l.PlantedAtTH,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
