package bigquery

import (
	"time"

	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

type StatementRow struct {
	StatementID      string    `bigquery:"statement_id"`      // REQUIRED
	Owner            string    `bigquery:"owner"`             // REQUIRED
	StorageURI       string    `bigquery:"storage_uri"`       // REQUIRED
	OriginalFilename string    `bigquery:"original_filename"` // NULLABLE
	ImportStatus     string    `bigquery:"import_status"`     // REQUIRED
	UploadedTS       time.Time `bigquery:"uploaded_ts"`       // REQUIRED
}

func toStatementRow(s *domain.Statement) *StatementRow {
	return &StatementRow{
		StatementID:      s.StatementID,
		Owner:            s.Owner,
		StorageURI:       s.StorageURI,
		OriginalFilename: s.OriginalFilename,
		ImportStatus:     s.ImportStatus,
		UploadedTS:       s.UploadedAt,
	}
}

func fromStatementRow(row *StatementRow) *domain.Statement {
	return &domain.Statement{
		StatementID:      row.StatementID,
		Owner:            row.Owner,
		StorageURI:       row.StorageURI,
		OriginalFilename: row.OriginalFilename,
		ImportStatus:     row.ImportStatus,
		UploadedAt:       row.UploadedTS,
	}
}
