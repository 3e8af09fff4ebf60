// Package sqlite persists an audit trail of produced classification
// results. Inbound requests themselves are never stored; only the outcome
// is recorded, for operational statistics and retention-bounded review.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"guestdesk/internal/domain"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS classification_history (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id      TEXT NOT NULL DEFAULT '',
		guest_id        TEXT NOT NULL DEFAULT '',
		room_number     TEXT NOT NULL DEFAULT '',
		ticket_created  INTEGER NOT NULL DEFAULT 0,
		categories      TEXT NOT NULL DEFAULT '[]',
		confidence      REAL NOT NULL DEFAULT 0,
		priority        TEXT NOT NULL DEFAULT '',
		fallback        INTEGER NOT NULL DEFAULT 0,
		llm_provider    TEXT NOT NULL DEFAULT '',
		llm_model       TEXT NOT NULL DEFAULT '',
		tokens_in       INTEGER NOT NULL DEFAULT 0,
		tokens_out      INTEGER NOT NULL DEFAULT 0,
		classified_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ch_date ON classification_history(classified_at);
	CREATE INDEX IF NOT EXISTS idx_ch_request ON classification_history(request_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

// HistoryRecord is one audit row. Categories are stored as the serialized
// assignment array; guest message text is deliberately not kept.
type HistoryRecord struct {
	ID            int64
	RequestID     string
	GuestID       string
	RoomNumber    string
	TicketCreated bool
	Categories    []domain.CategoryAssignment
	Confidence    float64
	Priority      string
	Fallback      bool
	LLMProvider   string
	LLMModel      string
	TokensIn      int64
	TokensOut     int64
	ClassifiedAt  time.Time
}

func InsertHistory(db *sql.DB, rec HistoryRecord) error {
	categories, err := json.Marshal(rec.Categories)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT INTO classification_history
		 (request_id, guest_id, room_number, ticket_created, categories, confidence, priority, fallback, llm_provider, llm_model, tokens_in, tokens_out)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.GuestID, rec.RoomNumber, rec.TicketCreated, string(categories),
		rec.Confidence, rec.Priority, rec.Fallback, rec.LLMProvider, rec.LLMModel,
		rec.TokensIn, rec.TokensOut,
	)
	return err
}

type Stats struct {
	TotalClassifications int     `json:"total_classifications"`
	TicketsCreated       int     `json:"tickets_created"`
	Fallbacks            int     `json:"fallbacks"`
	AvgConfidence        float64 `json:"avg_confidence"`
	BucketBelow50        int     `json:"confidence_below_50"`
	Bucket50to70         int     `json:"confidence_50_to_70"`
	Bucket70to90         int     `json:"confidence_70_to_90"`
	Bucket90Plus         int     `json:"confidence_90_plus"`
}

func GetStats(db *sql.DB, since time.Time) (Stats, error) {
	var s Stats
	err := db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN ticket_created THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN fallback THEN 1 ELSE 0 END), 0),
		        COALESCE(AVG(confidence), 0),
		        COALESCE(SUM(CASE WHEN confidence < 0.50 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN confidence >= 0.50 AND confidence < 0.70 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN confidence >= 0.70 AND confidence < 0.90 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN confidence >= 0.90 THEN 1 ELSE 0 END), 0)
		 FROM classification_history WHERE classified_at >= ?`,
		since,
	).Scan(&s.TotalClassifications, &s.TicketsCreated, &s.Fallbacks, &s.AvgConfidence,
		&s.BucketBelow50, &s.Bucket50to70, &s.Bucket70to90, &s.Bucket90Plus)
	return s, err
}

// PruneHistory deletes rows classified before the cutoff and reports how
// many were removed.
func PruneHistory(db *sql.DB, before time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM classification_history WHERE classified_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
