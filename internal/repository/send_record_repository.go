package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/oakline/mailcamp-backend/internal/errors"
	"github.com/oakline/mailcamp-backend/internal/model"
)

type SendRecordRepositoryInterface interface {
	BulkCreate(campaignID int, subscriberIDs []int) error
	ExistsForCampaign(campaignID int) (bool, error)
	GetByID(id int) (*model.SendRecord, error)
	ListByCampaign(campaignID, offset, limit int) ([]*model.SendRecord, int, error)
	MarkFailed(campaignID, subscriberID int, lastError string) error
	ApplyEvent(id int, kind model.EventKind, ts time.Time) (bool, error)
	CountByStatus(campaignID int) (map[string]int, error)
}

type SendRecordRepository struct {
	DB *sql.DB
}

const sendRecordColumns = `id, campaign_id, subscriber_id, status, last_error,
        opened_at, clicked_at, bounced_at, unsubscribed_at, created_at`

func scanSendRecord(row interface{ Scan(...any) error }) (*model.SendRecord, error) {
	var rec model.SendRecord
	err := row.Scan(
		&rec.ID, &rec.CampaignID, &rec.SubscriberID, &rec.Status, &rec.LastError,
		&rec.OpenedAt, &rec.ClickedAt, &rec.BouncedAt, &rec.UnsubscribedAt, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// BulkCreate inserts one send record per subscriber, initialized to status
// sent with all event timestamps null. The unique (campaign_id,
// subscriber_id) pair plus ON CONFLICT DO NOTHING makes a retry after a
// crash safe: rows that already exist are left alone, never duplicated.
func (r *SendRecordRepository) BulkCreate(campaignID int, subscriberIDs []int) error {
	if len(subscriberIDs) == 0 {
		return nil
	}
	query := `
        INSERT INTO send_records (campaign_id, subscriber_id, status, created_at)
        SELECT $1, unnest($2::int[]), $3, NOW()
        ON CONFLICT (campaign_id, subscriber_id) DO NOTHING
    `
	_, err := r.DB.Exec(query, campaignID, pq.Array(subscriberIDs), model.DeliverySent)
	return err
}

func (r *SendRecordRepository) ExistsForCampaign(campaignID int) (bool, error) {
	var tmp int
	err := r.DB.QueryRow(
		`SELECT 1 FROM send_records WHERE campaign_id=$1 LIMIT 1`, campaignID,
	).Scan(&tmp)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *SendRecordRepository) GetByID(id int) (*model.SendRecord, error) {
	query := `SELECT ` + sendRecordColumns + ` FROM send_records WHERE id=$1`
	rec, err := scanSendRecord(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewSendRecordNotFound(id)
		}
		return nil, err
	}
	return rec, nil
}

func (r *SendRecordRepository) ListByCampaign(campaignID, offset, limit int) ([]*model.SendRecord, int, error) {
	query := `SELECT ` + sendRecordColumns + `
        FROM send_records WHERE campaign_id=$1
        ORDER BY id LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(query, campaignID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := []*model.SendRecord{}
	for rows.Next() {
		rec, err := scanSendRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM send_records WHERE campaign_id=$1`, campaignID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *SendRecordRepository) MarkFailed(campaignID, subscriberID int, lastError string) error {
	_, err := r.DB.Exec(
		`UPDATE send_records SET status=$1, last_error=$2 WHERE campaign_id=$3 AND subscriber_id=$4`,
		model.DeliveryFailed, lastError, campaignID, subscriberID,
	)
	return err
}

// Column whitelists per event kind; nothing request-supplied reaches the
// SQL text.
var eventTimestampColumns = map[model.EventKind]string{
	model.EventOpened:       "opened_at",
	model.EventClicked:      "clicked_at",
	model.EventBounced:      "bounced_at",
	model.EventUnsubscribed: "unsubscribed_at",
}

var eventCounterColumns = map[model.EventKind]string{
	model.EventOpened:       "opened_count",
	model.EventClicked:      "clicked_count",
	model.EventBounced:      "bounced_count",
	model.EventUnsubscribed: "unsubscribed_count",
}

// ApplyEvent records an engagement event with first-write-wins semantics:
// the conditional write only lands when the column is still null, so
// duplicate events keep the original timestamp. A first write also
// increments the matching counter on the parent campaign, in the same
// transaction, so a transient counter failure rolls the timestamp back and
// the retry is a clean first write instead of an absorbed duplicate.
// Returns whether this call was the first writer.
func (r *SendRecordRepository) ApplyEvent(id int, kind model.EventKind, ts time.Time) (bool, error) {
	col, ok := eventTimestampColumns[kind]
	if !ok {
		return false, fmt.Errorf("unknown event kind %q", kind)
	}

	tx, err := r.DB.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		`UPDATE send_records SET %s=$1 WHERE id=$2 AND %s IS NULL RETURNING campaign_id`,
		col, col,
	)
	var campaignID int
	if err := tx.QueryRow(query, ts, id).Scan(&campaignID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}

	counterCol := eventCounterColumns[kind]
	counterQuery := fmt.Sprintf(
		`UPDATE campaigns SET %s = %s + 1, updated_at=NOW() WHERE id=$1`,
		counterCol, counterCol,
	)
	if _, err := tx.Exec(counterQuery, campaignID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (r *SendRecordRepository) CountByStatus(campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM send_records WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		string(model.DeliverySent):   0,
		string(model.DeliveryFailed): 0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ SendRecordRepositoryInterface = (*SendRecordRepository)(nil)
