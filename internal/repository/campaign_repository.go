package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/oakline/mailcamp-backend/internal/errors"
	"github.com/oakline/mailcamp-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	Update(c *model.Campaign) error
	Delete(id int) error
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)
	ListDueScheduled(now time.Time, limit int) ([]*model.Campaign, error)

	// Conditional writes. Each returns whether a row was affected so the
	// caller can distinguish a lost race from success without a second
	// round trip.
	UpdateStatusIf(campaignID int, from, to model.CampaignStatus) (bool, error)
	BeginSending(campaignID, recipientCount int) (bool, error)
	MarkSent(campaignID, sentCount int) (bool, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, subject, body, template_id, segment_filter, status,
        scheduled_at, recipient_count, sent_count, opened_count, clicked_count,
        bounced_count, unsubscribed_count, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.Name, &c.Subject, &c.Body, &c.TemplateID, &c.Filter, &c.Status,
		&c.ScheduledAt, &c.RecipientCount, &c.SentCount, &c.OpenedCount, &c.ClickedCount,
		&c.BouncedCount, &c.UnsubscribedCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	query := `
        INSERT INTO campaigns (name, subject, body, template_id, segment_filter, status, scheduled_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.Name, c.Subject, c.Body, c.TemplateID, c.Filter, c.Status, c.ScheduledAt, c.CreatedAt,
	).Scan(&c.ID)
}

// Update persists draft-editable fields. Status and counters are never
// written here; those go through the conditional writes below.
func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
        UPDATE campaigns
        SET name=$1, subject=$2, body=$3, template_id=$4, segment_filter=$5, scheduled_at=$6, updated_at=NOW()
        WHERE id=$7
    `
	_, err := r.DB.Exec(query, c.Name, c.Subject, c.Body, c.TemplateID, c.Filter, c.ScheduledAt, c.ID)
	return err
}

func (r *CampaignRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ListDueScheduled returns scheduled campaigns whose send time has passed.
// The scheduler polls this; the sending transition itself still goes
// through BeginSending, so a racing manual send is harmless.
func (r *CampaignRepository) ListDueScheduled(now time.Time, limit int) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + `
        FROM campaigns
        WHERE status=$1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
        ORDER BY scheduled_at
        LIMIT $3`
	rows, err := r.DB.Query(query, model.StatusScheduled, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// UpdateStatusIf moves the campaign from one exact status to another in a
// single conditional write. Zero rows affected means the campaign was not
// in the expected status.
func (r *CampaignRepository) UpdateStatusIf(campaignID int, from, to model.CampaignStatus) (bool, error) {
	res, err := r.DB.Exec(
		`UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		to, campaignID, from,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// BeginSending is the single point of mutual exclusion for sending: only a
// campaign still in draft or scheduled takes the update, and the recipient
// count snapshot is stamped in the same statement. Under two concurrent
// send requests exactly one caller sees a row affected.
func (r *CampaignRepository) BeginSending(campaignID, recipientCount int) (bool, error) {
	res, err := r.DB.Exec(
		`UPDATE campaigns
         SET status=$1, recipient_count=$2, updated_at=NOW()
         WHERE id=$3 AND status IN ($4, $5)`,
		model.StatusSending, recipientCount, campaignID, model.StatusDraft, model.StatusScheduled,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkSent completes the send, conditional on the campaign still being in
// sending. A campaign paused while the batch was in flight keeps its paused
// status; zero rows affected tells the caller the final write was skipped.
func (r *CampaignRepository) MarkSent(campaignID, sentCount int) (bool, error) {
	res, err := r.DB.Exec(
		`UPDATE campaigns SET status=$1, sent_count=$2, updated_at=NOW() WHERE id=$3 AND status=$4`,
		model.StatusSent, sentCount, campaignID, model.StatusSending,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
