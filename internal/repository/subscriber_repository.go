package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/oakline/mailcamp-backend/internal/model"
)

// SubscriberRepositoryInterface is the read-only view of the subscriber
// directory this core consumes. Subscriber writes happen elsewhere.
type SubscriberRepositoryInterface interface {
	GetByID(id int) (*model.Subscriber, error)
	ListEligible(filter model.SegmentFilter) ([]model.Subscriber, error)
}

type SubscriberRepository struct {
	DB *sql.DB
}

func (r *SubscriberRepository) GetByID(id int) (*model.Subscriber, error) {
	query := `
        SELECT id, email, first_name, last_name, status, interests, subscribed_at
        FROM subscribers
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var s model.Subscriber
	if err := row.Scan(&s.ID, &s.Email, &s.FirstName, &s.LastName, &s.Status, pq.Array(&s.Interests), &s.SubscribedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &s, nil
}

// ListEligible evaluates a segment filter against the directory. Base
// eligibility is status=subscribed regardless of the filter; every
// recognized predicate narrows by AND. Interests match on set overlap, and
// date bounds are inclusive.
func (r *SubscriberRepository) ListEligible(filter model.SegmentFilter) ([]model.Subscriber, error) {
	query := `
        SELECT id, email, first_name, last_name, status, interests, subscribed_at
        FROM subscribers
        WHERE status = $1`
	args := []interface{}{model.SubscriberSubscribed}
	argPos := 2

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, *filter.Status)
		argPos++
	}
	if len(filter.Interests) > 0 {
		query += fmt.Sprintf(" AND interests && $%d", argPos)
		args = append(args, pq.Array(filter.Interests))
		argPos++
	}
	if filter.SubscribedAfter != nil {
		query += fmt.Sprintf(" AND subscribed_at >= $%d", argPos)
		args = append(args, *filter.SubscribedAfter)
		argPos++
	}
	if filter.SubscribedBefore != nil {
		query += fmt.Sprintf(" AND subscribed_at <= $%d", argPos)
		args = append(args, *filter.SubscribedBefore)
		argPos++
	}

	query += " ORDER BY id"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscribers := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.FirstName, &s.LastName, &s.Status, pq.Array(&s.Interests), &s.SubscribedAt); err != nil {
			return nil, err
		}
		subscribers = append(subscribers, s)
	}
	return subscribers, rows.Err()
}

var _ SubscriberRepositoryInterface = (*SubscriberRepository)(nil)
