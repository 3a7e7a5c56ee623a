package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hivemarket/hivemarket/internal/models"
)

// GroupBuyRepository owns campaign admission. Join and Leave run inside one
// transaction holding a row lock on the campaign, so the membership check,
// the capacity check, the participation write, the counter update and the
// status flip are a single indivisible step for every other caller on the
// same campaign. The UNIQUE (group_buy_id, user_id) constraint backstops
// the duplicate-join check.
type GroupBuyRepository struct {
	db *sql.DB
}

func NewGroupBuyRepository(database *PostgresDB) *GroupBuyRepository {
	return &GroupBuyRepository{db: database.Conn}
}

const groupBuyColumns = `id, product_id, discount_price, min_participants, max_participants, current_participants, start_date, end_date, status`

func scanGroupBuy(row *sql.Row) (*models.GroupBuy, error) {
	var g models.GroupBuy
	err := row.Scan(&g.ID, &g.ProductID, &g.DiscountPrice, &g.MinParticipants,
		&g.MaxParticipants, &g.CurrentParticipants, &g.StartDate, &g.EndDate, &g.Status)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create opens a new campaign. Bounds are validated by the caller.
func (r *GroupBuyRepository) Create(req models.CreateGroupBuyRequest) (*models.GroupBuy, error) {
	start := req.StartDate
	if start.IsZero() {
		start = time.Now()
	}

	query := `
		INSERT INTO group_buys (product_id, discount_price, min_participants, max_participants, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'active')
		RETURNING ` + groupBuyColumns

	g, err := scanGroupBuy(r.db.QueryRow(query,
		req.ProductID, req.DiscountPrice, req.MinParticipants, req.MaxParticipants,
		start, req.EndDate))
	if err != nil {
		return nil, fmt.Errorf("failed to create group buy: %w", err)
	}

	return g, nil
}

// GetByID returns a campaign, or ErrCampaignNotFound.
func (r *GroupBuyRepository) GetByID(id int) (*models.GroupBuy, error) {
	query := `SELECT ` + groupBuyColumns + ` FROM group_buys WHERE id = $1`

	g, err := scanGroupBuy(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get group buy: %w", err)
	}

	return g, nil
}

// GetAll returns all campaigns, newest first.
func (r *GroupBuyRepository) GetAll() ([]models.GroupBuy, error) {
	query := `SELECT ` + groupBuyColumns + ` FROM group_buys ORDER BY id DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query group buys: %w", err)
	}
	defer rows.Close()

	var groupBuys []models.GroupBuy
	for rows.Next() {
		var g models.GroupBuy
		err := rows.Scan(&g.ID, &g.ProductID, &g.DiscountPrice, &g.MinParticipants,
			&g.MaxParticipants, &g.CurrentParticipants, &g.StartDate, &g.EndDate, &g.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group buy: %w", err)
		}
		groupBuys = append(groupBuys, g)
	}

	return groupBuys, rows.Err()
}

// lockGroupBuy loads the campaign row under FOR UPDATE, serializing all
// Join/Leave work on that campaign for the rest of the transaction.
func lockGroupBuy(tx *sql.Tx, id int) (*models.GroupBuy, error) {
	query := `SELECT ` + groupBuyColumns + ` FROM group_buys WHERE id = $1 FOR UPDATE`

	var g models.GroupBuy
	err := tx.QueryRow(query, id).
		Scan(&g.ID, &g.ProductID, &g.DiscountPrice, &g.MinParticipants,
			&g.MaxParticipants, &g.CurrentParticipants, &g.StartDate, &g.EndDate, &g.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to lock group buy: %w", err)
	}

	return &g, nil
}

// Join admits a buyer into a campaign. Checks run in order under the row
// lock: effective status (a campaign past its end date is refused even
// before the sweep cancels it), membership, capacity. On the admission
// that fills the last slot the status flips to completed in the same
// transaction, so no reader ever sees an active-but-full campaign.
func (r *GroupBuyRepository) Join(groupBuyID, userID, quantity int) (*models.GroupBuyParticipation, *models.GroupBuy, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	g, err := lockGroupBuy(tx, groupBuyID)
	if err != nil {
		return nil, nil, err
	}

	if g.EffectiveStatus(time.Now()) != models.GroupBuyStatusActive {
		return nil, nil, models.ErrCampaignNotActive
	}

	var joined bool
	err = tx.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM group_buy_participations WHERE group_buy_id = $1 AND user_id = $2)`,
		groupBuyID, userID,
	).Scan(&joined)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if joined {
		return nil, nil, models.ErrAlreadyJoined
	}

	if g.Full() {
		return nil, nil, models.ErrCampaignFull
	}

	part := models.GroupBuyParticipation{
		GroupBuyID: groupBuyID,
		UserID:     userID,
		Quantity:   quantity,
	}
	err = tx.QueryRow(
		`INSERT INTO group_buy_participations (group_buy_id, user_id, quantity) VALUES ($1, $2, $3) RETURNING id, joined_at`,
		groupBuyID, userID, quantity,
	).Scan(&part.ID, &part.JoinedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, nil, models.ErrAlreadyJoined
		}
		return nil, nil, fmt.Errorf("failed to insert participation: %w", err)
	}

	g.CurrentParticipants++
	if g.Full() {
		g.Status = models.GroupBuyStatusCompleted
	}

	_, err = tx.Exec(
		`UPDATE group_buys SET current_participants = $1, status = $2 WHERE id = $3`,
		g.CurrentParticipants, g.Status, groupBuyID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update group buy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &part, g, nil
}

// Leave removes a buyer's participation and decrements the counter in one
// step under the same row lock as Join. Leaving a completed campaign is
// allowed and frees a slot; the status is not reverted to active.
func (r *GroupBuyRepository) Leave(groupBuyID, userID int) (*models.GroupBuy, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	g, err := lockGroupBuy(tx, groupBuyID)
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(
		`DELETE FROM group_buy_participations WHERE group_buy_id = $1 AND user_id = $2`,
		groupBuyID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete participation: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, models.ErrNotAParticipant
	}

	g.CurrentParticipants--
	_, err = tx.Exec(
		`UPDATE group_buys SET current_participants = $1 WHERE id = $2`,
		g.CurrentParticipants, groupBuyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update group buy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return g, nil
}

// Participations returns the live members of a campaign.
func (r *GroupBuyRepository) Participations(groupBuyID int) ([]models.GroupBuyParticipation, error) {
	rows, err := r.db.Query(
		`SELECT id, group_buy_id, user_id, quantity, joined_at FROM group_buy_participations WHERE group_buy_id = $1 ORDER BY joined_at`,
		groupBuyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query participations: %w", err)
	}
	defer rows.Close()

	var parts []models.GroupBuyParticipation
	for rows.Next() {
		var p models.GroupBuyParticipation
		err := rows.Scan(&p.ID, &p.GroupBuyID, &p.UserID, &p.Quantity, &p.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		parts = append(parts, p)
	}

	return parts, rows.Err()
}

// CancelExpired flips every active campaign past its end date that never
// reached the minimum to cancelled, and returns the swept campaigns. The
// sweep is advisory: Join refuses expired campaigns on its own, so it is
// safe to run at any cadence or skip.
func (r *GroupBuyRepository) CancelExpired(now time.Time) ([]models.GroupBuy, error) {
	query := `
		UPDATE group_buys
		SET status = 'cancelled'
		WHERE status = 'active' AND end_date < $1 AND current_participants < min_participants
		RETURNING ` + groupBuyColumns

	rows, err := r.db.Query(query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel expired group buys: %w", err)
	}
	defer rows.Close()

	var swept []models.GroupBuy
	for rows.Next() {
		var g models.GroupBuy
		err := rows.Scan(&g.ID, &g.ProductID, &g.DiscountPrice, &g.MinParticipants,
			&g.MaxParticipants, &g.CurrentParticipants, &g.StartDate, &g.EndDate, &g.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group buy: %w", err)
		}
		swept = append(swept, g)
	}

	return swept, rows.Err()
}
