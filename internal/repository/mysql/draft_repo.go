package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
)

type DraftRepository struct {
	db *sql.DB
}

func NewDraftRepository(db *sql.DB) *DraftRepository {
	return &DraftRepository{db}
}

var _ interfaces.DraftRepository = (*DraftRepository)(nil)

// Save 使用 upsert；旧版本的自动保存不会覆盖新版本
func (r *DraftRepository) Save(ctx context.Context, d *model.CampaignDraft) error {
	fields, err := json.Marshal(d.Fields)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO campaign_drafts (owner_id, step, fields, version, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			step = IF(VALUES(version) > version, VALUES(step), step),
			fields = IF(VALUES(version) > version, VALUES(fields), fields),
			updated_at = IF(VALUES(version) > version, VALUES(updated_at), updated_at),
			version = GREATEST(version, VALUES(version))`,
		d.OwnerID, d.Step, fields, d.Version, d.UpdatedAt)
	return err
}

func (r *DraftRepository) Get(ctx context.Context, ownerID int64) (*model.CampaignDraft, error) {
	var d model.CampaignDraft
	var fields []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT owner_id, step, fields, version, updated_at
		FROM campaign_drafts WHERE owner_id = ?`, ownerID).Scan(
		&d.OwnerID, &d.Step, &fields, &d.Version, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(fields, &d.Fields); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DraftRepository) Delete(ctx context.Context, ownerID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM campaign_drafts WHERE owner_id = ?`, ownerID)
	return err
}
