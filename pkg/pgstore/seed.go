package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

// Seed replaces every table's content with the given records.
func (s *Store) Seed(ctx context.Context, users []models.User, requests []models.Request, auths []models.Authorization) (err error) {
	defer observe("Seed", time.Now(), &err)
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE authorizations, requests, users CASCADE`); err != nil {
			return fmt.Errorf("err truncating tables: %w", err)
		}
		for _, user := range users {
			if err := insertUser(ctx, tx, user); err != nil {
				return err
			}
		}
		for _, req := range requests {
			if err := insertRequest(ctx, tx, req); err != nil {
				return err
			}
		}
		for _, auth := range auths {
			if err := insertAuthorization(ctx, tx, auth); err != nil {
				return err
			}
		}
		s.log.Infof("seeded %d users, %d requests, %d authorizations", len(users), len(requests), len(auths))
		return nil
	})
}
