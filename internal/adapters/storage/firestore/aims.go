package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/livingsystems/orient/internal/domain"
)

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type aimDoc struct {
	HeartWish            string    `firestore:"heart_wish"`
	Statement            string    `firestore:"aim_statement"`
	StartDate            string    `firestore:"start_date"`
	EndDate              string    `firestore:"end_date"`
	AccountabilityPerson string    `firestore:"accountability_person"`
	Status               string    `firestore:"status"`
	CreatedAt            time.Time `firestore:"created_at"`
}

type aimReflectionDoc struct {
	AimID            string    `firestore:"aim_id"`
	Date             string    `firestore:"date"`
	Reflection       string    `firestore:"reflection"`
	PracticeHappened bool      `firestore:"practice_happened"`
	CreatedAt        time.Time `firestore:"created_at"`
}

type googleTokenDoc struct {
	AccountLabel string    `firestore:"account_label"`
	AccessToken  string    `firestore:"access_token"`
	RefreshToken string    `firestore:"refresh_token"`
	Expiry       time.Time `firestore:"expiry"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

func (d *aimDoc) toDomain(id string) *domain.Aim {
	return &domain.Aim{
		ID:                   domain.AimID(id),
		HeartWish:            d.HeartWish,
		Statement:            d.Statement,
		StartDate:            d.StartDate,
		EndDate:              d.EndDate,
		AccountabilityPerson: d.AccountabilityPerson,
		Status:               domain.AimStatus(d.Status),
		CreatedAt:            d.CreatedAt,
	}
}

// ─────────────────────────────────────────
// AimStore implementation
// ─────────────────────────────────────────

func (s *Store) aimsCol() *firestore.CollectionRef {
	return s.client.Collection("aims")
}

func (s *Store) aimReflectionsCol(aimID domain.AimID) *firestore.CollectionRef {
	return s.aimsCol().Doc(string(aimID)).Collection("reflections")
}

// CreateAim supersedes the active aim and writes the new one in a single
// transaction. Readers never observe zero or two active aims.
func (s *Store) CreateAim(ctx context.Context, aim *domain.Aim) (*domain.Aim, error) {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		q := s.aimsCol().Where("status", "==", string(domain.AimActive))
		snaps, err := tx.Documents(q).GetAll()
		if err != nil {
			return fmt.Errorf("query active aims: %w", err)
		}

		for _, snap := range snaps {
			if err := tx.Update(snap.Ref, []firestore.Update{
				{Path: "status", Value: string(domain.AimSuperseded)},
			}); err != nil {
				return err
			}
		}

		doc := aimDoc{
			HeartWish:            aim.HeartWish,
			Statement:            aim.Statement,
			StartDate:            aim.StartDate,
			EndDate:              aim.EndDate,
			AccountabilityPerson: aim.AccountabilityPerson,
			Status:               string(aim.Status),
			CreatedAt:            aim.CreatedAt,
		}
		return tx.Create(s.aimsCol().Doc(string(aim.ID)), doc)
	})
	if err != nil {
		return nil, fmt.Errorf("firestore CreateAim: %w", err)
	}

	stored := *aim
	return &stored, nil
}

func (s *Store) UpdateAim(ctx context.Context, id domain.AimID, fields domain.AimUpdate) error {
	var updates []firestore.Update
	if fields.HeartWish != nil {
		updates = append(updates, firestore.Update{Path: "heart_wish", Value: *fields.HeartWish})
	}
	if fields.Statement != nil {
		updates = append(updates, firestore.Update{Path: "aim_statement", Value: *fields.Statement})
	}
	if fields.EndDate != nil {
		updates = append(updates, firestore.Update{Path: "end_date", Value: *fields.EndDate})
	}
	if fields.AccountabilityPerson != nil {
		updates = append(updates, firestore.Update{Path: "accountability_person", Value: *fields.AccountabilityPerson})
	}
	if fields.Status != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: string(*fields.Status)})
	}
	if len(updates) == 0 {
		return nil
	}

	_, err := s.aimsCol().Doc(string(id)).Update(ctx, updates)
	if err != nil {
		if isNotFound(err) {
			return domain.ErrAimNotFound
		}
		return fmt.Errorf("firestore UpdateAim: %w", err)
	}
	return nil
}

func (s *Store) CurrentAim(ctx context.Context) (*domain.Aim, error) {
	q := s.aimsCol().
		Where("status", "==", string(domain.AimActive)).
		OrderBy("created_at", firestore.Desc).
		Limit(1)
	iter := q.Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("firestore CurrentAim: %w", err)
	}

	var doc aimDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode aimDoc: %w", err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (s *Store) ListAims(ctx context.Context, limit int) ([]*domain.Aim, error) {
	q := s.aimsCol().OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Aim
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListAims: %w", err)
		}

		var doc aimDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode aimDoc: %w", err)
		}
		out = append(out, doc.toDomain(snap.Ref.ID))
	}
	return out, nil
}

func (s *Store) AddAimReflection(ctx context.Context, r *domain.AimReflection) (*domain.AimReflection, error) {
	doc := aimReflectionDoc{
		AimID:            string(r.AimID),
		Date:             r.Date,
		Reflection:       r.Reflection,
		PracticeHappened: r.PracticeHappened,
		CreatedAt:        r.CreatedAt,
	}

	id := uuid.NewString()
	if _, err := s.aimReflectionsCol(r.AimID).Doc(id).Set(ctx, doc); err != nil {
		return nil, fmt.Errorf("firestore AddAimReflection: %w", err)
	}
	stored := *r
	return &stored, nil
}

func (s *Store) ListAimReflections(ctx context.Context, aimID domain.AimID, limit int) ([]*domain.AimReflection, error) {
	q := s.aimReflectionsCol(aimID).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.AimReflection
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListAimReflections: %w", err)
		}

		var doc aimReflectionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode aimReflectionDoc: %w", err)
		}
		out = append(out, &domain.AimReflection{
			AimID:            aimID,
			Date:             doc.Date,
			Reflection:       doc.Reflection,
			PracticeHappened: doc.PracticeHappened,
			CreatedAt:        doc.CreatedAt,
		})
	}
	return out, nil
}

// ─────────────────────────────────────────
// OrientationStore implementation
// ─────────────────────────────────────────

func (s *Store) orientationRef() *firestore.DocumentRef {
	return s.client.Collection("settings").Doc("orientation")
}

func (s *Store) GetOrientation(ctx context.Context) (*domain.Orientation, error) {
	snap, err := s.orientationRef().Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("firestore GetOrientation: %w", err)
	}

	var doc struct {
		Content   string    `firestore:"content"`
		UpdatedAt time.Time `firestore:"updated_at"`
	}
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode orientation: %w", err)
	}
	return &domain.Orientation{Content: doc.Content, UpdatedAt: doc.UpdatedAt}, nil
}

func (s *Store) SetOrientation(ctx context.Context, content string) (*domain.Orientation, error) {
	now := s.now()
	_, err := s.orientationRef().Set(ctx, map[string]interface{}{
		"content":    content,
		"updated_at": now,
	})
	if err != nil {
		return nil, fmt.Errorf("firestore SetOrientation: %w", err)
	}
	return &domain.Orientation{Content: content, UpdatedAt: now}, nil
}

// ─────────────────────────────────────────
// TokenStore implementation
// ─────────────────────────────────────────

func (s *Store) googleTokensCol() *firestore.CollectionRef {
	return s.client.Collection("google_tokens")
}

func (s *Store) ouraTokenRef() *firestore.DocumentRef {
	return s.client.Collection("settings").Doc("oura_token")
}

func (s *Store) GoogleTokens(ctx context.Context) ([]*domain.GoogleToken, error) {
	iter := s.googleTokensCol().Documents(ctx)
	defer iter.Stop()

	var out []*domain.GoogleToken
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore GoogleTokens: %w", err)
		}

		var doc googleTokenDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode googleTokenDoc: %w", err)
		}
		out = append(out, &domain.GoogleToken{
			AccountEmail: snap.Ref.ID,
			AccountLabel: doc.AccountLabel,
			AccessToken:  doc.AccessToken,
			RefreshToken: doc.RefreshToken,
			Expiry:       doc.Expiry,
			UpdatedAt:    doc.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Store) SaveGoogleToken(ctx context.Context, tok *domain.GoogleToken) error {
	doc := googleTokenDoc{
		AccountLabel: tok.AccountLabel,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		UpdatedAt:    s.now(),
	}
	if _, err := s.googleTokensCol().Doc(tok.AccountEmail).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore SaveGoogleToken: %w", err)
	}
	return nil
}

func (s *Store) UpdateGoogleAccessToken(ctx context.Context, email, accessToken string, expiry domain.Timestamp) error {
	_, err := s.googleTokensCol().Doc(email).Update(ctx, []firestore.Update{
		{Path: "access_token", Value: accessToken},
		{Path: "expiry", Value: expiry},
		{Path: "updated_at", Value: s.now()},
	})
	if err != nil {
		return fmt.Errorf("firestore UpdateGoogleAccessToken: %w", err)
	}
	return nil
}

func (s *Store) DeleteGoogleToken(ctx context.Context, email string) error {
	if _, err := s.googleTokensCol().Doc(email).Delete(ctx); err != nil {
		return fmt.Errorf("firestore DeleteGoogleToken: %w", err)
	}
	return nil
}

func (s *Store) OuraToken(ctx context.Context) (*domain.OuraToken, error) {
	snap, err := s.ouraTokenRef().Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("firestore OuraToken: %w", err)
	}

	var doc struct {
		AccessToken  string    `firestore:"access_token"`
		RefreshToken string    `firestore:"refresh_token"`
		Expiry       time.Time `firestore:"expiry"`
	}
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode oura token: %w", err)
	}
	return &domain.OuraToken{
		AccessToken:  doc.AccessToken,
		RefreshToken: doc.RefreshToken,
		Expiry:       doc.Expiry,
	}, nil
}

func (s *Store) SaveOuraToken(ctx context.Context, tok *domain.OuraToken) error {
	_, err := s.ouraTokenRef().Set(ctx, map[string]interface{}{
		"access_token":  tok.AccessToken,
		"refresh_token": tok.RefreshToken,
		"expiry":        tok.Expiry,
	})
	if err != nil {
		return fmt.Errorf("firestore SaveOuraToken: %w", err)
	}
	return nil
}

func (s *Store) DeleteOuraToken(ctx context.Context) error {
	if _, err := s.ouraTokenRef().Delete(ctx); err != nil {
		return fmt.Errorf("firestore DeleteOuraToken: %w", err)
	}
	return nil
}
