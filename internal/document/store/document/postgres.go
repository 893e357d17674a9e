package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"exportdocs/internal/document/models"
	"exportdocs/internal/extraction"
	"exportdocs/internal/lifecycle"
	"exportdocs/internal/platform/postgres"
	id "exportdocs/pkg/domain"
	"exportdocs/pkg/platform/sentinel"
	txcontext "exportdocs/pkg/platform/tx"
)

const documentColumns = `id, organization_id, shipment_id, document_type, state, version, raw_text,
	fields, confidence, issues, suggestion, uploaded_by, created_at, updated_at,
	uploaded_at, validated_at, archived_at`

// PostgresStore persists documents in PostgreSQL. It joins a transaction
// carried by the context so state changes and outbox events commit together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, doc *models.Document) error {
	cols, err := encodeColumns(doc)
	if err != nil {
		return err
	}
	query := `INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err = txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(doc.ID),
		uuid.UUID(doc.OrganizationID),
		uuid.UUID(doc.ShipmentID),
		string(doc.Type),
		string(doc.State),
		doc.Version,
		doc.RawText,
		cols.fields,
		doc.Confidence,
		cols.issues,
		cols.suggestion,
		cols.uploadedBy,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.UploadedAt,
		doc.ValidatedAt,
		doc.ArchivedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, orgID id.OrganizationID, docID id.DocumentID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE organization_id = $1 AND id = $2`
	doc, err := scanDocument(txcontext.Conn(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(orgID), uuid.UUID(docID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) ListByShipment(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents
		WHERE organization_id = $1 AND shipment_id = $2
		ORDER BY created_at, id`
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, query, uuid.UUID(orgID), uuid.UUID(shipmentID))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	// uuid ordering in SQL differs from string ordering; keep one definition.
	return models.SortDocuments(out), nil
}

// CompareAndSwap writes doc with a single conditional UPDATE on the expected
// state and version.
func (s *PostgresStore) CompareAndSwap(ctx context.Context, orgID id.OrganizationID, doc *models.Document, expectedState lifecycle.State, expectedVersion int) error {
	cols, err := encodeColumns(doc)
	if err != nil {
		return err
	}
	query := `
		UPDATE documents SET
			state = $3,
			version = $4,
			raw_text = $5,
			fields = $6,
			confidence = $7,
			issues = $8,
			suggestion = $9,
			uploaded_by = $10,
			updated_at = $11,
			uploaded_at = $12,
			validated_at = $13,
			archived_at = $14
		WHERE organization_id = $1 AND id = $2 AND state = $15 AND version = $16
	`
	res, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(orgID),
		uuid.UUID(doc.ID),
		string(doc.State),
		doc.Version,
		doc.RawText,
		cols.fields,
		doc.Confidence,
		cols.issues,
		cols.suggestion,
		cols.uploadedBy,
		doc.UpdatedAt,
		doc.UploadedAt,
		doc.ValidatedAt,
		doc.ArchivedAt,
		string(expectedState),
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}
	if _, err := s.FindByID(ctx, orgID, doc.ID); err != nil {
		return err
	}
	return fmt.Errorf("document %s left %s at version %d: %w", doc.ID, expectedState, expectedVersion, sentinel.ErrStaleState)
}

// encoded holds JSONB column values; absent optional values stay untyped nil
// so the driver sends NULL.
type encoded struct {
	fields     any
	issues     []byte
	suggestion any
	uploadedBy uuid.NullUUID
}

func encodeColumns(doc *models.Document) (encoded, error) {
	var out encoded
	var err error
	if doc.Fields != nil {
		b, err := json.Marshal(doc.Fields)
		if err != nil {
			return out, fmt.Errorf("marshal document fields: %w", err)
		}
		out.fields = b
	}
	issues := doc.Issues
	if issues == nil {
		issues = models.Issues{}
	}
	if out.issues, err = json.Marshal(issues); err != nil {
		return out, fmt.Errorf("marshal document issues: %w", err)
	}
	if doc.Suggestion != nil {
		b, err := json.Marshal(doc.Suggestion)
		if err != nil {
			return out, fmt.Errorf("marshal document suggestion: %w", err)
		}
		out.suggestion = b
	}
	if !doc.UploadedBy.IsNil() {
		out.uploadedBy = uuid.NullUUID{UUID: uuid.UUID(doc.UploadedBy), Valid: true}
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*models.Document, error) {
	var (
		docID, orgID, shipmentID   uuid.UUID
		docType, state             string
		fields, issues, suggestion []byte
		confidence                 sql.NullFloat64
		uploadedBy                 uuid.NullUUID
		uploadedAt, validatedAt    sql.NullTime
		archivedAt                 sql.NullTime
		out                        models.Document
	)
	if err := row.Scan(
		&docID,
		&orgID,
		&shipmentID,
		&docType,
		&state,
		&out.Version,
		&out.RawText,
		&fields,
		&confidence,
		&issues,
		&suggestion,
		&uploadedBy,
		&out.CreatedAt,
		&out.UpdatedAt,
		&uploadedAt,
		&validatedAt,
		&archivedAt,
	); err != nil {
		return nil, err
	}
	out.ID = id.DocumentID(docID)
	out.OrganizationID = id.OrganizationID(orgID)
	out.ShipmentID = id.ShipmentID(shipmentID)
	out.Type = id.DocumentType(docType)
	out.State = lifecycle.State(state)
	if len(fields) > 0 {
		var f extraction.Fields
		if err := json.Unmarshal(fields, &f); err != nil {
			return nil, fmt.Errorf("decode document fields: %w", err)
		}
		out.Fields = &f
	}
	if confidence.Valid {
		c := confidence.Float64
		out.Confidence = &c
	}
	if len(issues) > 0 {
		if err := json.Unmarshal(issues, &out.Issues); err != nil {
			return nil, fmt.Errorf("decode document issues: %w", err)
		}
		if len(out.Issues) == 0 {
			out.Issues = nil
		}
	}
	if len(suggestion) > 0 {
		var sg models.Suggestion
		if err := json.Unmarshal(suggestion, &sg); err != nil {
			return nil, fmt.Errorf("decode document suggestion: %w", err)
		}
		out.Suggestion = &sg
	}
	if uploadedBy.Valid {
		out.UploadedBy = id.ActorID(uploadedBy.UUID)
	}
	out.UploadedAt = nullTime(uploadedAt)
	out.ValidatedAt = nullTime(validatedAt)
	out.ArchivedAt = nullTime(archivedAt)
	return &out, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
