package shipment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"exportdocs/internal/extraction"
	"exportdocs/internal/platform/postgres"
	"exportdocs/internal/shipment/models"
	id "exportdocs/pkg/domain"
	"exportdocs/pkg/platform/sentinel"
	txcontext "exportdocs/pkg/platform/tx"
)

const referenceConstraint = "shipments_org_reference_key"

// placeholderPattern mirrors extraction.IsPlaceholder for server-side paging.
const placeholderPattern = `[^-_ .][-_ .]CNT[-_ .][^-_ .]`

const shipmentColumns = `id, organization_id, reference, commodity_code, declared_weight, declared_unit,
	declared_container, compliance_status, version, created_by, created_at, updated_at, archived_at`

// PostgresStore persists shipments in PostgreSQL. It joins a transaction
// carried by the context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, shipment *models.Shipment) error {
	weight, unit := weightColumns(shipment.DeclaredWeight)
	query := `INSERT INTO shipments (` + shipmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(shipment.ID),
		uuid.UUID(shipment.OrganizationID),
		shipment.Reference,
		shipment.CommodityCode,
		weight,
		unit,
		shipment.DeclaredContainer,
		string(shipment.Status),
		shipment.Version,
		nullableActor(shipment.CreatedBy),
		shipment.CreatedAt,
		shipment.UpdatedAt,
		shipment.ArchivedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, referenceConstraint) {
			return fmt.Errorf("shipment reference %q: %w", shipment.Reference, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, orgID id.OrganizationID, shipmentID id.ShipmentID) (*models.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE organization_id = $1 AND id = $2`
	shipment, err := scanShipment(txcontext.Conn(ctx, s.db).QueryRowContext(ctx, query,
		uuid.UUID(orgID), uuid.UUID(shipmentID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find shipment: %w", err)
	}
	return shipment, nil
}

func (s *PostgresStore) ListByOrganization(ctx context.Context, orgID id.OrganizationID) ([]*models.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments
		WHERE organization_id = $1
		ORDER BY created_at, id`
	return s.list(ctx, query, uuid.UUID(orgID))
}

func (s *PostgresStore) ListPlaceholders(ctx context.Context, orgID id.OrganizationID, offset, limit int) ([]*models.Shipment, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + shipmentColumns + ` FROM shipments
		WHERE organization_id = $1
		  AND archived_at IS NULL
		  AND upper(declared_container) ~ $2
		ORDER BY created_at, id
		OFFSET $3 LIMIT $4`
	return s.list(ctx, query, uuid.UUID(orgID), placeholderPattern, max(offset, 0), limit)
}

func (s *PostgresStore) Update(ctx context.Context, orgID id.OrganizationID, shipment *models.Shipment, expectedVersion int) error {
	weight, unit := weightColumns(shipment.DeclaredWeight)
	query := `
		UPDATE shipments SET
			commodity_code = $3,
			declared_weight = $4,
			declared_unit = $5,
			declared_container = $6,
			compliance_status = $7,
			version = $8,
			updated_at = $9,
			archived_at = $10
		WHERE organization_id = $1 AND id = $2 AND version = $11
	`
	res, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(orgID),
		uuid.UUID(shipment.ID),
		shipment.CommodityCode,
		weight,
		unit,
		shipment.DeclaredContainer,
		string(shipment.Status),
		shipment.Version,
		shipment.UpdatedAt,
		shipment.ArchivedAt,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update shipment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update shipment rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}
	if _, err := s.FindByID(ctx, orgID, shipment.ID); err != nil {
		return err
	}
	return fmt.Errorf("shipment %s changed since version %d: %w", shipment.ID, expectedVersion, sentinel.ErrStaleState)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Shipment, error) {
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	defer rows.Close()

	var out []*models.Shipment
	for rows.Next() {
		shipment, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		out = append(out, shipment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipments: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShipment(row scanner) (*models.Shipment, error) {
	var (
		shipmentID, orgID uuid.UUID
		createdBy         uuid.NullUUID
		weight            sql.NullFloat64
		unit              sql.NullString
		status            string
		archivedAt        sql.NullTime
		out               models.Shipment
	)
	if err := row.Scan(
		&shipmentID,
		&orgID,
		&out.Reference,
		&out.CommodityCode,
		&weight,
		&unit,
		&out.DeclaredContainer,
		&status,
		&out.Version,
		&createdBy,
		&out.CreatedAt,
		&out.UpdatedAt,
		&archivedAt,
	); err != nil {
		return nil, err
	}
	out.ID = id.ShipmentID(shipmentID)
	out.OrganizationID = id.OrganizationID(orgID)
	out.Status = models.ComplianceStatus(status)
	if createdBy.Valid {
		out.CreatedBy = id.ActorID(createdBy.UUID)
	}
	if weight.Valid && unit.Valid {
		out.DeclaredWeight = &extraction.Quantity{Value: weight.Float64, Unit: extraction.Unit(unit.String)}
	}
	if archivedAt.Valid {
		t := archivedAt.Time
		out.ArchivedAt = &t
	}
	return &out, nil
}

func weightColumns(q *extraction.Quantity) (sql.NullFloat64, sql.NullString) {
	if q == nil {
		return sql.NullFloat64{}, sql.NullString{}
	}
	return sql.NullFloat64{Float64: q.Value, Valid: true}, sql.NullString{String: string(q.Unit), Valid: true}
}

func nullableActor(actor id.ActorID) uuid.NullUUID {
	if actor.IsNil() {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(actor), Valid: true}
}
