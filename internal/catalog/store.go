package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/terminal-bench/lcaengine/pkg/lcax"
	"github.com/terminal-bench/lcaengine/pkg/messaging"
	"github.com/terminal-bench/lcaengine/pkg/units"
)

// Store is the Postgres-backed catalog. It owns the save path for
// product sets (and with it the validation gate); everything else it
// hands out are read-only snapshots.
type Store struct {
	db  *sql.DB
	msg *messaging.Client
}

// NewStore wires a catalog store. msg may be nil; change events are
// then skipped.
func NewStore(db *sql.DB, msg *messaging.Client) *Store {
	return &Store{db: db, msg: msg}
}

// ProductInput is one product line of a save request.
type ProductInput struct {
	EPDID       uuid.UUID       `json:"epd_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	InputUnit   units.Unit      `json:"input_unit"`
	Description string          `json:"description,omitempty"`
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// EPD loads one EPD with its impact rows.
func (s *Store) EPD(ctx context.Context, id uuid.UUID) (*lcax.EPD, error) {
	epds, err := loadEPDs(ctx, s.db, "WHERE e.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(epds) == 0 {
		return nil, fmt.Errorf("epd %s not found", id)
	}
	return epds[0], nil
}

// ListEPDs returns the catalog, filtered to EPDs usable for the given
// dimension when one is set. The declared-unit filter runs in SQL; the
// conversion requirement (kg EPDs need a kg/m^3 entry) is checked on
// the loaded rows since conversions live in a JSON column.
func (s *Store) ListEPDs(ctx context.Context, dimension units.Dimension) ([]*lcax.EPD, error) {
	var epds []*lcax.EPD
	var err error
	if dimension == units.DimensionNone {
		epds, err = loadEPDs(ctx, s.db, "ORDER BY e.name")
	} else {
		declared := CompatibleDeclaredUnitStrings(dimension)
		epds, err = loadEPDs(ctx, s.db, "WHERE e.declared_unit = ANY($1) ORDER BY e.name", pq.Array(declared))
	}
	if err != nil {
		return nil, err
	}
	if dimension == units.DimensionNone {
		return epds, nil
	}

	filtered := epds[:0]
	for _, e := range epds {
		if units.Compatible(dimension, e.DeclaredUnit, e.Conversions) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// CompatibleDeclaredUnitStrings is CompatibleDeclaredUnits as strings
// for SQL ANY() parameters.
func CompatibleDeclaredUnitStrings(dimension units.Dimension) []string {
	us := units.CompatibleDeclaredUnits(dimension)
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = string(u)
	}
	return out
}

func loadEPDs(ctx context.Context, q querier, clause string, args ...interface{}) ([]*lcax.EPD, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT e.id, e.uuid, e.name, e.declared_unit, e.declared_amount,
		        e.conversions, e.category, e.country, e.source, e.type
		 FROM epds e `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query epds: %w", err)
	}
	defer rows.Close()

	var epds []*lcax.EPD
	byID := make(map[uuid.UUID]*lcax.EPD)
	for rows.Next() {
		var e lcax.EPD
		var conversions []byte
		if err := rows.Scan(&e.ID, &e.UUID, &e.Name, &e.DeclaredUnit, &e.DeclaredAmount,
			&conversions, &e.Category, &e.Country, &e.Source, &e.Type); err != nil {
			return nil, fmt.Errorf("failed to scan epd: %w", err)
		}
		if len(conversions) > 0 {
			if err := json.Unmarshal(conversions, &e.Conversions); err != nil {
				return nil, fmt.Errorf("epd %s: malformed conversions: %w", e.ID, err)
			}
		}
		epds = append(epds, &e)
		byID[e.ID] = &e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(epds) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(epds))
	for _, e := range epds {
		ids = append(ids, e.ID.String())
	}
	impactRows, err := q.QueryContext(ctx,
		`SELECT epd_id, impact_category, life_cycle_stage, unit, value
		 FROM epd_impacts WHERE epd_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query epd impacts: %w", err)
	}
	defer impactRows.Close()

	for impactRows.Next() {
		var epdID uuid.UUID
		var ei lcax.EPDImpact
		if err := impactRows.Scan(&epdID, &ei.Impact.Category, &ei.Impact.Stage,
			&ei.Impact.Unit, &ei.Value); err != nil {
			return nil, fmt.Errorf("failed to scan epd impact: %w", err)
		}
		if e, ok := byID[epdID]; ok {
			e.Impacts = append(e.Impacts, ei)
		}
	}
	return epds, impactRows.Err()
}

// Assembly loads one assembly with its products.
func (s *Store) Assembly(ctx context.Context, id uuid.UUID) (*Assembly, error) {
	a, err := s.assemblyRow(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.loadProducts(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) assemblyRow(ctx context.Context, id uuid.UUID) (*Assembly, error) {
	var a Assembly
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, mode, dimension, is_boq, category
		 FROM assemblies WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Mode, &a.Dimension, &a.IsBoQ, &a.Category)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("assembly %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load assembly: %w", err)
	}
	return &a, nil
}

func (s *Store) loadProducts(ctx context.Context, a *Assembly) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, epd_id, quantity, input_unit, description
		 FROM structural_products WHERE assembly_id = $1`, a.ID)
	if err != nil {
		return fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var epdIDs []uuid.UUID
	for rows.Next() {
		var p StructuralProduct
		var epdID uuid.UUID
		var description sql.NullString
		if err := rows.Scan(&p.ID, &epdID, &p.Quantity, &p.InputUnit, &description); err != nil {
			return fmt.Errorf("failed to scan product: %w", err)
		}
		p.Description = description.String
		p.EPD = &lcax.EPD{ID: epdID} // resolved below
		a.Products = append(a.Products, p)
		epdIDs = append(epdIDs, epdID)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return s.resolveEPDs(ctx, epdIDs, func(epd *lcax.EPD) {
		for i := range a.Products {
			if a.Products[i].EPD.ID == epd.ID {
				a.Products[i].EPD = epd
			}
		}
	})
}

func (s *Store) resolveEPDs(ctx context.Context, ids []uuid.UUID, assign func(*lcax.EPD)) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	epds, err := loadEPDs(ctx, s.db, "WHERE e.id = ANY($1)", pq.Array(strs))
	if err != nil {
		return err
	}
	for _, e := range epds {
		assign(e)
	}
	return nil
}

// Building loads a full building snapshot: components with their
// assemblies and products, plus operational products.
func (s *Store) Building(ctx context.Context, id uuid.UUID) (*Building, error) {
	var b Building
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, total_floor_area, reference_period
		 FROM buildings WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.TotalFloorArea, &b.ReferencePeriod)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("building %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load building: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT assembly_id, quantity FROM building_assemblies WHERE building_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query building assemblies: %w", err)
	}
	defer rows.Close()

	type compRow struct {
		assemblyID uuid.UUID
		quantity   decimal.Decimal
	}
	var comps []compRow
	for rows.Next() {
		var c compRow
		if err := rows.Scan(&c.assemblyID, &c.quantity); err != nil {
			return nil, fmt.Errorf("failed to scan building assembly: %w", err)
		}
		comps = append(comps, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range comps {
		a, err := s.Assembly(ctx, c.assemblyID)
		if err != nil {
			return nil, err
		}
		b.Components = append(b.Components, BuildingAssembly{Assembly: a, Quantity: c.quantity})
	}

	opRows, err := s.db.QueryContext(ctx,
		`SELECT id, epd_id, quantity, input_unit, description
		 FROM operational_products WHERE building_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query operational products: %w", err)
	}
	defer opRows.Close()

	var opEPDs []uuid.UUID
	for opRows.Next() {
		var p OperationalProduct
		var epdID uuid.UUID
		var description sql.NullString
		if err := opRows.Scan(&p.ID, &epdID, &p.Quantity, &p.InputUnit, &description); err != nil {
			return nil, fmt.Errorf("failed to scan operational product: %w", err)
		}
		p.Description = description.String
		p.EPD = &lcax.EPD{ID: epdID}
		b.OperationalProducts = append(b.OperationalProducts, p)
		opEPDs = append(opEPDs, epdID)
	}
	if err := opRows.Err(); err != nil {
		return nil, err
	}
	if err := s.resolveEPDs(ctx, opEPDs, func(epd *lcax.EPD) {
		for i := range b.OperationalProducts {
			if b.OperationalProducts[i].EPD.ID == epd.ID {
				b.OperationalProducts[i].EPD = epd
			}
		}
	}); err != nil {
		return nil, err
	}
	return &b, nil
}

// ReplaceProducts swaps the complete product set of an assembly.
// Products are never partially updated: the whole set is deleted and
// re-inserted inside one transaction so a crash can not leave an
// assembly with a partial set and silently wrong aggregates. Every
// product passes the validation gate before anything is written; the
// first violation rejects the whole transaction.
func (s *Store) ReplaceProducts(ctx context.Context, assemblyID uuid.UUID, inputs []ProductInput) error {
	assembly, err := s.assemblyRow(ctx, assemblyID)
	if err != nil {
		return err
	}

	epds := make(map[uuid.UUID]*lcax.EPD, len(inputs))
	for _, in := range inputs {
		if _, ok := epds[in.EPDID]; ok {
			continue
		}
		epd, err := s.EPD(ctx, in.EPDID)
		if err != nil {
			return err
		}
		epds[in.EPDID] = epd
	}

	for _, in := range inputs {
		if !in.Quantity.IsPositive() {
			return fmt.Errorf("product quantity must be positive, got %s", in.Quantity)
		}
		if err := ValidateProduct(assembly, epds[in.EPDID], in.InputUnit); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM structural_products WHERE assembly_id = $1`, assemblyID); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}
	for _, in := range inputs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO structural_products (id, assembly_id, epd_id, quantity, input_unit, description)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), assemblyID, in.EPDID, in.Quantity, in.InputUnit, in.Description); err != nil {
			return fmt.Errorf("failed to insert product: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	if s.msg != nil {
		s.msg.Publish(ctx, messaging.SubjectProductsReplaced, messaging.CatalogEvent{
			AssemblyID: assemblyID,
			Products:   len(inputs),
			Timestamp:  time.Now().UTC(),
		})
	}
	return nil
}

// ReplaceOperationalProducts swaps the operational product set of a
// building, with the same delete-all-then-recreate contract.
func (s *Store) ReplaceOperationalProducts(ctx context.Context, buildingID uuid.UUID, inputs []ProductInput) error {
	for _, in := range inputs {
		if !in.Quantity.IsPositive() {
			return fmt.Errorf("product quantity must be positive, got %s", in.Quantity)
		}
		if _, err := s.EPD(ctx, in.EPDID); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM operational_products WHERE building_id = $1`, buildingID); err != nil {
		return fmt.Errorf("failed to clear operational products: %w", err)
	}
	for _, in := range inputs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO operational_products (id, building_id, epd_id, quantity, input_unit, description)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), buildingID, in.EPDID, in.Quantity, in.InputUnit, in.Description); err != nil {
			return fmt.Errorf("failed to insert operational product: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	if s.msg != nil {
		s.msg.Publish(ctx, messaging.SubjectOperationalReplaced, messaging.CatalogEvent{
			BuildingID: buildingID,
			Products:   len(inputs),
			Timestamp:  time.Now().UTC(),
		})
	}
	return nil
}
