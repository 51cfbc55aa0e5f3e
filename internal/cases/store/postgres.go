package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"transferdesk/internal/cases/models"
	"transferdesk/internal/platform/database"
	"transferdesk/internal/scope"
	"transferdesk/pkg/domain"
	"transferdesk/pkg/platform/sentinel"
	txcontext "transferdesk/pkg/platform/tx"
)

// PostgresStore persists cases in transfer_cases. The audit trail and
// destination priorities are JSONB columns on the same row, so every mutation
// is a single-row write.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const caseColumns = `id, personnel_code, national_id, first_name, last_name, phone,
	employment_type, gender, years_of_service, field_code, field_title, approved_score,
	current_work_place_code, source_district_code, destination_priorities,
	final_destination_code, final_transfer_type, legacy_status, request_status,
	audit_trail, final_result, final_reason, approved_clauses, is_active,
	can_edit_destination, version, created_by, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c *models.Case) error {
	priorities, trail, err := encodeJSONColumns(c)
	if err != nil {
		return err
	}
	query := `INSERT INTO transfer_cases (` + caseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID), c.PersonnelCode, c.NationalID, c.FirstName, c.LastName, c.Phone,
		c.EmploymentType, string(c.Gender), c.YearsOfService, c.FieldCode, c.FieldTitle, nullScore(c.ApprovedScore),
		c.CurrentWorkPlaceCode, c.SourceDistrictCode, priorities,
		c.FinalDestinationCode, string(c.FinalTransferType), int(c.LegacyStatus), string(c.RequestStatus),
		trail, string(c.FinalResult), c.FinalReason, c.ApprovedClauses, c.IsActive,
		c.CanEditDestination, c.Version, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return translateWriteError("insert case", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.CaseID) (*models.Case, error) {
	return s.findOne(ctx, `SELECT `+caseColumns+` FROM transfer_cases WHERE id = $1`, uuid.UUID(id))
}

func (s *PostgresStore) FindByPersonnelCode(ctx context.Context, code string) (*models.Case, error) {
	return s.findOne(ctx, `SELECT `+caseColumns+` FROM transfer_cases WHERE personnel_code = $1`, code)
}

func (s *PostgresStore) FindByNationalID(ctx context.Context, nationalID string) (*models.Case, error) {
	if nationalID == "" {
		return nil, sentinel.ErrNotFound
	}
	return s.findOne(ctx, `SELECT `+caseColumns+` FROM transfer_cases WHERE national_id = $1`, nationalID)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Case, error) {
	c, err := scanCase(s.execer(ctx).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find case: %w", err)
	}
	return c, nil
}

// Execute locks the row for the duration of validate and mutate and guards the
// update with the version it read.
func (s *PostgresStore) Execute(ctx context.Context, id domain.CaseID, validate ValidateFunc, mutate MutateFunc) (*models.Case, error) {
	var result *models.Case
	err := txcontext.NewRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.findOne(ctx, `SELECT `+caseColumns+` FROM transfer_cases WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
		if err != nil {
			return err
		}
		if validate != nil {
			if err := validate(current.Clone()); err != nil {
				return err
			}
		}
		next := current.Clone()
		mutate(next)
		next.ID = current.ID
		next.Version = current.Version + 1

		if err := s.update(ctx, next, current.Version); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) update(ctx context.Context, c *models.Case, expectedVersion int64) error {
	priorities, trail, err := encodeJSONColumns(c)
	if err != nil {
		return err
	}
	query := `
		UPDATE transfer_cases SET
			national_id = $2, first_name = $3, last_name = $4, phone = $5,
			employment_type = $6, gender = $7, years_of_service = $8, field_code = $9,
			field_title = $10, approved_score = $11, current_work_place_code = $12,
			source_district_code = $13, destination_priorities = $14,
			final_destination_code = $15, final_transfer_type = $16, legacy_status = $17,
			request_status = $18, audit_trail = $19, final_result = $20, final_reason = $21,
			approved_clauses = $22, is_active = $23, can_edit_destination = $24,
			version = $25, updated_at = $26
		WHERE id = $1 AND version = $27
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID), c.NationalID, c.FirstName, c.LastName, c.Phone,
		c.EmploymentType, string(c.Gender), c.YearsOfService, c.FieldCode,
		c.FieldTitle, nullScore(c.ApprovedScore), c.CurrentWorkPlaceCode,
		c.SourceDistrictCode, priorities,
		c.FinalDestinationCode, string(c.FinalTransferType), int(c.LegacyStatus),
		string(c.RequestStatus), trail, string(c.FinalResult), c.FinalReason,
		c.ApprovedClauses, c.IsActive, c.CanEditDestination,
		c.Version, c.UpdatedAt, expectedVersion,
	)
	if err != nil {
		return translateWriteError("update case", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrStaleVersion
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.CaseID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM transfer_cases WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete case rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter scope.Filter, q models.ListQuery) ([]*models.Case, int, error) {
	w := &whereBuilder{}
	w.scope(filter)
	w.list(q)

	var total int
	if err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfer_cases WHERE `+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}

	query := `SELECT ` + caseColumns + ` FROM transfer_cases WHERE ` + w.sql() +
		` ORDER BY created_at DESC, id LIMIT ` + w.arg(q.Limit) + ` OFFSET ` + w.arg(max(q.Offset(), 0))
	items, err := s.query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *PostgresStore) Lookup(ctx context.Context, filter scope.Filter, q models.LookupQuery) ([]*models.Case, error) {
	w := &whereBuilder{}
	w.scope(filter)
	w.lookup(q)
	query := `SELECT ` + caseColumns + ` FROM transfer_cases WHERE ` + w.sql() +
		` ORDER BY created_at DESC, id LIMIT ` + w.arg(models.MaxPageLimit)
	return s.query(ctx, query, w.args...)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Case, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}

// RankAggregate counts the pool and the strictly better scores per status in
// one grouped scan.
func (s *PostgresStore) RankAggregate(ctx context.Context, q models.PoolQuery) ([]models.StatusCount, error) {
	statuses := make([]string, len(q.Statuses))
	for i, st := range q.Statuses {
		statuses[i] = string(st)
	}
	query := `
		SELECT request_status,
			   COUNT(*) AS total,
			   COUNT(*) FILTER (WHERE approved_score > $1) AS better
		FROM transfer_cases
		WHERE field_code = $2
		  AND source_district_code = $3
		  AND request_status = ANY($4)
		  AND approved_score IS NOT NULL
		  AND ($5::text = '' OR gender = $5::text)
		GROUP BY request_status
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query,
		q.Score, q.FieldCode, q.SourceDistrictCode, pq.Array(statuses), string(q.Gender))
	if err != nil {
		return nil, fmt.Errorf("rank aggregate: %w", err)
	}
	defer rows.Close()

	byStatus := make(map[models.RequestStatus]models.StatusCount)
	for rows.Next() {
		var (
			status string
			sc     models.StatusCount
		)
		if err := rows.Scan(&status, &sc.Total, &sc.Better); err != nil {
			return nil, fmt.Errorf("scan rank aggregate: %w", err)
		}
		sc.Status = models.RequestStatus(status)
		byStatus[sc.Status] = sc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rank aggregate: %w", err)
	}

	out := make([]models.StatusCount, 0, len(byStatus))
	for _, st := range q.Statuses {
		if sc, ok := byStatus[st]; ok {
			out = append(out, sc)
		}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	var (
		c             models.Case
		id            uuid.UUID
		gender        string
		score         sql.NullFloat64
		priorities    []byte
		finalTransfer string
		legacy        int
		requestStatus string
		trail         []byte
		finalResult   string
	)
	err := row.Scan(
		&id, &c.PersonnelCode, &c.NationalID, &c.FirstName, &c.LastName, &c.Phone,
		&c.EmploymentType, &gender, &c.YearsOfService, &c.FieldCode, &c.FieldTitle, &score,
		&c.CurrentWorkPlaceCode, &c.SourceDistrictCode, &priorities,
		&c.FinalDestinationCode, &finalTransfer, &legacy, &requestStatus,
		&trail, &finalResult, &c.FinalReason, &c.ApprovedClauses, &c.IsActive,
		&c.CanEditDestination, &c.Version, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ID = domain.CaseID(id)
	c.Gender = models.Gender(gender)
	if score.Valid {
		v := score.Float64
		c.ApprovedScore = &v
	}
	c.FinalTransferType = models.TransferType(finalTransfer)
	c.LegacyStatus = models.LegacyStatus(legacy)
	c.RequestStatus = models.RequestStatus(requestStatus)
	c.FinalResult = models.FinalResult(finalResult)
	if err := json.Unmarshal(priorities, &c.DestinationPriorities); err != nil {
		return nil, fmt.Errorf("decode destination priorities: %w", err)
	}
	if err := json.Unmarshal(trail, &c.AuditTrail); err != nil {
		return nil, fmt.Errorf("decode audit trail: %w", err)
	}
	return &c, nil
}

func encodeJSONColumns(c *models.Case) ([]byte, []byte, error) {
	priorities := c.DestinationPriorities
	if priorities == nil {
		priorities = []models.DestinationPriority{}
	}
	p, err := json.Marshal(priorities)
	if err != nil {
		return nil, nil, fmt.Errorf("encode destination priorities: %w", err)
	}
	trail := c.AuditTrail
	if trail == nil {
		trail = []models.AuditEntry{}
	}
	t, err := json.Marshal(trail)
	if err != nil {
		return nil, nil, fmt.Errorf("encode audit trail: %w", err)
	}
	return p, t, nil
}

func nullScore(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func translateWriteError(op string, err error) error {
	if constraint, ok := database.IsUniqueViolation(err); ok {
		switch constraint {
		case "transfer_cases_personnel_code_key":
			return ErrPersonnelCodeTaken
		case "transfer_cases_national_id_key":
			return ErrNationalIDTaken
		default:
			return fmt.Errorf("%s: %w", op, sentinel.ErrAlreadyUsed)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// whereBuilder accumulates AND-ed predicates with positional arguments.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *whereBuilder) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return "TRUE"
	}
	return strings.Join(w.clauses, " AND ")
}

// scope translates an access filter. Unknown and none kinds match nothing.
func (w *whereBuilder) scope(f scope.Filter) {
	switch f.Kind {
	case scope.KindAll:
	case scope.KindDistrict:
		if len(f.Codes) != 1 {
			w.add("FALSE")
			return
		}
		w.add("current_work_place_code = " + w.arg(f.Codes[0]))
	case scope.KindProvince:
		codes := w.arg(pq.Array(f.Codes))
		w.add("(source_district_code = ANY(" + codes + ") OR current_work_place_code = ANY(" + codes + "))")
	case scope.KindOwner:
		if f.NationalID == "" {
			w.add("FALSE")
			return
		}
		w.add("national_id = " + w.arg(f.NationalID))
	default:
		w.add("FALSE")
	}
}

func (w *whereBuilder) list(q models.ListQuery) {
	if q.RequestStatus != "" {
		w.add("request_status = " + w.arg(string(q.RequestStatus)))
	}
	if q.LegacyStatus != 0 {
		w.add("legacy_status = " + w.arg(int(q.LegacyStatus)))
	}
	if q.EmploymentType != "" {
		w.add("employment_type = " + w.arg(q.EmploymentType))
	}
	if q.Gender != "" {
		w.add("gender = " + w.arg(string(q.Gender)))
	}
	if q.LocationCode != "" {
		code := w.arg(q.LocationCode)
		w.add("(current_work_place_code = " + code + " OR source_district_code = " + code + ")")
	}
	if q.Q != "" {
		p := w.arg("%" + escapeLike(q.Q) + "%")
		w.add("(first_name ILIKE " + p + " OR last_name ILIKE " + p +
			" OR (first_name || ' ' || last_name) ILIKE " + p +
			" OR personnel_code LIKE " + p + " OR national_id LIKE " + p + ")")
	}
}

func (w *whereBuilder) lookup(q models.LookupQuery) {
	if q.PersonnelCode != "" {
		w.add("personnel_code = " + w.arg(q.PersonnelCode))
	}
	if q.NationalID != "" {
		w.add("national_id = " + w.arg(q.NationalID))
	}
	if q.FinalDestinationCode != "" {
		w.add("final_destination_code = " + w.arg(q.FinalDestinationCode))
	}
	if q.FinalReason != "" {
		w.add("final_reason ILIKE " + w.arg("%"+escapeLike(q.FinalReason)+"%"))
	}
	if len(q.Clauses) > 0 {
		w.add("string_to_array(approved_clauses, ',') && " + w.arg(pq.Array(q.Clauses)))
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
