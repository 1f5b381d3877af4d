// Package servicetxtest provides an in-memory servicetx.Store for tests.
// Writes made inside a Tx are invisible until Commit and are dropped on
// Rollback, which is enough to observe all-or-nothing behaviour.
package servicetxtest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"clinic-backend/internal/models"
	"clinic-backend/internal/servicetx"

	"github.com/google/uuid"
)

var ErrInjected = errors.New("injected failure")

type state struct {
	patients    map[uuid.UUID]models.Patient
	users       map[uuid.UUID]models.User
	assignments map[uuid.UUID]models.DoctorBranchAssignment
	opTypes     map[uuid.UUID]models.OperationType
	records     map[string]map[uuid.UUID]models.ServiceRecord
	khata       map[uuid.UUID]models.DoctorKhata
	incomes     map[uuid.UUID]models.Income
}

func newState() *state {
	return &state{
		patients:    make(map[uuid.UUID]models.Patient),
		users:       make(map[uuid.UUID]models.User),
		assignments: make(map[uuid.UUID]models.DoctorBranchAssignment),
		opTypes:     make(map[uuid.UUID]models.OperationType),
		records:     make(map[string]map[uuid.UUID]models.ServiceRecord),
		khata:       make(map[uuid.UUID]models.DoctorKhata),
		incomes:     make(map[uuid.UUID]models.Income),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.patients {
		c.patients[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.assignments {
		c.assignments[k] = v
	}
	for k, v := range s.opTypes {
		c.opTypes[k] = v
	}
	for table, rows := range s.records {
		c.records[table] = make(map[uuid.UUID]models.ServiceRecord, len(rows))
		for k, v := range rows {
			c.records[table][k] = v
		}
	}
	for k, v := range s.khata {
		c.khata[k] = v
	}
	for k, v := range s.incomes {
		c.incomes[k] = v
	}
	return c
}

type MemStore struct {
	mu    sync.Mutex
	state *state

	// FailOn makes the named Tx method (e.g. "CreateIncome") return the
	// mapped error.
	FailOn map[string]error
	// StuckDeletes makes the named delete ("DeleteKhata", "DeleteIncome",
	// "DeleteRecord") report zero rows and leave the row in place.
	StuckDeletes map[string]bool
	// BeginErr is returned by Begin when set.
	BeginErr error

	Begun      int
	Committed  int
	RolledBack int
}

func New() *MemStore {
	return &MemStore{
		state:        newState(),
		FailOn:       make(map[string]error),
		StuckDeletes: make(map[string]bool),
	}
}

func (m *MemStore) AddPatient(p models.Patient) models.Patient {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.state.patients[p.ID] = p
	return p
}

func (m *MemStore) AddUser(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.state.users[u.ID] = u
	return u
}

func (m *MemStore) AddAssignment(a models.DoctorBranchAssignment) models.DoctorBranchAssignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.state.assignments[a.ID] = a
	return a
}

func (m *MemStore) AddOperationType(ot models.OperationType) models.OperationType {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ot.ID == uuid.Nil {
		ot.ID = uuid.New()
	}
	m.state.opTypes[ot.ID] = ot
	return ot
}

// PutRecord stores a record directly, bypassing any transaction.
func (m *MemStore) PutRecord(rec models.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	putRecord(m.state, rec)
}

func (m *MemStore) PutKhata(k models.DoctorKhata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.khata[k.ID] = k
}

func (m *MemStore) PutIncome(in models.Income) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.incomes[in.ID] = in
}

// Records returns the committed rows of a branch table.
func (m *MemStore) Records(table string) []models.ServiceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ServiceRecord, 0, len(m.state.records[table]))
	for _, r := range m.state.records[table] {
		out = append(out, r)
	}
	return out
}

func (m *MemStore) Khata() []models.DoctorKhata {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.DoctorKhata, 0, len(m.state.khata))
	for _, k := range m.state.khata {
		out = append(out, k)
	}
	return out
}

func (m *MemStore) Incomes() []models.Income {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Income, 0, len(m.state.incomes))
	for _, in := range m.state.incomes {
		out = append(out, in)
	}
	return out
}

func (m *MemStore) Begin(_ context.Context) (servicetx.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	m.Begun++
	return &memTx{store: m, work: m.state.clone()}, nil
}

func (m *MemStore) PatientByExternalID(_ context.Context, patientID string) (*models.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return findPatient(m.state, patientID)
}

func (m *MemStore) ListRecords(_ context.Context, dst any, q servicetx.ListQuery) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sv := reflect.ValueOf(dst)
	if sv.Kind() != reflect.Pointer || sv.Elem().Kind() != reflect.Slice {
		return 0, fmt.Errorf("dst must be a pointer to a slice, got %T", dst)
	}
	slice := sv.Elem()
	elemType := slice.Type().Elem()
	table, err := tableOf(reflect.New(elemType).Interface())
	if err != nil {
		return 0, err
	}

	rows := make([]models.ServiceRecord, 0)
	for _, r := range m.state.records[table] {
		if q.PatientID != nil && r.PatientID != *q.PatientID {
			continue
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date.Equal(rows[j].Date) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].Date.After(rows[j].Date)
	})

	total := int64(len(rows))
	start := min(q.Offset, len(rows))
	end := len(rows)
	if q.Limit > 0 {
		end = min(start+q.Limit, len(rows))
	}
	for _, r := range rows[start:end] {
		ev := reflect.New(elemType)
		rec, ok := ev.Interface().(models.Record)
		if !ok {
			return 0, fmt.Errorf("%s is not a service record", elemType)
		}
		*rec.Base() = r
		slice.Set(reflect.Append(slice, ev.Elem()))
	}
	return total, nil
}

func tableOf(v any) (string, error) {
	t, ok := v.(interface{ TableName() string })
	if !ok {
		return "", fmt.Errorf("%T has no table name", v)
	}
	return t.TableName(), nil
}

func putRecord(s *state, rec models.Record) {
	table, err := tableOf(rec)
	if err != nil {
		panic(err)
	}
	row := *rec.Base()
	row.Patient, row.Doctor, row.OperationType = nil, nil, nil
	if s.records[table] == nil {
		s.records[table] = make(map[uuid.UUID]models.ServiceRecord)
	}
	s.records[table][row.ID] = row
}

func findPatient(s *state, patientID string) (*models.Patient, error) {
	for _, p := range s.patients {
		if p.PatientID == patientID {
			p := p
			return &p, nil
		}
	}
	return nil, servicetx.ErrNoRows
}

type memTx struct {
	store *MemStore
	work  *state
	done  bool
}

var errTxDone = errors.New("transaction already finished")

func (t *memTx) check(op string) error {
	if t.done {
		return errTxDone
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if err, ok := t.store.FailOn[op]; ok && err != nil {
		return err
	}
	return nil
}

func (t *memTx) stuck(op string) bool {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.StuckDeletes[op]
}

func (t *memTx) Commit() error {
	if err := t.check("Commit"); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.state = t.work
	t.store.Committed++
	t.done = true
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return errTxDone
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.RolledBack++
	t.done = true
	return nil
}

func (t *memTx) FindPatientByExternalID(patientID string) (*models.Patient, error) {
	if err := t.check("FindPatientByExternalID"); err != nil {
		return nil, err
	}
	return findPatient(t.work, patientID)
}

func (t *memTx) FindUser(id uuid.UUID) (*models.User, error) {
	if err := t.check("FindUser"); err != nil {
		return nil, err
	}
	u, ok := t.work.users[id]
	if !ok {
		return nil, servicetx.ErrNoRows
	}
	return &u, nil
}

func (t *memTx) FindAssignment(doctorID uuid.UUID, branch models.BranchModel) (*models.DoctorBranchAssignment, error) {
	if err := t.check("FindAssignment"); err != nil {
		return nil, err
	}
	for _, a := range t.work.assignments {
		if a.DoctorID == doctorID && a.BranchModel == branch {
			a := a
			return &a, nil
		}
	}
	return nil, servicetx.ErrNoRows
}

func (t *memTx) FindOperationType(id uuid.UUID) (*models.OperationType, error) {
	if err := t.check("FindOperationType"); err != nil {
		return nil, err
	}
	ot, ok := t.work.opTypes[id]
	if !ok {
		return nil, servicetx.ErrNoRows
	}
	return &ot, nil
}

func (t *memTx) CreateRecord(rec models.Record) error {
	if err := t.check("CreateRecord"); err != nil {
		return err
	}
	putRecord(t.work, rec)
	return nil
}

func (t *memTx) FindRecord(rec models.Record, id uuid.UUID) error {
	if err := t.check("FindRecord"); err != nil {
		return err
	}
	table, err := tableOf(rec)
	if err != nil {
		return err
	}
	row, ok := t.work.records[table][id]
	if !ok {
		return servicetx.ErrNoRows
	}
	*rec.Base() = row
	return nil
}

func (t *memTx) DeleteRecord(rec models.Record, id uuid.UUID) (int64, error) {
	if err := t.check("DeleteRecord"); err != nil {
		return 0, err
	}
	if t.stuck("DeleteRecord") {
		return 0, nil
	}
	table, err := tableOf(rec)
	if err != nil {
		return 0, err
	}
	if _, ok := t.work.records[table][id]; !ok {
		return 0, nil
	}
	delete(t.work.records[table], id)
	return 1, nil
}

func (t *memTx) CreateKhata(k *models.DoctorKhata) error {
	if err := t.check("CreateKhata"); err != nil {
		return err
	}
	t.work.khata[k.ID] = *k
	return nil
}

func (t *memTx) DeleteKhata(recordID uuid.UUID, branch models.BranchModel) (int64, error) {
	if err := t.check("DeleteKhata"); err != nil {
		return 0, err
	}
	if t.stuck("DeleteKhata") {
		return 0, nil
	}
	var n int64
	for id, k := range t.work.khata {
		if k.BranchNameID == recordID && k.BranchModel == branch {
			delete(t.work.khata, id)
			n++
		}
	}
	return n, nil
}

func (t *memTx) KhataExists(recordID uuid.UUID, branch models.BranchModel) (bool, error) {
	if err := t.check("KhataExists"); err != nil {
		return false, err
	}
	for _, k := range t.work.khata {
		if k.BranchNameID == recordID && k.BranchModel == branch {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) CreateIncome(in *models.Income) error {
	if err := t.check("CreateIncome"); err != nil {
		return err
	}
	t.work.incomes[in.ID] = *in
	return nil
}

func (t *memTx) DeleteIncome(saleID uuid.UUID, branch models.BranchModel) (int64, error) {
	if err := t.check("DeleteIncome"); err != nil {
		return 0, err
	}
	if t.stuck("DeleteIncome") {
		return 0, nil
	}
	var n int64
	for id, in := range t.work.incomes {
		if in.SaleID == saleID && in.SaleModel == branch {
			delete(t.work.incomes, id)
			n++
		}
	}
	return n, nil
}

func (t *memTx) IncomeExists(saleID uuid.UUID, branch models.BranchModel) (bool, error) {
	if err := t.check("IncomeExists"); err != nil {
		return false, err
	}
	for _, in := range t.work.incomes {
		if in.SaleID == saleID && in.SaleModel == branch {
			return true, nil
		}
	}
	return false, nil
}
