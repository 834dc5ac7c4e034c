package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gitlab.com/yuriy.hrytsenko/contacts-backend/internal/model"
)

// DefaultListLimit is applied by List when the caller does not specify a
// positive limit. The HTTP layer has its own, larger default.
const DefaultListLimit = 10

// ErrNotFound is returned by lookups for an id that has no matching row.
// Absence is an expected outcome, not a failure of the store.
var ErrNotFound = errors.New("contact not found")

// ListFilter describes an invocation of List. Empty string filters are
// omitted from the query entirely; non-empty ones match as substrings and
// are combined with AND.
type ListFilter struct {
	Skip      int
	Limit     int
	FirstName string
	LastName  string
	Email     string
}

// ContactStore owns all persistence operations for contacts. It is built
// from an explicitly passed database handle and holds no package-level
// state; each method is a self-contained unit of work.
type ContactStore struct {
	db            *sqlx.DB
	insert        *sqlx.NamedStmt
	selectWhereID *sqlx.Stmt
	deleteWhereID *sqlx.Stmt

	// now is replaced by tests to pin the birthday window.
	now func() time.Time
}

// NewContactStore wraps the given database handle and prepares the
// statements for the single-row operations. The handle can be a real
// database for production use or a mock database within unit tests.
func NewContactStore(sqlDB *sqlx.DB) (*ContactStore, error) {
	s := &ContactStore{db: sqlDB, now: time.Now}

	// Prepared statements offer a significant speed increase if executed many times.
	var err error
	s.insert, err = sqlDB.PrepareNamed(`
		INSERT INTO contacts (first_name, last_name, email, phone_number, birthday, additional_info)
		VALUES (:first_name, :last_name, :email, :phone_number, :birthday, :additional_info)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	s.selectWhereID, err = sqlDB.Preparex(`
		SELECT * FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing select by id: %w", err)
	}
	s.deleteWhereID, err = sqlDB.Preparex(`
		DELETE FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing delete by id: %w", err)
	}
	return s, nil
}

// Create inserts a new contact and returns it together with the id the
// database assigned to it.
func (s *ContactStore) Create(base model.ContactBase) (model.Contact, error) {
	result, err := s.insert.Exec(base)
	if err != nil {
		return model.Contact{}, fmt.Errorf("inserting contact: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Contact{}, fmt.Errorf("reading inserted id: %w", err)
	}
	return model.Contact{Id: id, ContactBase: base}, nil
}

// GetByID returns the contact with the given id, or ErrNotFound.
func (s *ContactStore) GetByID(id int64) (model.Contact, error) {
	var contacts []model.Contact
	if err := s.selectWhereID.Select(&contacts, id); err != nil {
		return model.Contact{}, fmt.Errorf("selecting contact %d: %w", id, err)
	}
	if len(contacts) == 0 {
		return model.Contact{}, ErrNotFound
	}
	return contacts[0], nil
}

// List returns a page of contacts matching the filter. Each provided name or
// email fragment must appear as a substring of the respective column; all
// provided fragments must match at once. Results are ordered by id so that
// paging with Skip never repeats a row.
func (s *ContactStore) List(f ListFilter) ([]model.Contact, error) {
	var conditions []string
	var args []interface{}
	if f.FirstName != "" {
		conditions = append(conditions, "first_name LIKE ?")
		args = append(args, "%"+f.FirstName+"%")
	}
	if f.LastName != "" {
		conditions = append(conditions, "last_name LIKE ?")
		args = append(args, "%"+f.LastName+"%")
	}
	if f.Email != "" {
		conditions = append(conditions, "email LIKE ?")
		args = append(args, "%"+f.Email+"%")
	}

	query := "SELECT * FROM contacts"
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, f.Skip)

	contacts := []model.Contact{}
	if err := s.db.Select(&contacts, query, args...); err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	return contacts, nil
}

// Update replaces every field of the contact with the given id and returns
// the record after the write. The row is fetched first so that a missing id
// is reported as ErrNotFound without touching anything; between that fetch
// and the write there is no lock, concurrent writers race as they would in
// any last-write-wins scheme.
func (s *ContactStore) Update(id int64, base model.ContactBase) (model.Contact, error) {
	if _, err := s.GetByID(id); err != nil {
		return model.Contact{}, err
	}
	_, err := s.db.Exec(`
		UPDATE contacts
		SET first_name = ?, last_name = ?, email = ?, phone_number = ?, birthday = ?, additional_info = ?
		WHERE id = ?
	`, base.FirstName, base.LastName, base.Email, base.PhoneNumber, base.Birthday, base.AdditionalInfo, id)
	if err != nil {
		return model.Contact{}, fmt.Errorf("updating contact %d: %w", id, err)
	}
	return s.GetByID(id)
}

// Delete removes the contact with the given id and returns the record as it
// was immediately before the deletion, or ErrNotFound if there is no such
// row.
func (s *ContactStore) Delete(id int64) (model.Contact, error) {
	contact, err := s.GetByID(id)
	if err != nil {
		return model.Contact{}, err
	}
	if _, err := s.deleteWhereID.Exec(id); err != nil {
		return model.Contact{}, fmt.Errorf("deleting contact %d: %w", id, err)
	}
	return contact, nil
}

// UpcomingBirthdays returns all contacts whose birthday falls within the
// inclusive window from today through today plus the given number of days.
// Only the month and day of the birthday are compared; the birth year is
// irrelevant. With days = 0 the window is today alone. The result carries
// no pagination.
func (s *ContactStore) UpcomingBirthdays(days int) ([]model.Contact, error) {
	today := s.now().UTC()
	target := today.AddDate(0, 0, days)
	clause, args := birthdayWindow(today, target)

	contacts := []model.Contact{}
	query := "SELECT * FROM contacts WHERE " + clause + " ORDER BY id"
	if err := s.db.Select(&contacts, query, args...); err != nil {
		return nil, fmt.Errorf("selecting upcoming birthdays: %w", err)
	}
	return contacts, nil
}

// birthdayWindow builds the WHERE clause matching birthdays between today
// and target on a repeating month/day calendar. When the window stays
// within one calendar year it covers the tail of today's month, the head of
// the target month, and every month strictly in between. When it crosses
// into January it additionally sweeps up all months after today's and all
// months before the target's. February 29 takes part in the comparison as a
// plain month/day pair with no leap-year adjustment.
func birthdayWindow(today, target time.Time) (string, []interface{}) {
	if target.Year() == today.Year() {
		clause := `(
			(MONTH(birthday) = ? AND DAY(birthday) >= ?)
			OR (MONTH(birthday) = ? AND DAY(birthday) <= ?)
			OR (MONTH(birthday) > ? AND MONTH(birthday) < ?)
		)`
		args := []interface{}{
			int(today.Month()), today.Day(),
			int(target.Month()), target.Day(),
			int(today.Month()), int(target.Month()),
		}
		return clause, args
	}
	clause := `(
		(MONTH(birthday) = ? AND DAY(birthday) >= ?)
		OR MONTH(birthday) > ?
		OR (MONTH(birthday) = ? AND DAY(birthday) <= ?)
		OR MONTH(birthday) < ?
	)`
	args := []interface{}{
		int(today.Month()), today.Day(),
		int(today.Month()),
		int(target.Month()), target.Day(),
		int(target.Month()),
	}
	return clause, args
}
