package query

import (
	"canteen_system/internal/apperrors"
	"canteen_system/internal/domain"
	"canteen_system/internal/store"
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Sort keys of SearchStudents
const (
	SortName          = "name"
	SortStudentNumber = "student_number"
	SortDepartment    = "department"
	SortBalance       = "balance"
)

// StudentFilter selects students for SearchStudents. The zero value returns
// the first page of the roster in enrolment order.
type StudentFilter struct {
	Search        string // Case-insensitive match on name, email, student number or department
	Sort          string // One of the Sort keys, empty keeps enrolment order
	Order         string // "asc" (default) or "desc"
	WithPurchases bool   // Only students whose card has a completed meal purchase
	Page          int    // 1-based, values below 1 mean 1
	PageSize      int    // Outside 1..MaxPageSize means DefaultPageSize
}

// StudentPage is one page of SearchStudents
type StudentPage struct {
	Items      []domain.StudentRow `json:"students"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	Total      int                 `json:"total"`
	TotalPages int                 `json:"total_pages"`
}

// ListStudents joins every student with its user and card
func (s *Service) ListStudents(ctx context.Context) ([]domain.StudentRow, error) {
	var rows []domain.StudentRow
	err := s.store.View(func(r store.Reader) error {
		rows = studentRows(r, nil)
		return nil
	})
	return rows, err
}

// StudentsWithPurchases returns the students whose card has at least one
// completed meal purchase, in enrolment order
func (s *Service) StudentsWithPurchases(ctx context.Context) ([]domain.StudentRow, error) {
	var rows []domain.StudentRow
	err := s.store.View(func(r store.Reader) error {
		rows = studentRows(r, hasPurchase)
		return nil
	})
	return rows, err
}

// SearchStudents filters, sorts and paginates the student roster
func (s *Service) SearchStudents(ctx context.Context, f StudentFilter) (StudentPage, error) {
	cmp, err := studentOrder(f.Sort, f.Order)
	if err != nil {
		return StudentPage{}, err
	}
	page, size := normalizePage(f.Page, f.PageSize)
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var rows []domain.StudentRow
	err = s.store.View(func(r store.Reader) error {
		var keep func(store.Reader, domain.Student) bool
		if f.WithPurchases {
			keep = hasPurchase
		}
		rows = studentRows(r, keep)
		return nil
	})
	if err != nil {
		return StudentPage{}, err
	}

	if search != "" {
		rows = slices.DeleteFunc(rows, func(row domain.StudentRow) bool {
			return !studentMatches(row, search)
		})
	}
	if cmp != nil {
		slices.SortStableFunc(rows, cmp)
	}

	total := len(rows)
	out := StudentPage{
		Items:      []domain.StudentRow{},
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: totalPages(total, size),
	}
	if start, end, ok := pageBounds(total, page, size); ok {
		out.Items = rows[start:end]
	}
	return out, nil
}

// studentRows joins the students accepted by keep, or all when keep is nil
func studentRows(r store.Reader, keep func(store.Reader, domain.Student) bool) []domain.StudentRow {
	students := r.Students()
	rows := make([]domain.StudentRow, 0, len(students))
	for _, st := range students {
		if keep != nil && !keep(r, st) {
			continue
		}
		row := domain.StudentRow{
			Student:     st,
			Name:        domain.Unknown,
			Email:       domain.Unknown,
			CardBalance: decimal.Zero,
		}
		if u, ok := r.User(st.UserID); ok {
			row.Name, row.Email = u.Name, u.Email
		}
		if c, ok := r.CardByStudent(st.ID); ok {
			row.CardBalance = c.Balance
		}
		rows = append(rows, row)
	}
	return rows
}

func hasPurchase(r store.Reader, st domain.Student) bool {
	c, ok := r.CardByStudent(st.ID)
	if !ok {
		return false
	}
	for _, t := range r.CardTransactions(c.ID) {
		if t.Type == domain.TypeMealPurchase && t.Status == domain.StatusCompleted {
			return true
		}
	}
	return false
}

func studentMatches(row domain.StudentRow, search string) bool {
	return strings.Contains(strings.ToLower(row.Name), search) ||
		strings.Contains(strings.ToLower(row.Email), search) ||
		strings.Contains(strings.ToLower(row.StudentNumber), search) ||
		strings.Contains(strings.ToLower(row.Department), search)
}

// studentOrder returns the comparison for a sort key and direction. A nil
// comparison keeps enrolment order.
func studentOrder(sort, order string) (func(a, b domain.StudentRow) int, error) {
	var desc bool
	switch strings.ToLower(order) {
	case "", "asc":
	case "desc":
		desc = true
	default:
		return nil, apperrors.Validation("unknown sort order %q", order)
	}

	var cmp func(a, b domain.StudentRow) int
	switch sort {
	case "":
		if desc {
			return nil, apperrors.Validation("order needs a sort key")
		}
		return nil, nil
	case SortName:
		cmp = func(a, b domain.StudentRow) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortStudentNumber:
		cmp = func(a, b domain.StudentRow) int { return strings.Compare(a.StudentNumber, b.StudentNumber) }
	case SortDepartment:
		cmp = func(a, b domain.StudentRow) int {
			return strings.Compare(strings.ToLower(a.Department), strings.ToLower(b.Department))
		}
	case SortBalance:
		cmp = func(a, b domain.StudentRow) int { return a.CardBalance.Cmp(b.CardBalance) }
	default:
		return nil, apperrors.Validation("unknown sort key %q", sort)
	}
	if desc {
		return func(a, b domain.StudentRow) int { return cmp(b, a) }, nil
	}
	return cmp, nil
}

// FindCardByNumber returns the holder of an active card. Unknown and inactive
// cards are both reported as not found.
func (s *Service) FindCardByNumber(ctx context.Context, cardNumber string) (domain.CardHolder, bool, error) {
	var (
		holder domain.CardHolder
		found  bool
	)
	err := s.store.View(func(r store.Reader) error {
		c, ok := r.CardByNumber(cardNumber)
		if !ok || !c.IsActive {
			return nil
		}
		st, ok := r.Student(c.StudentID)
		if !ok {
			return nil
		}
		holder = domain.CardHolder{Student: st, Name: domain.Unknown, CardID: c.ID, CardBalance: c.Balance}
		if u, ok := r.User(st.UserID); ok {
			holder.Name = u.Name
		}
		found = true
		return nil
	})
	return holder, found, err
}

// StudentCard returns the card of the student behind userID
func (s *Service) StudentCard(ctx context.Context, userID string) (domain.MealCard, bool, error) {
	var (
		card  domain.MealCard
		found bool
	)
	err := s.store.View(func(r store.Reader) error {
		st, ok := r.StudentByUser(userID)
		if !ok {
			return nil
		}
		card, found = r.CardByStudent(st.ID)
		return nil
	})
	return card, found, err
}

// ListMeals returns the available meals in menu order
func (s *Service) ListMeals(ctx context.Context) ([]domain.Meal, error) {
	var meals []domain.Meal
	err := s.store.View(func(r store.Reader) error {
		all := r.Meals()
		meals = make([]domain.Meal, 0, len(all))
		for _, m := range all {
			if m.IsAvailable {
				meals = append(meals, m)
			}
		}
		return nil
	})
	return meals, err
}
