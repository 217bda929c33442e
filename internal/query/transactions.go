package query

import (
	"canteen_system/internal/apperrors"
	"canteen_system/internal/domain"
	"canteen_system/internal/store"
	"context"
	"slices"
	"strings"
)

// Page size bounds of ListTransactions
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter selects transactions for ListTransactions. Empty fields match
// everything.
type Filter struct {
	Type     domain.TransactionType
	Status   domain.TransactionStatus
	Search   string // Case-insensitive match on student name, card number or description
	Page     int    // 1-based, values below 1 mean 1
	PageSize int    // Outside 1..MaxPageSize means DefaultPageSize
}

// TransactionPage is one page of ListTransactions
type TransactionPage struct {
	Items      []domain.TransactionRow `json:"items"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	Total      int                     `json:"total"`
	TotalPages int                     `json:"total_pages"`
}

// TransactionsByCard returns the history of a card, newest first. An unknown
// card has no history.
func (s *Service) TransactionsByCard(ctx context.Context, cardNumber string) ([]domain.TransactionRow, error) {
	var rows []domain.TransactionRow
	err := s.store.View(func(r store.Reader) error {
		c, ok := r.CardByNumber(cardNumber)
		if !ok {
			rows = []domain.TransactionRow{}
			return nil
		}
		rows = denormalize(r, newestFirst(r.CardTransactions(c.ID)))
		return nil
	})
	return rows, err
}

// TransactionsByUser returns the history of the card owned by userID, newest
// first
func (s *Service) TransactionsByUser(ctx context.Context, userID string) ([]domain.TransactionRow, error) {
	var rows []domain.TransactionRow
	err := s.store.View(func(r store.Reader) error {
		rows = []domain.TransactionRow{}
		st, ok := r.StudentByUser(userID)
		if !ok {
			return nil
		}
		c, ok := r.CardByStudent(st.ID)
		if !ok {
			return nil
		}
		rows = denormalize(r, newestFirst(r.CardTransactions(c.ID)))
		return nil
	})
	return rows, err
}

// PendingRecharges returns the recharge requests waiting for a manager,
// newest first
func (s *Service) PendingRecharges(ctx context.Context) ([]domain.TransactionRow, error) {
	var rows []domain.TransactionRow
	err := s.store.View(func(r store.Reader) error {
		var pending []domain.Transaction
		for _, t := range r.Transactions() {
			if t.Type == domain.TypeRecharge && t.Status == domain.StatusPending {
				pending = append(pending, t)
			}
		}
		rows = denormalize(r, newestFirst(pending))
		return nil
	})
	return rows, err
}

// ListTransactions filters every transaction and returns one page of the
// result, newest first
func (s *Service) ListTransactions(ctx context.Context, f Filter) (TransactionPage, error) {
	if f.Type != "" && f.Type != domain.TypeRecharge && f.Type != domain.TypeMealPurchase {
		return TransactionPage{}, apperrors.Validation("unknown transaction type %q", f.Type)
	}
	switch f.Status {
	case "", domain.StatusPending, domain.StatusApproved, domain.StatusCompleted, domain.StatusRejected:
	default:
		return TransactionPage{}, apperrors.Validation("unknown transaction status %q", f.Status)
	}
	page, size := normalizePage(f.Page, f.PageSize)
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var matched []domain.TransactionRow
	err := s.store.View(func(r store.Reader) error {
		for _, row := range denormalize(r, newestFirst(r.Transactions())) {
			if f.Type != "" && row.Type != f.Type {
				continue
			}
			if f.Status != "" && row.Status != f.Status {
				continue
			}
			if search != "" && !matches(row, search) {
				continue
			}
			matched = append(matched, row)
		}
		return nil
	})
	if err != nil {
		return TransactionPage{}, err
	}

	total := len(matched)
	out := TransactionPage{
		Items:      []domain.TransactionRow{},
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: totalPages(total, size),
	}
	if start, end, ok := pageBounds(total, page, size); ok {
		out.Items = matched[start:end]
	}
	return out, nil
}

// normalizePage clamps a 1-based page and a page size
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size
}

func totalPages(total, size int) int {
	return (total + size - 1) / size
}

// pageBounds returns the slice bounds of a page. Pages past the end are
// detected before any multiplication so huge page numbers cannot overflow.
func pageBounds(total, page, size int) (start, end int, ok bool) {
	if total == 0 || page-1 > (total-1)/size {
		return 0, 0, false
	}
	start = (page - 1) * size
	return start, min(start+size, total), true
}

func matches(row domain.TransactionRow, search string) bool {
	return strings.Contains(strings.ToLower(row.StudentName), search) ||
		strings.Contains(strings.ToLower(row.CardNumber), search) ||
		strings.Contains(strings.ToLower(row.Description), search)
}

// newestFirst orders by createdAt descending. Equal timestamps keep the most
// recently inserted transaction first.
func newestFirst(txs []domain.Transaction) []domain.Transaction {
	out := slices.Clone(txs)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b domain.Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func denormalize(r store.Reader, txs []domain.Transaction) []domain.TransactionRow {
	rows := make([]domain.TransactionRow, 0, len(txs))
	for _, t := range txs {
		row := domain.TransactionRow{Transaction: t, StudentName: domain.Unknown, CardNumber: domain.Unknown}
		if c, ok := r.Card(t.CardID); ok {
			row.CardNumber = c.CardNumber
			if st, ok := r.Student(c.StudentID); ok {
				if u, ok := r.User(st.UserID); ok {
					row.StudentName = u.Name
				}
			}
		}
		rows = append(rows, row)
	}
	return rows
}
