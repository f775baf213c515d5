package registrations

import (
	"fmt"
	"strings"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// StatusFilter narrows a listing by payment verification.
type StatusFilter string

const (
	StatusAny      StatusFilter = ""
	StatusVerified StatusFilter = "verified"
	StatusPending  StatusFilter = "pending"
)

// sortColumns maps the API's sortBy names to registrations columns.
var sortColumns = map[string]string{
	"id":                "id",
	"name":              "name",
	"email":             "email",
	"mobile":            "mobile",
	"collegeId":         "college_id",
	"graduationType":    "graduation_type",
	"totalAmount":       "total_amount",
	"registrationToken": "registration_token",
	"paymentVerified":   "payment_verified",
	"createdAt":         "created_at",
	"updatedAt":         "updated_at",
}

// ListParams are the dashboard listing options.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	Status    StatusFilter
	SortBy    string
	SortOrder string
}

// Normalize fills defaults and rejects unknown status, sort column or order.
func (p ListParams) Normalize() (ListParams, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	p.Search = strings.TrimSpace(p.Search)
	switch p.Status {
	case StatusAny, StatusVerified, StatusPending:
	default:
		return p, &ValidationError{Kind: KindInvalidField, Field: "status"}
	}
	if p.SortBy == "" {
		p.SortBy = "createdAt"
	}
	if _, ok := sortColumns[p.SortBy]; !ok {
		return p, &ValidationError{Kind: KindInvalidField, Field: "sortBy"}
	}
	p.SortOrder = strings.ToLower(p.SortOrder)
	if p.SortOrder == "" {
		p.SortOrder = "desc"
	}
	if p.SortOrder != "asc" && p.SortOrder != "desc" {
		return p, &ValidationError{Kind: KindInvalidField, Field: "sortOrder"}
	}
	return p, nil
}

// Offset is the number of rows skipped before the page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// listQuery is a WHERE clause with its positional args plus the ORDER BY for a listing.
type listQuery struct {
	where   string
	args    []any
	orderBy string
}

// buildListQuery turns normalized params into SQL fragments. Column names only come from sortColumns.
func buildListQuery(p ListParams) listQuery {
	var conds []string
	var args []any
	if p.Search != "" {
		args = append(args, "%"+escapeLike(p.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(name ILIKE $%[1]d OR email ILIKE $%[1]d OR mobile ILIKE $%[1]d OR COALESCE(college_id, '') ILIKE $%[1]d OR registration_token ILIKE $%[1]d)", n))
	}
	switch p.Status {
	case StatusVerified:
		conds = append(conds, "payment_verified = TRUE")
	case StatusPending:
		conds = append(conds, "payment_verified = FALSE")
	}
	q := listQuery{args: args}
	if len(conds) > 0 {
		q.where = " WHERE " + strings.Join(conds, " AND ")
	}
	q.orderBy = fmt.Sprintf(" ORDER BY %s %s, id %s", sortColumns[p.SortBy], strings.ToUpper(p.SortOrder), strings.ToUpper(p.SortOrder))
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
