package handlers

import (
	"errors"
	"strconv"
	"strings"

	"storefront/internal/orders"
)

var errInvalidPagination = errors.New("invalid pagination params")

// parsePaginationParams defaults to page 1 and orders.DefaultPageLimit. The
// service caps the limit.
func parsePaginationParams(pageStr, limitStr string) (orders.Page, error) {
	page := orders.Page{Page: 1, Limit: orders.DefaultPageLimit}

	if pageStr = strings.TrimSpace(pageStr); pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return orders.Page{}, errInvalidPagination
		}
		page.Page = p
	}

	if limitStr = strings.TrimSpace(limitStr); limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return orders.Page{}, errInvalidPagination
		}
		page.Limit = l
	}

	if page.Page > orders.MaxPage(page.Limit) {
		return orders.Page{}, errInvalidPagination
	}

	return page, nil
}
