// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/blinklabs-io/potluck/database/models"
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/blinklabs-io/potluck/pot"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 100

	headerTotalCount = "X-Pagination-Count-Total"
	headerTotalPages = "X-Pagination-Page-Total"
)

var (
	ErrInvalidPage      = errors.New("invalid pagination parameters")
	ErrInvalidAuthority = errors.New("invalid authority")
	ErrInvalidStatus    = errors.New("invalid status")
)

// Page selects one page of a pot or contributor listing. Number starts at 1.
type Page struct {
	Size       int
	Number     int
	Descending bool
}

// ParsePage reads count, page and order from the query. Sizes are clamped
// to [1, MaxPageSize] and page numbers below 1 select the first page.
func ParsePage(query url.Values) (Page, error) {
	page := Page{Size: DefaultPageSize, Number: 1}
	var err error
	if page.Size, err = queryInt(query, "count", page.Size); err != nil {
		return Page{}, err
	}
	if page.Number, err = queryInt(query, "page", page.Number); err != nil {
		return Page{}, err
	}
	switch strings.ToLower(query.Get("order")) {
	case "", "asc":
	case "desc":
		page.Descending = true
	default:
		return Page{}, ErrInvalidPage
	}
	page.Size = min(max(page.Size, 1), MaxPageSize)
	page.Number = max(page.Number, 1)
	return page, nil
}

func queryInt(query url.Values, name string, def int) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrInvalidPage
	}
	return val, nil
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}

// PotFilter turns the page and the optional authority and status query
// parameters into an index query
func (p Page) PotFilter(query url.Values) (models.PotFilter, error) {
	filter := models.PotFilter{
		Offset:     p.offset(),
		Limit:      p.Size,
		Descending: p.Descending,
	}
	if raw := query.Get("authority"); raw != "" {
		authority, err := ledger.ParseAddress(raw)
		if err != nil {
			return models.PotFilter{}, errors.Join(ErrInvalidAuthority, err)
		}
		filter.Authority = authority.Bytes()
	}
	if raw := query.Get("status"); raw != "" {
		var released bool
		switch pot.Status(raw) {
		case pot.StatusActive:
		case pot.StatusReleased:
			released = true
		default:
			return models.PotFilter{}, ErrInvalidStatus
		}
		filter.Released = &released
	}
	return filter, nil
}

// writePageHeaders reports the listing size so clients can walk the pages
func writePageHeaders(w http.ResponseWriter, total int, p Page) {
	total = max(total, 0)
	pages := 0
	if total > 0 && p.Size > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	w.Header().Set(headerTotalCount, strconv.Itoa(total))
	w.Header().Set(headerTotalPages, strconv.Itoa(pages))
}

// pageOf slices an in-memory listing, such as a pot's contributors, which
// is already held in enrollment order
func pageOf[T any](items []T, p Page) []T {
	if p.Descending {
		items = slices.Clone(items)
		slices.Reverse(items)
	}
	start := p.offset()
	if start >= len(items) {
		return []T{}
	}
	return items[start:min(start+p.Size, len(items))]
}
