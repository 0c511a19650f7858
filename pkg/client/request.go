package client

import (
	"fmt"
	"net/url"
	"strconv"
)

// DefaultPerPage is the page size used when a page is requested without one.
const DefaultPerPage = 15

// Repeated is a parameter sent as the same key once per value
// (tag=a&tag=b). Plain slices are sent indexed (tag[0]=a&tag[1]=b).
type Repeated []string

// Params are the query parameters of a request. Values are scalars
// (string, bool, integer, float), slices of scalars, or nil (omitted).
type Params map[string]any

// PaginationParams names the query parameters carrying pagination.
type PaginationParams struct {
	Page    string
	PerPage string
}

// DefaultPaginationParams returns the names "page" and "per_page".
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{
		Page:    "page",
		PerPage: "per_page",
	}
}

// Compile builds the request target for endpoint.
//
// When page > 0 the page and per-page parameters are added under the names
// in names (perPage defaults to DefaultPerPage), replacing caller values of
// the same name. The query string is appended only when there is at least
// one parameter; params is never modified.
//
// Example:
//
//	Compile("/users", Params{"role": "admin"}, 2, 0, DefaultPaginationParams())
//	// /users?page=2&per_page=15&role=admin
func Compile(endpoint string, params Params, page, perPage int, names PaginationParams) string {
	values := url.Values{}
	for key, value := range params {
		addValue(values, key, value)
	}

	if page > 0 {
		if perPage <= 0 {
			perPage = DefaultPerPage
		}
		values.Set(names.Page, strconv.Itoa(page))
		values.Set(names.PerPage, strconv.Itoa(perPage))
	}

	if len(values) == 0 {
		return endpoint
	}
	return endpoint + "?" + values.Encode()
}

func addValue(values url.Values, key string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case Repeated:
		for _, item := range v {
			values.Add(key, item)
		}
	case []string:
		for i, item := range v {
			values.Add(fmt.Sprintf("%s[%d]", key, i), item)
		}
	case []int:
		for i, item := range v {
			values.Add(fmt.Sprintf("%s[%d]", key, i), strconv.Itoa(item))
		}
	case []any:
		for i, item := range v {
			addValue(values, fmt.Sprintf("%s[%d]", key, i), item)
		}
	default:
		values.Set(key, formatScalar(v))
	}
}

func formatScalar(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		// form encoding, as the API's query parser expects
		if v {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
